package paygateway

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/config"
)

func NewGateway(cfg *config.Config, log *zap.SugaredLogger) Gateway {
	if !cfg.Razorpay.Enabled() {
		log.Warnw("razorpay keys not configured, payment features disabled")
		return Unavailable{}
	}
	return NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, log)
}

var Module = fx.Options(
	fx.Provide(NewGateway),
)
