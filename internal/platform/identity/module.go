package identity

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/config"
)

// NewProvider returns the Firebase provider, or Unavailable when credentials
// are missing or the SDK cannot be initialised.
func NewProvider(cfg *config.Config, log *zap.SugaredLogger) Provider {
	if !cfg.Firebase.Enabled() {
		log.Warnw("firebase credentials not configured, identity features disabled")
		return Unavailable{}
	}
	p, err := NewFirebase(context.Background(), cfg.Firebase, log)
	if err != nil {
		log.Errorw("firebase init failed, identity features disabled", "err", err)
		return Unavailable{}
	}
	log.Infow("firebase identity provider ready", "project_id", cfg.Firebase.ProjectID)
	return p
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)
