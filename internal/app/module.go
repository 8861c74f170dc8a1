package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/brainac/backend/internal/app/api/server"
	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/internal/app/service/catalog"
	notificationhandler "github.com/brainac/backend/internal/app/service/notification_handler"
	notificationlog "github.com/brainac/backend/internal/app/service/notification_log"
	"github.com/brainac/backend/internal/app/service/payment"
	"github.com/brainac/backend/internal/app/service/statistics"
	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/app/service/token"
	"github.com/brainac/backend/internal/platform/db"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	identity.Module,
	paygateway.Module,
	server.Module,
	token.Module,
	subscription.Module,
	payment.Module,
	account.Module,
	catalog.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
)
