package db

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	cfgpkg "github.com/brainac/backend/pkg/config"
	gormzap "github.com/brainac/backend/pkg/gormlog"
)

// NewDB opens the Postgres pool. An empty DSN yields a nil *gorm.DB and the
// service falls back to the in-memory store.
func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Warnw("database DSN is empty, using in-memory store")
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{Logger: gormzap.New(l, !cfg.IsProd())})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to postgres via DSN")
	return db, nil
}

// NewStore picks the repository implementation for the configured backend.
func NewStore(l *zap.SugaredLogger, gdb *gorm.DB) store.Store {
	if gdb == nil {
		l.Infow("store backend", "kind", "memory")
		return store.NewMemory()
	}
	l.Infow("store backend", "kind", "postgres")
	return store.NewGorm(gdb)
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Provide(NewStore),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// AutoMigrate creates or updates the tables on startup when enabled.
func AutoMigrate(l *zap.SugaredLogger, cfg *cfgpkg.Config, db *gorm.DB) error {
	if db == nil || !cfg.Database.AutoMigrate {
		return nil
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.SubscriptionHistory{},
		&models.Subject{},
		&models.Unit{},
		&models.Chapter{},
		&models.Video{},
		&models.WebhookLog{},
	); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
}
