// Command seed loads the starter catalog and imports identity accounts that
// have no stored profile yet. Both steps can be re-run safely.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/app/service/seed"
	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/platform/db"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logger"
)

var (
	flagCatalog bool
	flagUsers   bool
	flagTimeout time.Duration
)

func init() {
	flag.BoolVar(&flagCatalog, "catalog", false, "create the sample subjects, units, chapters and videos")
	flag.BoolVar(&flagUsers, "users", false, "import identity accounts that have no stored profile")
	flag.DurationVar(&flagTimeout, "timeout", 10*time.Minute, "overall time limit for the run")
}

func main() {
	flag.Parse()
	if !flagCatalog && !flagUsers {
		flag.Usage()
		os.Exit(2)
	}

	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	var (
		svc *seed.Service
		log *zap.SugaredLogger
	)
	a := fx.New(
		logger.Module,
		config.Module,
		db.Module,
		identity.Module,
		paygateway.Module,
		fx.Provide(subscription.NewService),
		catalog.Module,
		seed.Module,
		fx.Populate(&svc, &log),
	)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to start seed: %v", err)
		exitCode = 1
		return
	}

	if err := run(svc, log); err != nil {
		log.Errorw("seed failed", "err", err)
		exitCode = 1
	}

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		log.Errorw("failed to stop seed", "err", err)
		exitCode = 1
	}
}

func run(svc *seed.Service, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	if flagCatalog {
		rep, err := svc.Catalog(ctx)
		if err != nil {
			return err
		}
		log.Infow("catalog seeded", "created", rep.Created, "skipped", rep.Skipped)
	}
	if flagUsers {
		rep, err := svc.Users(ctx)
		if err != nil {
			return err
		}
		log.Infow("users imported", "created", rep.Created, "skipped", rep.Skipped, "failed", rep.Failed)
	}
	return nil
}
