package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/tool"
)

// ExpiryJob periodically persists the expired status of lapsed trials and
// paid periods, so admin reports and the stored status agree with Gate.
type ExpiryJob struct {
	svc       *Service
	scheduler gocron.Scheduler
	interval  time.Duration
	log       *zap.SugaredLogger
}

func NewExpiryJob(cfg *config.Config, svc *Service, log *zap.SugaredLogger) (*ExpiryJob, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	interval := cfg.Jobs.ExpiryInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ExpiryJob{svc: svc, scheduler: scheduler, interval: interval, log: log.Named("expiry_job")}, nil
}

// Run executes one sweep.
func (j *ExpiryJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()
	lg := j.log.With("run_id", tool.GenerateUUIDV7())
	moved, err := j.svc.ExpireLapsed(ctx)
	if err != nil {
		lg.Errorw("expiry sweep failed", "err", err)
		return
	}
	if moved > 0 {
		lg.Infow("expiry sweep completed", "expired", moved)
	}
}

func (j *ExpiryJob) Start() error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.Run, context.Background()),
		gocron.WithName("subscription-expiry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry job: %w", err)
	}
	j.scheduler.Start()
	j.log.Infow("expiry job scheduled", "interval", j.interval.String())
	return nil
}

func (j *ExpiryJob) Stop() error {
	return j.scheduler.Shutdown()
}

func registerExpiryJob(lc fx.Lifecycle, j *ExpiryJob) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return j.Start() },
		OnStop:  func(context.Context) error { return j.Stop() },
	})
}
