package notification_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/tool"
)

type Service struct {
	repo store.WebhookLogStore
	log  *zap.SugaredLogger
	wg   sync.WaitGroup
}

func New(repo store.Store, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log}
}

// Save asynchronously persists a webhook delivery log. Nil input is ignored.
// The write outlives the request, so it runs detached from ctx cancellation.
func (s *Service) Save(ctx context.Context, l *models.WebhookLog) {
	if l == nil {
		return
	}
	if l.ID == "" {
		l.ID = tool.GenerateUUIDV7()
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.SaveWebhookLog(ctx, l); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook log: %v", err)
		}
	}()
}

// Wait blocks until every pending Save has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Service) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			s.Wait()
			return nil
		}})
	}),
)
