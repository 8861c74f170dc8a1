package notification_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
)

func TestSave_PersistsAsync(t *testing.T) {
	mem := store.NewMemory()
	svc := New(mem, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	l := &models.WebhookLog{ProviderID: "razorpay", Event: "subscription.charged", Status: models.WebhookLogStatusReceived}
	svc.Save(ctx, l)
	cancel()
	svc.Save(ctx, nil)
	svc.Wait()

	logs := mem.WebhookLogs()
	require.Len(t, logs, 1)
	assert.NotEmpty(t, logs[0].ID)
	assert.Equal(t, "subscription.charged", logs[0].Event)
}
