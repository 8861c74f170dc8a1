package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/types"
)

// listedIdentity serves a fixed account list.
type listedIdentity struct {
	identity.Unavailable
	profiles []*identity.Profile
}

func (l *listedIdentity) ListUsers(_ context.Context, fn func(*identity.Profile) error) error {
	for _, p := range l.profiles {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func newTestService(ident identity.Provider) (*Service, *store.MemoryStore) {
	cfg := &config.Config{}
	cfg.Subscription.TrialDays = 7
	log := zap.NewNop().Sugar()
	mem := store.NewMemory()
	subs := subscription.NewService(cfg, log, mem, paygateway.Unavailable{}, ident)
	return NewService(log, mem, ident, catalog.NewService(log, mem), subs), mem
}

func TestCatalog_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(identity.Unavailable{})

	rep, err := s.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: len(sampleCatalog)}, rep)

	grade6, err := mem.ListSubjects(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, grade6, 3)

	videos, err := mem.CountVideos(ctx, store.VideoQuery{Grade: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 18, videos)

	rep, err = s.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Report{Skipped: len(sampleCatalog)}, rep)
	videos, err = mem.CountVideos(ctx, store.VideoQuery{Grade: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 18, videos, "rerun adds nothing")
}

func TestUsers_ImportsAccountsWithoutProfile(t *testing.T) {
	ctx := context.Background()
	ident := &listedIdentity{profiles: []*identity.Profile{
		{UID: "u1", Email: "kept@example.com", DisplayName: "Kept User"},
		{UID: "u2", Email: "ravi@example.com", DisplayName: "Ravi Shah", CustomClaims: map[string]any{
			"class":                 float64(9),
			"subscriptionStatus":    "active",
			"subscriptionPlan":      "yearly",
			"subscriptionStartDate": "2024-01-01T00:00:00Z",
			"subscriptionEndDate":   "2025-01-01T00:00:00Z",
		}},
		{UID: "u3", Email: "new@example.com", DisplayName: "New Learner"},
	}}
	s, mem := newTestService(ident)
	require.NoError(t, mem.CreateUser(ctx, &models.User{ID: "u1", Grade: 7}))

	rep, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 2, Skipped: 1}, rep)

	kept, err := mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, kept.Grade, "stored profile untouched")

	ravi, err := mem.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 9, ravi.Grade)
	assert.Equal(t, "Ravi", ravi.FirstName)
	assert.Equal(t, types.SubscriptionStatusActive, ravi.SubscriptionStatus)
	require.NotNil(t, ravi.SubscriptionEndDate)
	assert.Equal(t, 2025, ravi.SubscriptionEndDate.Year())
	hist, err := mem.ListHistory(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, types.PlanYearly, hist[0].PlanID)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(hist[0].StartDate))

	learner, err := mem.GetUser(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusTrial, learner.SubscriptionStatus)
	assert.Equal(t, 6, learner.Grade)
	assert.NotNil(t, learner.TrialEndDate)
	assert.True(t, learner.Preferences.Data().Notifications)

	rep, err = s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Report{Skipped: 3}, rep)
}

func TestUsers_ProviderUnavailable(t *testing.T) {
	s, _ := newTestService(identity.Unavailable{})
	_, err := s.Users(context.Background())
	require.ErrorIs(t, err, identity.ErrUnavailable)
}
