package store

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

func TestMemoryStore_GetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := &models.User{ID: "u1", Email: "a@b.c", Grade: 6}
	require.NoError(t, s.CreateUser(ctx, u))
	require.False(t, u.CreatedAt.IsZero(), "timestamps are filled on create")

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	got.Grade = 9

	again, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 6, again.Grade)

	_, err = s.GetUser(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CatalogOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.CreateUnit(ctx, &models.Unit{ID: "b", SubjectID: "s", Order: 2}))
	require.NoError(t, s.CreateUnit(ctx, &models.Unit{ID: "c", SubjectID: "s"}))
	require.NoError(t, s.CreateUnit(ctx, &models.Unit{ID: "a", SubjectID: "s", Order: 1}))
	require.NoError(t, s.CreateUnit(ctx, &models.Unit{ID: "d", SubjectID: "s"}))
	require.NoError(t, s.CreateUnit(ctx, &models.Unit{ID: "x", SubjectID: "other"}))

	units, err := s.ListUnits(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d", "a", "b"}, lo.Map(units, func(u *models.Unit, _ int) string { return u.ID }))
}

func TestMemoryStore_ListLapsed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "trial-over", SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: &past}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "trial-on", SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: &future}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "active-over", SubscriptionStatus: types.SubscriptionStatusActive, SubscriptionEndDate: &now}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "paused", SubscriptionStatus: types.SubscriptionStatusPaused, SubscriptionEndDate: &past}))

	users, err := s.ListLapsed(ctx, now)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"trial-over", "active-over"}, lo.Map(users, func(u *models.User, _ int) string { return u.ID }))
}

func TestMemoryStore_PaymentsQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	pid := "pay_1"
	require.NoError(t, s.CreatePayment(ctx, &models.Payment{ID: "1", UserID: "u1", Amount: 29900, Status: types.PaymentStatusCompleted, GatewayPaymentID: &pid}))
	require.NoError(t, s.CreatePayment(ctx, &models.Payment{ID: "2", UserID: "u1", Amount: 79900, Status: types.PaymentStatusPending}))
	require.NoError(t, s.CreatePayment(ctx, &models.Payment{ID: "3", UserID: "u2", Amount: 249900, Status: types.PaymentStatusCaptured}))

	items, total, err := s.ListPayments(ctx, PaymentQuery{UserID: "u1", Page: Page{Size: 1}})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	require.Equal(t, "2", items[0].ID, "newest first")

	sum, err := s.SumPayments(ctx, PaymentQuery{Statuses: []types.PaymentStatus{types.PaymentStatusCompleted, types.PaymentStatusCaptured}})
	require.NoError(t, err)
	require.EqualValues(t, 29900+249900, sum)

	p, err := s.FindPaymentByGatewayPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	require.Equal(t, "1", p.ID)
}

func TestMemoryStore_UserSearch(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "1", Email: "asha@example.com", FirstName: "Asha", Grade: 6}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "2", Email: "ravi@example.com", FirstName: "Ravi", Grade: 7}))

	items, total, err := s.ListUsers(ctx, UserQuery{Search: "ASHA"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "1", items[0].ID)

	n, err := s.CountUsers(ctx, UserQuery{Grade: 7})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.CreateSubject(ctx, &models.Subject{ID: "s1", Name: "Maths", Grade: 6}))
	require.NoError(t, s.DeleteSubject(ctx, "s1"))
	require.ErrorIs(t, s.DeleteSubject(ctx, "s1"), ErrNotFound)
	subjects, err := s.ListSubjects(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, subjects)
}
