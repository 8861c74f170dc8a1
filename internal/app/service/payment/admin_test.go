package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

func (f *fixture) seedPayment(t *testing.T, id, userID string, status types.PaymentStatus, gatewayID string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		ID:               id,
		UserID:           userID,
		GatewayPaymentID: lo.EmptyableToPtr(gatewayID),
		PlanID:           types.PlanMonthly,
		Amount:           29900,
		Currency:         "INR",
		Status:           status,
		PaymentMethod:    "card",
	}
	require.NoError(t, f.mem.CreatePayment(context.Background(), p))
	return p
}

func TestListPayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "u1", 8)
	for i, st := range []types.PaymentStatus{types.PaymentStatusCompleted, types.PaymentStatusPending, types.PaymentStatusCompleted} {
		f.seedPayment(t, string(rune('a'+i)), "u1", st, "")
	}
	f.seedPayment(t, "orphan", "ghost", types.PaymentStatusFailed, "pay_ghost")

	res, err := f.svc.ListPayments(ctx, &ListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Payments, 2)
	assert.EqualValues(t, 4, res.Pagination.TotalCount)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.Equal(t, "orphan", res.Payments[0].ID, "newest first")
	assert.Equal(t, "Unknown User", res.Payments[0].UserName)

	res, err = f.svc.ListPayments(ctx, &ListRequest{Status: "completed"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Pagination.TotalCount)
	assert.Equal(t, 20, res.Pagination.PerPage)

	res, err = f.svc.ListPayments(ctx, &ListRequest{Search: "asha"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Pagination.TotalCount)
	assert.Equal(t, "Asha Rao", res.Payments[0].UserName)
	assert.Equal(t, "Monthly Plan", res.Payments[0].PlanName)

	res, err = f.svc.ListPayments(ctx, &ListRequest{Search: "PAY_GHOST"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Pagination.TotalCount)
}

func TestRangeStart(t *testing.T) {
	now := time.Date(2024, 8, 15, 13, 30, 0, 0, time.UTC)
	cases := map[string]*time.Time{
		"today":   lo.ToPtr(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)),
		"week":    lo.ToPtr(time.Date(2024, 8, 8, 13, 30, 0, 0, time.UTC)),
		"month":   lo.ToPtr(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)),
		"quarter": lo.ToPtr(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		"all":     nil,
		"":        nil,
	}
	for r, want := range cases {
		got := rangeStart(r, now)
		if want == nil {
			assert.Nil(t, got, r)
			continue
		}
		require.NotNil(t, got, r)
		assert.True(t, want.Equal(*got), r)
	}
}

func TestGetPayment(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", 8)
	f.seedPayment(t, "p1", "u1", types.PaymentStatusCompleted, "pay_1")

	v, err := f.svc.GetPayment(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", v.UserEmail)

	_, err = f.svc.GetPayment(context.Background(), "missing")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPayment(t, "p1", "u1", types.PaymentStatusPending, "")

	require.True(t, apperr.Is(f.svc.UpdateStatus(ctx, "p1", "captured"), apperr.KindValidation))
	require.True(t, apperr.Is(f.svc.UpdateStatus(ctx, "nope", types.PaymentStatusFailed), apperr.KindNotFound))

	require.NoError(t, f.svc.UpdateStatus(ctx, "p1", types.PaymentStatusCompleted))
	require.NoError(t, f.svc.UpdateStatus(ctx, "p1", types.PaymentStatusRefunded))
	err := f.svc.UpdateStatus(ctx, "p1", types.PaymentStatusCompleted)
	require.True(t, apperr.Is(err, apperr.KindValidation))

	p, err := f.mem.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusRefunded, p.Status)
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("gateway refund", func(t *testing.T) {
		f := newFixture(t)
		f.seedPayment(t, "p1", "u1", types.PaymentStatusCompleted, "pay_1")
		p, err := f.svc.Refund(ctx, "p1", "")
		require.NoError(t, err)
		assert.Equal(t, types.PaymentStatusRefunded, p.Status)
		assert.Equal(t, "Admin refund", p.RefundReason)
		assert.Equal(t, "rfnd_1", p.RefundID)
		assert.Equal(t, []string{"pay_1"}, f.gw.refunds)

		_, err = f.svc.Refund(ctx, "p1", "again")
		require.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("gateway failure keeps payment", func(t *testing.T) {
		f := newFixture(t)
		f.seedPayment(t, "p1", "u1", types.PaymentStatusCompleted, "pay_1")
		f.gw.err = errors.New("refund window closed")
		_, err := f.svc.Refund(ctx, "p1", "duplicate charge")
		require.True(t, apperr.Is(err, apperr.KindUpstream))
		p, err := f.mem.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, types.PaymentStatusCompleted, p.Status)
	})

	t.Run("local only without gateway id", func(t *testing.T) {
		f := newFixture(t)
		f.seedPayment(t, "p1", "u1", types.PaymentStatusCompleted, "")
		p, err := f.svc.Refund(ctx, "p1", "goodwill")
		require.NoError(t, err)
		assert.Equal(t, "goodwill", p.RefundReason)
		assert.Empty(t, f.gw.refunds)
	})
}
