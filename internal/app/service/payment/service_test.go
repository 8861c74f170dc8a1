package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/types"
)

const secret = "test_secret"

type stubGateway struct {
	paygateway.Unavailable
	err      error
	orders   []paygateway.OrderRequest
	plans    []paygateway.PlanRequest
	subs     []paygateway.SubscriptionRequest
	payments map[string]*paygateway.Payment
	// opened holds the orders and subscriptions the gateway knows about.
	opened struct {
		orders        map[string]*paygateway.Order
		subscriptions map[string]*paygateway.Subscription
	}
	refunds []string
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, req paygateway.OrderRequest) (*paygateway.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, req)
	return &paygateway.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *stubGateway) FetchOrder(_ context.Context, id string) (*paygateway.Order, error) {
	if o, ok := g.opened.orders[id]; ok {
		return o, nil
	}
	return nil, errors.New("order not found")
}

func (g *stubGateway) FetchSubscription(_ context.Context, id string) (*paygateway.Subscription, error) {
	if sub, ok := g.opened.subscriptions[id]; ok {
		return sub, nil
	}
	return nil, errors.New("subscription not found")
}

func (g *stubGateway) CreatePlan(_ context.Context, req paygateway.PlanRequest) (*paygateway.Plan, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.plans = append(g.plans, req)
	return &paygateway.Plan{ID: "plan_1", Period: req.Period, Interval: req.Interval}, nil
}

func (g *stubGateway) CreateSubscription(_ context.Context, req paygateway.SubscriptionRequest) (*paygateway.Subscription, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.subs = append(g.subs, req)
	return &paygateway.Subscription{ID: "sub_1", PlanID: req.PlanID, Status: "created", ShortURL: "https://rzp.io/i/x"}, nil
}

func (g *stubGateway) FetchPayment(_ context.Context, id string) (*paygateway.Payment, error) {
	if p, ok := g.payments[id]; ok {
		return p, nil
	}
	return nil, errors.New("payment not found")
}

func (g *stubGateway) Refund(_ context.Context, paymentID string, _ int64, _ map[string]string) (*paygateway.Refund, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.refunds = append(g.refunds, paymentID)
	return &paygateway.Refund{ID: "rfnd_1", PaymentID: paymentID, Status: "processed"}, nil
}

type fixture struct {
	svc  *Service
	subs *subscription.Service
	mem  *store.MemoryStore
	gw   *stubGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.Razorpay.KeySecret = secret
	cfg.Subscription.TrialDays = 7
	log := zap.NewNop().Sugar()
	mem := store.NewMemory()
	gw := &stubGateway{payments: map[string]*paygateway.Payment{}}
	gw.opened.orders = map[string]*paygateway.Order{}
	gw.opened.subscriptions = map[string]*paygateway.Subscription{}
	subs := subscription.NewService(cfg, log, mem, gw, identity.Unavailable{})
	return &fixture{
		svc:  NewService(cfg, log, gw, subs, mem).(*Service),
		subs: subs,
		mem:  mem,
		gw:   gw,
	}
}

func (f *fixture) register(t *testing.T, id string, grade int) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@example.com", FirstName: "Asha", LastName: "Rao", Grade: grade, Role: types.RoleStudent}
	f.subs.InitTrial(context.Background(), u)
	require.NoError(t, f.mem.CreateUser(context.Background(), u))
	return u
}

// openOrder makes the gateway know an order opened by userID for plan.
func (f *fixture) openOrder(id, userID string, plan types.PlanID) {
	p, _ := subscription.PlanByID(plan)
	f.gw.opened.orders[id] = &paygateway.Order{
		ID:     id,
		Amount: p.Price,
		Notes:  map[string]string{"userId": userID, "planId": string(plan)},
	}
}

// openSubscription attaches subscription id to u and makes the gateway know it.
func (f *fixture) openSubscription(t *testing.T, u *models.User, id string, plan types.PlanID) {
	t.Helper()
	require.NoError(t, f.subs.AttachGatewaySubscription(context.Background(), u, id))
	f.gw.opened.subscriptions[id] = &paygateway.Subscription{
		ID:    id,
		Notes: map[string]string{"userId": u.ID, "planId": string(plan)},
	}
}

func TestPlans(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Plans()
	assert.Len(t, res.Plans, 3)
	assert.Equal(t, "7 days", res.TrialDuration)
	assert.Equal(t, "INR", res.Currency)
}

func TestCreateOrder_PricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "u1", 8)

	res, err := f.svc.CreateOrder(context.Background(), u, &CreateOrderRequest{PlanID: types.PlanQuarterly})
	require.NoError(t, err)
	assert.Equal(t, "order_1", res.OrderID)
	assert.EqualValues(t, 79900, res.Amount)
	assert.Equal(t, "rzp_test_key", res.Key)
	require.Len(t, f.gw.orders, 1)
	assert.LessOrEqual(t, len(f.gw.orders[0].Receipt), 40)
	assert.Equal(t, "u1", f.gw.orders[0].Notes["userId"])
}

func TestCreateOrder_Errors(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "u1", 8)

	_, err := f.svc.CreateOrder(context.Background(), u, &CreateOrderRequest{PlanID: "weekly"})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	f.gw.err = errors.New("bad key")
	_, err = f.svc.CreateOrder(context.Background(), u, &CreateOrderRequest{PlanID: types.PlanMonthly})
	require.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestCreateOrder_GatewayUnavailable(t *testing.T) {
	f := newFixture(t)
	f.svc.gateway = paygateway.Unavailable{}
	_, err := f.svc.CreateOrder(context.Background(), &models.User{ID: "u1"}, &CreateOrderRequest{PlanID: types.PlanMonthly})
	require.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestCreatePlan_MapsBillingPeriod(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreatePlan(context.Background(), &CreatePlanRequest{PlanID: types.PlanQuarterly})
	require.NoError(t, err)
	assert.Equal(t, "plan_1", res.GatewayPlanID)
	assert.Equal(t, "monthly", res.Period)
	assert.Equal(t, 3, res.Interval)

	res, err = f.svc.CreatePlan(context.Background(), &CreatePlanRequest{PlanID: types.PlanYearly})
	require.NoError(t, err)
	assert.Equal(t, "yearly", res.Period)
	assert.Equal(t, 1, res.Interval)
}

func TestCreateSubscription_StoresGatewayID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "u1", 8)

	res, err := f.svc.CreateSubscription(ctx, u, &CreateSubscriptionRequest{PlanID: types.PlanMonthly})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", res.SubscriptionID)
	assert.Equal(t, "plan_1", res.GatewayPlanID)
	require.Len(t, f.gw.subs, 1)
	assert.Equal(t, 12, f.gw.subs[0].TotalCount)

	stored, err := f.mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", lo.FromPtr(stored.GatewaySubscriptionID))
	assert.Equal(t, types.SubscriptionStatusTrial, stored.SubscriptionStatus)
}

func TestCreateSubscription_GatewayErrorStoresNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "u1", 8)
	f.gw.err = errors.New("gateway down")

	_, err := f.svc.CreateSubscription(ctx, u, &CreateSubscriptionRequest{PlanID: types.PlanMonthly, GatewayPlanID: "plan_x"})
	require.True(t, apperr.Is(err, apperr.KindUpstream))

	stored, err := f.mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored.GatewaySubscriptionID)
}

// register(grade 8) then verify a yearly payment with a valid signature.
func TestVerifyPayment_RegisterThenYearly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "u1", 8)
	now := time.Now()
	assert.WithinDuration(t, now.Add(7*24*time.Hour), *u.TrialEndDate, time.Minute)
	f.openOrder("order_1", "u1", types.PlanYearly)

	sig := paygateway.Sign(secret, []byte("order_1|pay_1"))
	res, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig, PlanID: types.PlanYearly})
	require.NoError(t, err)
	assert.Equal(t, "Payment verified successfully", res.Message)
	assert.Equal(t, "Yearly Plan", res.SubscriptionPlan)

	stored, err := f.mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusActive, stored.SubscriptionStatus)
	days := stored.SubscriptionEndDate.Sub(now).Hours() / 24
	assert.InDelta(t, 365, days, 1.1)

	payments, total, err := f.mem.ListPayments(ctx, store.PaymentQuery{UserID: "u1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, types.PaymentStatusCompleted, payments[0].Status)
	assert.EqualValues(t, 249900, payments[0].Amount)

	hist, err := f.mem.ListHistory(ctx, "u1")
	require.NoError(t, err)
	active := lo.Filter(hist, func(h *models.SubscriptionHistory, _ int) bool { return h.Status == types.SubscriptionStatusActive })
	assert.Len(t, active, 1)
}

func TestVerifyPayment_TamperedSignature(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "u1", 8)
	f.openOrder("order_1", "u1", types.PlanMonthly)
	f.openOrder("order_2", "u1", types.PlanMonthly)
	sig := paygateway.Sign(secret, []byte("order_1|pay_1"))

	for name, req := range map[string]*VerifyRequest{
		"order":     {OrderID: "order_2", PaymentID: "pay_1", Signature: sig},
		"payment":   {OrderID: "order_1", PaymentID: "pay_2", Signature: sig},
		"signature": {OrderID: "order_1", PaymentID: "pay_1", Signature: sig[:len(sig)-1] + "0"},
		"plan":      {OrderID: "order_1", PaymentID: "pay_1", Signature: sig, PlanID: types.PlanYearly},
	} {
		_, err := f.svc.VerifyPayment(ctx, u, req)
		require.True(t, apperr.Is(err, apperr.KindValidation), name)
	}

	stored, err := f.mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusTrial, stored.SubscriptionStatus)
	_, total, err := f.mem.ListPayments(ctx, store.PaymentQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestVerifyPayment_OrderMustMatchCheckout(t *testing.T) {
	ctx := context.Background()
	sig := paygateway.Sign(secret, []byte("order_1|pay_1"))

	t.Run("order of another user", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "u1", 8)
		f.openOrder("order_1", "u2", types.PlanMonthly)
		_, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig})
		require.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("amount differs from plan", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "u1", 8)
		f.openOrder("order_1", "u1", types.PlanYearly)
		f.gw.opened.orders["order_1"].Amount = 29900
		_, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig})
		require.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("order unknown to gateway", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "u1", 8)
		_, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig})
		require.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.Equal(t, types.SubscriptionStatusTrial, u.SubscriptionStatus)
	})
}

func TestVerifyPayment_ReplayKeepsOriginalPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "u1", 8)
	f.openOrder("order_1", "u1", types.PlanMonthly)
	sig := paygateway.Sign(secret, []byte("order_1|pay_1"))

	first, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, "Monthly Plan", first.SubscriptionPlan)
	end := *first.SubscriptionEndDate

	again, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, "Monthly Plan", again.SubscriptionPlan)

	_, err = f.svc.VerifyPayment(ctx, u, &VerifyRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: sig, PlanID: types.PlanYearly})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	stored, err := f.mem.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.PlanMonthly, *stored.SubscriptionPlan)
	assert.True(t, end.Equal(*stored.SubscriptionEndDate))
	_, total, err := f.mem.ListPayments(ctx, store.PaymentQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestVerifyPayment_SubscriptionMode(t *testing.T) {
	ctx := context.Background()

	t.Run("valid signature", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "u1", 8)
		f.openSubscription(t, u, "sub_1", types.PlanQuarterly)
		sig := paygateway.Sign(secret, []byte("pay_1|sub_1"))
		res, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: sig})
		require.NoError(t, err)
		assert.Equal(t, "sub_1", lo.FromPtr(u.GatewaySubscriptionID))
		assert.Equal(t, types.PlanQuarterly, *u.SubscriptionPlan)
		assert.Equal(t, "Quarterly Plan", res.SubscriptionPlan)
	})

	t.Run("captured fallback", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "u1", 8)
		f.openSubscription(t, u, "sub_1", types.PlanMonthly)
		f.gw.payments["pay_1"] = &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_1", Amount: 29900, Status: "captured", Method: "upi"}
		_, err := f.svc.VerifyPayment(ctx, u, &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: "bogus"})
		require.NoError(t, err)
		p, err := f.mem.FindPaymentByGatewayPaymentID(ctx, "pay_1")
		require.NoError(t, err)
		assert.Equal(t, "upi", p.PaymentMethod)
	})

	rejected := map[string]struct {
		stored  string
		payment *paygateway.Payment
		req     *VerifyRequest
	}{
		"not captured": {
			stored:  "sub_1",
			payment: &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_1", Amount: 29900, Status: "authorized"},
			req:     &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: "bogus"},
		},
		"payment of another subscription": {
			stored:  "sub_1",
			payment: &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_someone_else", Amount: 29900, Status: "captured"},
			req:     &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: "x"},
		},
		"amount below plan price": {
			stored:  "sub_1",
			payment: &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_1", Amount: 100, Status: "captured"},
			req:     &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: "x"},
		},
		"subscription not the user's": {
			stored:  "sub_mine",
			payment: &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_other", Amount: 29900, Status: "captured"},
			req:     &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_other", Signature: "x"},
		},
		"plan differs from subscription": {
			stored:  "sub_1",
			payment: &paygateway.Payment{ID: "pay_1", SubscriptionID: "sub_1", Amount: 29900, Status: "captured"},
			req:     &VerifyRequest{PaymentID: "pay_1", SubscriptionID: "sub_1", Signature: "x", PlanID: types.PlanYearly},
		},
	}
	for name, tc := range rejected {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			u := f.register(t, "u1", 8)
			f.openSubscription(t, u, tc.stored, types.PlanMonthly)
			f.gw.opened.subscriptions["sub_other"] = &paygateway.Subscription{
				ID:    "sub_other",
				Notes: map[string]string{"userId": "u1", "planId": "yearly"},
			}
			f.gw.payments[tc.payment.ID] = tc.payment
			_, err := f.svc.VerifyPayment(ctx, u, tc.req)
			require.True(t, apperr.Is(err, apperr.KindValidation))

			stored, err := f.mem.GetUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, types.SubscriptionStatusTrial, stored.SubscriptionStatus)
			assert.Nil(t, stored.SubscriptionPlan)
		})
	}
}
