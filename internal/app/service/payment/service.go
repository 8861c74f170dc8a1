package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/metrics"
	"github.com/brainac/backend/pkg/tool"
	"github.com/brainac/backend/pkg/types"
)

// Repository is the slice of the store payments need.
type Repository interface {
	store.UserStore
	store.PaymentStore
}

type Service struct {
	secret  string
	log     *zap.SugaredLogger
	gateway paygateway.Gateway
	subs    *subscription.Service
	repo    Repository
}

var _ Manager = (*Service)(nil)

func NewService(cfg *config.Config, log *zap.SugaredLogger, gateway paygateway.Gateway, subs *subscription.Service, repo store.Store) Manager {
	return &Service{
		secret:  cfg.Razorpay.KeySecret,
		log:     log.Named("payment"),
		gateway: gateway,
		subs:    subs,
		repo:    repo,
	}
}

func (s *Service) Plans() *PlansResponse {
	days := int(s.subs.TrialDuration() / (24 * time.Hour))
	return &PlansResponse{
		Plans:         subscription.Plans(),
		TrialDuration: fmt.Sprintf("%d days", days),
		Currency:      s.subs.Currency(),
	}
}

func notes(u *models.User, plan *subscription.Plan) map[string]string {
	n := map[string]string{"planId": string(plan.ID)}
	if u != nil {
		n["userId"] = u.ID
	}
	return n
}

func lookupPlan(id types.PlanID) (*subscription.Plan, error) {
	plan, ok := subscription.PlanByID(id)
	if !ok {
		return nil, apperr.Validation("Invalid plan selected")
	}
	return plan, nil
}

// CreateOrder opens a one-time gateway order priced from the plan catalog.
func (s *Service) CreateOrder(ctx context.Context, u *models.User, req *CreateOrderRequest) (*OrderResponse, error) {
	plan, err := lookupPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	order, err := s.gateway.CreateOrder(ctx, paygateway.OrderRequest{
		Amount:   plan.Price,
		Currency: s.subs.Currency(),
		Receipt:  tool.GenerateReceipt("rcpt"),
		Notes:    notes(u, plan),
	})
	metrics.ObserveProcess("gateway", "create_order", start, err)
	if err != nil {
		return nil, paygateway.Classify(err, "Failed to create payment order")
	}
	logctx.FromCtx(ctx, s.log).Infow("order created", "order_id", order.ID, "plan", plan.ID, "amount", order.Amount)
	return &OrderResponse{OrderID: order.ID, Amount: order.Amount, Currency: order.Currency, Key: s.gateway.KeyID()}, nil
}

func (s *Service) createGatewayPlan(ctx context.Context, plan *subscription.Plan) (*paygateway.Plan, error) {
	period, interval := plan.BillingPeriod()
	start := time.Now()
	gp, err := s.gateway.CreatePlan(ctx, paygateway.PlanRequest{
		Period:      period,
		Interval:    interval,
		Name:        plan.Name,
		Description: plan.Duration,
		Amount:      plan.Price,
		Currency:    s.subs.Currency(),
		Notes:       notes(nil, plan),
	})
	metrics.ObserveProcess("gateway", "create_plan", start, err)
	if err != nil {
		return nil, paygateway.Classify(err, "Failed to create subscription plan")
	}
	return gp, nil
}

func (s *Service) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*PlanResponse, error) {
	plan, err := lookupPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	gp, err := s.createGatewayPlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &PlanResponse{GatewayPlanID: gp.ID, PlanID: plan.ID, Period: gp.Period, Interval: gp.Interval}, nil
}

// CreateSubscription opens a recurring gateway subscription and remembers its
// id on the user. Nothing is stored when the gateway rejects the call.
func (s *Service) CreateSubscription(ctx context.Context, u *models.User, req *CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	plan, err := lookupPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	if u.Synthetic {
		return nil, apperr.Validation("Administrator accounts have no subscription")
	}
	gatewayPlanID := req.GatewayPlanID
	if gatewayPlanID == "" {
		gp, err := s.createGatewayPlan(ctx, plan)
		if err != nil {
			return nil, err
		}
		gatewayPlanID = gp.ID
	}
	total := req.TotalCount
	if total <= 0 {
		// one year of billing cycles
		total = 12 / plan.ID.Months()
	}

	start := time.Now()
	sub, err := s.gateway.CreateSubscription(ctx, paygateway.SubscriptionRequest{
		PlanID:         gatewayPlanID,
		TotalCount:     total,
		CustomerNotify: true,
		Notes:          notes(u, plan),
	})
	metrics.ObserveProcess("gateway", "create_subscription", start, err)
	if err != nil {
		return nil, paygateway.Classify(err, "Failed to create subscription")
	}
	if err := s.subs.AttachGatewaySubscription(ctx, u, sub.ID); err != nil {
		return nil, err
	}
	return &SubscriptionResponse{
		SubscriptionID: sub.ID,
		GatewayPlanID:  gatewayPlanID,
		Status:         sub.Status,
		ShortURL:       sub.ShortURL,
		Key:            s.gateway.KeyID(),
	}, nil
}

var errVerificationFailed = apperr.Validation("Payment verification failed")

// VerifyPayment checks the checkout callback and activates the plan the
// order or subscription was opened for. The plan, owner and amount come from
// the gateway entity, never from the request. In subscription mode a signature
// mismatch falls back to asking the gateway whether this subscription's
// payment was captured.
func (s *Service) VerifyPayment(ctx context.Context, u *models.User, req *VerifyRequest) (*VerifyResponse, error) {
	lg := logctx.FromCtx(ctx, s.log)
	var (
		plan   *subscription.Plan
		method string
		err    error
	)
	if req.SubscriptionID == "" {
		plan, err = s.verifyOrder(ctx, u, req)
	} else {
		plan, method, err = s.verifySubscription(ctx, u, req)
	}
	if err != nil {
		return nil, err
	}

	act, err := s.subs.Activate(ctx, u, subscription.ActivateRequest{
		Plan:                  plan.ID,
		GatewayOrderID:        req.OrderID,
		GatewayPaymentID:      req.PaymentID,
		GatewaySubscriptionID: req.SubscriptionID,
		Signature:             req.Signature,
		Method:                method,
		Trigger:               subscription.TriggerVerifyPayment,
	})
	if err != nil {
		return nil, err
	}
	if act.Replayed {
		lg.Infow("payment already verified", "payment_id", req.PaymentID, "record_id", act.Payment.ID)
	} else {
		lg.Infow("payment verified", "payment_id", req.PaymentID, "plan", plan.ID, "record_id", act.Payment.ID)
	}
	if p, ok := subscription.PlanByID(lo.FromPtr(u.SubscriptionPlan)); ok {
		plan = p
	}
	return &VerifyResponse{
		Message:             "Payment verified successfully",
		SubscriptionStatus:  u.SubscriptionStatus,
		SubscriptionPlan:    plan.Name,
		SubscriptionEndDate: u.SubscriptionEndDate,
		PaymentID:           req.PaymentID,
	}, nil
}

func (s *Service) verifyOrder(ctx context.Context, u *models.User, req *VerifyRequest) (*subscription.Plan, error) {
	lg := logctx.FromCtx(ctx, s.log)
	if req.OrderID == "" || !paygateway.VerifyOrderSignature(s.secret, req.OrderID, req.PaymentID, req.Signature) {
		lg.Warnw("order signature mismatch", "order_id", req.OrderID, "payment_id", req.PaymentID)
		return nil, errVerificationFailed
	}
	start := time.Now()
	order, err := s.gateway.FetchOrder(ctx, req.OrderID)
	metrics.ObserveProcess("gateway", "fetch_order", start, err)
	if err != nil {
		return nil, paygateway.Classify(err, "Failed to verify payment")
	}
	plan, err := boundPlan(u, order.Notes, req.PlanID)
	if err != nil {
		lg.Warnw("order does not match checkout", "order_id", req.OrderID, "err", err)
		return nil, errVerificationFailed
	}
	if order.Amount != plan.Price {
		lg.Warnw("order amount does not match plan", "order_id", req.OrderID, "amount", order.Amount, "plan", plan.ID)
		return nil, errVerificationFailed
	}
	return plan, nil
}

func (s *Service) verifySubscription(ctx context.Context, u *models.User, req *VerifyRequest) (*subscription.Plan, string, error) {
	lg := logctx.FromCtx(ctx, s.log).With("payment_id", req.PaymentID, "subscription_id", req.SubscriptionID)
	if lo.FromPtr(u.GatewaySubscriptionID) != req.SubscriptionID {
		lg.Warnw("subscription is not the user's", "stored_subscription_id", lo.FromPtr(u.GatewaySubscriptionID))
		return nil, "", errVerificationFailed
	}
	start := time.Now()
	sub, err := s.gateway.FetchSubscription(ctx, req.SubscriptionID)
	metrics.ObserveProcess("gateway", "fetch_subscription", start, err)
	if err != nil {
		return nil, "", paygateway.Classify(err, "Failed to verify payment")
	}
	plan, err := boundPlan(u, sub.Notes, req.PlanID)
	if err != nil {
		lg.Warnw("subscription does not match checkout", "err", err)
		return nil, "", errVerificationFailed
	}
	if paygateway.VerifySubscriptionSignature(s.secret, req.PaymentID, req.SubscriptionID, req.Signature) {
		return plan, "", nil
	}

	start = time.Now()
	p, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	metrics.ObserveProcess("gateway", "fetch_payment", start, err)
	switch {
	case err != nil || !p.Captured():
		lg.Warnw("subscription signature mismatch", "err", err)
		return nil, "", errVerificationFailed
	case p.SubscriptionID != req.SubscriptionID || p.Amount != plan.Price:
		lg.Warnw("captured payment does not match checkout", "payment_subscription_id", p.SubscriptionID, "amount", p.Amount, "plan", plan.ID)
		return nil, "", errVerificationFailed
	}
	lg.Infow("signature mismatch accepted, payment captured at gateway")
	return plan, p.Method, nil
}

// boundPlan resolves the plan a gateway entity was opened for from the notes
// written at checkout. The entity must belong to u, and a plan named by the
// client must agree with it.
func boundPlan(u *models.User, notes map[string]string, requested types.PlanID) (*subscription.Plan, error) {
	if owner := notes["userId"]; owner != u.ID {
		return nil, fmt.Errorf("entity belongs to %q", owner)
	}
	plan, ok := subscription.PlanByID(types.PlanID(notes["planId"]))
	if !ok {
		return nil, fmt.Errorf("entity names unknown plan %q", notes["planId"])
	}
	if requested != "" && requested != plan.ID {
		return nil, fmt.Errorf("requested plan %q, entity is for %q", requested, plan.ID)
	}
	return plan, nil
}
