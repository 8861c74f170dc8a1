package paygateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/logctx"
)

// Razorpay implements Gateway on the official SDK. The SDK has no context
// support; ctx is only used for logging.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
	log    *zap.SugaredLogger
}

var _ Gateway = (*Razorpay)(nil)

func NewRazorpay(keyID, keySecret string, log *zap.SugaredLogger) *Razorpay {
	return &Razorpay{client: razorpay.NewClient(keyID, keySecret), keyID: keyID, log: log.Named("razorpay")}
}

func (r *Razorpay) KeyID() string { return r.keyID }

func str(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// num reads a JSON number; the SDK decodes numbers as float64.
func num(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func notesMap(notes map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(notes))
	for k, v := range notes {
		out[k] = v
	}
	return out
}

// notesOf reads an entity's notes; Razorpay sends [] when there are none.
func notesOf(m map[string]interface{}) map[string]string {
	raw, ok := m["notes"].(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (r *Razorpay) call(ctx context.Context, op string, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	res, err := fn()
	if err != nil {
		logctx.FromCtx(ctx, r.log).Errorw("gateway_call_failed", "op", op, "err", err)
		return nil, fmt.Errorf("razorpay %s: %w", op, err)
	}
	logctx.FromCtx(ctx, r.log).Debugw("gateway_call", "op", op, "id", str(res, "id"))
	return res, nil
}

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": true,
	}
	if len(req.Notes) > 0 {
		data["notes"] = notesMap(req.Notes)
	}
	res, err := r.call(ctx, "create_order", func() (map[string]interface{}, error) {
		return r.client.Order.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	return toOrder(res), nil
}

func toOrder(res map[string]interface{}) *Order {
	return &Order{
		ID:       str(res, "id"),
		Amount:   num(res, "amount"),
		Currency: str(res, "currency"),
		Receipt:  str(res, "receipt"),
		Status:   str(res, "status"),
		Notes:    notesOf(res),
	}
}

func (r *Razorpay) FetchOrder(ctx context.Context, id string) (*Order, error) {
	res, err := r.call(ctx, "fetch_order", func() (map[string]interface{}, error) {
		return r.client.Order.Fetch(id, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return toOrder(res), nil
}

func (r *Razorpay) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	data := map[string]interface{}{
		"period":   req.Period,
		"interval": req.Interval,
		"item": map[string]interface{}{
			"name":        req.Name,
			"amount":      req.Amount,
			"currency":    req.Currency,
			"description": req.Description,
		},
	}
	if len(req.Notes) > 0 {
		data["notes"] = notesMap(req.Notes)
	}
	res, err := r.call(ctx, "create_plan", func() (map[string]interface{}, error) {
		return r.client.Plan.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Plan{ID: str(res, "id"), Period: str(res, "period"), Interval: int(num(res, "interval"))}, nil
}

func toSubscription(res map[string]interface{}) *Subscription {
	return &Subscription{
		ID:       str(res, "id"),
		PlanID:   str(res, "plan_id"),
		Status:   str(res, "status"),
		ShortURL: str(res, "short_url"),
		Notes:    notesOf(res),
	}
}

func (r *Razorpay) FetchSubscription(ctx context.Context, id string) (*Subscription, error) {
	res, err := r.call(ctx, "fetch_subscription", func() (map[string]interface{}, error) {
		return r.client.Subscription.Fetch(id, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return toSubscription(res), nil
}

func (r *Razorpay) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	notify := 0
	if req.CustomerNotify {
		notify = 1
	}
	data := map[string]interface{}{
		"plan_id":         req.PlanID,
		"total_count":     req.TotalCount,
		"customer_notify": notify,
	}
	if len(req.Notes) > 0 {
		data["notes"] = notesMap(req.Notes)
	}
	res, err := r.call(ctx, "create_subscription", func() (map[string]interface{}, error) {
		return r.client.Subscription.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	return toSubscription(res), nil
}

func (r *Razorpay) CancelSubscription(ctx context.Context, id string, atCycleEnd bool) (*Subscription, error) {
	flag := 0
	if atCycleEnd {
		flag = 1
	}
	res, err := r.call(ctx, "cancel_subscription", func() (map[string]interface{}, error) {
		return r.client.Subscription.Cancel(id, map[string]interface{}{"cancel_at_cycle_end": flag}, nil)
	})
	if err != nil {
		return nil, err
	}
	return toSubscription(res), nil
}

func (r *Razorpay) PauseSubscription(ctx context.Context, id string) (*Subscription, error) {
	res, err := r.call(ctx, "pause_subscription", func() (map[string]interface{}, error) {
		return r.client.Subscription.Pause(id, map[string]interface{}{"pause_at": "now"}, nil)
	})
	if err != nil {
		return nil, err
	}
	return toSubscription(res), nil
}

func (r *Razorpay) ResumeSubscription(ctx context.Context, id string) (*Subscription, error) {
	res, err := r.call(ctx, "resume_subscription", func() (map[string]interface{}, error) {
		return r.client.Subscription.Resume(id, map[string]interface{}{"resume_at": "now"}, nil)
	})
	if err != nil {
		return nil, err
	}
	return toSubscription(res), nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, id string) (*Payment, error) {
	res, err := r.call(ctx, "fetch_payment", func() (map[string]interface{}, error) {
		return r.client.Payment.Fetch(id, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Payment{
		ID:             str(res, "id"),
		OrderID:        str(res, "order_id"),
		SubscriptionID: str(res, "subscription_id"),
		Amount:         num(res, "amount"),
		Currency:       str(res, "currency"),
		Status:         str(res, "status"),
		Method:         str(res, "method"),
	}, nil
}

func (r *Razorpay) Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*Refund, error) {
	var data map[string]interface{}
	if len(notes) > 0 {
		data = map[string]interface{}{"notes": notesMap(notes)}
	}
	res, err := r.call(ctx, "refund", func() (map[string]interface{}, error) {
		return r.client.Payment.Refund(paymentID, int(amount), data, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Refund{
		ID:        str(res, "id"),
		PaymentID: str(res, "payment_id"),
		Amount:    num(res, "amount"),
		Status:    str(res, "status"),
	}, nil
}
