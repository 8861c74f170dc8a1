package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/brainac/backend/pkg/types"
)

const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionPaused    = "subscription.paused"
	EventSubscriptionResumed   = "subscription.resumed"
	EventPaymentCaptured       = "payment.captured"
)

type razorpayNotes map[string]any

func (n razorpayNotes) str(key string) string {
	s, _ := n[key].(string)
	return s
}

type razorpaySubscription struct {
	ID     string        `json:"id"`
	PlanID string        `json:"plan_id"`
	Status string        `json:"status"`
	Notes  razorpayNotes `json:"notes"`
}

type razorpayPayment struct {
	ID             string        `json:"id"`
	OrderID        string        `json:"order_id"`
	SubscriptionID string        `json:"subscription_id"`
	Method         string        `json:"method"`
	Status         string        `json:"status"`
	Amount         int64         `json:"amount"`
	Notes          razorpayNotes `json:"notes"`
}

// RazorpayEvent is the webhook envelope. Notes arrive as an object, or as an
// empty array when the entity has none.
type RazorpayEvent struct {
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	CreatedAt int64    `json:"created_at"`
	Payload   struct {
		Subscription *struct {
			Entity razorpaySubscription `json:"entity"`
		} `json:"subscription"`
		Payment *struct {
			Entity razorpayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type RazorpayNotificationParser struct {
	NotificationTime time.Time
	Notification     *RazorpayEvent
	raw              json.RawMessage
}

func (n *razorpayNotes) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		// Razorpay sends [] for empty notes.
		*n = razorpayNotes{}
		return nil
	}
	*n = m
	return nil
}

// GetRazorpayNotificationParser decodes a webhook body. The signature must be
// checked before calling it.
func GetRazorpayNotificationParser(body []byte, receivedAt time.Time) (*RazorpayNotificationParser, error) {
	var ev RazorpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("razorpay event has no type")
	}
	t := receivedAt
	if ev.CreatedAt > 0 {
		t = time.Unix(ev.CreatedAt, 0).UTC()
	}
	return &RazorpayNotificationParser{NotificationTime: t, Notification: &ev, raw: body}, nil
}

func (p *RazorpayNotificationParser) subscription() *razorpaySubscription {
	if p.Notification.Payload.Subscription == nil {
		return nil
	}
	return &p.Notification.Payload.Subscription.Entity
}

func (p *RazorpayNotificationParser) payment() *razorpayPayment {
	if p.Notification.Payload.Payment == nil {
		return nil
	}
	return &p.Notification.Payload.Payment.Entity
}

// note returns the first non-empty value of key in the subscription then payment notes.
func (p *RazorpayNotificationParser) note(key string) string {
	var vals []string
	if s := p.subscription(); s != nil {
		vals = append(vals, s.Notes.str(key))
	}
	if pay := p.payment(); pay != nil {
		vals = append(vals, pay.Notes.str(key))
	}
	return lo.CoalesceOrEmpty(vals...)
}

func (p *RazorpayNotificationParser) GetProvider(context.Context) types.PaymentProvider {
	return types.PaymentProviderRazorpay
}

func (p *RazorpayNotificationParser) GetEvent(context.Context) string {
	return p.Notification.Event
}

func (p *RazorpayNotificationParser) GetNotificationTime(context.Context) time.Time {
	return p.NotificationTime
}

func (p *RazorpayNotificationParser) GetSubscriptionID(context.Context) string {
	if s := p.subscription(); s != nil && s.ID != "" {
		return s.ID
	}
	if pay := p.payment(); pay != nil {
		return pay.SubscriptionID
	}
	return ""
}

func (p *RazorpayNotificationParser) GetUserID(context.Context) (string, error) {
	if id := p.note("userId"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("event notes carry no userId")
}

func (p *RazorpayNotificationParser) GetPlanID(context.Context) types.PlanID {
	return types.PlanID(p.note("planId"))
}

func (p *RazorpayNotificationParser) GetPayment(context.Context) *PaymentInfo {
	pay := p.payment()
	if pay == nil || pay.ID == "" {
		return nil
	}
	return &PaymentInfo{ID: pay.ID, OrderID: pay.OrderID, Method: pay.Method, Status: pay.Status}
}

func (p *RazorpayNotificationParser) GetEntityID(ctx context.Context) string {
	if pay := p.GetPayment(ctx); pay != nil {
		return pay.ID
	}
	return p.GetSubscriptionID(ctx)
}

func (p *RazorpayNotificationParser) GetData(context.Context) any {
	return p.raw
}
