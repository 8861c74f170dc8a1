// Package paygateway wraps the external payment gateway: orders, plans,
// recurring subscriptions, payment lookups and refunds.
package paygateway

import (
	"context"
	"errors"

	"github.com/brainac/backend/pkg/apperr"
)

var ErrUnavailable = errors.New("paygateway: gateway not configured")

// Classify turns a gateway call failure into an application error: a missing
// gateway is 503, anything else is an upstream failure reported with msg.
func Classify(err error, msg string) error {
	if errors.Is(err, ErrUnavailable) {
		return apperr.Wrap(apperr.KindUnavailable, err, "Payment gateway not available")
	}
	return apperr.Upstream(err, msg)
}

// Amounts are in minor currency units (paise).

type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
	Notes    map[string]string
}

type PlanRequest struct {
	// Period is the billing unit: daily, weekly, monthly or yearly.
	Period      string
	Interval    int
	Name        string
	Description string
	Amount      int64
	Currency    string
	Notes       map[string]string
}

type Plan struct {
	ID       string
	Period   string
	Interval int
}

type SubscriptionRequest struct {
	PlanID         string
	TotalCount     int
	CustomerNotify bool
	Notes          map[string]string
}

type Subscription struct {
	ID       string
	PlanID   string
	Status   string
	ShortURL string
	Notes    map[string]string
}

type Payment struct {
	ID             string
	OrderID        string
	SubscriptionID string
	Amount         int64
	Currency       string
	Status         string
	Method         string
}

// Captured reports whether the gateway settled the payment.
func (p *Payment) Captured() bool {
	return p != nil && p.Status == "captured"
}

type Refund struct {
	ID        string
	PaymentID string
	Amount    int64
	Status    string
}

type Gateway interface {
	// KeyID is the public key handed to checkout clients.
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, id string) (*Order, error)
	CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
	FetchSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelSubscription(ctx context.Context, id string, atCycleEnd bool) (*Subscription, error)
	PauseSubscription(ctx context.Context, id string) (*Subscription, error)
	ResumeSubscription(ctx context.Context, id string) (*Subscription, error)
	FetchPayment(ctx context.Context, id string) (*Payment, error)
	// Refund refunds amount of the payment; zero refunds it in full.
	Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*Refund, error)
}

// Unavailable is used when no gateway keys are configured.
type Unavailable struct{}

var _ Gateway = Unavailable{}

func (Unavailable) KeyID() string { return "" }
func (Unavailable) CreateOrder(context.Context, OrderRequest) (*Order, error) {
	return nil, ErrUnavailable
}
func (Unavailable) FetchOrder(context.Context, string) (*Order, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreatePlan(context.Context, PlanRequest) (*Plan, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreateSubscription(context.Context, SubscriptionRequest) (*Subscription, error) {
	return nil, ErrUnavailable
}
func (Unavailable) FetchSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CancelSubscription(context.Context, string, bool) (*Subscription, error) {
	return nil, ErrUnavailable
}
func (Unavailable) PauseSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrUnavailable
}
func (Unavailable) ResumeSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrUnavailable
}
func (Unavailable) FetchPayment(context.Context, string) (*Payment, error) {
	return nil, ErrUnavailable
}
func (Unavailable) Refund(context.Context, string, int64, map[string]string) (*Refund, error) {
	return nil, ErrUnavailable
}
