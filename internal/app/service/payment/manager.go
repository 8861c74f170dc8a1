package payment

import (
	"context"
	"time"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

type CreateOrderRequest struct {
	PlanID types.PlanID `json:"planId" binding:"required"`
}

type OrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

type CreatePlanRequest struct {
	PlanID types.PlanID `json:"planId" binding:"required"`
}

type PlanResponse struct {
	GatewayPlanID string       `json:"razorpayPlanId"`
	PlanID        types.PlanID `json:"planId"`
	Period        string       `json:"period"`
	Interval      int          `json:"interval"`
}

type CreateSubscriptionRequest struct {
	PlanID types.PlanID `json:"planId" binding:"required"`
	// GatewayPlanID reuses an existing gateway plan; a new one is created when empty.
	GatewayPlanID string `json:"razorpayPlanId"`
	TotalCount    int    `json:"totalCount"`
}

type SubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	GatewayPlanID  string `json:"razorpayPlanId"`
	Status         string `json:"status"`
	ShortURL       string `json:"shortUrl,omitempty"`
	Key            string `json:"key"`
}

// VerifyRequest carries the checkout callback fields. A non-empty
// SubscriptionID selects recurring-subscription verification. PlanID is
// optional and only cross-checked against the plan the checkout was opened for.
type VerifyRequest struct {
	OrderID        string       `json:"razorpay_order_id"`
	PaymentID      string       `json:"razorpay_payment_id" binding:"required"`
	SubscriptionID string       `json:"razorpay_subscription_id"`
	Signature      string       `json:"razorpay_signature"`
	PlanID         types.PlanID `json:"planId"`
}

type VerifyResponse struct {
	Message             string                   `json:"message"`
	SubscriptionStatus  types.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionPlan    string                   `json:"subscriptionPlan"`
	SubscriptionEndDate *time.Time               `json:"subscriptionEndDate"`
	PaymentID           string                   `json:"paymentId"`
}

type PlansResponse struct {
	Plans         []*subscription.Plan `json:"plans"`
	TrialDuration string               `json:"trialDuration"`
	Currency      string               `json:"currency"`
}

// ListRequest is the admin payment listing query.
type ListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
	Method string `form:"method"`
	Search string `form:"search"`
	// DateRange is one of all, today, week, month or quarter.
	DateRange string `form:"dateRange"`
}

// View is a payment enriched with its owner and plan display name.
type View struct {
	*models.Payment
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	PlanName  string `json:"planName"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
	PerPage     int   `json:"per_page"`
}

type ListResponse struct {
	Payments   []*View     `json:"payments"`
	Pagination *Pagination `json:"pagination"`
}

// Manager drives checkout, verification and payment administration.
type Manager interface {
	Plans() *PlansResponse
	CreateOrder(ctx context.Context, u *models.User, req *CreateOrderRequest) (*OrderResponse, error)
	CreatePlan(ctx context.Context, req *CreatePlanRequest) (*PlanResponse, error)
	CreateSubscription(ctx context.Context, u *models.User, req *CreateSubscriptionRequest) (*SubscriptionResponse, error)
	VerifyPayment(ctx context.Context, u *models.User, req *VerifyRequest) (*VerifyResponse, error)

	// Admin operations.
	ListPayments(ctx context.Context, req *ListRequest) (*ListResponse, error)
	GetPayment(ctx context.Context, id string) (*View, error)
	UpdateStatus(ctx context.Context, id string, status types.PaymentStatus) error
	Refund(ctx context.Context, id string, reason string) (*models.Payment, error)
}
