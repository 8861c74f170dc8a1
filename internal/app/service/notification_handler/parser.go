package notification_handler

import (
	"context"
	"time"

	"github.com/brainac/backend/pkg/types"
)

// NotificationParser exposes the fields of one provider callback the handler
// needs to route it.
type NotificationParser interface {
	GetProvider(ctx context.Context) types.PaymentProvider
	GetEvent(ctx context.Context) string
	GetNotificationTime(ctx context.Context) time.Time
	// GetSubscriptionID is the gateway subscription the event is about, if any.
	GetSubscriptionID(ctx context.Context) string
	// GetUserID is the user id the checkout attached to the entity notes.
	GetUserID(ctx context.Context) (string, error)
	GetPlanID(ctx context.Context) types.PlanID
	GetPayment(ctx context.Context) *PaymentInfo
	// GetEntityID identifies the delivery in logs: payment id, else subscription id.
	GetEntityID(ctx context.Context) string
	GetData(ctx context.Context) any
}

// PaymentInfo is the settled payment carried by an event.
type PaymentInfo struct {
	ID      string
	OrderID string
	Method  string
	Status  string
}
