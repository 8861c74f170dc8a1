package models

import (
	"time"

	"github.com/brainac/backend/pkg/types"
)

// SubscriptionHistory is the append-only audit trail of lifecycle transitions.
// Use case: troubleshooting and admin reporting.
type SubscriptionHistory struct {
	ID                    string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID                string                   `gorm:"column:user_id;type:varchar(128);not null;index" json:"userId"`
	PlanID                types.PlanID             `gorm:"column:plan_id;type:varchar(32)" json:"planId"`
	Status                types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	StartDate             time.Time                `gorm:"column:start_date" json:"startDate"`
	EndDate               *time.Time               `gorm:"column:end_date" json:"endDate,omitempty"`
	PaymentID             *string                  `gorm:"column:payment_id;type:varchar(64)" json:"paymentId,omitempty"`
	GatewaySubscriptionID *string                  `gorm:"column:gateway_subscription_id;type:varchar(64)" json:"razorpaySubscriptionId,omitempty"`
	CreatedAt             time.Time                `json:"createdAt"`
	UpdatedAt             time.Time                `json:"updatedAt"`
}

func (SubscriptionHistory) TableName() string {
	return "subscription_history"
}
