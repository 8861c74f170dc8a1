package models

import (
	"time"

	"github.com/brainac/backend/pkg/types"
)

// Payment is a gateway payment recorded against a user. Amount is in minor
// currency units (paise). Refunded payments are immutable.
type Payment struct {
	ID                    string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID                string              `gorm:"column:user_id;type:varchar(128);not null;index" json:"userId"`
	GatewayOrderID        string              `gorm:"column:gateway_order_id;type:varchar(64);index" json:"razorpayOrderId"`
	GatewayPaymentID      *string             `gorm:"column:gateway_payment_id;type:varchar(64);uniqueIndex" json:"razorpayPaymentId,omitempty"`
	GatewaySubscriptionID string              `gorm:"column:gateway_subscription_id;type:varchar(64)" json:"razorpaySubscriptionId,omitempty"`
	Signature             string              `gorm:"column:signature;type:varchar(128)" json:"-"`
	PlanID                types.PlanID        `gorm:"column:plan_id;type:varchar(32)" json:"planId"`
	Amount                int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency              string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status                types.PaymentStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaymentMethod         string              `gorm:"column:payment_method;type:varchar(32)" json:"paymentMethod,omitempty"`
	RefundID              string              `gorm:"column:refund_id;type:varchar(64)" json:"refundId,omitempty"`
	RefundReason          string              `gorm:"column:refund_reason;type:text" json:"refundReason,omitempty"`
	RefundedAt            *time.Time          `gorm:"column:refunded_at" json:"refundedAt,omitempty"`
	CreatedAt             time.Time           `gorm:"index" json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}
