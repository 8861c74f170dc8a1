package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStatus string

const (
	WebhookLogStatusReceived     WebhookLogStatus = "received"
	WebhookLogStatusHandled      WebhookLogStatus = "handled"
	WebhookLogStatusIgnored      WebhookLogStatus = "ignored"
	WebhookLogStatusHandleFailed WebhookLogStatus = "handle_failed"
)

// WebhookLog records every gateway callback delivery and how it was handled.
type WebhookLog struct {
	ID         string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID string           `gorm:"column:provider_id;type:varchar(64);not null" json:"providerId"`
	Event      string           `gorm:"column:event;type:varchar(64);index" json:"event"`
	UserID     *string          `gorm:"column:user_id;type:varchar(128)" json:"userId"`
	TraceID    string           `gorm:"column:trace_id;type:varchar(128)" json:"traceId"`
	EntityID   string           `gorm:"column:entity_id;type:varchar(128)" json:"entityId"`
	Data       datatypes.JSON   `gorm:"column:data;type:jsonb" json:"data"`
	Result     *datatypes.JSON  `gorm:"column:result;type:jsonb" json:"result"`
	Status     WebhookLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func (WebhookLog) TableName() string { return "webhook_log" }
