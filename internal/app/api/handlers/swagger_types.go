package handlers

import (
	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/app/service/payment"
	"github.com/brainac/backend/internal/app/service/statistics"
	"github.com/brainac/backend/internal/app/service/subscription"
)

// Envelopes for swag; handlers build them through pkg/response.

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RespError is returned by every failed request.
type RespError struct {
	Success              bool   `json:"success"`
	Error                string `json:"error"`
	Message              string `json:"message,omitempty"`
	SubscriptionRequired bool   `json:"subscriptionRequired,omitempty"`
}

type RespHealth struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    HealthStatus `json:"data"`
}

type RespAuth struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    account.AuthResult `json:"data"`
}

type RespProfile struct {
	Success bool                `json:"success"`
	Data    account.ProfileView `json:"data"`
}

type RespSubjects struct {
	Success bool                     `json:"success"`
	Data    catalog.SubjectsResponse `json:"data"`
}

type RespPlans struct {
	Success bool                  `json:"success"`
	Data    payment.PlansResponse `json:"data"`
}

type RespOrder struct {
	Success bool                  `json:"success"`
	Data    payment.OrderResponse `json:"data"`
}

type RespVerify struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    payment.VerifyResponse `json:"data"`
}

type RespSnapshot struct {
	Success bool                  `json:"success"`
	Data    subscription.Snapshot `json:"data"`
}

type RespDashboard struct {
	Success bool                 `json:"success"`
	Data    statistics.Dashboard `json:"data"`
}
