package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
)

// APIResponse is the envelope returned by every endpoint:
// {success, data?, error?, message?}.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// SubscriptionRequired flags gate denials so clients can show the paywall.
	SubscriptionRequired bool `json:"subscriptionRequired,omitempty"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data}
}

// OKMsg returns a successful response with data and a message.
func OKMsg[T any](data T, msg string) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data, Message: msg}
}

// ErrorT returns a failed response.
func ErrorT(msg string) *APIResponse[any] {
	return &APIResponse[any]{Success: false, Error: msg}
}

// SubscriptionRequired is the gate denial body.
func SubscriptionRequired(msg string) *APIResponse[any] {
	return &APIResponse[any]{Success: false, Error: msg, SubscriptionRequired: true}
}

// Fail maps err onto its status code and writes the error envelope. Upstream
// and internal causes are only passed through when exposeCause is set.
func Fail(c *gin.Context, base *zap.SugaredLogger, err error, exposeCause bool) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	lg := logctx.FromGin(c, base)
	if status >= 500 {
		lg.Errorw("request_failed", "kind", kind.String(), "error", err.Error())
	} else {
		lg.Infow("request_rejected", "kind", kind.String(), "error", err.Error())
	}

	body := &APIResponse[any]{Success: false, Error: "Internal server error"}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Error = ae.Msg
		if exposeCause && ae.Err != nil {
			body.Message = ae.Err.Error()
		}
	} else if exposeCause {
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
