package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/api/middleware"
	nh "github.com/brainac/backend/internal/app/service/notification_handler"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/response"
	"github.com/brainac/backend/pkg/types"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

// @Summary      Razorpay webhook
// @Description  Handles gateway subscription and payment events. The raw body is signed with HMAC-SHA256.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature header string true "Hex HMAC-SHA256 of the body"
// @Param        payload body string true "Razorpay event"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/subscription/webhook [post]
func ApiRazorpayWebhook(h *nh.NotificationHandler, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			e.Fail(c, apperr.Wrap(apperr.KindValidation, err, "Invalid webhook payload"))
			return
		}
		logctx.FromGin(c, h.Logger).Infow("webhook_razorpay_received", "bytes", len(body))

		out, err := h.HandleNotification(c.Request.Context(), types.PaymentProviderRazorpay, nh.Delivery{
			Body:      body,
			Signature: c.GetHeader(razorpaySignatureHeader),
			TraceID:   middleware.TraceID(c),
		})
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}
