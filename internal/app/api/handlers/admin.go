package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/app/service/payment"
	"github.com/brainac/backend/internal/app/service/statistics"
	subsvc "github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/pkg/response"
	"github.com/brainac/backend/pkg/types"
)

// SubscriptionOverrideRequest is an administrator's direct edit of a user's
// subscription fields.
type SubscriptionOverrideRequest struct {
	SubscriptionStatus  types.SubscriptionStatus `json:"subscriptionStatus" binding:"required"`
	SubscriptionPlan    *types.PlanID            `json:"subscriptionPlan"`
	SubscriptionEndDate *time.Time               `json:"subscriptionEndDate"`
}

type PaymentStatusRequest struct {
	Status types.PaymentStatus `json:"status" binding:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Dashboard statistics (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespDashboard
// @Router       /api/admin/stats [get]
func ApiDashboard(svc *statistics.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.GetDashboard(c.Request.Context())
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List users (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        page    query  int     false  "Page, from 1"
// @Param        limit   query  int     false  "Page size, default 10"
// @Param        status  query  string  false  "Subscription status or all"
// @Param        search  query  string  false  "Name or email"
// @Param        grade   query  int     false  "Class"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/users [get]
func ApiListUsers(svc *account.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UserListRequest
		if !e.bindQuery(c, &req) {
			return
		}
		res, err := svc.ListUsers(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Override a user's subscription (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId   path  string                                true  "User ID"
// @Param        request  body  handlers.SubscriptionOverrideRequest  true  "New subscription fields"
// @Success      200  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespError
// @Router       /api/admin/users/{userId}/subscription [put]
func ApiOverrideSubscription(sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubscriptionOverrideRequest
		if !e.bind(c, &req) {
			return
		}
		u, err := sub.AdminOverride(c.Request.Context(), c.Param("userId"), subsvc.Override{
			Status:  req.SubscriptionStatus,
			Plan:    req.SubscriptionPlan,
			EndDate: req.SubscriptionEndDate,
		})
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(u, "User subscription updated successfully"))
	}
}

// @Summary      List payments (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        page       query  int     false  "Page, from 1"
// @Param        limit      query  int     false  "Page size"
// @Param        status     query  string  false  "Payment status or all"
// @Param        method     query  string  false  "Payment method or all"
// @Param        search     query  string  false  "User name, email or payment id"
// @Param        dateRange  query  string  false  "all, today, week, month or quarter"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/payments [get]
func ApiListPayments(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.ListRequest
		if !e.bindQuery(c, &req) {
			return
		}
		res, err := mgr.ListPayments(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get payment (Admin)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        paymentId  path  string  true  "Payment ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespError
// @Router       /api/admin/payments/{paymentId} [get]
func ApiGetPayment(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := mgr.GetPayment(c.Request.Context(), c.Param("paymentId"))
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Update payment status (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        paymentId  path  string                         true  "Payment ID"
// @Param        request    body  handlers.PaymentStatusRequest  true  "New status"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/admin/payments/{paymentId}/status [patch]
func ApiUpdatePaymentStatus(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentStatusRequest
		if !e.bind(c, &req) {
			return
		}
		if err := mgr.UpdateStatus(c.Request.Context(), c.Param("paymentId"), req.Status); err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg[any](nil, "Payment status updated successfully"))
	}
}

// @Summary      Refund payment (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        paymentId  path  string                  true   "Payment ID"
// @Param        request    body  handlers.RefundRequest  false  "Reason"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/admin/payments/{paymentId}/refund [post]
func ApiRefundPayment(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefundRequest
		// the body is optional
		if c.Request.ContentLength != 0 && !e.bind(c, &req) {
			return
		}
		p, err := mgr.Refund(c.Request.Context(), c.Param("paymentId"), req.Reason)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(p, "Payment refunded successfully"))
	}
}

// gradeQuery reads the optional ?grade filter; anything unparsable means all.
func gradeQuery(c *gin.Context) int {
	g, err := strconv.Atoi(c.Query("grade"))
	if err != nil {
		return 0
	}
	return g
}

// AdminDeps groups the services behind the admin endpoints.
type AdminDeps struct {
	Stats    *statistics.Service
	Accounts *account.Service
	Subs     *subsvc.Service
	Payments payment.Manager
	Catalog  *catalog.Service
}

// RegisterAdminRoutes expects r to be restricted to administrators already.
func RegisterAdminRoutes(r gin.IRouter, d AdminDeps, e *Errors) {
	r.GET("/stats", ApiDashboard(d.Stats, e))
	r.GET("/users", ApiListUsers(d.Accounts, e))
	r.PUT("/users/:userId/subscription", ApiOverrideSubscription(d.Subs, e))

	r.GET("/payments", ApiListPayments(d.Payments, e))
	r.GET("/payments/:paymentId", ApiGetPayment(d.Payments, e))
	r.PATCH("/payments/:paymentId/status", ApiUpdatePaymentStatus(d.Payments, e))
	r.POST("/payments/:paymentId/refund", ApiRefundPayment(d.Payments, e))

	registerAdminContentRoutes(r, d.Catalog, e)
}
