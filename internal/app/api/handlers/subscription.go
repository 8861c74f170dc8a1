package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/app/service/payment"
	subsvc "github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/response"
)

// @Summary      Subscription plans
// @Description  Static plan catalog with trial duration and currency.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  handlers.RespPlans
// @Router       /api/subscription/plans [get]
func ApiPlans(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(mgr.Plans()))
	}
}

// @Summary      Create order
// @Description  Creates a one-time gateway order priced from the plan catalog, in paise.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreateOrderRequest true "Plan"
// @Success      200  {object}  handlers.RespOrder
// @Failure      400  {object}  handlers.RespError
// @Router       /api/subscription/create-order [post]
func ApiCreateOrder(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreateOrderRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := mgr.CreateOrder(c.Request.Context(), middleware.CurrentUser(c), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create gateway plan
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreatePlanRequest true "Plan"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription/create-plan [post]
func ApiCreatePlan(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreatePlanRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := mgr.CreatePlan(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Create gateway subscription
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreateSubscriptionRequest true "Plan"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription/create-subscription [post]
func ApiCreateSubscription(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreateSubscriptionRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := mgr.CreateSubscription(c.Request.Context(), middleware.CurrentUser(c), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Verify payment
// @Description  Checks the checkout signature and activates the plan.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.VerifyRequest true "Checkout callback"
// @Success      200  {object}  handlers.RespVerify
// @Failure      400  {object}  handlers.RespError
// @Router       /api/subscription/verify-payment [post]
func ApiVerifyPayment(mgr payment.Manager, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.VerifyRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := mgr.VerifyPayment(c.Request.Context(), middleware.CurrentUser(c), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, res.Message))
	}
}

// @Summary      Subscription status
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSnapshot
// @Router       /api/subscription/status [get]
func ApiSubscriptionStatus(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(sub.Snapshot(middleware.CurrentUser(c))))
	}
}

// @Summary      Subscription history
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription/history [get]
func ApiSubscriptionHistory(sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := sub.History(c.Request.Context(), middleware.CurrentUser(c).ID)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Cancel subscription
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/subscription/cancel [post]
func ApiCancelSubscription(sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return transition(sub.Cancel, "Subscription cancelled successfully", sub, e)
}

// @Summary      Pause subscription
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription/pause [post]
func ApiPauseSubscription(sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return transition(sub.Pause, "Subscription paused successfully", sub, e)
}

// @Summary      Resume subscription
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription/resume [post]
func ApiResumeSubscription(sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return transition(sub.Resume, "Subscription resumed successfully", sub, e)
}

// transition runs a caller-initiated lifecycle change and answers with the
// resulting snapshot.
func transition(apply func(context.Context, *models.User) error, msg string, sub *subsvc.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := middleware.CurrentUser(c)
		if err := apply(c.Request.Context(), u); err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(sub.Snapshot(u), msg))
	}
}

// RegisterSubscriptionRoutes mounts the subscription endpoints. The webhook
// stays public so its signature is the only credential.
func RegisterSubscriptionRoutes(r gin.IRouter, mgr payment.Manager, sub *subsvc.Service, webhook gin.HandlerFunc, e *Errors, authn gin.HandlerFunc) {
	r.GET("/plans", ApiPlans(mgr))
	r.POST("/webhook", webhook)

	auth := r.Group("", authn)
	auth.POST("/create-order", ApiCreateOrder(mgr, e))
	auth.POST("/create-plan", ApiCreatePlan(mgr, e))
	auth.POST("/create-subscription", ApiCreateSubscription(mgr, e))
	auth.POST("/verify-payment", ApiVerifyPayment(mgr, e))
	auth.POST("/cancel", ApiCancelSubscription(sub, e))
	auth.POST("/pause", ApiPauseSubscription(sub, e))
	auth.POST("/resume", ApiResumeSubscription(sub, e))
	auth.GET("/status", ApiSubscriptionStatus(sub))
	auth.GET("/history", ApiSubscriptionHistory(sub, e))
}
