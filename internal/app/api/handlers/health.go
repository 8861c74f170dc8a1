package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/pkg/response"
)

const apiVersion = "1.0.0"

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// @Summary      Health check
// @Description  Returns service status
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKMsg(&HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   apiVersion,
		Endpoints: map[string]string{
			"auth":         "/api/auth",
			"subjects":     "/api/subjects",
			"subscription": "/api/subscription",
			"admin":        "/api/admin",
		},
	}, "Brainac API is running"))
}

// @Summary      API index
// @Description  Lists the public endpoint groups
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api [get]
func Index(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKMsg(map[string]map[string]string{
		"auth": {
			"register":      "POST /api/auth/register",
			"login":         "POST /api/auth/login",
			"profile":       "GET /api/auth/profile",
			"updateProfile": "PUT /api/auth/profile",
		},
		"subjects": {
			"getSubjects":  "GET /api/subjects",
			"getSubject":   "GET /api/subjects/:id",
			"getVideos":    "GET /api/subjects/:id/videos",
			"getAllVideos": "GET /api/subjects/all/videos",
			"getVideo":     "GET /api/subjects/videos/:id",
		},
		"subscription": {
			"getPlans":      "GET /api/subscription/plans",
			"createOrder":   "POST /api/subscription/create-order",
			"verifyPayment": "POST /api/subscription/verify-payment",
			"getStatus":     "GET /api/subscription/status",
			"cancel":        "POST /api/subscription/cancel",
		},
	}, "Brainac API v"+apiVersion))
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, response.ErrorT("Route not found"))
}

func RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/health", Health)
	r.GET("/api", Index)
}
