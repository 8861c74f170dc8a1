package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/pkg/response"
)

// @Summary      Register
// @Description  Creates the identity account and learner profile and starts the trial.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body account.RegisterRequest true "Registration"
// @Success      201  {object}  handlers.RespAuth
// @Failure      400  {object}  handlers.RespError
// @Router       /api/auth/register [post]
func ApiRegister(svc *account.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.RegisterRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.Register(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKMsg(res, "User registered successfully"))
	}
}

// @Summary      Login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body account.LoginRequest true "Credentials"
// @Success      200  {object}  handlers.RespAuth
// @Failure      401  {object}  handlers.RespError
// @Router       /api/auth/login [post]
func ApiLogin(svc *account.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.LoginRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.Login(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Login successful"))
	}
}

// @Summary      Admin login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body account.LoginRequest true "Admin credentials"
// @Success      200  {object}  handlers.RespOK
// @Failure      401  {object}  handlers.RespError
// @Router       /api/auth/admin/login [post]
func ApiAdminLogin(svc *account.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.LoginRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.AdminLogin(c.Request.Context(), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Admin login successful"))
	}
}

// @Summary      Get profile
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespProfile
// @Router       /api/auth/profile [get]
func ApiGetProfile(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(svc.Profile(middleware.CurrentUser(c))))
	}
}

// @Summary      Update profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body account.UpdateProfileRequest true "Profile fields"
// @Success      200  {object}  handlers.RespProfile
// @Failure      400  {object}  handlers.RespError
// @Router       /api/auth/profile [put]
func ApiUpdateProfile(svc *account.Service, e *Errors) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UpdateProfileRequest
		if !e.bind(c, &req) {
			return
		}
		res, err := svc.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), &req)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKMsg(res, "Profile updated successfully"))
	}
}

// RegisterAuthRoutes mounts the auth endpoints; authn guards the profile.
func RegisterAuthRoutes(r gin.IRouter, svc *account.Service, e *Errors, authn gin.HandlerFunc) {
	r.POST("/register", ApiRegister(svc, e))
	r.POST("/login", ApiLogin(svc, e))
	r.POST("/admin/login", ApiAdminLogin(svc, e))
	r.GET("/profile", authn, ApiGetProfile(svc))
	r.PUT("/profile", authn, ApiUpdateProfile(svc, e))
}
