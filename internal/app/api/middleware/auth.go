package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/response"
)

const userKey = "user"

// Authenticator resolves a bearer credential to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, error)
}

// BearerToken returns the credential of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate rejects requests without a valid bearer token with 401 and
// attaches the caller to the gin context and the request logger.
func Authenticate(auth Authenticator, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := auth.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			response.Fail(c, base, err, false)
			return
		}
		c.Set(userKey, u)
		logctx.WithUser(c, base, u.ID)
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequireSubscription denies callers without an active subscription or a
// running trial. It must run after Authenticate.
func RequireSubscription(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !subscription.HasAccess(CurrentUser(c), now()) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.SubscriptionRequired("Active subscription required to access this content."))
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a group to administrators.
func RequireAdmin(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || !u.IsAdmin() {
			response.Fail(c, base, apperr.Forbidden("Admin access required"), false)
			return
		}
		c.Next()
	}
}
