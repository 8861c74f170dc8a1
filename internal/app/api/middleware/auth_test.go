package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

type stubAuth struct {
	users map[string]*models.User
}

func (s *stubAuth) Authenticate(_ context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("Access denied. No token provided.")
	}
	u, ok := s.users[raw]
	if !ok {
		return nil, apperr.Unauthenticated("Invalid token.")
	}
	return u, nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	auth := &stubAuth{users: map[string]*models.User{
		"trial":   {ID: "u1", Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: lo.ToPtr(fixedNow.Add(time.Hour))},
		"expired": {ID: "u2", Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: lo.ToPtr(fixedNow)},
		"admin":   {ID: "admin", Role: types.RoleAdmin, SubscriptionStatus: types.SubscriptionStatusActive},
	}}

	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log), AccessLogMiddleware(log))
	g := r.Group("/", Authenticate(auth, log))
	g.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, CurrentUser(c).ID) })
	g.GET("/videos", RequireSubscription(func() time.Time { return fixedNow }), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/admin", RequireAdmin(log), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied. No token provided.")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(r, "/me", "garbage")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token.")

	w = do(r, "/me", "trial")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestRequireSubscription(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusOK, do(r, "/videos", "trial").Code)
	assert.Equal(t, http.StatusOK, do(r, "/videos", "admin").Code)

	w := do(r, "/videos", "expired")
	require.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["subscriptionRequired"])
	assert.Equal(t, "Active subscription required to access this content.", body["error"])
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "trial").Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", "admin").Code)
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "bearer abc ")
	assert.Equal(t, "abc", BearerToken(c))
	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(c))
}
