package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/types"
)

// stubAuth maps bearer tokens straight to users.
type stubAuth map[string]*models.User

func (s stubAuth) Authenticate(_ context.Context, raw string) (*models.User, error) {
	if u, ok := s[raw]; ok {
		return u, nil
	}
	return nil, apperr.Unauthenticated("Invalid token.")
}

func testUsers() stubAuth {
	future := time.Now().Add(72 * time.Hour)
	past := time.Now().Add(-time.Hour)
	return stubAuth{
		"trial8":   {ID: "u8", Grade: 8, Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: lo.ToPtr(future)},
		"expired8": {ID: "x8", Grade: 8, Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: lo.ToPtr(past)},
		"trial9":   {ID: "u9", Grade: 9, Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial, TrialEndDate: lo.ToPtr(future)},
		"admin":    {ID: "admin", Role: types.RoleAdmin, SubscriptionStatus: types.SubscriptionStatusActive, Synthetic: true},
	}
}

func testEnv() (*gin.Engine, *Errors, gin.HandlerFunc) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	r := gin.New()
	r.Use(middleware.TraceMiddleware(), middleware.RequestLoggerMiddleware(log))
	return r, NewErrors(&config.Config{}, log), middleware.Authenticate(testUsers(), log)
}

type envelope struct {
	Success              bool            `json:"success"`
	Data                 json.RawMessage `json:"data"`
	Error                string          `json:"error"`
	Message              string          `json:"message"`
	SubscriptionRequired bool            `json:"subscriptionRequired"`
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) (int, *envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, &env
}

func decode[T any](t *testing.T, env *envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
