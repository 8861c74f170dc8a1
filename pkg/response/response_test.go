package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/pkg/apperr"
)

func runFail(t *testing.T, err error, expose bool) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(c, zap.NewNop().Sugar(), err, expose)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFail_MapsKindToStatus(t *testing.T) {
	code, body := runFail(t, fmt.Errorf("ctx: %w", apperr.NotFound("Subject not found")), false)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Subject not found", body["error"])
}

func TestFail_HidesUpstreamCauseInProd(t *testing.T) {
	err := apperr.Upstream(errors.New("razorpay: bad key"), "Failed to create payment order")

	code, body := runFail(t, err, false)
	require.Equal(t, http.StatusInternalServerError, code)
	require.NotContains(t, body, "message")

	_, body = runFail(t, err, true)
	require.Equal(t, "razorpay: bad key", body["message"])
}

func TestFail_UnclassifiedErrorIsGeneric500(t *testing.T) {
	code, body := runFail(t, errors.New("nil pointer"), false)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "Internal server error", body["error"])
}

func TestOKT_OmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(OKT(map[string]int{"n": 1}))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(b))
}
