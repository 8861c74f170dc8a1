package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{Registerer: reg, Gatherer: reg})

	r := gin.New()
	p.Use(r, "")
	r.GET("/api/subjects/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subjects/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, 2.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/api/subjects/:id", "")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "brainac_req_total"))
}

func TestNewPrometheus_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewPrometheus(NewPrometheusOptions{Registerer: reg, Gatherer: reg})
	b := NewPrometheus(NewPrometheusOptions{Registerer: reg, Gatherer: reg})
	require.Same(t, a.reqCnt, b.reqCnt)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(transitions.WithLabelValues("active", "verify_payment"))
	RecordTransition("active", "verify_payment")
	require.Equal(t, before+1, testutil.ToFloat64(transitions.WithLabelValues("active", "verify_payment")))

	RecordWebhook("subscription.activated", "handled")
	require.Equal(t, 1.0, testutil.ToFloat64(webhooks.WithLabelValues("subscription.activated", "handled")))

	ObserveProcess("gateway", "create_order", time.Now(), errors.New("boom"))
	require.Equal(t, 1, testutil.CollectAndCount(businessProcess))
}
