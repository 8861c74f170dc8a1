package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics, partitioned by status code, method and route template.
var (
	reqCnt = &Metric{
		ID:          "reqCnt",
		Name:        "req_total",
		Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
		Type:        "counter_vec",
		Args:        []string{"code", "method", "url", "ref"},
	}
	reqDur = &Metric{
		ID:          "reqDur",
		Name:        "req_dur_ms",
		Description: "The HTTP request latencies in milliseconds.",
		Type:        "histogram_vec",
		Args:        []string{"code", "method", "url", "ref"},
	}
	resSz = &Metric{
		ID:          "resSz",
		Name:        "resp_sz_bytes",
		Description: "The HTTP response sizes in bytes.",
		Type:        "summary_vec",
		Args:        []string{"code", "method", "url", "ref"},
	}
)

const defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
	Infow(msg string, keysAndValues ...interface{})
}

// RequestCounterURLLabelMappingFn controls the cardinality of the "url" label.
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// Prometheus is the gin middleware plus the optional side listener that
// serves the scrape endpoint away from the public API.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec
	resSz  *prometheus.SummaryVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	server     *http.Server

	MetricsPath             string
	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem               string
	MetricsPath             string
	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn
	Logger                  Logger
	// Registerer and Gatherer default to the process-wide registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewPrometheus registers the HTTP collectors. Collectors already registered
// (e.g. by an earlier engine in tests) are reused.
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath:             options.MetricsPath,
		ReqCntURLLabelMappingFn: options.ReqCntURLLabelMappingFn,
		registerer:              options.Registerer,
		gatherer:                options.Gatherer,
		logger:                  options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.ReqCntURLLabelMappingFn == nil {
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		}
	}
	if p.registerer == nil {
		p.registerer = prometheus.DefaultRegisterer
	}
	if p.gatherer == nil {
		p.gatherer = prometheus.DefaultGatherer
	}
	p.reqCnt = register(p, reqCnt, options.Subsystem).(*prometheus.CounterVec)
	p.reqDur = register(p, reqDur, options.Subsystem).(*prometheus.HistogramVec)
	p.resSz = register(p, resSz, options.Subsystem).(*prometheus.SummaryVec)
	return p
}

func register(p *Prometheus, def *Metric, subsystem string) prometheus.Collector {
	c := NewMetric(def, subsystem)
	if err := p.registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		if p.logger != nil {
			p.logger.Errorf("%s could not be registered in Prometheus, err=%v", def.Name, err)
		}
	}
	return c
}

// Handler serves the scrape endpoint.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Use adds the middleware to e. The scrape endpoint is mounted on e only when
// no separate listen address is configured.
func (p *Prometheus) Use(e *gin.Engine, listenAddress string) {
	e.Use(p.HandlerFunc())
	if listenAddress == "" {
		e.GET(p.MetricsPath, gin.WrapH(p.Handler()))
		return
	}
	mux := http.NewServeMux()
	mux.Handle(p.MetricsPath, p.Handler())
	p.server = &http.Server{Addr: listenAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// Start runs the side listener, if any, in the background.
func (p *Prometheus) Start() {
	if p.server == nil {
		return
	}
	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && p.logger != nil {
			p.logger.Errorf("metrics server failed: %v", err)
		}
	}()
	if p.logger != nil {
		p.logger.Infow("metrics started", "addr", p.server.Addr, "path", p.MetricsPath)
	}
}

func (p *Prometheus) Stop(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

// HandlerFunc records count, latency and response size per route.
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.ReqCntURLLabelMappingFn(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(MillisecondsSince(start))
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(c.Writer.Size()))
	}
}
