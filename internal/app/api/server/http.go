package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brainac/backend/docs"
	"github.com/brainac/backend/internal/app/api/handlers"
	mw "github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/internal/app/service/catalog"
	nh "github.com/brainac/backend/internal/app/service/notification_handler"
	"github.com/brainac/backend/internal/app/service/payment"
	"github.com/brainac/backend/internal/app/service/statistics"
	subsvc "github.com/brainac/backend/internal/app/service/subscription"
	cfgpkg "github.com/brainac/backend/pkg/config"
	metrics "github.com/brainac/backend/pkg/metrics"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	r.Use(corsMiddleware(cfg))
	r.NoRoute(handlers.NotFound)
	return r
}

func corsMiddleware(cfg *cfgpkg.Config) gin.HandlerFunc {
	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", mw.RequestIDHeader},
		ExposeHeaders:    []string{mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

type routeParams struct {
	fx.In

	Engine   *gin.Engine
	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	Lc       fx.Lifecycle
	Accounts *account.Service
	Catalog  *catalog.Service
	Subs     *subsvc.Service
	Payments payment.Manager
	Stats    *statistics.Service
	Webhooks *nh.NotificationHandler
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Cfg

	// Prometheus metrics; scraped on metrics_addr when set, otherwise on /metrics
	prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		},
		Logger: log,
	})
	prom.Use(r, cfg.MetricsAddr)
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error { prom.Start(); return nil },
		OnStop:  prom.Stop,
	})

	e := handlers.NewErrors(cfg, log)
	authn := mw.Authenticate(p.Accounts, log)

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))

	handlers.RegisterAuthRoutes(api.Group("/auth"), p.Accounts, e, authn)
	handlers.RegisterSubjectRoutes(api.Group("/subjects", authn), p.Catalog, e, mw.RequireSubscription(p.Subs.Now))
	handlers.RegisterSubscriptionRoutes(api.Group("/subscription"), p.Payments, p.Subs, handlers.ApiRazorpayWebhook(p.Webhooks, e), e, authn)
	handlers.RegisterAdminRoutes(api.Group("/admin", authn, mw.RequireAdmin(log)), handlers.AdminDeps{
		Stats:    p.Stats,
		Accounts: p.Accounts,
		Subs:     p.Subs,
		Payments: p.Payments,
		Catalog:  p.Catalog,
	}, e)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
