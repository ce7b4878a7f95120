package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/embassygq/consular-api/internal/handler"
	appointmenth "github.com/embassygq/consular-api/internal/handler/appointment"
	audith "github.com/embassygq/consular-api/internal/handler/audit"
	authh "github.com/embassygq/consular-api/internal/handler/auth"
	citizenh "github.com/embassygq/consular-api/internal/handler/citizen"
	documenth "github.com/embassygq/consular-api/internal/handler/document"
	healthh "github.com/embassygq/consular-api/internal/handler/health"
	notificationh "github.com/embassygq/consular-api/internal/handler/notification"
	staffh "github.com/embassygq/consular-api/internal/handler/staff"
	visah "github.com/embassygq/consular-api/internal/handler/visa"
	"github.com/embassygq/consular-api/internal/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Health       *healthh.Handler
	Auth         *authh.Handler
	Appointment  *appointmenth.Handler
	Citizen      *citizenh.Handler
	Visa         *visah.Handler
	Document     *documenth.Handler
	Staff        *staffh.Handler
	Notification *notificationh.Handler
	Audit        *audith.Handler
}

type Config struct {
	RateLimiter   middleware.RateLimiterConfig
	CORS          middleware.CORSConfig
	Timeout       time.Duration
	MetricsPrefix string
}

func DefaultConfig() Config {
	return Config{
		RateLimiter:   middleware.DefaultRateLimiterConfig(),
		CORS:          middleware.DefaultCORSConfig(),
		Timeout:       30 * time.Second,
		MetricsPrefix: "consular_http",
	}
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(auth *middleware.AuthMiddleware, handlers Handlers, cfg Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidations()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  newRouterMetrics(cfg.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: cfg.Timeout}),
		middleware.CORS(cfg.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimiter)
	engine.Use(rateLimiter.RateLimit())

	return r
}

// Setup mounts every route. Health and metrics stay outside the
// versioned API group; everything under /api/v1 except the public auth
// endpoints requires a valid token.
func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(r.engine.Group(""))
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	r.handlers.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	staffOnly := r.auth.RequireStaff()
	adminOnly := r.auth.RequireAdmin()

	r.handlers.Auth.RegisterProtectedRoutes(protected)
	r.handlers.Appointment.RegisterRoutes(protected, staffOnly)
	r.handlers.Citizen.RegisterRoutes(protected, staffOnly)
	r.handlers.Visa.RegisterRoutes(protected)
	r.handlers.Document.RegisterRoutes(protected, staffOnly)
	r.handlers.Staff.RegisterRoutes(protected, staffOnly)
	r.handlers.Notification.RegisterRoutes(protected)
	r.handlers.Audit.RegisterRoutes(protected, adminOnly)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
