package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/platform/telemetry"
)

const (
	// DefaultRequestTimeout is the default timeout for API requests.
	DefaultRequestTimeout = 30 * time.Second

	// APIPrefix is the base path of the public API.
	APIPrefix = "/api/v1"

	// EventsPath is the WebSocket endpoint streaming store notifications.
	EventsPath = APIPrefix + "/events"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppName names the server spans.
	AppName string

	// Store backs the quote, category and session endpoints. Nil skips them.
	Store handlers.QuoteStore

	// Syncer backs the sync endpoints. Nil skips them.
	Syncer handlers.Syncer

	// Events serves the WebSocket event stream. Nil skips it.
	Events http.Handler

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// Timeout is the default request timeout. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Context logger - base logger on the request context
//  3. Request ID, Correlation ID, Session ID - extract or generate, enrich logger
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. Timeout - request deadline on the API group, except the event stream
//
// Route groups:
//   - /-/ (internal): Health endpoints
//   - /api/v1/ (public API): Quote, category, session, sync and event endpoints
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Session(),
		telemetry.TracingMiddleware(cfg.AppName),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	// Probes get no timeout
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group(APIPrefix)
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout, EventsPath))
	}

	setupAPIRoutes(apiV1, cfg)
}

// setupAPIRoutes registers business API routes.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Store != nil {
		handlers.NewQuoteHandler(cfg.Store).RegisterQuoteRoutes(rg)
	}

	if cfg.Syncer != nil {
		handlers.NewSyncHandler(cfg.Syncer).RegisterSyncRoutes(rg)
	}

	if cfg.Events != nil {
		rg.GET("/events", gin.WrapH(cfg.Events))
	}
}

// SetupMinimalRouter sets up a minimal router with just health endpoints.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.ContextLogger(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}
