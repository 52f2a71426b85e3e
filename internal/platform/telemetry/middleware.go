package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotegen/telemetry"

	// HeaderTraceID echoes the request's trace ID to the client.
	HeaderTraceID = "X-Trace-ID"

	// unmatchedRoute labels requests that hit no registered route, keeping
	// the route attribute bounded.
	unmatchedRoute = "unmatched"
)

// Metrics holds the HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewMetrics creates the HTTP server instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	requests, err := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active request counter: %w", err)
	}

	return &Metrics{duration: duration, requests: requests, inFlight: inFlight}, nil
}

func (m *Metrics) begin(ctx context.Context, attrs []attribute.KeyValue) func() {
	opt := metric.WithAttributes(attrs...)
	m.inFlight.Add(ctx, 1, opt)

	return func() { m.inFlight.Add(ctx, -1, opt) }
}

func (m *Metrics) record(ctx context.Context, attrs []attribute.KeyValue, status int, elapsed time.Duration) {
	opt := metric.WithAttributes(append(attrs, attribute.Int("http.status_code", status))...)
	m.duration.Record(ctx, elapsed.Seconds(), opt)
	m.requests.Add(ctx, 1, opt)
}

// Middleware returns Gin middleware recording request metrics and echoing the
// trace ID in X-Trace-ID. Mount it after TracingMiddleware so a span exists.
// When the instruments cannot be created only the header is set.
func Middleware() gin.HandlerFunc {
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Set before the handler writes the body.
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if metrics == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}

		start := time.Now()
		done := metrics.begin(ctx, attrs)

		c.Next()

		done()
		metrics.record(ctx, attrs, c.Writer.Status(), time.Since(start))
	}
}

// TracingMiddleware returns the otelgin middleware that starts a server span
// per request, named after serviceName.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
