package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/platform/config"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotegen/internal/adapters/clients"

	defaultTimeout = 10 * time.Second
)

// Config configures an HTTP client instance.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// ServiceName identifies the downstream service in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff may exceed it in total.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is an instrumented HTTP client for a single downstream service.
// Requests pass through a circuit breaker, are retried with jittered
// exponential backoff, and carry request and correlation IDs plus trace context.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	retry       config.RetryConfig
	logger      *slog.Logger
	cb          *CircuitBreaker

	tracer          trace.Tracer
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new instrumented HTTP client.
func New(cfg Config) (*Client, error) {
	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Transport.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.Transport.MaxIdleConns
	}

	if cfg.Transport.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.Transport.MaxIdleConnsPerHost
	}

	if cfg.Transport.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = cfg.Transport.IdleConnTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: cfg.Timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		retry:           cfg.Retry,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Get performs an HTTP GET against path, relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Do executes req with circuit breaking, retry, tracing and logging.
// Only bodiless requests, or requests with GetBody set, are safe to retry.
//
// A 5xx response is retried and, once attempts run out, reported as an error.
// Any other response is returned to the caller, who must close the body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	propagateIDs(ctx, req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, attempts, err := c.attempt(ctx, req, logger)
	duration := time.Since(start)
	span.SetAttributes(attribute.Int("http.attempts", attempts))

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		result := "error"
		if ctx.Err() != nil {
			result = "context_canceled"
		}

		c.recordMetrics(ctx, req.Method, 0, duration, result)
		logger.Error("request failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)

		if attempts >= c.retry.MaxAttempts {
			return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
		}

		return nil, err
	}

	c.cb.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+http.StatusText(resp.StatusCode))
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, duration, statusClass(resp.StatusCode))
	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// attempt runs up to MaxAttempts tries and returns the number made.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	var lastErr error

	for n := 1; n <= c.retry.MaxAttempts; n++ {
		if n > 1 {
			if err := c.backoff(ctx, n-1, logger); err != nil {
				return nil, n - 1, err
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, n - 1, fmt.Errorf("rewinding request body: %w", err)
				}

				req.Body = body
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		switch {
		case err != nil && isRetryableError(err):
			logger.Debug("request failed with retryable error", slog.Int("attempt", n), slog.Any("error", err))
			lastErr = err
		case err != nil:
			return nil, n, err
		case resp.StatusCode >= http.StatusInternalServerError:
			logger.Debug("request failed with server error", slog.Int("attempt", n), slog.Int("status", resp.StatusCode))
			drainAndClose(resp, logger)
			lastErr = &StatusError{StatusCode: resp.StatusCode}
		default:
			return resp, n, nil
		}
	}

	return nil, c.retry.MaxAttempts, lastErr
}

func (c *Client) backoff(ctx context.Context, retry int, logger *slog.Logger) error {
	wait := c.calculateBackoff(retry)
	logger.Debug("retrying request", slog.Int("attempt", retry+1), slog.Duration("backoff", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// Breaker returns a snapshot of the circuit breaker.
func (c *Client) Breaker() BreakerSnapshot {
	return c.cb.Snapshot()
}

// ServiceName returns the downstream service name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

func propagateIDs(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff returns InitialInterval * Multiplier^retry capped at
// MaxInterval, spread by ±JitterFactor.
func (c *Client) calculateBackoff(retry int) time.Duration {
	multiplier := c.retry.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	backoff := float64(c.retry.InitialInterval) * math.Pow(multiplier, float64(retry))
	if limit := float64(c.retry.MaxInterval); limit > 0 && backoff > limit {
		backoff = limit
	}

	if c.retry.JitterFactor > 0 {
		spread := rand.Float64()*2 - 1 //nolint:gosec // No need for crypto-grade randomness
		backoff += backoff * c.retry.JitterFactor * spread
	}

	return time.Duration(backoff)
}

func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func drainAndClose(resp *http.Response, logger *slog.Logger) {
	if err := resp.Body.Close(); err != nil {
		logger.Debug("failed to close response body", slog.Any("error", err))
	}
}

// isRetryableError reports whether a transport error is worth another attempt.
// Context cancellation is never retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
