package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/platform/config"
)

func defaultConfig() Config {
	return Config{
		ServiceName: "quote-server",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0.25,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := defaultConfig()
	cfg.BaseURL = server.URL

	if mutate != nil {
		mutate(&cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}

// closeBody closes the response body and fails the test on error.
func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

func TestNew(t *testing.T) {
	t.Run("requires service name", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.ServiceName = ""

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service name is required")
	})

	t.Run("applies transport settings", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.BaseURL = "https://jsonplaceholder.typicode.com/"

		client, err := New(cfg)
		require.NoError(t, err)

		assert.Equal(t, "https://jsonplaceholder.typicode.com", client.baseURL)
		assert.Equal(t, "quote-server", client.ServiceName())

		transport, ok := client.http.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 20, transport.MaxIdleConns)
		assert.Equal(t, 5, transport.MaxIdleConnsPerHost)
		assert.Equal(t, 30*time.Second, transport.IdleConnTimeout)
	})

	t.Run("fills defaults", func(t *testing.T) {
		client, err := New(Config{ServiceName: "bare"})
		require.NoError(t, err)

		assert.Equal(t, defaultTimeout, client.http.Timeout)
		assert.Equal(t, 1, client.retry.MaxAttempts)
	})
}

func TestClient_HeaderPropagation(t *testing.T) {
	var gotRequestID, gotCorrelationID, gotAccept string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(middleware.HeaderRequestID)
		gotCorrelationID = r.Header.Get(middleware.HeaderCorrelationID)
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := client.Get(ctx, "/posts")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-123", gotRequestID)
	assert.Equal(t, "corr-456", gotCorrelationID)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name         string
		failFirst    int32
		failStatus   int
		wantErr      error
		wantStatus   int
		wantAttempts int32
	}{
		{name: "recovers after server errors", failFirst: 2, failStatus: http.StatusInternalServerError, wantStatus: http.StatusOK, wantAttempts: 3},
		{name: "client error is not retried", failFirst: 99, failStatus: http.StatusBadRequest, wantStatus: http.StatusBadRequest, wantAttempts: 1},
		{name: "gives up after max attempts", failFirst: 99, failStatus: http.StatusServiceUnavailable, wantErr: ErrMaxRetriesExceeded, wantAttempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if attempts.Add(1) <= tt.failFirst {
					w.WriteHeader(tt.failStatus)
					return
				}

				w.WriteHeader(http.StatusOK)
			}, nil)

			resp, err := client.Get(context.Background(), "/posts")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.failStatus, statusErr.StatusCode)
			} else {
				require.NoError(t, err)
				defer closeBody(t, resp)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
			}

			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *Config) {
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 2
	})

	_, err := client.Get(context.Background(), "/posts")
	require.Error(t, err)
	assert.Equal(t, StateClosed, client.CircuitState())
	assert.Equal(t, 1, client.Breaker().Failures)

	_, err = client.Get(context.Background(), "/posts")
	require.Error(t, err)
	assert.Equal(t, StateOpen, client.CircuitState())

	before := calls.Load()

	_, err = client.Get(context.Background(), "/posts")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, calls.Load(), "open circuit must not reach the server")
}

func TestClient_Timeouts(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}

		w.WriteHeader(http.StatusOK)
	}

	t.Run("per-attempt timeout", func(t *testing.T) {
		client := newTestClient(t, slow, func(cfg *Config) {
			cfg.Timeout = 50 * time.Millisecond
			cfg.Retry.MaxAttempts = 1
		})

		_, err := client.Get(context.Background(), "/posts")
		require.Error(t, err)
	})

	t.Run("caller context cancellation", func(t *testing.T) {
		client := newTestClient(t, slow, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Get(ctx, "/posts")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
	})
}

func TestClient_BuildURL(t *testing.T) {
	for _, base := range []string{"https://api.example.com", "https://api.example.com/"} {
		cfg := defaultConfig()
		cfg.BaseURL = base

		client, err := New(cfg)
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.com/posts", client.buildURL("/posts"))
		assert.Equal(t, "https://api.example.com/posts", client.buildURL("posts"))
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second

	client, err := New(cfg)
	require.NoError(t, err)

	assert.InDelta(t, 100*time.Millisecond, client.calculateBackoff(0), float64(25*time.Millisecond))
	assert.InDelta(t, 200*time.Millisecond, client.calculateBackoff(1), float64(50*time.Millisecond))
	assert.InDelta(t, 400*time.Millisecond, client.calculateBackoff(2), float64(100*time.Millisecond))
	assert.LessOrEqual(t, client.calculateBackoff(10), cfg.Retry.MaxInterval+cfg.Retry.MaxInterval/4)

	client.retry.JitterFactor = 0
	assert.Equal(t, 200*time.Millisecond, client.calculateBackoff(1), "no jitter is exact")
}

type testNetError struct {
	timeout bool
}

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"net error with timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{timeout: false}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{StatusCode: http.StatusBadGateway}

	assert.Equal(t, "server error: 502 Bad Gateway", err.Error())
}
