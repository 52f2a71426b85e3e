package acl

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/config"
)

// testClientConfig returns a single-attempt client config for baseURL.
func testClientConfig(baseURL string) clients.Config {
	return clients.Config{
		ServiceName: "quote-server",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		resp       *http.Response
		clientErr  error
		wantNil    bool
		wantReason string
	}{
		{name: "success", resp: response(http.StatusOK, ""), wantNil: true},
		{name: "no content", resp: response(http.StatusNoContent, ""), wantNil: true},
		{name: "nil response", wantReason: "no response received"},
		{name: "not found", resp: response(http.StatusNotFound, ""), wantReason: "fetch posts: resource not found"},
		{name: "rate limited", resp: response(http.StatusTooManyRequests, ""), wantReason: "rate limit exceeded"},
		{name: "forbidden", resp: response(http.StatusForbidden, ""), wantReason: "access denied"},
		{name: "unavailable", resp: response(http.StatusServiceUnavailable, ""), wantReason: "temporarily unavailable"},
		{name: "server error", resp: response(http.StatusInternalServerError, "not json"), wantReason: "fetch posts failed with status 500"},
		{
			name:       "nested error body",
			resp:       response(http.StatusBadGateway, `{"error":{"code":"UPSTREAM","message":"upstream down"}}`),
			wantReason: "fetch posts failed with status 502: upstream down",
		},
		{
			name:       "flat error body",
			resp:       response(http.StatusBadRequest, `{"code":"BAD","message":"bad query"}`),
			wantReason: "status 400: bad query",
		},
		{name: "circuit open", clientErr: clients.ErrCircuitOpen, wantReason: "circuit breaker open during fetch posts"},
		{
			name:       "retries exhausted",
			clientErr:  fmt.Errorf("%w: boom", clients.ErrMaxRetriesExceeded),
			wantReason: "max retries exceeded during fetch posts",
		},
		{name: "transport error", clientErr: errors.New("dial tcp: refused"), wantReason: "fetch posts failed: dial tcp: refused"},
		{
			name:       "client error wins over response",
			resp:       response(http.StatusOK, ""),
			clientErr:  clients.ErrCircuitOpen,
			wantReason: "circuit breaker open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.resp, tt.clientErr, "quote-server", "fetch posts")

			if tt.wantNil {
				assert.NoError(t, err)
				return
			}

			require.True(t, domain.IsUnavailable(err), "every remote failure is unavailable")

			var unavailable *domain.UnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Equal(t, "quote-server", unavailable.Service)
			assert.Contains(t, unavailable.Reason, tt.wantReason)
		})
	}
}

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		body        io.Reader
		wantNil     bool
		wantCode    string
		wantMessage string
	}{
		{name: "nested", body: strings.NewReader(`{"error":{"code":"E1","message":"nested"}}`), wantCode: "E1", wantMessage: "nested"},
		{name: "flat", body: strings.NewReader(`{"code":"E2","message":"flat"}`), wantCode: "E2", wantMessage: "flat"},
		{name: "nested wins", body: strings.NewReader(`{"error":{"message":"inner"},"message":"outer"}`), wantMessage: "inner"},
		{name: "invalid json", body: strings.NewReader(`nope`), wantNil: true},
		{name: "empty object", body: strings.NewReader(`{}`), wantNil: true},
		{name: "nil body", body: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseErrorResponse(tt.body)

			if tt.wantNil {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.GetCode())
			assert.Equal(t, tt.wantMessage, got.GetMessage())
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		got, err := DecodeResponse[[]post](io.NopCloser(strings.NewReader(`[{"id":1,"title":"a"},{"id":2,"title":"b"}]`)))

		require.NoError(t, err)
		require.Len(t, *got, 2)
		assert.Equal(t, "b", (*got)[1].Title)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeResponse[[]post](io.NopCloser(strings.NewReader(`{"not":"an array"}`)))
		require.ErrorContains(t, err, "decoding response")
	})

	t.Run("nil body", func(t *testing.T) {
		_, err := DecodeResponse[[]post](nil)
		require.ErrorContains(t, err, "nil")
	})
}

func TestTranslateSlice(t *testing.T) {
	upper := func(s *string) (string, error) {
		if *s == "" {
			return "", errors.New("empty")
		}

		return strings.ToUpper(*s), nil
	}

	got, err := TranslateSlice([]string{"a", "b"}, upper)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)

	got, err = TranslateSlice([]string{}, upper)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = TranslateSlice([]string{"a", ""}, upper)
	require.ErrorContains(t, err, "translating item 1: empty")
}
