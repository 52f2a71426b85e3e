//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotegen/internal/platform/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// postsServer is a stand-in for the remote posts API.
type postsServer struct {
	*httptest.Server

	mu        sync.Mutex
	titles    []string
	status    int
	failFirst int
	delay     time.Duration
	calls     int
	headers   []http.Header
}

func newPostsServer(t *testing.T, titles ...string) *postsServer {
	t.Helper()

	ps := &postsServer{titles: titles, status: http.StatusOK}
	ps.Server = httptest.NewServer(http.HandlerFunc(ps.serve))
	t.Cleanup(ps.Close)

	return ps
}

func (ps *postsServer) serve(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	ps.calls++
	ps.headers = append(ps.headers, r.Header.Clone())
	status, delay, titles := ps.status, ps.delay, append([]string(nil), ps.titles...)

	if ps.calls <= ps.failFirst {
		status = http.StatusServiceUnavailable
	}
	ps.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.URL.Path != "/posts" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	posts := make([]map[string]any, 0, len(titles))
	for i, title := range titles {
		posts = append(posts, map[string]any{
			"id":     i + 1,
			"userId": 1,
			"title":  title,
			"body":   fmt.Sprintf("body %d", i+1),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(posts)
}

func (ps *postsServer) set(status int, titles ...string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.status = status
	if titles != nil {
		ps.titles = titles
	}
}

// failFirstCalls makes the first n requests answer 503.
func (ps *postsServer) failFirstCalls(n int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.failFirst = n
}

func (ps *postsServer) setDelay(d time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.delay = d
}

func (ps *postsServer) callCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return ps.calls
}

func (ps *postsServer) lastHeader() http.Header {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if len(ps.headers) == 0 {
		return nil
	}

	return ps.headers[len(ps.headers)-1]
}

func testClientConfig(baseURL string) clients.Config {
	return clients.Config{
		ServiceName: "quote-server",
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		Logger: discardLogger(),
	}
}

func newPostsSource(t *testing.T, cfg clients.Config, maxRecords int) *acl.PostsSource {
	t.Helper()

	client, err := clients.New(cfg)
	require.NoError(t, err)

	return acl.NewPostsSource(acl.PostsSourceConfig{
		Client:     client,
		MaxRecords: maxRecords,
		Logger:     discardLogger(),
	})
}
