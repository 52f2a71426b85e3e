//go:build integration

package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/domain"
)

func TestPostsSource_TranslatesAndTruncates(t *testing.T) {
	server := newPostsServer(t, "one", "two", "three", "four")
	source := newPostsSource(t, testClientConfig(server.URL), 3)

	quotes, err := source.FetchQuotes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Quote{
		{Text: "one", Author: "Server", Category: "server"},
		{Text: "two", Author: "Server", Category: "server"},
		{Text: "three", Author: "Server", Category: "server"},
	}, quotes)
}

func TestPostsSource_RetriesTransientFailures(t *testing.T) {
	server := newPostsServer(t, "recovered")
	server.failFirstCalls(2)

	source := newPostsSource(t, testClientConfig(server.URL), 10)

	quotes, err := source.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "recovered", quotes[0].Text)
	assert.Equal(t, 3, server.callCount(), "two failures and one success")
}

func TestPostsSource_CircuitOpensAndRecovers(t *testing.T) {
	server := newPostsServer(t, "back")
	server.set(http.StatusInternalServerError)

	cfg := testClientConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2
	cfg.Circuit.Timeout = 50 * time.Millisecond

	source := newPostsSource(t, cfg, 10)
	ctx := context.Background()

	for range 2 {
		_, err := source.FetchQuotes(ctx)
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	}

	assert.Equal(t, clients.StateOpen, source.Client().CircuitState())
	assert.Error(t, source.Check(ctx), "health check fails while the circuit is open")

	calls := server.callCount()
	_, err := source.FetchQuotes(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, calls, server.callCount(), "an open circuit fails fast")

	time.Sleep(60 * time.Millisecond)
	server.set(http.StatusOK)

	quotes, err := source.FetchQuotes(ctx)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.Equal(t, clients.StateClosed, source.Client().CircuitState())
	assert.NoError(t, source.Check(ctx))
}

func TestPostsSource_SlowServerTimesOut(t *testing.T) {
	server := newPostsServer(t, "late")
	server.setDelay(500 * time.Millisecond)

	cfg := testClientConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retry.MaxAttempts = 1

	source := newPostsSource(t, cfg, 10)

	start := time.Now()
	_, err := source.FetchQuotes(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestPostsSource_CancelledContext(t *testing.T) {
	server := newPostsServer(t, "never")
	server.setDelay(5 * time.Second)

	source := newPostsSource(t, testClientConfig(server.URL), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := source.FetchQuotes(ctx)

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation should be prompt")
}

func TestPostsSource_PropagatesRequestIDs(t *testing.T) {
	server := newPostsServer(t, "traced")
	source := newPostsSource(t, testClientConfig(server.URL), 10)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-sync-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-sync-1")

	_, err := source.FetchQuotes(ctx)
	require.NoError(t, err)

	header := server.lastHeader()
	assert.Equal(t, "req-sync-1", header.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-sync-1", header.Get(middleware.HeaderCorrelationID))
}

func TestPostsSource_ConcurrentFetches(t *testing.T) {
	server := newPostsServer(t, "a", "b")
	source := newPostsSource(t, testClientConfig(server.URL), 10)

	const workers = 10

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			quotes, err := source.FetchQuotes(context.Background())
			if err == nil && len(quotes) != 2 {
				err = assert.AnError
			}

			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}

	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, workers, server.callCount())
}
