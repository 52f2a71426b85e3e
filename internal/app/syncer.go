package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

const (
	syncInstrumentationName = "github.com/jsamuelsen/quotegen/internal/app"

	defaultSyncInterval = 30 * time.Second
	defaultSyncTimeout  = 10 * time.Second
)

// SyncState reports whether a sync is running.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateSyncing SyncState = "syncing"
)

// SyncOutcome is the result of the most recent sync.
type SyncOutcome string

const (
	SyncOutcomeNone      SyncOutcome = "none"
	SyncOutcomeNoChanges SyncOutcome = "no_changes"
	SyncOutcomeApplied   SyncOutcome = "applied"
	SyncOutcomeFailed    SyncOutcome = "failed"
)

// SyncStatus is a snapshot of the syncer state machine.
type SyncStatus struct {
	State       SyncState          `json:"state"`
	LastOutcome SyncOutcome        `json:"last_outcome"`
	LastResult  *domain.SyncResult `json:"last_result,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	LastRunAt   *time.Time         `json:"last_run_at,omitempty"`
}

// Merger applies remote quotes to the local collection.
// *QuoteStore satisfies it.
type Merger interface {
	Merge(ctx context.Context, remote []domain.Quote) (domain.SyncResult, error)
	Categories() []string
}

// SyncerConfig contains the dependencies of a Syncer.
type SyncerConfig struct {
	Store    Merger
	Source   ports.QuoteSource
	Observer ports.QuoteObserver

	// Interval between periodic syncs. Defaults to 30s.
	Interval time.Duration

	// Timeout bounds each fetch from Source. Defaults to 10s.
	Timeout time.Duration

	Logger *slog.Logger
}

// Syncer reconciles the store with the remote source, on demand and periodically.
// At most one sync runs at a time: SyncNow waits for a running sync, a
// periodic tick skips when one is running.
type Syncer struct {
	store    Merger
	source   ports.QuoteSource
	observer ports.QuoteObserver
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	// sem is a one-slot semaphore held for the duration of a sync.
	sem chan struct{}

	mu     sync.RWMutex
	status SyncStatus

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	runs      metric.Int64Counter
	added     metric.Int64Counter
	conflicts metric.Int64Counter
}

// NewSyncer creates a syncer. It panics without a store or source.
func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Store == nil {
		panic("app: Syncer requires a store")
	}

	if cfg.Source == nil {
		panic("app: Syncer requires a quote source")
	}

	observer := cfg.Observer
	if observer == nil {
		observer = ports.NopObserver{}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(syncInstrumentationName)

	runs, err := meter.Int64Counter("quotes.sync.runs",
		metric.WithDescription("Number of sync runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync runs counter: %w", err)
	}

	added, err := meter.Int64Counter("quotes.sync.added",
		metric.WithDescription("Remote quotes appended by sync"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync added counter: %w", err)
	}

	conflicts, err := meter.Int64Counter("quotes.sync.conflicts",
		metric.WithDescription("Local quotes overwritten by sync"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync conflicts counter: %w", err)
	}

	return &Syncer{
		store:     cfg.Store,
		source:    cfg.Source,
		observer:  observer,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "app.Syncer")),
		sem:       make(chan struct{}, 1),
		status:    SyncStatus{State: SyncStateIdle, LastOutcome: SyncOutcomeNone},
		runs:      runs,
		added:     added,
		conflicts: conflicts,
	}, nil
}

// SyncNow runs a sync, waiting for any sync in flight to finish first.
// A fetch failure returns a domain.UnavailableError and leaves the collection unchanged.
func (s *Syncer) SyncNow(ctx context.Context) (domain.SyncResult, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return domain.SyncResult{}, fmt.Errorf("waiting for sync in flight: %w", ctx.Err())
	}
	defer func() { <-s.sem }()

	return s.run(ctx)
}

// trySync runs a sync unless one is already in flight.
func (s *Syncer) trySync(ctx context.Context) bool {
	select {
	case s.sem <- struct{}{}:
	default:
		return false
	}
	defer func() { <-s.sem }()

	_, _ = s.run(ctx)

	return true
}

// run must be called while holding sem.
func (s *Syncer) run(ctx context.Context) (domain.SyncResult, error) {
	logger := logging.FromContextOr(ctx, s.logger)
	start := time.Now()

	s.setState(SyncStateSyncing)

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	remote, err := s.source.FetchQuotes(fetchCtx)
	cancel()

	if err != nil {
		logger.WarnContext(ctx, "sync fetch failed", slog.Any("error", err))
		s.finish(ctx, start, SyncOutcomeFailed, nil, err)
		s.observer.OnNotify(ctx, MsgSyncUnreachable, ports.NotifyError)

		if !domain.IsUnavailable(err) {
			err = errors.Join(domain.NewUnavailableError("quote-source", err.Error()), err)
		}

		return domain.SyncResult{}, fmt.Errorf("syncing quotes: %w", err)
	}

	result, err := s.store.Merge(ctx, remote)
	if err != nil {
		logger.ErrorContext(ctx, "sync persist failed", slog.Any("error", err))
		s.finish(ctx, start, SyncOutcomeFailed, &result, err)
		s.observer.OnNotify(ctx, MsgSaveFailed, ports.NotifyError)

		return result, fmt.Errorf("syncing quotes: %w", err)
	}

	outcome := SyncOutcomeApplied
	if result.NoChanges() {
		outcome = SyncOutcomeNoChanges
	}

	s.finish(ctx, start, outcome, &result, nil)

	logger.InfoContext(ctx, "sync completed",
		slog.Int("fetched", len(remote)),
		slog.Int("added", result.Added),
		slog.Int("conflicts", result.Conflicts),
		slog.Duration("duration", time.Since(start)),
	)

	s.observer.OnNotify(ctx, result.Summary(), ports.NotifyInfo)

	if !result.NoChanges() {
		s.observer.OnCategoriesChanged(ctx, s.store.Categories())
	}

	return result, nil
}

func (s *Syncer) setState(state SyncState) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

func (s *Syncer) finish(ctx context.Context, at time.Time, outcome SyncOutcome, result *domain.SyncResult, err error) {
	s.mu.Lock()
	s.status.State = SyncStateIdle
	s.status.LastOutcome = outcome
	s.status.LastResult = result
	s.status.LastRunAt = &at
	s.status.LastError = ""

	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	s.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))

	if result != nil && err == nil {
		s.added.Add(ctx, int64(result.Added))
		s.conflicts.Add(ctx, int64(result.Conflicts))
	}
}

// Status returns a snapshot of the sync state.
func (s *Syncer) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	if status.LastResult != nil {
		r := *status.LastResult
		status.LastResult = &r
	}

	if status.LastRunAt != nil {
		t := *status.LastRunAt
		status.LastRunAt = &t
	}

	return status
}

// Start begins periodic syncing until ctx ends or Stop is called.
// Calling Start on a running syncer has no effect.
func (s *Syncer) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)

	s.logger.InfoContext(ctx, "periodic sync started", slog.Duration("interval", s.interval))
}

func (s *Syncer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.trySync(ctx) {
				s.logger.DebugContext(ctx, "sync in flight, skipping tick")
			}
		}
	}
}

// Stop cancels periodic syncing and waits for the loop to exit.
func (s *Syncer) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil

	s.logger.Info("periodic sync stopped")
}
