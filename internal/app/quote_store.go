// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// What does NOT belong here:
//   - HTTP or WebSocket specifics (that's adapters)
//   - Storage encodings and drivers (that's storage adapters)
//   - Core domain logic such as merge rules (that's the domain layer)
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

// Notification messages shown to users.
const (
	MsgQuoteAdded      = "Quote added successfully!"
	MsgFillAllFields   = "Please fill in all fields!"
	MsgQuotesImported  = "Quotes imported successfully!"
	MsgInvalidImport   = "Invalid file format: expected a JSON array of quotes"
	MsgSaveFailed      = "Unable to save quotes"
	MsgSyncUnreachable = "Sync failed: unable to reach quote server"
)

// persistTimeout bounds one write of the collection.
const persistTimeout = 5 * time.Second

// StoreKeys names the storage keys used by the store.
type StoreKeys struct {
	// Quotes holds the JSON collection in durable storage.
	Quotes string

	// LastSelectedCategory holds the last category filter in durable storage.
	LastSelectedCategory string

	// LastViewedQuote holds the last displayed quote in session storage.
	LastViewedQuote string
}

// DefaultStoreKeys returns the storage keys used when none are configured.
func DefaultStoreKeys() StoreKeys {
	return StoreKeys{
		Quotes:               "quotes",
		LastSelectedCategory: "lastSelectedCategory",
		LastViewedQuote:      "lastViewedQuote",
	}
}

// QuoteStoreConfig contains the dependencies of a QuoteStore.
type QuoteStoreConfig struct {
	// Durable survives restarts. Required.
	Durable ports.KeyValueStore

	// Session lives for the process and is scoped per session id. Required.
	Session ports.KeyValueStore

	// Observer receives presentation callbacks. Defaults to ports.NopObserver.
	Observer ports.QuoteObserver

	// Keys overrides the storage keys. Empty fields use DefaultStoreKeys.
	Keys StoreKeys

	// Rand is the source for random selection. Nil uses the package-level source.
	Rand *rand.Rand

	Logger *slog.Logger
}

// QuoteStore owns the quote collection. It persists and restores it through
// the durable store and merges remote quotes into it.
//
// The collection is guarded by mu. Every mutation and every persistence write
// happens under the write lock so no two saves interleave.
type QuoteStore struct {
	durable  ports.KeyValueStore
	session  ports.KeyValueStore
	observer ports.QuoteObserver
	keys     StoreKeys
	logger   *slog.Logger

	mu     sync.RWMutex
	quotes []domain.Quote

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewQuoteStore creates a store holding the seed collection.
// Call Load to restore the persisted collection.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Durable == nil {
		panic("app: QuoteStore requires a durable store")
	}

	if cfg.Session == nil {
		panic("app: QuoteStore requires a session store")
	}

	observer := cfg.Observer
	if observer == nil {
		observer = ports.NopObserver{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteStore{
		durable:  cfg.Durable,
		session:  cfg.Session,
		observer: observer,
		keys:     withDefaultKeys(cfg.Keys),
		logger:   logger.With(slog.String("component", "app.QuoteStore")),
		quotes:   domain.SeedQuotes(),
		rng:      cfg.Rand,
	}
}

func withDefaultKeys(k StoreKeys) StoreKeys {
	d := DefaultStoreKeys()

	if k.Quotes == "" {
		k.Quotes = d.Quotes
	}

	if k.LastSelectedCategory == "" {
		k.LastSelectedCategory = d.LastSelectedCategory
	}

	if k.LastViewedQuote == "" {
		k.LastViewedQuote = d.LastViewedQuote
	}

	return k
}

func (s *QuoteStore) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// Load restores the persisted collection and makes it current.
// A missing key, a read failure, or malformed content yields the seed
// collection. Load never fails.
func (s *QuoteStore) Load(ctx context.Context) []domain.Quote {
	quotes := s.readPersisted(ctx)

	s.mu.Lock()
	s.quotes = quotes
	s.mu.Unlock()

	return slices.Clone(quotes)
}

func (s *QuoteStore) readPersisted(ctx context.Context) []domain.Quote {
	logger := s.log(ctx)

	raw, ok, err := s.durable.Get(ctx, s.keys.Quotes)
	if err != nil {
		logger.WarnContext(ctx, "reading persisted quotes failed, using seed collection",
			slog.Any("error", domain.NewStorageError("read", s.keys.Quotes, err)),
		)

		return domain.SeedQuotes()
	}

	if !ok {
		logger.DebugContext(ctx, "no persisted quotes, using seed collection")

		return domain.SeedQuotes()
	}

	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil || quotes == nil {
		if err == nil {
			err = domain.NewFormatError("persisted value is not an array", nil)
		}

		logger.WarnContext(ctx, "persisted quotes are malformed, using seed collection",
			slog.Any("error", domain.NewStorageError("decode", s.keys.Quotes, err)),
		)

		return domain.SeedQuotes()
	}

	logger.DebugContext(ctx, "restored persisted quotes", slog.Int("count", len(quotes)))

	return quotes
}

// Save writes the full current collection to durable storage.
func (s *QuoteStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(ctx)
}

// persistLocked must be called with mu held for writing.
// The write is detached from ctx cancellation so a mutation already applied in
// memory is not lost when the caller goes away; it is bounded by persistTimeout.
func (s *QuoteStore) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.quotes)
	if err != nil {
		return domain.NewStorageError("encode", s.keys.Quotes, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.durable.Set(ctx, s.keys.Quotes, string(data)); err != nil {
		return domain.NewStorageError("write", s.keys.Quotes, err)
	}

	return nil
}

// Add validates, normalizes and appends a manually entered quote, then persists.
// A persistence failure is returned but the quote stays in the collection.
func (s *QuoteStore) Add(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	if err := quote.Validate(); err != nil {
		s.observer.OnNotify(ctx, MsgFillAllFields, ports.NotifyError)

		return domain.Quote{}, fmt.Errorf("adding quote: %w", err)
	}

	quote = quote.Normalize()

	s.mu.Lock()
	s.quotes = append(s.quotes, quote)
	saveErr := s.persistLocked(ctx)
	categories := domain.Categories(s.quotes)
	s.mu.Unlock()

	s.observer.OnCategoriesChanged(ctx, categories)

	if saveErr != nil {
		s.log(ctx).ErrorContext(ctx, "persisting added quote failed", slog.Any("error", saveErr))
		s.observer.OnNotify(ctx, MsgSaveFailed, ports.NotifyError)

		return quote, fmt.Errorf("adding quote: %w", saveErr)
	}

	s.observer.OnNotify(ctx, MsgQuoteAdded, ports.NotifySuccess)
	s.observer.OnQuoteSelected(ctx, quote)

	return quote, nil
}

// ImportJSON parses r as a JSON array of quote objects and imports it.
// Any other shape is a FormatError and nothing is appended.
func (s *QuoteStore) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	quotes, err := decodeQuoteArray(r)
	if err != nil {
		s.observer.OnNotify(ctx, MsgInvalidImport, ports.NotifyError)

		return 0, fmt.Errorf("importing quotes: %w", err)
	}

	return s.ImportMany(ctx, quotes)
}

// ImportMany appends quotes verbatim and persists. Fields are neither validated
// nor normalized.
func (s *QuoteStore) ImportMany(ctx context.Context, quotes []domain.Quote) (int, error) {
	s.mu.Lock()
	s.quotes = append(s.quotes, quotes...)
	saveErr := s.persistLocked(ctx)
	categories := domain.Categories(s.quotes)
	s.mu.Unlock()

	s.observer.OnCategoriesChanged(ctx, categories)

	if saveErr != nil {
		s.log(ctx).ErrorContext(ctx, "persisting imported quotes failed", slog.Any("error", saveErr))
		s.observer.OnNotify(ctx, MsgSaveFailed, ports.NotifyError)

		return len(quotes), fmt.Errorf("importing quotes: %w", saveErr)
	}

	s.log(ctx).InfoContext(ctx, "imported quotes", slog.Int("count", len(quotes)))
	s.observer.OnNotify(ctx, MsgQuotesImported, ports.NotifySuccess)

	return len(quotes), nil
}

// decodeQuoteArray accepts only a JSON array whose elements are all objects.
func decodeQuoteArray(r io.Reader) ([]domain.Quote, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewFormatError("reading payload", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return nil, domain.NewFormatError("payload is not a JSON array", err)
	}

	quotes := make([]domain.Quote, 0, len(records))

	for i, rec := range records {
		if trimmed := bytes.TrimSpace(rec); len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, domain.NewFormatError(fmt.Sprintf("element %d is not an object", i), nil)
		}

		var q domain.Quote
		if err := json.Unmarshal(rec, &q); err != nil {
			return nil, domain.NewFormatError(fmt.Sprintf("element %d is not a quote", i), err)
		}

		quotes = append(quotes, q)
	}

	return quotes, nil
}

// Quotes returns a copy of the current collection.
func (s *QuoteStore) Quotes() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.quotes)
}

// Len returns the size of the current collection.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Categories returns the distinct categories in first-seen order.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Categories(s.quotes)
}

// FilterByCategory returns the quotes in category, or all quotes for domain.AllCategories.
func (s *QuoteStore) FilterByCategory(category string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.FilterByCategory(s.quotes, category)
}

// ShowRandom picks a random quote from category and records the selection.
// An empty category uses the last selected one. When nothing matches, the
// placeholder quote is shown and returned together with domain.ErrNoQuotes.
func (s *QuoteStore) ShowRandom(ctx context.Context, sessionID, category string) (domain.Quote, error) {
	logger := s.log(ctx)

	if category == "" {
		category = s.LastSelectedCategory(ctx)
	}

	if err := s.SetLastSelectedCategory(ctx, category); err != nil {
		logger.WarnContext(ctx, "persisting selected category failed", slog.Any("error", err))
	}

	candidates := s.FilterByCategory(category)

	s.rngMu.Lock()
	quote, err := domain.PickRandom(candidates, s.rng)
	s.rngMu.Unlock()

	if err != nil {
		s.observer.OnQuoteSelected(ctx, domain.PlaceholderQuote)

		return domain.PlaceholderQuote, fmt.Errorf("showing random quote in %q: %w", category, err)
	}

	if err := s.rememberViewed(ctx, sessionID, quote); err != nil {
		logger.WarnContext(ctx, "recording last viewed quote failed", slog.Any("error", err))
	}

	s.observer.OnQuoteSelected(ctx, quote)

	return quote, nil
}

// LastSelectedCategory returns the persisted category filter, or domain.AllCategories.
func (s *QuoteStore) LastSelectedCategory(ctx context.Context) string {
	category, ok, err := s.durable.Get(ctx, s.keys.LastSelectedCategory)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "reading selected category failed",
			slog.Any("error", domain.NewStorageError("read", s.keys.LastSelectedCategory, err)),
		)

		return domain.AllCategories
	}

	if !ok || category == "" {
		return domain.AllCategories
	}

	return category
}

// SetLastSelectedCategory persists the category filter.
func (s *QuoteStore) SetLastSelectedCategory(ctx context.Context, category string) error {
	if category == "" {
		category = domain.AllCategories
	}

	if err := s.durable.Set(ctx, s.keys.LastSelectedCategory, category); err != nil {
		return domain.NewStorageError("write", s.keys.LastSelectedCategory, err)
	}

	return nil
}

func (s *QuoteStore) sessionKey(sessionID string) string {
	return "session:" + sessionID + ":" + s.keys.LastViewedQuote
}

func (s *QuoteStore) rememberViewed(ctx context.Context, sessionID string, quote domain.Quote) error {
	if sessionID == "" {
		return nil
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return domain.NewStorageError("encode", s.sessionKey(sessionID), err)
	}

	if err := s.session.Set(ctx, s.sessionKey(sessionID), string(data)); err != nil {
		return domain.NewStorageError("write", s.sessionKey(sessionID), err)
	}

	return nil
}

// LastViewedQuote returns the last quote shown to the session.
// The boolean is false when nothing was recorded or the value is unreadable.
func (s *QuoteStore) LastViewedQuote(ctx context.Context, sessionID string) (domain.Quote, bool) {
	if sessionID == "" {
		return domain.Quote{}, false
	}

	raw, ok, err := s.session.Get(ctx, s.sessionKey(sessionID))
	if err != nil || !ok {
		return domain.Quote{}, false
	}

	var quote domain.Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		s.log(ctx).DebugContext(ctx, "last viewed quote is malformed", slog.Any("error", err))

		return domain.Quote{}, false
	}

	return quote, true
}

// Export writes the full collection as indented JSON.
func (s *QuoteStore) Export(ctx context.Context, w io.Writer) error {
	quotes := s.Quotes()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(quotes); err != nil {
		return fmt.Errorf("exporting quotes: %w", err)
	}

	s.log(ctx).DebugContext(ctx, "exported quotes", slog.Int("count", len(quotes)))

	return nil
}

// Merge applies a server-wins merge of remote into the collection and persists
// the result unconditionally. The merge and the write form one critical section.
func (s *QuoteStore) Merge(ctx context.Context, remote []domain.Quote) (domain.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, result := domain.MergeServerWins(s.quotes, remote)
	s.quotes = merged

	if err := s.persistLocked(ctx); err != nil {
		return result, fmt.Errorf("merging remote quotes: %w", err)
	}

	return result, nil
}
