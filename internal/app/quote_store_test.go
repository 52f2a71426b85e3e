package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jsamuelsen/quotegen/internal/adapters/storage"
	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/mocks"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder is a ports.QuoteObserver that keeps every callback.
type recorder struct {
	mu         sync.Mutex
	selected   []domain.Quote
	notices    []string
	categories [][]string
}

func (r *recorder) OnQuoteSelected(_ context.Context, q domain.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = append(r.selected, q)
}

func (r *recorder) OnNotify(_ context.Context, message string, kind ports.NotifyKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, string(kind)+": "+message)
}

func (r *recorder) OnCategoriesChanged(_ context.Context, categories []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, categories)
}

func (r *recorder) lastNotice() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == 0 {
		return ""
	}

	return r.notices[len(r.notices)-1]
}

type storeFixture struct {
	store    *QuoteStore
	durable  *storage.MemoryStore
	session  *storage.MemoryStore
	observer *recorder
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	f := &storeFixture{
		durable:  storage.NewMemoryStore(),
		session:  storage.NewMemoryStore(),
		observer: &recorder{},
	}

	f.store = NewQuoteStore(QuoteStoreConfig{
		Durable:  f.durable,
		Session:  f.session,
		Observer: f.observer,
		Rand:     rand.New(rand.NewPCG(7, 11)), //nolint:gosec // deterministic test source
		Logger:   discardLogger(),
	})

	return f
}

func TestNewQuoteStore_PanicsWithoutStores(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteStore(QuoteStoreConfig{Session: storage.NewMemoryStore()})
	})

	assert.Panics(t, func() {
		NewQuoteStore(QuoteStoreConfig{Durable: storage.NewMemoryStore()})
	})
}

func TestNewQuoteStore_Defaults(t *testing.T) {
	s := NewQuoteStore(QuoteStoreConfig{
		Durable: storage.NewMemoryStore(),
		Session: storage.NewMemoryStore(),
		Keys:    StoreKeys{Quotes: "custom"},
	})

	assert.Equal(t, domain.SeedQuotes(), s.Quotes())
	assert.Equal(t, "custom", s.keys.Quotes)
	assert.Equal(t, "lastSelectedCategory", s.keys.LastSelectedCategory)
	assert.Equal(t, "lastViewedQuote", s.keys.LastViewedQuote)
}

func TestQuoteStore_Load(t *testing.T) {
	restored := []domain.Quote{{Text: "kept", Author: "me", Category: "life"}}
	restoredJSON, err := json.Marshal(restored)
	require.NoError(t, err)

	tests := []struct {
		name   string
		stored *string
		want   []domain.Quote
	}{
		{name: "missing key uses seed", stored: nil, want: domain.SeedQuotes()},
		{name: "valid collection", stored: ptr(string(restoredJSON)), want: restored},
		{name: "empty array is kept", stored: ptr("[]"), want: []domain.Quote{}},
		{name: "corrupted content uses seed", stored: ptr("{not json"), want: domain.SeedQuotes()},
		{name: "object instead of array uses seed", stored: ptr(`{"text":"x"}`), want: domain.SeedQuotes()},
		{name: "null uses seed", stored: ptr("null"), want: domain.SeedQuotes()},
		{name: "array of scalars uses seed", stored: ptr("[1,2]"), want: domain.SeedQuotes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStoreFixture(t)
			if tt.stored != nil {
				require.NoError(t, f.durable.Set(context.Background(), "quotes", *tt.stored))
			}

			got := f.store.Load(context.Background())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, f.store.Quotes())
		})
	}
}

func TestQuoteStore_Load_ReadFailureUsesSeed(t *testing.T) {
	durable := mocks.NewMockKeyValueStore(t)
	durable.EXPECT().Get(mock.Anything, "quotes").Return("", false, errors.New("disk unreadable"))

	s := NewQuoteStore(QuoteStoreConfig{
		Durable: durable,
		Session: storage.NewMemoryStore(),
		Logger:  discardLogger(),
	})

	assert.Equal(t, domain.SeedQuotes(), s.Load(context.Background()))
}

func TestQuoteStore_SaveThenLoadRoundTrip(t *testing.T) {
	field := rapid.StringOfN(rapid.RuneFrom([]rune(" abcXYZ\"\\\n\t<>&é漢")), 0, 20, -1)
	quote := rapid.Custom(func(t *rapid.T) domain.Quote {
		return domain.Quote{
			Text:     field.Draw(t, "text"),
			Author:   field.Draw(t, "author"),
			Category: field.Draw(t, "category"),
		}
	})

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		durable := storage.NewMemoryStore()
		cfg := QuoteStoreConfig{Durable: durable, Session: storage.NewMemoryStore(), Logger: discardLogger()}

		first := NewQuoteStore(cfg)
		_, err := first.ImportMany(ctx, rapid.SliceOf(quote).Draw(rt, "quotes"))
		if err != nil {
			rt.Fatalf("import: %v", err)
		}

		second := NewQuoteStore(cfg)
		got := second.Load(ctx)

		want := first.Quotes()
		if len(got) != len(want) {
			rt.Fatalf("restored %d quotes, want %d", len(got), len(want))
		}

		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("quote %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})
}

func TestQuoteStore_LoadCorruptedNeverFails(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		durable := storage.NewMemoryStore()

		// A leading letter is never valid JSON.
		garbage := "x" + rapid.String().Draw(rt, "garbage")
		_ = durable.Set(ctx, "quotes", garbage)

		s := NewQuoteStore(QuoteStoreConfig{Durable: durable, Session: storage.NewMemoryStore(), Logger: discardLogger()})

		if got := s.Load(ctx); len(got) != len(domain.SeedQuotes()) {
			rt.Fatalf("corrupted load returned %d quotes", len(got))
		}
	})
}

func TestQuoteStore_Add(t *testing.T) {
	t.Run("valid quote is trimmed, lower-cased and persisted", func(t *testing.T) {
		f := newStoreFixture(t)
		before := f.store.Len()

		added, err := f.store.Add(context.Background(), domain.Quote{
			Text:     "  Be yourself.  ",
			Author:   " Oscar Wilde ",
			Category: " Life ",
		})
		require.NoError(t, err)

		want := domain.Quote{Text: "Be yourself.", Author: "Oscar Wilde", Category: "life"}
		assert.Equal(t, want, added)
		assert.Equal(t, before+1, f.store.Len())
		assert.Equal(t, want, f.store.Quotes()[before])

		raw, ok, err := f.durable.Get(context.Background(), "quotes")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, raw, `"Be yourself."`)

		assert.Equal(t, "success: "+MsgQuoteAdded, f.observer.lastNotice())
		assert.Equal(t, []domain.Quote{want}, f.observer.selected)
		require.Len(t, f.observer.categories, 1)
	})

	t.Run("empty field is rejected without mutation", func(t *testing.T) {
		for _, q := range []domain.Quote{
			{Text: "   ", Author: "a", Category: "c"},
			{Text: "t", Author: "", Category: "c"},
			{Text: "t", Author: "a", Category: "\n"},
		} {
			f := newStoreFixture(t)
			before := f.store.Len()

			_, err := f.store.Add(context.Background(), q)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, before, f.store.Len())
			assert.Equal(t, "error: "+MsgFillAllFields, f.observer.lastNotice())
			assert.Zero(t, f.durable.Len(), "nothing may be persisted")
		}
	})
}

func TestQuoteStore_Add_SaveFailureKeepsMutation(t *testing.T) {
	durable := mocks.NewMockKeyValueStore(t)
	durable.EXPECT().Set(mock.Anything, "quotes", mock.Anything).Return(errors.New("quota exceeded"))

	observer := mocks.NewMockQuoteObserver(t)
	observer.EXPECT().OnCategoriesChanged(mock.Anything, mock.Anything).Return()
	observer.EXPECT().OnNotify(mock.Anything, MsgSaveFailed, ports.NotifyError).Return()

	s := NewQuoteStore(QuoteStoreConfig{
		Durable:  durable,
		Session:  storage.NewMemoryStore(),
		Observer: observer,
		Logger:   discardLogger(),
	})

	_, err := s.Add(context.Background(), domain.Quote{Text: "t", Author: "a", Category: "c"})

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, len(domain.SeedQuotes())+1, s.Len())
}

func TestQuoteStore_PersistOutlivesCanceledCaller(t *testing.T) {
	f := newStoreFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.store.Add(ctx, domain.Quote{Text: "kept", Author: "a", Category: "c"})
	require.NoError(t, err)

	result, err := f.store.Merge(ctx, []domain.Quote{{Text: "remote", Author: "Server", Category: "server"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	restored := NewQuoteStore(QuoteStoreConfig{Durable: f.durable, Session: f.session}).Load(context.Background())
	assert.Equal(t, f.store.Quotes(), restored, "applied mutations are written")
}

func TestQuoteStore_PersistHasDeadline(t *testing.T) {
	durable := mocks.NewMockKeyValueStore(t)
	durable.EXPECT().Set(mock.Anything, "quotes", mock.Anything).RunAndReturn(func(ctx context.Context, _, _ string) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok, "write must carry a deadline")
		assert.WithinDuration(t, time.Now().Add(persistTimeout), deadline, time.Second)

		return ctx.Err()
	})

	s := NewQuoteStore(QuoteStoreConfig{Durable: durable, Session: storage.NewMemoryStore(), Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Save(ctx))
}

func TestQuoteStore_ImportJSON(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantCount int
		wantErr   error
	}{
		{
			name:      "array of quotes",
			payload:   `[{"text":"a","author":"b","category":"Mixed"},{"text":"c","author":"d","category":"e"}]`,
			wantCount: 2,
		},
		{name: "empty array", payload: `[]`, wantCount: 0},
		{name: "missing fields are kept verbatim", payload: `[{"text":"only text"}]`, wantCount: 1},
		{name: "object is rejected", payload: `{"text":"a"}`, wantErr: domain.ErrFormat},
		{name: "null is rejected", payload: `null`, wantErr: domain.ErrFormat},
		{name: "scalars are rejected", payload: `["a", 1]`, wantErr: domain.ErrFormat},
		{name: "mixed elements are rejected", payload: `[{"text":"a"}, 1]`, wantErr: domain.ErrFormat},
		{name: "wrong field type is rejected", payload: `[{"text": 42}]`, wantErr: domain.ErrFormat},
		{name: "invalid json", payload: `[{"text":`, wantErr: domain.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStoreFixture(t)
			before := f.store.Quotes()

			n, err := f.store.ImportJSON(context.Background(), strings.NewReader(tt.payload))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.store.Quotes(), "rejected import must not append")
				assert.Equal(t, "error: "+MsgInvalidImport, f.observer.lastNotice())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
			assert.Len(t, f.store.Quotes(), len(before)+tt.wantCount)
			assert.Equal(t, "success: "+MsgQuotesImported, f.observer.lastNotice())
		})
	}
}

func TestQuoteStore_ImportMany_Verbatim(t *testing.T) {
	f := newStoreFixture(t)
	imported := []domain.Quote{{Text: " padded ", Author: "", Category: "Life"}}

	_, err := f.store.ImportMany(context.Background(), imported)
	require.NoError(t, err)

	quotes := f.store.Quotes()
	assert.Equal(t, imported[0], quotes[len(quotes)-1])
	assert.Contains(t, f.store.Categories(), "Life")
	assert.Contains(t, f.store.Categories(), "life")
}

func TestQuoteStore_FilterByCategory(t *testing.T) {
	f := newStoreFixture(t)

	assert.Equal(t, domain.SeedQuotes(), f.store.FilterByCategory(domain.AllCategories))

	life := f.store.FilterByCategory("life")
	require.Len(t, life, 1)
	assert.Equal(t, "John Lennon", life[0].Author)

	assert.Empty(t, f.store.FilterByCategory("Life"))
}

func TestQuoteStore_Categories(t *testing.T) {
	f := newStoreFixture(t)

	assert.Equal(t, []string{"motivation", "life", "inspiration", "success", "wisdom"}, f.store.Categories())
}

func TestQuoteStore_ShowRandom(t *testing.T) {
	ctx := context.Background()

	t.Run("records category and last viewed quote", func(t *testing.T) {
		f := newStoreFixture(t)

		q, err := f.store.ShowRandom(ctx, "s1", "wisdom")
		require.NoError(t, err)

		assert.Equal(t, "Lao Tzu", q.Author)
		assert.Equal(t, "wisdom", f.store.LastSelectedCategory(ctx))

		viewed, ok := f.store.LastViewedQuote(ctx, "s1")
		require.True(t, ok)
		assert.Equal(t, q, viewed)

		_, ok = f.store.LastViewedQuote(ctx, "s2")
		assert.False(t, ok, "sessions are isolated")

		assert.Equal(t, []domain.Quote{q}, f.observer.selected)
	})

	t.Run("empty category uses last selected", func(t *testing.T) {
		f := newStoreFixture(t)
		require.NoError(t, f.store.SetLastSelectedCategory(ctx, "success"))

		q, err := f.store.ShowRandom(ctx, "s1", "")
		require.NoError(t, err)
		assert.Equal(t, "success", q.Category)
	})

	t.Run("defaults to all", func(t *testing.T) {
		f := newStoreFixture(t)

		_, err := f.store.ShowRandom(ctx, "s1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.AllCategories, f.store.LastSelectedCategory(ctx))
	})

	t.Run("no match shows placeholder", func(t *testing.T) {
		f := newStoreFixture(t)

		q, err := f.store.ShowRandom(ctx, "s1", "missing")

		require.ErrorIs(t, err, domain.ErrNoQuotes)
		assert.Equal(t, domain.PlaceholderQuote, q)
		assert.Equal(t, []domain.Quote{domain.PlaceholderQuote}, f.observer.selected)

		_, ok := f.store.LastViewedQuote(ctx, "s1")
		assert.False(t, ok, "placeholder is not recorded")
	})

	t.Run("missing session id skips recording", func(t *testing.T) {
		f := newStoreFixture(t)

		_, err := f.store.ShowRandom(ctx, "", "life")
		require.NoError(t, err)
		assert.Zero(t, f.session.Len())
	})
}

func TestQuoteStore_LastViewedQuote_Malformed(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.session.Set(ctx, "session:s1:lastViewedQuote", "{broken"))

	_, ok := f.store.LastViewedQuote(ctx, "s1")
	assert.False(t, ok)
}

func TestQuoteStore_Export(t *testing.T) {
	f := newStoreFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.store.Export(context.Background(), &buf))

	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"text\""), "two-space indentation")

	var decoded []domain.Quote
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, f.store.Quotes(), decoded)
}

func TestQuoteStore_Merge(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	_, err := f.store.ImportMany(ctx, []domain.Quote{{Text: "A", Author: "X", Category: "c1"}})
	require.NoError(t, err)

	remote := []domain.Quote{
		{Text: "A", Author: "Server", Category: "server"},
		{Text: "B", Author: "Server", Category: "server"},
	}

	result, err := f.store.Merge(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Added: 1, Conflicts: 1}, result)

	again, err := f.store.Merge(ctx, remote)
	require.NoError(t, err)
	assert.True(t, again.NoChanges())

	restored := NewQuoteStore(QuoteStoreConfig{Durable: f.durable, Session: f.session}).Load(ctx)
	assert.Equal(t, f.store.Quotes(), restored, "merge persists")
}

func TestQuoteStore_ConcurrentAdds(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, _ = f.store.Add(ctx, domain.Quote{Text: strings.Repeat("q", i+1), Author: "a", Category: "c"})
		}(i)
	}

	wg.Wait()

	assert.Equal(t, len(domain.SeedQuotes())+50, f.store.Len())

	restored := NewQuoteStore(QuoteStoreConfig{Durable: f.durable, Session: f.session}).Load(ctx)
	assert.Len(t, restored, f.store.Len(), "last save holds every add")
}

func ptr[T any](v T) *T { return &v }
