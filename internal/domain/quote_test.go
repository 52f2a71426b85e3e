package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestQuote_Normalize(t *testing.T) {
	q := Quote{Text: "  Stay hungry.  ", Author: " Steve Jobs ", Category: " Motivation "}

	assert.Equal(t, Quote{Text: "Stay hungry.", Author: "Steve Jobs", Category: "motivation"}, q.Normalize())
}

func TestQuote_Validate(t *testing.T) {
	tests := []struct {
		name      string
		quote     Quote
		wantField string
	}{
		{name: "valid", quote: Quote{Text: "t", Author: "a", Category: "c"}},
		{name: "missing text", quote: Quote{Text: "   ", Author: "a", Category: "c"}, wantField: "text"},
		{name: "missing author", quote: Quote{Text: "t", Author: "", Category: "c"}, wantField: "author"},
		{name: "missing category", quote: Quote{Text: "t", Author: "a", Category: "\t"}, wantField: "category"},
		{name: "all missing reports text first", quote: Quote{}, wantField: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestFilterByCategory(t *testing.T) {
	quotes := SeedQuotes()
	quotes = append(quotes, Quote{Text: "Another life quote", Author: "X", Category: "life"})
	quotes = append(quotes, Quote{Text: "Shouting", Author: "Y", Category: "Life"})

	t.Run("all returns full collection in order", func(t *testing.T) {
		assert.Equal(t, quotes, FilterByCategory(quotes, AllCategories))
	})

	t.Run("exact match only", func(t *testing.T) {
		life := FilterByCategory(quotes, "life")
		require.Len(t, life, 2)
		for _, q := range life {
			assert.Equal(t, "life", q.Category)
		}
	})

	t.Run("unknown category is empty", func(t *testing.T) {
		assert.Empty(t, FilterByCategory(quotes, "nope"))
	})

	t.Run("result does not alias input", func(t *testing.T) {
		all := FilterByCategory(quotes, AllCategories)
		all[0].Text = "changed"
		assert.NotEqual(t, "changed", quotes[0].Text)
	})
}

func TestCategories_FirstSeenOrder(t *testing.T) {
	quotes := []Quote{
		{Category: "life"},
		{Category: "wisdom"},
		{Category: "life"},
		{Category: "server"},
		{Category: "wisdom"},
	}

	assert.Equal(t, []string{"life", "wisdom", "server"}, Categories(quotes))
	assert.Empty(t, Categories(nil))
}

func TestPickRandom(t *testing.T) {
	t.Run("empty collection signals no quotes", func(t *testing.T) {
		_, err := PickRandom(nil, nil)
		require.ErrorIs(t, err, ErrNoQuotes)
	})

	t.Run("single element", func(t *testing.T) {
		q := Quote{Text: "only"}
		got, err := PickRandom([]Quote{q}, nil)
		require.NoError(t, err)
		assert.Equal(t, q, got)
	})

	t.Run("seeded source covers every element", func(t *testing.T) {
		quotes := SeedQuotes()
		rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test source
		seen := make(map[string]bool)

		for range 500 {
			q, err := PickRandom(quotes, rng)
			require.NoError(t, err)
			seen[q.Text] = true
		}

		assert.Len(t, seen, len(quotes))
	})
}

func TestMergeServerWins_Conflict(t *testing.T) {
	local := []Quote{{Text: "A", Author: "X", Category: "c1"}}
	remote := []Quote{{Text: "A", Author: "Server", Category: "server"}}

	merged, result := MergeServerWins(local, remote)

	require.Len(t, merged, 1)
	assert.Equal(t, remote[0], merged[0])
	assert.Equal(t, SyncResult{Added: 0, Conflicts: 1}, result)
}

func TestMergeServerWins_Addition(t *testing.T) {
	local := SeedQuotes()
	remote := []Quote{{Text: "brand new", Author: "Server", Category: "server"}}

	merged, result := MergeServerWins(local, remote)

	assert.Len(t, merged, len(SeedQuotes())+1)
	assert.Equal(t, remote[0], merged[len(merged)-1])
	assert.Equal(t, SyncResult{Added: 1}, result)
}

func TestMergeServerWins_IdenticalIsNoChange(t *testing.T) {
	local := []Quote{{Text: "A", Author: "Server", Category: "server"}}

	merged, result := MergeServerWins(local, []Quote{{Text: "A", Author: "Server", Category: "server"}})

	assert.Len(t, merged, 1)
	assert.True(t, result.NoChanges())
}

func TestMergeServerWins_FirstTextMatchWins(t *testing.T) {
	local := []Quote{
		{Text: "dup", Author: "one", Category: "c"},
		{Text: "dup", Author: "two", Category: "c"},
	}
	remote := []Quote{{Text: "dup", Author: "Server", Category: "server"}}

	merged, result := MergeServerWins(local, remote)

	assert.Equal(t, remote[0], merged[0])
	assert.Equal(t, "two", merged[1].Author)
	assert.Equal(t, 1, result.Conflicts)
}

func TestSyncResult_Summary(t *testing.T) {
	assert.Equal(t, "Sync complete: no changes", SyncResult{}.Summary())
	assert.Equal(t, "Sync complete: 2 new quotes added, 1 conflicts resolved",
		SyncResult{Added: 2, Conflicts: 1}.Summary())
}

func quoteGen() *rapid.Generator[Quote] {
	return rapid.Custom(func(t *rapid.T) Quote {
		return Quote{
			Text:     rapid.StringMatching(`[a-c]{0,2}`).Draw(t, "text"),
			Author:   rapid.SampledFrom([]string{"X", "Y", "Server"}).Draw(t, "author"),
			Category: rapid.SampledFrom([]string{"c1", "life", "server"}).Draw(t, "category"),
		}
	})
}

func TestMergeServerWins_IdempotentOnConvergence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		local := rapid.SliceOf(quoteGen()).Draw(t, "local")
		remote := rapid.SliceOf(quoteGen()).Draw(t, "remote")

		// Remote snapshots carry distinct texts, as a remote list of posts does.
		remote = uniqueByText(remote)

		merged, _ := MergeServerWins(local, remote)
		again, second := MergeServerWins(append([]Quote(nil), merged...), remote)

		if !second.NoChanges() {
			t.Fatalf("second merge changed collection: %+v", second)
		}

		if len(again) != len(merged) {
			t.Fatalf("second merge changed size: %d != %d", len(again), len(merged))
		}
	})
}

func TestMergeServerWins_SizeGrowsByAdded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		local := rapid.SliceOf(quoteGen()).Draw(t, "local")
		remote := uniqueByText(rapid.SliceOf(quoteGen()).Draw(t, "remote"))
		before := len(local)

		merged, result := MergeServerWins(local, remote)

		if len(merged) != before+result.Added {
			t.Fatalf("size %d, want %d", len(merged), before+result.Added)
		}
	})
}

func uniqueByText(quotes []Quote) []Quote {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Text]; ok {
			continue
		}

		seen[q.Text] = struct{}{}
		out = append(out, q)
	}

	return out
}
