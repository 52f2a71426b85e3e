// Package domain contains core business entities and rules.
package domain

import (
	"math/rand/v2"
	"strings"
)

// AllCategories is the category filter sentinel that matches every quote.
const AllCategories = "all"

// Quote represents a quotation with its author and category.
// Text is the natural key used to match quotes during a merge.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// Text is the quotation itself.
	Text string `json:"text"`

	// Author is who said or wrote the quote.
	Author string `json:"author"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// Normalize returns the quote with surrounding whitespace trimmed from every
// field and the category lower-cased. This is the shape manual entries are stored in.
func (q Quote) Normalize() Quote {
	return Quote{
		Text:     strings.TrimSpace(q.Text),
		Author:   strings.TrimSpace(q.Author),
		Category: strings.ToLower(strings.TrimSpace(q.Category)),
	}
}

// Validate checks that text, author and category are non-empty after trimming.
// The first empty field is reported.
func (q Quote) Validate() error {
	switch {
	case strings.TrimSpace(q.Text) == "":
		return NewValidationError("text", "is required")
	case strings.TrimSpace(q.Author) == "":
		return NewValidationError("author", "is required")
	case strings.TrimSpace(q.Category) == "":
		return NewValidationError("category", "is required")
	}

	return nil
}

// PlaceholderQuote is shown when no quote matches the selected category.
var PlaceholderQuote = Quote{
	Text:     "No quotes available for this category.",
	Author:   "System",
	Category: "info",
}

// FilterByCategory returns the quotes whose category equals category exactly.
// AllCategories returns a copy of the full collection in order.
func FilterByCategory(quotes []Quote, category string) []Quote {
	if category == AllCategories {
		return append([]Quote(nil), quotes...)
	}

	filtered := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Category == category {
			filtered = append(filtered, q)
		}
	}

	return filtered
}

// Categories returns the distinct categories in first-seen order.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	categories := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}

	return categories
}

// PickRandom selects a quote uniformly at random.
// Returns ErrNoQuotes when the collection is empty. A nil rng uses the
// package-level source.
func PickRandom(quotes []Quote, rng *rand.Rand) (Quote, error) {
	if len(quotes) == 0 {
		return Quote{}, ErrNoQuotes
	}

	var i int
	if rng != nil {
		i = rng.IntN(len(quotes))
	} else {
		i = rand.IntN(len(quotes)) //nolint:gosec // No need for crypto-grade randomness
	}

	return quotes[i], nil
}
