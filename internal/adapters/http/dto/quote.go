package dto

import "github.com/jsamuelsen/quotegen/internal/domain"

// QuoteRequest is the body of POST /quotes. Emptiness is checked by the store
// so that its rejection notice is emitted; only sizes are bounded here.
type QuoteRequest struct {
	Text     string `json:"text"     validate:"max=2000"`
	Author   string `json:"author"   validate:"max=200"`
	Category string `json:"category" validate:"max=100"`
}

// ToDomain converts the request to a domain quote.
func (r QuoteRequest) ToDomain() domain.Quote {
	return domain.Quote{Text: r.Text, Author: r.Author, Category: r.Category}
}

// QuoteResponse is a quote on the wire.
type QuoteResponse struct {
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// FromQuote converts a domain quote.
func FromQuote(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Author: q.Author, Category: q.Category}
}

// FromQuotes converts a slice of domain quotes, never returning nil.
func FromQuotes(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = FromQuote(q)
	}

	return out
}

// ListQuotesRequest is the query of GET /quotes.
// Without limit or cursor the whole filtered collection is returned.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category" validate:"omitempty,max=100"`
}

// Paginated reports whether the caller asked for a page.
func (r *ListQuotesRequest) Paginated() bool {
	return r.Limit > 0 || r.Cursor != ""
}

// RandomQuoteRequest is the query of GET /quotes/random.
// An empty category means the last selected one.
type RandomQuoteRequest struct {
	Category string `form:"category" validate:"omitempty,max=100"`
}

// SelectCategoryRequest is the body of PUT /categories/selected.
type SelectCategoryRequest struct {
	Category string `json:"category" validate:"required,notempty,max=100"`
}

// CategoriesResponse lists the distinct categories and the current selection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// ImportResponse reports an accepted import.
type ImportResponse struct {
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

// SyncResponse reports a completed sync.
type SyncResponse struct {
	Added     int    `json:"added"`
	Conflicts int    `json:"conflicts"`
	Message   string `json:"message"`
}

// FromSyncResult converts a merge summary.
func FromSyncResult(r domain.SyncResult) SyncResponse {
	return SyncResponse{Added: r.Added, Conflicts: r.Conflicts, Message: r.Summary()}
}
