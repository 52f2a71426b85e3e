// Package acl is the anti-corruption layer between remote services and the
// domain.
//
// Remote DTOs stay unexported inside this package and are translated into
// domain types before they leave it. Every remote failure, whether a transport
// error, an open circuit or a non-2xx status, becomes a [domain.UnavailableError],
// which is the only remote failure the sync algorithm distinguishes.
//
// # Components
//
//   - [BaseAdapter]: embeddable GET-and-map helper around [clients.Client]
//   - [MapHTTPError]: response and client error mapping
//   - [DecodeResponse]: generic JSON decoder
//   - [TranslateSlice]: batch translation helper
//   - [PostsSource]: the [ports.QuoteSource] backed by a posts API
//
// A new adapter embeds [BaseAdapter], defines its DTO next to it, and
// translates with a [Translator]:
//
//	type remoteQuote struct {
//	    Body string `json:"body"`
//	}
//
//	func (a *MyAdapter) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
//	    body, err := a.Get(ctx, "/quotes", "fetch quotes")
//	    if err != nil {
//	        return nil, err // already a domain error
//	    }
//
//	    records, err := acl.DecodeResponse[[]remoteQuote](body)
//	    if err != nil {
//	        return nil, domain.NewUnavailableError(a.ServiceName(), err.Error())
//	    }
//
//	    return acl.TranslateSlice(*records, a.translate)
//	}
package acl
