package ports

import (
	"context"

	"github.com/jsamuelsen/quotegen/internal/domain"
)

// NotifyKind classifies a transient user notification.
type NotifyKind string

const (
	// NotifySuccess reports a completed user action.
	NotifySuccess NotifyKind = "success"

	// NotifyError reports a rejected action or failed sync.
	NotifyError NotifyKind = "error"

	// NotifyInfo reports a status update such as a sync summary.
	NotifyInfo NotifyKind = "info"
)

// QuoteObserver is the presentation layer's view of the store.
// The store calls these hooks after state changes; it has no other knowledge
// of how quotes are rendered.
//
// Implementations must not block: they are called on the request or sync path.
type QuoteObserver interface {
	// OnQuoteSelected is called when a quote should be displayed.
	OnQuoteSelected(ctx context.Context, quote domain.Quote)

	// OnNotify is called with a transient notification.
	OnNotify(ctx context.Context, message string, kind NotifyKind)

	// OnCategoriesChanged is called with the full category list after it may have changed.
	OnCategoriesChanged(ctx context.Context, categories []string)
}

// Observers fans calls out to every observer in order.
type Observers []QuoteObserver

// OnQuoteSelected implements QuoteObserver.
func (o Observers) OnQuoteSelected(ctx context.Context, quote domain.Quote) {
	for _, obs := range o {
		obs.OnQuoteSelected(ctx, quote)
	}
}

// OnNotify implements QuoteObserver.
func (o Observers) OnNotify(ctx context.Context, message string, kind NotifyKind) {
	for _, obs := range o {
		obs.OnNotify(ctx, message, kind)
	}
}

// OnCategoriesChanged implements QuoteObserver.
func (o Observers) OnCategoriesChanged(ctx context.Context, categories []string) {
	for _, obs := range o {
		obs.OnCategoriesChanged(ctx, categories)
	}
}

// NopObserver discards every callback.
type NopObserver struct{}

// OnQuoteSelected implements QuoteObserver.
func (NopObserver) OnQuoteSelected(context.Context, domain.Quote) {}

// OnNotify implements QuoteObserver.
func (NopObserver) OnNotify(context.Context, string, NotifyKind) {}

// OnCategoriesChanged implements QuoteObserver.
func (NopObserver) OnCategoriesChanged(context.Context, []string) {}
