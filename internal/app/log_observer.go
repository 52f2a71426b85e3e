package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

// LogObserver writes store callbacks to the structured log.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer that logs through logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogObserver{logger: logger.With(slog.String("component", "app.LogObserver"))}
}

// OnQuoteSelected implements ports.QuoteObserver.
func (o *LogObserver) OnQuoteSelected(ctx context.Context, quote domain.Quote) {
	logging.FromContextOr(ctx, o.logger).DebugContext(ctx, "quote selected",
		slog.String("author", quote.Author),
		slog.String("category", quote.Category),
	)
}

// OnNotify implements ports.QuoteObserver.
func (o *LogObserver) OnNotify(ctx context.Context, message string, kind ports.NotifyKind) {
	level := slog.LevelInfo
	if kind == ports.NotifyError {
		level = slog.LevelWarn
	}

	logging.FromContextOr(ctx, o.logger).Log(ctx, level, "notification",
		slog.String("kind", string(kind)),
		slog.String("message", message),
	)
}

// OnCategoriesChanged implements ports.QuoteObserver.
func (o *LogObserver) OnCategoriesChanged(ctx context.Context, categories []string) {
	logging.FromContextOr(ctx, o.logger).DebugContext(ctx, "categories changed",
		slog.Any("categories", categories),
	)
}
