package acl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

const (
	defaultPostsPath  = "/posts"
	defaultMaxRecords = 10
	defaultAuthor     = "Server"
	defaultCategory   = "server"
)

// PostsSourceConfig configures a PostsSource.
type PostsSourceConfig struct {
	// Client must have its BaseURL set to the posts API.
	Client *clients.Client

	// Path of the collection endpoint. Defaults to "/posts".
	Path string

	// MaxRecords bounds how many records one fetch consumes. Defaults to 10.
	MaxRecords int

	// Author and Category tag every translated quote.
	Author   string
	Category string

	Logger *slog.Logger
}

// PostsSource is a ports.QuoteSource over a JSON posts API such as
// jsonplaceholder. Each post's title becomes the text of a server quote.
type PostsSource struct {
	BaseAdapter

	path       string
	maxRecords int
	author     string
	category   string
	logger     *slog.Logger
}

// post is the remote record. Only the title is consumed.
type post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// NewPostsSource creates a posts source. Panics if Client is nil.
func NewPostsSource(cfg PostsSourceConfig) *PostsSource {
	if cfg.Client == nil {
		panic("PostsSource: Client is required")
	}

	if cfg.Path == "" {
		cfg.Path = defaultPostsPath
	}

	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = defaultMaxRecords
	}

	if cfg.Author == "" {
		cfg.Author = defaultAuthor
	}

	if cfg.Category == "" {
		cfg.Category = defaultCategory
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PostsSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName()),
		path:        cfg.Path,
		maxRecords:  cfg.MaxRecords,
		author:      cfg.Author,
		category:    cfg.Category,
		logger:      logger.With(slog.String("component", "acl.PostsSource")),
	}
}

// FetchQuotes retrieves the first MaxRecords posts as quotes.
// Every failure is a domain.UnavailableError.
func (s *PostsSource) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	logger := logging.FromContextOr(ctx, s.logger)
	logger.Log(ctx, logging.LevelTrace, "fetching posts", slog.String("path", s.path))

	body, err := s.Get(ctx, s.path, "fetch posts")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]post](body)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	records := *posts
	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}

	quotes, err := TranslateSlice(records, s.translate)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	logger.DebugContext(ctx, "fetched posts",
		slog.Int("received", len(*posts)),
		slog.Int("consumed", len(quotes)),
	)

	return quotes, nil
}

func (s *PostsSource) translate(p *post) (domain.Quote, error) {
	return domain.Quote{Text: p.Title, Author: s.author, Category: s.category}, nil
}

// Name implements ports.HealthChecker.
func (s *PostsSource) Name() string {
	return s.ServiceName()
}

// Check reports the source unhealthy while its circuit is open, and otherwise
// probes the collection endpoint.
func (s *PostsSource) Check(ctx context.Context) error {
	if state := s.Client().CircuitState(); state == clients.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}

	body, err := s.Get(ctx, s.path, "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
