package ports

import (
	"context"
	"errors"
	"time"

	"carnewsbot/internal/domain"
	"carnewsbot/internal/scanner"
)

// ErrDuplicateSlug reports a slug uniqueness violation on insert. The
// persistence gate treats it as a successful skip, never as a failure.
var ErrDuplicateSlug = errors.New("article with this slug already exists")

// ArticleRepository persists articles and resolves categories.
type ArticleRepository interface {
	// FindBySlug returns nil, nil when no article carries the slug.
	FindBySlug(ctx context.Context, slug string) (*domain.Article, error)
	// Insert stores a new article; a concurrent slug collision surfaces
	// as ErrDuplicateSlug.
	Insert(ctx context.Context, article domain.Article) error
	// CategoryBySlug returns nil, nil when the taxonomy entry is absent.
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// Enricher invokes the generative-text service.
type Enricher interface {
	// Summarize returns a short editorial summary of the article text.
	Summarize(ctx context.Context, content string) (string, error)
	// Generate regenerates every publishable field from the article text.
	// A malformed or incomplete response is a hard error; callers fall
	// back to the scraped candidate.
	Generate(ctx context.Context, content string) (domain.Enrichment, error)
}

// ContentFetcher retrieves and extracts the full text of one article page.
type ContentFetcher interface {
	ArticleText(ctx context.Context, link string, src scanner.Source) (string, error)
}

// Scheduler controls when ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
