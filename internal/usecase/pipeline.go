package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"carnewsbot/internal/config"
	"carnewsbot/internal/domain"
	"carnewsbot/internal/metrics"
	"carnewsbot/internal/ports"
	"carnewsbot/internal/scanner"
	"carnewsbot/internal/security"
)

// excerptLimit bounds the excerpt synthesized from article content when a
// source provides none.
const excerptLimit = 200

// Classifier maps free-form category text to a persisted taxonomy entry.
type Classifier interface {
	Classify(ctx context.Context, categoryText string) (*domain.Category, error)
}

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Registry   *scanner.Registry
	Repository ports.ArticleRepository
	Classifier Classifier
	Content    ports.ContentFetcher
	Enricher   ports.Enricher
	Sanitizer  *security.Sanitizer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Sources    []scanner.Source
	Workers    int
	Mode       string
}

// Pipeline implements one full ingestion pass: scan every configured
// source, extract candidates, and persist the ones not seen before.
type Pipeline struct {
	registry   *scanner.Registry
	repository ports.ArticleRepository
	classifier Classifier
	content    ports.ContentFetcher
	enricher   ports.Enricher
	sanitizer  *security.Sanitizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	sources    []scanner.Source
	workers    int
	mode       string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := deps.Mode
	if mode == "" {
		mode = config.EnrichmentOff
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	return &Pipeline{
		registry:   deps.Registry,
		repository: deps.Repository,
		classifier: deps.Classifier,
		content:    deps.Content,
		enricher:   deps.Enricher,
		sanitizer:  deps.Sanitizer,
		metrics:    m,
		logger:     logger,
		sources:    deps.Sources,
		workers:    workers,
		mode:       mode,
	}
}

// Run scans every configured source once. Sources are processed by a
// bounded worker pool; candidates within one source stay sequential so
// per-host pacing holds. A failing source never aborts the others.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.sources) == 0 {
		p.logger.Warn("no sources configured, nothing to do")
		return nil
	}

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for _, src := range p.sources {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(src scanner.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processSource(ctx, src)
		}(src)
	}

	wg.Wait()
	return ctx.Err()
}

func (p *Pipeline) processSource(ctx context.Context, src scanner.Source) {
	logger := p.logger.With("source", src.Name)

	strategy, err := p.registry.Resolve(src.Kind)
	if err != nil {
		logger.Error("unknown scanner kind", "kind", src.Kind, "error", err)
		p.metrics.SourceFailures.WithLabelValues(src.Name).Inc()
		return
	}

	candidates, err := strategy.Scan(ctx, src)
	if err != nil {
		logger.Error("listing scan failed", "error", err)
		p.metrics.SourceFailures.WithLabelValues(src.Name).Inc()
		return
	}

	logger.Info("listing scanned", "candidates", len(candidates))

	var inserted, skipped int
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return
		}

		ok, err := p.processCandidate(ctx, candidate, src)
		switch {
		case err != nil:
			logger.Warn("candidate dropped", "title", candidate.Title, "error", err)
			p.metrics.CandidateFailures.WithLabelValues(src.Name).Inc()
		case ok:
			inserted++
			p.metrics.ArticlesInserted.WithLabelValues(src.Name).Inc()
		default:
			skipped++
			p.metrics.ArticlesSkipped.WithLabelValues(src.Name).Inc()
		}
	}

	logger.Info("source done", "inserted", inserted, "skipped", skipped)
}

// processCandidate runs one candidate through the dedup gate, content
// extraction, classification, and enrichment. It returns true when a new
// article was persisted and false for a duplicate skip.
func (p *Pipeline) processCandidate(ctx context.Context, candidate domain.Candidate, src scanner.Source) (bool, error) {
	title := p.clean(candidate.Title)
	if title == "" {
		return false, errors.New("empty title after sanitizing")
	}

	slug := domain.Slugify(title)
	if slug == "" {
		return false, fmt.Errorf("title %q yields an empty slug", title)
	}

	existing, err := p.repository.FindBySlug(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		p.logger.Info("article already exists, skipping", "slug", slug, "source", src.Name)
		return false, nil
	}

	article := domain.Article{
		ID:         uuid.New(),
		Slug:       slug,
		Title:      title,
		Excerpt:    p.clean(candidate.Excerpt),
		ImageURL:   candidate.ImageURL,
		SourceName: src.Name,
		SourceURL:  candidate.Link,
		Status:     domain.StatusPublished,
		CreatedAt:  time.Now().UTC(),
	}

	article.CategoryID = p.classify(ctx, candidate)

	content := p.fetchContent(ctx, candidate, src)
	article.Content = content
	article.OriginalContent = content

	p.enrich(ctx, &article, content)

	if article.Excerpt == "" && article.Content != "" {
		article.Excerpt = synthesizeExcerpt(article.Content)
	}

	if err := p.repository.Insert(ctx, article); err != nil {
		if errors.Is(err, ports.ErrDuplicateSlug) {
			p.logger.Info("article already exists, skipping", "slug", slug, "source", src.Name)
			return false, nil
		}
		return false, fmt.Errorf("persist: %w", err)
	}

	return true, nil
}

// classify resolves a category from the candidate's category text, falling
// back to its title and excerpt. Classification failures never block an
// insert; the article just stays uncategorized.
func (p *Pipeline) classify(ctx context.Context, candidate domain.Candidate) *uuid.UUID {
	if p.classifier == nil {
		return nil
	}

	text := candidate.CategoryText
	if strings.TrimSpace(text) == "" {
		text = candidate.Title + " " + candidate.Excerpt
	}

	category, err := p.classifier.Classify(ctx, text)
	if err != nil {
		p.logger.Warn("classification failed", "title", candidate.Title, "error", err)
		return nil
	}
	if category == nil {
		return nil
	}

	id := category.ID
	return &id
}

// fetchContent retrieves the full article body. Failures are
// candidate-scoped: the article is still persisted, just without content
// or enrichment.
func (p *Pipeline) fetchContent(ctx context.Context, candidate domain.Candidate, src scanner.Source) string {
	if p.content == nil || candidate.Link == "" {
		return ""
	}

	content, err := p.content.ArticleText(ctx, candidate.Link, src)
	if err != nil {
		p.logger.Warn("content extraction failed", "link", candidate.Link, "error", err)
		return ""
	}

	return content
}

// enrich applies the configured generative-text stage. Any enrichment
// failure falls back to the scraped fields.
func (p *Pipeline) enrich(ctx context.Context, article *domain.Article, content string) {
	if p.enricher == nil || p.mode == config.EnrichmentOff || content == "" {
		return
	}

	switch p.mode {
	case config.EnrichmentSummary:
		summary, err := p.enricher.Summarize(ctx, content)
		if err != nil {
			p.logger.Warn("summary enrichment failed", "slug", article.Slug, "error", err)
			p.countFallback()
			return
		}
		article.AISummary = summary

	case config.EnrichmentFull:
		enrichment, err := p.enricher.Generate(ctx, content)
		if err != nil {
			p.logger.Warn("full enrichment failed", "slug", article.Slug, "error", err)
			p.countFallback()
			return
		}
		// The slug stays derived from the scraped title so reruns keep
		// deduplicating even when generated titles vary.
		article.Title = p.clean(enrichment.Title)
		article.Excerpt = p.clean(enrichment.Excerpt)
		article.Content = enrichment.Content
		article.MetaTitle = enrichment.MetaTitle
		article.MetaDescription = enrichment.MetaDescription
		article.Keywords = enrichment.Keywords
		article.AISummary = enrichment.Summary
	}
}

func (p *Pipeline) countFallback() {
	p.metrics.EnrichmentFallbacks.Inc()
}

func (p *Pipeline) clean(in string) string {
	if p.sanitizer == nil {
		return strings.TrimSpace(in)
	}
	return p.sanitizer.Plain(in)
}

// synthesizeExcerpt trims article content down to a short teaser.
func synthesizeExcerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= excerptLimit {
		return content
	}
	return strings.TrimSpace(string(runes[:excerptLimit])) + "…"
}
