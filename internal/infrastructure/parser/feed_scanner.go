package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"carnewsbot/internal/domain"
	"carnewsbot/internal/scanner"
)

// FeedScanner handles sources that publish RSS or Atom listings instead of
// scrapable HTML. Selector roles are ignored; the feed structure already
// names the fields.
type FeedScanner struct {
	client Getter
	logger *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires the shared fetch client.
func NewFeedScanner(client Getter, logger *slog.Logger) *FeedScanner {
	return &FeedScanner{client: client, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (s *FeedScanner) Kind() string {
	return "feed"
}

// Scan fetches and parses the feed, yielding candidates in feed order.
func (s *FeedScanner) Scan(ctx context.Context, src scanner.Source) ([]domain.Candidate, error) {
	body, err := s.client.Get(ctx, src.URL, src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", src.URL, err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	limit := src.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	candidates := make([]domain.Candidate, 0, limit)
	for i, item := range parsed.Items {
		if item == nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			if s.logger != nil {
				s.logger.Debug("feed item dropped", "source", src.Name, "position", i, "reason", "missing title or link")
			}
			continue
		}

		cand := domain.Candidate{
			Title:        title,
			Excerpt:      strings.TrimSpace(item.Description),
			Link:         link,
			SourceName:   src.Name,
			CategoryText: strings.Join(item.Categories, " "),
		}
		if item.Image != nil {
			cand.ImageURL = item.Image.URL
		}

		candidates = append(candidates, cand)
		if len(candidates) >= limit {
			break
		}
	}

	return candidates, nil
}
