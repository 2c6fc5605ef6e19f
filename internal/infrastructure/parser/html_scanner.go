package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"carnewsbot/internal/domain"
	"carnewsbot/internal/scanner"
)

// defaultLimit caps how many candidates one listing pass yields per source.
const defaultLimit = 7

// Getter is the subset of the fetch client the scanners need.
type Getter interface {
	Get(ctx context.Context, rawURL, referer string) ([]byte, error)
}

// HTMLScanner interprets a source's selector ruleset against its listing
// page. One scanner serves every HTML source; per-site behaviour lives
// entirely in configuration.
type HTMLScanner struct {
	client Getter
	logger *slog.Logger
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner wires the shared fetch client.
func NewHTMLScanner(client Getter, logger *slog.Logger) *HTMLScanner {
	return &HTMLScanner{client: client, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (s *HTMLScanner) Kind() string {
	return "html"
}

// Scan fetches the listing page and yields candidates in document order.
// A candidate missing its title or link is dropped with a logged reason;
// siblings are unaffected.
func (s *HTMLScanner) Scan(ctx context.Context, src scanner.Source) ([]domain.Candidate, error) {
	body, err := s.client.Get(ctx, src.URL, src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", src.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", src.URL, err)
	}

	limit := src.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	candidates := make([]domain.Candidate, 0, limit)
	doc.Find(src.Selectors.Container).EachWithBreak(func(i int, el *goquery.Selection) bool {
		cand, reason := parseCandidate(el, src)
		if reason != "" {
			s.debug("candidate dropped", "source", src.Name, "position", i, "reason", reason)
			return true
		}
		candidates = append(candidates, cand)
		return len(candidates) < limit
	})

	return candidates, nil
}

func parseCandidate(el *goquery.Selection, src scanner.Source) (domain.Candidate, string) {
	sel := src.Selectors

	title := strings.TrimSpace(el.Find(sel.Title).First().Text())
	if title == "" {
		return domain.Candidate{}, "empty title"
	}

	linkSel := sel.Link
	if linkSel == "" {
		linkSel = sel.Title
	}
	href, _ := el.Find(linkSel).First().Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Candidate{}, "missing link"
	}

	cand := domain.Candidate{
		Title:      title,
		Link:       absoluteURL(src.BaseURL, href),
		SourceName: src.Name,
	}

	if sel.Excerpt != "" {
		cand.Excerpt = strings.TrimSpace(el.Find(sel.Excerpt).First().Text())
	}
	if sel.Image != "" {
		if img, ok := el.Find(sel.Image).First().Attr("src"); ok {
			cand.ImageURL = absoluteURL(src.BaseURL, strings.TrimSpace(img))
		}
	}
	if sel.Category != "" {
		cand.CategoryText = strings.TrimSpace(el.Find(sel.Category).First().Text())
	}

	return cand, ""
}

// absoluteURL resolves href against the source base; already-absolute
// links pass through untouched.
func absoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func (s *HTMLScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
