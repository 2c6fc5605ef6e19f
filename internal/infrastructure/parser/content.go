package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"carnewsbot/internal/ports"
	"carnewsbot/internal/scanner"
)

// minParagraphLen filters out captions, bylines and navigation fragments.
const minParagraphLen = 20

// junkSelectors are stripped from the content container before the
// paragraph walk.
const junkSelectors = "script, style, .advertisement, .social-share, .related-posts, .widget, .sidebar, nav, header, footer, .newsletter, .subscription"

// skipPhrases mark boilerplate paragraphs that pollute scraped article text.
var skipPhrases = []string{
	"related", "advertisement", "subscribe", "newsletter",
	"cookie", "privacy", "follow us", "share this",
}

// ContentExtractor retrieves one article page and reduces it to plain
// text. Sources with a content selector get the selector walk; everything
// else goes through readability.
type ContentExtractor struct {
	client Getter
	logger *slog.Logger
}

var _ ports.ContentFetcher = (*ContentExtractor)(nil)

// NewContentExtractor wires the shared fetch client.
func NewContentExtractor(client Getter, logger *slog.Logger) *ContentExtractor {
	return &ContentExtractor{client: client, logger: logger}
}

// ArticleText fetches link and extracts the article body as plain text.
func (e *ContentExtractor) ArticleText(ctx context.Context, link string, src scanner.Source) (string, error) {
	body, err := e.client.Get(ctx, link, src.BaseURL)
	if err != nil {
		return "", fmt.Errorf("article %s: %w", link, err)
	}

	if src.Selectors.Content != "" {
		if text := extractBySelector(body, src.Selectors.Content); text != "" {
			return text, nil
		}
		if e.logger != nil {
			e.logger.Debug("content selector matched nothing, trying readability", "url", link)
		}
	}

	return extractReadable(body, link)
}

// extractBySelector walks p/h2/h3/h4 descendants of the configured
// container, keeping paragraphs that look like prose.
func extractBySelector(body []byte, selector string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return ""
	}
	container.Find(junkSelectors).Remove()

	var paragraphs []string
	container.Find("p, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if keepParagraph(text) {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n\n")
}

func keepParagraph(text string) bool {
	if len(text) <= minParagraphLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range skipPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

func extractReadable(body []byte, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		pageURL = nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability %s: %w", link, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", errors.New("no readable content extracted")
	}
	return text, nil
}
