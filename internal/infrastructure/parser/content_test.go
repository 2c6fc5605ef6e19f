package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carnewsbot/internal/infrastructure/fetch"
	"carnewsbot/internal/scanner"
)

const articleHTML = `
<html><body>
  <div class="entry-content">
    <script>trackEverything();</script>
    <p>Used car values fell for the third consecutive month as supply recovered across UK forecourts.</p>
    <p>Short.</p>
    <p>Subscribe to our newsletter for more updates straight to your inbox.</p>
    <h2>What dealers are saying</h2>
    <p>Dealers report that nearly-new stock is finally arriving in volume after two lean years.</p>
    <div class="advertisement"><p>Buy our amazing extended warranty product today and save lots!</p></div>
  </div>
</body></html>`

func TestContentExtractorSelectorPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	client := fetch.NewClient(5*time.Second, 0, nil)
	extractor := NewContentExtractor(client, nil)

	src := scanner.Source{Name: "Test", Selectors: scanner.Selectors{Content: ".entry-content"}}
	text, err := extractor.ArticleText(context.Background(), server.URL, src)
	if err != nil {
		t.Fatalf("ArticleText error: %v", err)
	}

	if !strings.Contains(text, "Used car values fell") {
		t.Fatalf("main paragraph missing: %q", text)
	}
	if !strings.Contains(text, "What dealers are saying") {
		t.Fatalf("heading missing: %q", text)
	}
	if strings.Contains(text, "Short.") {
		t.Fatalf("short fragment kept: %q", text)
	}
	if strings.Contains(text, "newsletter") {
		t.Fatalf("boilerplate kept: %q", text)
	}
	if strings.Contains(text, "warranty") {
		t.Fatalf("advertisement block kept: %q", text)
	}
	if strings.Contains(text, "trackEverything") {
		t.Fatalf("script text kept: %q", text)
	}
}

func TestContentExtractorReadabilityFallback(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Fallback Article</title></head><body><article>
	  <h1>Fallback Article</h1>
	  <p>` + strings.Repeat("The used car market continued its slow recovery this quarter. ", 8) + `</p>
	  <p>` + strings.Repeat("Analysts expect prices to stabilise as interest rates settle. ", 8) + `</p>
	  <p>` + strings.Repeat("Electric vehicles remain the fastest-moving stock on forecourts. ", 8) + `</p>
	</article></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	client := fetch.NewClient(5*time.Second, 0, nil)
	extractor := NewContentExtractor(client, nil)

	// no content selector configured: readability takes over
	src := scanner.Source{Name: "Test"}
	text, err := extractor.ArticleText(context.Background(), server.URL, src)
	if err != nil {
		t.Fatalf("ArticleText error: %v", err)
	}
	if !strings.Contains(text, "used car market") {
		t.Fatalf("fallback text missing expected content: %q", text)
	}
}

func TestContentExtractorFetchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := fetch.NewClient(5*time.Second, 0, nil)
	extractor := NewContentExtractor(client, nil)

	src := scanner.Source{Name: "Test", Selectors: scanner.Selectors{Content: ".entry-content"}}
	if _, err := extractor.ArticleText(context.Background(), server.URL, src); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestKeepParagraph(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want bool
	}{
		{"Dealers report strong demand for hybrids this spring.", true},
		{"Too short.", false},
		{"Subscribe to our newsletter for daily automotive headlines.", false},
		{"This site uses cookie banners everywhere you look, sadly.", false},
	}

	for _, tc := range cases {
		if got := keepParagraph(tc.text); got != tc.want {
			t.Fatalf("keepParagraph(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
