package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carnewsbot/internal/infrastructure/fetch"
	"carnewsbot/internal/scanner"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://feed.example</link>
    <item>
      <title>EV sales keep climbing</title>
      <link>https://feed.example/ev-sales</link>
      <description>Battery cars took a record share.</description>
      <category>Electric</category>
    </item>
    <item>
      <title></title>
      <link>https://feed.example/broken</link>
    </item>
    <item>
      <title>Classic auctions heat up</title>
      <link>https://feed.example/classics</link>
      <category>Classic</category>
      <category>Auctions</category>
    </item>
  </channel>
</rss>`

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	client := fetch.NewClient(5*time.Second, 0, nil)
	sc := NewFeedScanner(client, nil)

	src := scanner.Source{Name: "Test Feed", URL: server.URL, Kind: "feed"}
	candidates, err := sc.Scan(context.Background(), src)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	// the item without a title is dropped
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	if candidates[0].Title != "EV sales keep climbing" {
		t.Fatalf("unexpected title: %s", candidates[0].Title)
	}
	if candidates[0].Excerpt != "Battery cars took a record share." {
		t.Fatalf("unexpected excerpt: %s", candidates[0].Excerpt)
	}
	if candidates[0].CategoryText != "Electric" {
		t.Fatalf("unexpected category text: %s", candidates[0].CategoryText)
	}
	if candidates[1].CategoryText != "Classic Auctions" {
		t.Fatalf("categories not joined: %s", candidates[1].CategoryText)
	}
}

func TestFeedScannerBadXML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	client := fetch.NewClient(5*time.Second, 0, nil)
	sc := NewFeedScanner(client, nil)

	src := scanner.Source{Name: "Broken Feed", URL: server.URL, Kind: "feed"}
	if _, err := sc.Scan(context.Background(), src); err == nil {
		t.Fatal("expected parse error")
	}
}
