package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersAppearInExposition(t *testing.T) {
	m := New()
	m.ArticlesInserted.WithLabelValues("Example News").Inc()
	m.ArticlesInserted.WithLabelValues("Example News").Inc()
	m.ArticlesSkipped.WithLabelValues("Example News").Inc()
	m.SourceFailures.WithLabelValues("Broken Source").Inc()
	m.EnrichmentFallbacks.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `carnewsbot_articles_inserted_total{source="Example News"} 2`)
	require.Contains(t, text, `carnewsbot_articles_skipped_total{source="Example News"} 1`)
	require.Contains(t, text, `carnewsbot_source_failures_total{source="Broken Source"} 1`)
	require.Contains(t, text, "carnewsbot_enrichment_fallbacks_total 1")
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := New()
	b := New()
	a.EnrichmentFallbacks.Inc()

	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.True(t, strings.Contains(string(body), "carnewsbot_enrichment_fallbacks_total 0"))
}
