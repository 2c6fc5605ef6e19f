package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := &pq.Error{Code: "23505", Constraint: "articles_slug_key"}
	if !isUniqueViolation(dup) {
		t.Fatal("expected 23505 to be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert article: %w", dup)) {
		t.Fatal("expected wrapped 23505 to be detected")
	}

	other := &pq.Error{Code: "23503"}
	if isUniqueViolation(other) {
		t.Fatal("foreign key violation misread as unique violation")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error misread as unique violation")
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	if got := clamp("short", 200); got != "short" {
		t.Fatalf("short string mutated: %q", got)
	}

	long := strings.Repeat("x", 600)
	if got := clamp(long, maxExcerptLen); len(got) != maxExcerptLen {
		t.Fatalf("expected clamp to %d, got %d", maxExcerptLen, len(got))
	}
}

func TestClampKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// Pound signs are two bytes each; a byte-wise cut at the limit would
	// leave a dangling lead byte and Postgres would reject the insert.
	long := "a" + strings.Repeat("£", 600)
	got := clamp(long, maxExcerptLen)

	if !utf8.ValidString(got) {
		t.Fatalf("clamp produced invalid UTF-8: % x", got[len(got)-4:])
	}
	if n := utf8.RuneCountInString(got); n != maxExcerptLen {
		t.Fatalf("expected %d runes, got %d", maxExcerptLen, n)
	}

	exact := strings.Repeat("é", maxExcerptLen)
	if clamp(exact, maxExcerptLen) != exact {
		t.Fatal("string at the rune limit should pass through unchanged")
	}
}
