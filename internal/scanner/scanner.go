package scanner

import (
	"context"
	"fmt"

	"carnewsbot/internal/domain"
)

// Selectors names the CSS roles applied to a source's listing markup.
// Title and Link are required for a candidate to survive extraction; the
// rest are optional per source.
type Selectors struct {
	Container string
	Title     string
	Excerpt   string
	Image     string
	Category  string
	Link      string
	Content   string
}

// Source describes one external site: where to fetch the listing and how
// to pick fields out of it. Sources are static configuration; adding one
// requires no pipeline code change.
type Source struct {
	Name      string
	URL       string
	BaseURL   string
	Kind      string
	Limit     int
	Selectors Selectors
}

// Scanner captures a single listing strategy (selector-driven HTML,
// RSS/Atom, etc.).
type Scanner interface {
	Kind() string
	Scan(ctx context.Context, src Source) ([]domain.Candidate, error)
}

// Registry keeps a mapping from scanner kinds to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Kind()] = scanner
}

// Resolve returns a scanner by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Scanner, error) {
	if scanner, ok := r.scanners[kind]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", kind)
}
