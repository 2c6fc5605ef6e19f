package classify

import (
	"context"
	"log/slog"
	"strings"

	"carnewsbot/internal/domain"
)

// rule binds a canonical category slug to its keyword substrings. Slice
// order is the match priority: the first rule with any case-insensitive
// substring hit wins, regardless of how specific later rules would be.
type rule struct {
	slug     string
	keywords []string
}

var rules = []rule{
	{slug: "electric", keywords: []string{"ev", "electric", "battery", "tesla"}},
	{slug: "suv", keywords: []string{"suv", "crossover", "4x4"}},
	{slug: "luxury", keywords: []string{"luxury", "premium", "bentley", "rolls-royce"}},
	{slug: "budget", keywords: []string{"budget", "affordable", "cheap"}},
	{slug: "classic", keywords: []string{"classic", "vintage", "retro"}},
}

// CategoryResolver looks up persisted taxonomy entries by slug.
type CategoryResolver interface {
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// Classifier maps free-text category signals onto the persisted taxonomy.
// It only ever resolves categories; creating them is an admin concern.
type Classifier struct {
	resolver CategoryResolver
	logger   *slog.Logger
}

// New wires the classifier to a category resolver.
func New(resolver CategoryResolver, logger *slog.Logger) *Classifier {
	return &Classifier{resolver: resolver, logger: logger}
}

// Classify returns the matching persisted category, or nil, nil when the
// text matches nothing or the matched slug has no persisted entry. The
// caller persists with a null category reference in the nil case.
func (c *Classifier) Classify(ctx context.Context, categoryText string) (*domain.Category, error) {
	slug := MatchSlug(categoryText)
	if slug == "" {
		return nil, nil
	}

	category, err := c.resolver.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		if c.logger != nil {
			c.logger.Debug("matched category slug has no persisted entry", "slug", slug)
		}
		return nil, nil
	}

	return category, nil
}

// MatchSlug applies the keyword table to categoryText and returns the
// winning slug, or "" when nothing matches. Pure; no I/O.
func MatchSlug(categoryText string) string {
	text := strings.ToLower(strings.TrimSpace(categoryText))
	if text == "" {
		return ""
	}

	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(text, keyword) {
				return r.slug
			}
		}
	}

	return ""
}
