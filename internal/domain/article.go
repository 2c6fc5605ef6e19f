package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus enumerates the publication states stored alongside an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// Candidate is an unpersisted record extracted from one listing entry.
// It lives only for the duration of a single ingestion pass.
type Candidate struct {
	Title        string
	Excerpt      string
	ImageURL     string
	CategoryText string
	Link         string
	SourceName   string
}

// Category is a persisted taxonomy entry. The pipeline resolves categories
// by slug; it never creates them.
type Category struct {
	ID   uuid.UUID
	Slug string
	Name string
}

// Article is the persisted entity produced by the ingestion pipeline.
// Slug is the deduplication key: one stored row per slug, ever.
type Article struct {
	ID              uuid.UUID
	Slug            string
	Title           string
	Excerpt         string
	Content         string
	OriginalContent string
	ImageURL        string
	SourceName      string
	SourceURL       string
	CategoryID      *uuid.UUID
	AISummary       string
	MetaTitle       string
	MetaDescription string
	Keywords        []string
	Status          ArticleStatus
	Views           int
	CreatedAt       time.Time
}

// Enrichment is the structured output of the generative-text service when
// it is asked to regenerate every publishable field.
type Enrichment struct {
	Title           string
	Excerpt         string
	Content         string
	MetaTitle       string
	MetaDescription string
	Keywords        []string
	Summary         string
}
