package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"carnewsbot/internal/domain"
	"carnewsbot/internal/ports"
)

// Column limits from the articles schema; longer scraped values are
// clamped rather than rejected.
const (
	maxTitleLen     = 200
	maxSlugLen      = 200
	maxExcerptLen   = 500
	maxSourceURLLen = 500
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

var articleColumns = []string{
	"id", "slug", "title", "excerpt", "content", "original_content",
	"image_url", "source_name", "source_url", "category_id", "ai_summary",
	"meta_title", "meta_description", "keywords", "status", "views", "created_at",
}

// PostgresRepository persists articles and resolves categories against
// Postgres. It is the pipeline's only shared mutable resource.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindBySlug returns the article carrying slug, or nil, nil when absent.
func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	query, args, err := r.sb.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}

	return article, nil
}

// Insert stores a new article row. A slug collision from a concurrent
// insert surfaces as ports.ErrDuplicateSlug.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.Article) error {
	categoryID := uuid.NullUUID{}
	if article.CategoryID != nil {
		categoryID = uuid.NullUUID{UUID: *article.CategoryID, Valid: true}
	}

	query, args, err := r.sb.
		Insert("articles").
		Columns(articleColumns...).
		Values(
			article.ID,
			clamp(article.Slug, maxSlugLen),
			clamp(article.Title, maxTitleLen),
			clamp(article.Excerpt, maxExcerptLen),
			article.Content,
			article.OriginalContent,
			article.ImageURL,
			article.SourceName,
			clamp(article.SourceURL, maxSourceURLLen),
			categoryID,
			article.AISummary,
			article.MetaTitle,
			article.MetaDescription,
			pq.StringArray(article.Keywords),
			string(article.Status),
			article.Views,
			article.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicateSlug, article.Slug)
		}
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}

// CategoryBySlug returns the taxonomy entry for slug, or nil, nil when
// none exists.
func (r *PostgresRepository) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query, args, err := r.sb.
		Select("id", "slug", "name").
		From("categories").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}

	var category domain.Category
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&category.ID, &category.Slug, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}

	return &category, nil
}

func scanArticle(row *sql.Row) (*domain.Article, error) {
	var (
		article    domain.Article
		excerpt    sql.NullString
		content    sql.NullString
		original   sql.NullString
		imageURL   sql.NullString
		sourceName sql.NullString
		sourceURL  sql.NullString
		categoryID uuid.NullUUID
		aiSummary  sql.NullString
		metaTitle  sql.NullString
		metaDesc   sql.NullString
		keywords   pq.StringArray
		status     string
	)

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &excerpt, &content, &original,
		&imageURL, &sourceName, &sourceURL, &categoryID, &aiSummary,
		&metaTitle, &metaDesc, &keywords, &status, &article.Views, &article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Excerpt = excerpt.String
	article.Content = content.String
	article.OriginalContent = original.String
	article.ImageURL = imageURL.String
	article.SourceName = sourceName.String
	article.SourceURL = sourceURL.String
	if categoryID.Valid {
		id := categoryID.UUID
		article.CategoryID = &id
	}
	article.AISummary = aiSummary.String
	article.MetaTitle = metaTitle.String
	article.MetaDescription = metaDesc.String
	article.Keywords = keywords
	article.Status = domain.ArticleStatus(status)

	return &article, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// clamp truncates to max runes. Postgres varchar(n) counts characters,
// and a byte slice could split a multi-byte rune into invalid UTF-8.
func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
