// Package store persists articles in PostgreSQL. It is the only owner of
// record state; pipelines and handlers go through its narrow contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsdesk/internal/model"
)

var (
	// ErrDuplicate means an article with the same source URL already exists.
	ErrDuplicate = errors.New("article already exists")
	// ErrNotFound means no article matched the given id.
	ErrNotFound = errors.New("article not found")
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS news_articles (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title TEXT NOT NULL,
	original_content TEXT NOT NULL,
	summary TEXT NOT NULL,
	source_name TEXT NOT NULL,
	source_url TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	relevance_score INT NOT NULL,
	linkedin_post TEXT,
	generated_image_url TEXT,
	approval_status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const articleColumns = `id, title, original_content, summary, source_name, source_url,
	category, published_at, relevance_score, linkedin_post, generated_image_url,
	approval_status, created_at, updated_at`

// ArticleStore is a PostgreSQL-backed article repository.
type ArticleStore struct {
	pool *pgxpool.Pool
}

// NewArticleStore creates an ArticleStore on the given pool.
func NewArticleStore(pool *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

// EnsureSchema creates the articles table if it does not exist.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Exists reports whether an article with the source URL is already stored.
func (s *ArticleStore) Exists(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM news_articles WHERE source_url = $1)`, sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new article and returns it with store-assigned fields.
// The unique source_url constraint is the final dedup guard.
func (s *ArticleStore) Create(ctx context.Context, a model.StoredArticle) (model.StoredArticle, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO news_articles (title, original_content, summary, source_name, source_url,
			category, published_at, relevance_score, linkedin_post, generated_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+articleColumns,
		a.Title, a.OriginalContent, a.Summary, a.SourceName, a.SourceURL,
		a.Category, a.PublishedAt, a.RelevanceScore, a.LinkedInPost, a.GeneratedImageURL,
	)
	created, err := scanArticle(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.StoredArticle{}, fmt.Errorf("%w: source_url=%s", ErrDuplicate, a.SourceURL)
		}
		return model.StoredArticle{}, fmt.Errorf("create article: %w", err)
	}
	return created, nil
}

// Get returns the article with the given id.
func (s *ArticleStore) Get(ctx context.Context, id int64) (model.StoredArticle, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM news_articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StoredArticle{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return model.StoredArticle{}, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// Update applies a partial update and returns the resulting article.
func (s *ArticleStore) Update(ctx context.Context, id int64, upd model.ArticleUpdate) (model.StoredArticle, error) {
	if upd.Empty() {
		return s.Get(ctx, id)
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Summary != nil {
		add("summary", *upd.Summary)
	}
	if upd.RelevanceScore != nil {
		add("relevance_score", *upd.RelevanceScore)
	}
	if upd.LinkedInPost != nil {
		add("linkedin_post", *upd.LinkedInPost)
	}
	if upd.GeneratedImageURL != nil {
		add("generated_image_url", *upd.GeneratedImageURL)
	}
	if upd.ApprovalStatus != nil {
		add("approval_status", *upd.ApprovalStatus)
	}

	query := fmt.Sprintf(
		`UPDATE news_articles SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), articleColumns,
	)
	a, err := scanArticle(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StoredArticle{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return model.StoredArticle{}, fmt.Errorf("update article: %w", err)
	}
	return a, nil
}

// ListApproved returns up to limit approved articles ordered by relevance
// score descending, for use as analyst exemplars.
func (s *ArticleStore) ListApproved(ctx context.Context, limit int) ([]model.StoredArticle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM news_articles
		 WHERE approval_status = $1
		 ORDER BY relevance_score DESC
		 LIMIT $2`, model.ApprovalApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("list approved articles: %w", err)
	}
	defer rows.Close()
	return collectArticles(rows)
}

// All returns every stored article ordered by id, for batch regeneration.
func (s *ArticleStore) All(ctx context.Context) ([]model.StoredArticle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM news_articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	return collectArticles(rows)
}

// ListFilter narrows and pages the article listing.
type ListFilter struct {
	Search         string
	Category       string
	MinScore       int // 0 = unset
	MaxScore       int // 0 = unset
	ApprovalStatus string
	Limit          int
	Offset         int
}

// List returns the filtered page of articles ordered by relevance score
// descending then publish date descending, plus the total match count.
func (s *ArticleStore) List(ctx context.Context, f ListFilter) ([]model.StoredArticle, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if strings.TrimSpace(f.Search) != "" {
		add("(title ILIKE $%[1]d OR summary ILIKE $%[1]d OR original_content ILIKE $%[1]d)",
			"%"+f.Search+"%")
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.MinScore > 0 {
		add("relevance_score >= $%d", f.MinScore)
	}
	if f.MaxScore > 0 {
		add("relevance_score <= $%d", f.MaxScore)
	}
	if f.ApprovalStatus != "" {
		add("approval_status = $%d", f.ApprovalStatus)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM news_articles WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 15
	}
	query := fmt.Sprintf(
		`SELECT %s FROM news_articles WHERE %s
		 ORDER BY relevance_score DESC, published_at DESC
		 LIMIT $%d OFFSET $%d`,
		articleColumns, cond, len(args)+1, len(args)+2,
	)
	rows, err := s.pool.Query(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	articles, err := collectArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func scanArticle(row pgx.Row) (model.StoredArticle, error) {
	var a model.StoredArticle
	err := row.Scan(
		&a.ID, &a.Title, &a.OriginalContent, &a.Summary, &a.SourceName, &a.SourceURL,
		&a.Category, &a.PublishedAt, &a.RelevanceScore, &a.LinkedInPost, &a.GeneratedImageURL,
		&a.ApprovalStatus, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func collectArticles(rows pgx.Rows) ([]model.StoredArticle, error) {
	var out []model.StoredArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
