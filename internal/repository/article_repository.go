package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-wes/fhj-content-api/internal/models"
)

// ArticleRepository persists journal articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository constructs an article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const articleColumns = "id, title, slug, excerpt, content, category, tags, status, date, read_time, hero_image, created_by, created_at, updated_at"

// List returns articles matching filters together with the total count.
func (r *ArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	base := "FROM articles"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR excerpt ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, articleColumns, base, whereClause, size, offset)
	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	return articles, total, nil
}

// GetByID fetches a single article.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1", articleColumns)
	var article models.Article
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		return nil, err
	}
	return &article, nil
}

// Create inserts a new article, generating id and timestamps when absent.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	query := `INSERT INTO articles (id, title, slug, excerpt, content, category, tags, status, date, read_time, hero_image, created_by, created_at, updated_at)
VALUES (:id, :title, :slug, :excerpt, :content, :category, :tags, :status, :date, :read_time, :hero_image, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// Update modifies an article's content fields.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now().UTC()
	query := `UPDATE articles SET title = :title, slug = :slug, excerpt = :excerpt, content = :content,
category = :category, tags = :tags, status = :status, date = :date, read_time = :read_time, hero_image = :hero_image, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// UpdateStatus transitions only the lifecycle status and publish date.
func (r *ArticleRepository) UpdateStatus(ctx context.Context, id string, status models.ArticleStatus, date *time.Time) error {
	query := `UPDATE articles SET status = $1, date = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, date, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update article status: no rows for id %s", id)
	}
	return nil
}

// Delete removes an article.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}
