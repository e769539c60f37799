package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-wes/fhj-content-api/internal/models"
)

func newArticleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestArticleRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newArticleRepoMock(t)
	defer cleanup()

	repo := NewArticleRepository(db)
	rows := sqlmock.NewRows([]string{"id", "title", "slug", "excerpt", "content", "category", "tags", "status", "date", "read_time", "hero_image", "created_by", "created_at", "updated_at"}).
		AddRow("a1", "The Synthetic Decade", "the-synthetic-decade", "", "body", "AI", pq.StringArray{"ai"}, "draft", nil, 7, nil, "u1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, title, slug").
		WithArgs("draft").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.ArticleStatusDraft
	articles, total, err := repo.List(context.Background(), models.ArticleFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a1", articles[0].ID)
}

func TestArticleRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newArticleRepoMock(t)
	defer cleanup()

	repo := NewArticleRepository(db)
	mock.ExpectExec("INSERT INTO articles").
		WillReturnResult(sqlmock.NewResult(1, 1))

	article := &models.Article{
		Title:    "Neural Lace Update",
		Slug:     "neural-lace-update",
		Content:  "body",
		Category: "Biotech",
		Status:   models.ArticleStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), article))
	assert.NotEmpty(t, article.ID)
	assert.False(t, article.CreatedAt.IsZero())
}

func TestArticleRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newArticleRepoMock(t)
	defer cleanup()

	repo := NewArticleRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE articles SET status").
		WithArgs(models.ArticleStatusPublished, &now, sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", models.ArticleStatusPublished, &now))
}

func TestArticleRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newArticleRepoMock(t)
	defer cleanup()

	repo := NewArticleRepository(db)
	mock.ExpectExec("UPDATE articles SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ArticleStatusPublished, nil)
	require.Error(t, err)
}
