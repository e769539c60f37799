package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// AnalyticsRepository exposes read-optimised queries for the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// StatusCount pairs a status value with its article count.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// CategoryCount pairs a category with its article count.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}

// DayCount pairs a day bucket with its publish count.
type DayCount struct {
	Day   time.Time `db:"day"`
	Count int       `db:"count"`
}

// CountByStatus aggregates article counts per lifecycle status.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM articles GROUP BY status`
	var counts []StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count articles by status: %w", err)
	}
	return counts, nil
}

// CountByCategory aggregates article counts per category.
func (r *AnalyticsRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count FROM articles GROUP BY category ORDER BY count DESC`
	var counts []CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count articles by category: %w", err)
	}
	return counts, nil
}

// LastPublishedAt returns the most recent publish date, or nil when no
// article has been published yet.
func (r *AnalyticsRepository) LastPublishedAt(ctx context.Context) (*time.Time, error) {
	const query = `SELECT MAX(date) FROM articles WHERE status = 'published'`
	var last *time.Time
	if err := r.db.GetContext(ctx, &last, query); err != nil {
		return nil, fmt.Errorf("last published at: %w", err)
	}
	return last, nil
}

// PublishCounts buckets published articles per day inside the window.
func (r *AnalyticsRepository) PublishCounts(ctx context.Context, since time.Time) ([]DayCount, error) {
	const query = `SELECT date_trunc('day', date) AS day, COUNT(*) AS count
FROM articles WHERE status = 'published' AND date >= $1 GROUP BY day ORDER BY day ASC`
	var counts []DayCount
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("publish counts: %w", err)
	}
	return counts, nil
}
