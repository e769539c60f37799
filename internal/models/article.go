package models

import (
	"time"

	"github.com/lib/pq"
)

// ArticleStatus enumerates the lifecycle states of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusScheduled ArticleStatus = "scheduled"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleStatusDraft, ArticleStatusScheduled, ArticleStatusPublished, ArticleStatusArchived:
		return true
	default:
		return false
	}
}

// Article represents a journal article stored in the articles table.
type Article struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Slug      string         `db:"slug" json:"slug"`
	Excerpt   string         `db:"excerpt" json:"excerpt"`
	Content   string         `db:"content" json:"content"`
	Category  string         `db:"category" json:"category"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Status    ArticleStatus  `db:"status" json:"status"`
	Date      *time.Time     `db:"date" json:"date,omitempty"`
	ReadTime  int            `db:"read_time" json:"read_time"`
	HeroImage *string        `db:"hero_image" json:"hero_image,omitempty"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ArticleFilter captures filtering criteria for listing articles.
type ArticleFilter struct {
	Status   *ArticleStatus
	Category string
	Search   string
	Page     int
	PageSize int
}
