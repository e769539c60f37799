package dto

import "time"

// CreateEventRequest creates a manual (unlinked) calendar entry.
type CreateEventRequest struct {
	Title         string    `json:"title" validate:"required"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Platform      string    `json:"platform" validate:"required,platform"`
}

// UpdateEventRequest patches an existing calendar entry. Nil fields are untouched.
type UpdateEventRequest struct {
	Title         *string    `json:"title"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Platform      *string    `json:"platform" validate:"omitempty,platform"`
}

// ScheduleRequest attaches a publish schedule to an article. Exactly one of
// ArticleID (already persisted) or Draft (not yet persisted) must be set.
type ScheduleRequest struct {
	Title         string        `json:"title"`
	ScheduledDate time.Time     `json:"scheduled_date" validate:"required"`
	Platform      string        `json:"platform" validate:"required,platform"`
	ArticleID     *string       `json:"article_id"`
	Draft         *ArticleDraft `json:"draft"`
}

// EventListQuery filters calendar event listings.
type EventListQuery struct {
	ArticleID string `form:"article_id"`
	Pending   bool   `form:"pending"`
}
