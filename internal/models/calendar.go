package models

import "time"

// EventType distinguishes manual posts from article-linked entries.
type EventType string

const (
	EventTypeScheduledPost EventType = "scheduled_post"
	EventTypeArticle       EventType = "article"
)

// EventStatus tracks whether a calendar entry has been acted upon.
// An empty status is treated as scheduled.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusPublished EventStatus = "published"
)

// Platform labels the distribution target of a calendar entry. It is
// descriptive metadata only; no platform integration is performed.
type Platform string

const (
	PlatformWebsite   Platform = "Website"
	PlatformWordPress Platform = "WordPress"
	PlatformMedium    Platform = "Medium"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformTwitter   Platform = "Twitter"
)

// Valid reports whether the platform is one of the known targets.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWebsite, PlatformWordPress, PlatformMedium, PlatformLinkedIn, PlatformTwitter:
		return true
	default:
		return false
	}
}

// CalendarEvent represents one entry of the content calendar. The whole
// collection is persisted as a single JSON document (see repository.EventStore).
type CalendarEvent struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	ScheduledDate time.Time   `json:"scheduled_date"`
	Platform      Platform    `json:"platform"`
	Type          EventType   `json:"type"`
	ArticleID     *string     `json:"article_id,omitempty"`
	Status        EventStatus `json:"status,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Pending reports whether the event still awaits publication. Events
// persisted without a status are pending.
func (e CalendarEvent) Pending() bool {
	return e.Status != EventStatusPublished
}

// Due reports whether the event's scheduled date is at or before now.
func (e CalendarEvent) Due(now time.Time) bool {
	return !e.ScheduledDate.After(now)
}

// CalendarEventPatch carries a partial update for an event. Nil fields are
// left untouched.
type CalendarEventPatch struct {
	Title         *string
	ScheduledDate *time.Time
	Platform      *Platform
	Status        *EventStatus
}
