package dto

import "time"

// AnalyticsSummary aggregates content state for the dashboard.
type AnalyticsSummary struct {
	TotalArticles   int            `json:"total_articles"`
	ByStatus        map[string]int `json:"by_status"`
	ByCategory      map[string]int `json:"by_category"`
	UpcomingEvents  int            `json:"upcoming_events"`
	OverdueEvents   int            `json:"overdue_events"`
	LastPublishedAt *time.Time     `json:"last_published_at,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// PublishingCadencePoint counts publishes in one day bucket.
type PublishingCadencePoint struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PublishingCadence reports publish counts over a trailing window.
type PublishingCadence struct {
	WindowDays  int                      `json:"window_days"`
	Points      []PublishingCadencePoint `json:"points"`
	GeneratedAt time.Time                `json:"generated_at"`
}
