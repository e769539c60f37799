package dto

import "time"

// PublisherStatus reports the reconciliation loop's recent activity.
type PublisherStatus struct {
	Running      bool       `json:"running"`
	Interval     string     `json:"interval"`
	LastTickAt   *time.Time `json:"last_tick_at,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	TicksTotal   uint64     `json:"ticks_total"`
	Published    uint64     `json:"published_total"`
	Skipped      uint64     `json:"skipped_total"`
	Failed       uint64     `json:"failed_total"`
	PendingCount int        `json:"pending_count"`
}

// RunTickResponse summarises a manually triggered reconciliation pass.
type RunTickResponse struct {
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
