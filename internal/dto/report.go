package dto

// ReportRequest asks for an asynchronous editorial export.
type ReportRequest struct {
	Type     string `json:"type" validate:"required,oneof=articles calendar"`
	Format   string `json:"format" validate:"required,oneof=csv pdf"`
	Status   string `json:"status" validate:"omitempty,article_status"`
	Category string `json:"category"`
}

// ReportJobResponse acknowledges an accepted report job.
type ReportJobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// ReportStatusResponse exposes job progress and the download URL when done.
type ReportStatusResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ResultURL *string `json:"result_url,omitempty"`
	Error     *string `json:"error,omitempty"`
}
