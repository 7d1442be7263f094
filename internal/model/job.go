package model

import "time"

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError || s == JobStatusCancelled
}

// ExtractionResult holds the output of a completed job.
type ExtractionResult struct {
	Text        string    `json:"text"`
	TextLength  int       `json:"textLength"`
	CompletedAt time.Time `json:"completedAt"`
}

// Job is one tracked extraction request. Records live only in process
// memory and are owned by the registry; a restart loses all job history.
type Job struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Status      JobStatus         `json:"status"`
	Progress    int               `json:"progress"`
	SourceName  string            `json:"sourceName"`
	SubmittedAt time.Time         `json:"submittedAt"`
	Error       *string           `json:"error,omitempty"`
	Result      *ExtractionResult `json:"result,omitempty"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	ProcessID string `json:"processId"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
}

// StatusResponse is returned by GET /status/:processId.
type StatusResponse struct {
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	FileName string    `json:"fileName"`
	Error    *string   `json:"error,omitempty"`
}

// JobSummary is one entry in the per-owner listing.
type JobSummary struct {
	ProcessID string    `json:"processId"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	FileName  string    `json:"fileName"`
}

// UserStatusResponse is returned by GET /user-status.
type UserStatusResponse struct {
	ProcessingCount int          `json:"processingCount"`
	Statuses        []JobSummary `json:"statuses"`
}

// StatsResponse is the registry-wide aggregate for GET /stats.
type StatsResponse struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Error      int `json:"error"`
	Cancelled  int `json:"cancelled"`
}

// CancelResponse is returned by POST /cancel/:processId.
type CancelResponse struct {
	Status JobStatus `json:"status"`
}
