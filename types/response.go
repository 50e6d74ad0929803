package types

import "time"

type DataResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type UploadResponse struct {
	TrackingID   string `json:"tracking_id"`
	OriginalName string `json:"original_name,omitempty"`
}

// PipelineStatusResponse mirrors the lifecycle controller's status query.
// Running means a watcher handle exists; Alive means the watcher goroutine
// has not exited underneath it. The two can diverge and that divergence is
// itself reportable.
type PipelineStatusResponse struct {
	Running       bool       `json:"running"`
	Alive         bool       `json:"alive"`
	StartedAt     *time.Time `json:"started_at"`
	UptimeSeconds *float64   `json:"uptime_seconds"`
}

// RebuildResult enumerates the outcome of a re-index pass, per-item rather
// than all-or-nothing.
type RebuildResult struct {
	Success        bool   `json:"success"`
	ModelKey       string `json:"model_key"`
	CollectionName string `json:"collection_name"`
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	SuccessChunks  int    `json:"success_chunks"`
	FailedChunks   int    `json:"failed_chunks"`
	Error          string `json:"error,omitempty"`
}
