package types

import "time"

// Upload tracking states for client polling. These live in process memory
// only and are lost on restart.
const (
	TrackingUploaded   = "uploaded"
	TrackingProcessing = "processing"
	TrackingCompleted  = "completed"
	TrackingFailed     = "failed"
)

// TrackingRecord is the per-upload status keyed by an opaque tracking id.
type TrackingRecord struct {
	TrackingID string     `json:"tracking_id"`
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	Error      string     `json:"error,omitempty"`
}
