package types

import "time"

// Folder ingest states. NEW exists only to seed the row; a folder moves to
// INGESTING immediately on detection.
const (
	FolderStatusNew       = "NEW"
	FolderStatusIngesting = "INGESTING"
	FolderStatusDone      = "DONE"
	FolderStatusError     = "ERROR"
)

// FolderStatus is the aggregate ingest state for one subtree under the
// incoming root. FolderKey is the path relative to the incoming root and
// is the stable identity; FolderName is just the leaf name.
type FolderStatus struct {
	ID             int64      `json:"id"`
	FolderKey      string     `json:"folder_key"`
	FolderName     string     `json:"folder_name"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	ErrorFiles     int        `json:"error_files"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
