package types

import "time"

// Document is the durable metadata record for one ingested source file.
// FileHash is the deduplication key: the same content under a different
// name is still the same Document.
type Document struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	FileType   string    `json:"file_type"`
	Source     string    `json:"source"`
	FileHash   string    `json:"file_hash"`
	FilePath   string    `json:"file_path"`
	FolderName string    `json:"folder_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chunk is one bounded slice of a Document's extracted text. Its ID is
// reused verbatim as the vector point identifier, so it must never change
// after insert.
type Chunk struct {
	ID        int64     `json:"id"`
	DocID     int64     `json:"doc_id"`
	PageNo    int       `json:"page_no"`
	ChunkNo   int       `json:"chunk_no"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Image is one image extracted from a Document during ingest. The backing
// file lives under images/{doc_id}/.
type Image struct {
	ID        int64     `json:"id"`
	DocID     int64     `json:"doc_id"`
	PageNo    int       `json:"page_no"`
	ImageNo   int       `json:"image_no"`
	ImagePath string    `json:"image_path"`
	ImageName string    `json:"image_name"`
	ImageExt  string    `json:"image_ext"`
	OCRText   string    `json:"ocr_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Unit is one logical unit of a source document as produced by a loader:
// a page, a sheet row, a paragraph, or a recognized line of text.
type Unit struct {
	No   int
	Text string
}

// Source tags recorded on Documents and FolderStatus rows.
const (
	SourceWatcher      = "watcher"
	SourceBatch        = "batch"
	SourceManualUpload = "manual_upload"
)
