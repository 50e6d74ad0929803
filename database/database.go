package database

import (
	"context"

	"github.com/tieubaoca/docflow/types"
)

// Store is the transactional metadata store behind the ingest pipeline.
// It is the single source of truth for "does this content already exist":
// the file-hash uniqueness constraint lives here, not in the pre-check.
type Store interface {
	// InsertDocument inserts a new Document and returns its id.
	// A hash-uniqueness violation returns types.ErrDuplicate so a lost
	// dedup race is handled the same way as a normal duplicate.
	InsertDocument(ctx context.Context, doc *types.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*types.Document, error)
	GetDocumentByHash(ctx context.Context, hash string) (*types.Document, error)
	ListDocuments(ctx context.Context) ([]types.Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	InsertChunk(ctx context.Context, chunk *types.Chunk) (int64, error)
	// ListChunksByDocument returns chunks ordered by (page_no, chunk_no).
	ListChunksByDocument(ctx context.Context, docID int64) ([]types.Chunk, error)
	ListChunkIDsByDocument(ctx context.Context, docID int64) ([]int64, error)

	InsertImage(ctx context.Context, img *types.Image) (int64, error)
	ListImagesByDocument(ctx context.Context, docID int64) ([]types.Image, error)

	// UpsertFolderIngesting creates the folder row if needed and moves it
	// into INGESTING: counts reset, started_at set, finished_at cleared.
	UpsertFolderIngesting(ctx context.Context, folderKey, folderName, source string, totalFiles int) (*types.FolderStatus, error)
	// FinalizeFolder records the outcome counts and flips the row to DONE
	// or ERROR.
	FinalizeFolder(ctx context.Context, folderKey string, processed, errored int) error
	GetFolderStatus(ctx context.Context, folderKey string) (*types.FolderStatus, error)
	ListFolderStatuses(ctx context.Context) ([]types.FolderStatus, error)

	Close() error
}

// VectorIndex is the eventually-consistent side of ingestion. A Chunk row
// may exist without a point here, never the reverse.
type VectorIndex interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string, dimension int, distance string) error
	// CollectionDimension returns the configured vector size of an
	// existing collection.
	CollectionDimension(ctx context.Context, name string) (int, error)
	UpsertPoint(ctx context.Context, collection string, point types.VectorPoint) error
	GetPoint(ctx context.Context, collection string, id int64) (*types.VectorPoint, error)
	DeletePoints(ctx context.Context, collection string, ids []int64) error
}
