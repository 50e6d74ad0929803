package types

import "errors"

var (
	// ErrUnsupportedType means no loader is registered for the file's
	// extension. Permanent, never retried.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrDuplicate means a Document with the same content hash already
	// exists. Not a failure: the caller routes the file to duplicated/.
	ErrDuplicate = errors.New("duplicate document")

	// ErrCollectionMismatch means the vector collection's configured
	// dimension disagrees with the embedding model. Fatal for the whole
	// ingestion run, never downgraded to a per-file error.
	ErrCollectionMismatch = errors.New("vector collection dimension mismatch")

	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
)
