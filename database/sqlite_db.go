package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tieubaoca/docflow/types"
)

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	file_type   TEXT NOT NULL,
	source      TEXT NOT NULL,
	file_hash   TEXT NOT NULL UNIQUE,
	file_path   TEXT NOT NULL DEFAULT '',
	folder_name TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id     INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	page_no    INTEGER NOT NULL,
	chunk_no   INTEGER NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(doc_id, page_no, chunk_no)
);

CREATE TABLE IF NOT EXISTS images (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id     INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	page_no    INTEGER NOT NULL DEFAULT 0,
	image_no   INTEGER NOT NULL DEFAULT 0,
	image_path TEXT NOT NULL,
	image_name TEXT NOT NULL,
	image_ext  TEXT NOT NULL,
	ocr_text   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS folder_status (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	folder_key      TEXT NOT NULL UNIQUE,
	folder_name     TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT 'watcher',
	status          TEXT NOT NULL DEFAULT 'NEW',
	total_files     INTEGER NOT NULL DEFAULT 0,
	processed_files INTEGER NOT NULL DEFAULT 0,
	error_files     INTEGER NOT NULL DEFAULT 0,
	started_at      TIMESTAMP,
	finished_at     TIMESTAMP,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, page_no, chunk_no);
CREATE INDEX IF NOT EXISTS idx_images_doc ON images(doc_id);
`

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and creates if needed) the metadata database under
// dataDir, with WAL mode and foreign keys enabled.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docflow.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. modernc.org/sqlite surfaces these as "constraint failed:
// UNIQUE constraint failed: <table>.<col>" errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) InsertDocument(ctx context.Context, doc *types.Document) (int64, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (title, file_type, source, file_hash, file_path, folder_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.Title, doc.FileType, doc.Source, doc.FileHash, doc.FilePath, doc.FolderName, doc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the dedup race: treat exactly like a duplicate found
			// by the pre-check.
			return 0, types.ErrDuplicate
		}
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	doc.ID = id
	return id, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	return s.scanDocument(s.db.QueryRowContext(ctx,
		`SELECT id, title, file_type, source, file_hash, file_path, folder_name, created_at
		 FROM documents WHERE id = ?`, id))
}

func (s *SQLiteStore) GetDocumentByHash(ctx context.Context, hash string) (*types.Document, error) {
	return s.scanDocument(s.db.QueryRowContext(ctx,
		`SELECT id, title, file_type, source, file_hash, file_path, folder_name, created_at
		 FROM documents WHERE file_hash = ?`, hash))
}

func (s *SQLiteStore) scanDocument(row *sql.Row) (*types.Document, error) {
	var doc types.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.FileType, &doc.Source,
		&doc.FileHash, &doc.FilePath, &doc.FolderName, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, file_type, source, file_hash, file_path, folder_name, created_at
		 FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.FileType, &doc.Source,
			&doc.FileHash, &doc.FilePath, &doc.FolderName, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) InsertChunk(ctx context.Context, chunk *types.Chunk) (int64, error) {
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (doc_id, page_no, chunk_no, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		chunk.DocID, chunk.PageNo, chunk.ChunkNo, chunk.Content, chunk.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	chunk.ID = id
	return id, nil
}

func (s *SQLiteStore) ListChunksByDocument(ctx context.Context, docID int64) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, page_no, chunk_no, content, created_at
		 FROM chunks WHERE doc_id = ? ORDER BY page_no, chunk_no`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.PageNo, &c.ChunkNo, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListChunkIDsByDocument(ctx context.Context, docID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE doc_id = ? ORDER BY page_no, chunk_no`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) InsertImage(ctx context.Context, img *types.Image) (int64, error) {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO images (doc_id, page_no, image_no, image_path, image_name, image_ext, ocr_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.DocID, img.PageNo, img.ImageNo, img.ImagePath, img.ImageName, img.ImageExt, img.OCRText, img.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	img.ID = id
	return id, nil
}

func (s *SQLiteStore) ListImagesByDocument(ctx context.Context, docID int64) ([]types.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, page_no, image_no, image_path, image_name, image_ext, ocr_text, created_at
		 FROM images WHERE doc_id = ? ORDER BY page_no, image_no`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var imgs []types.Image
	for rows.Next() {
		var img types.Image
		if err := rows.Scan(&img.ID, &img.DocID, &img.PageNo, &img.ImageNo,
			&img.ImagePath, &img.ImageName, &img.ImageExt, &img.OCRText, &img.CreatedAt); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

func (s *SQLiteStore) UpsertFolderIngesting(ctx context.Context, folderKey, folderName, source string, totalFiles int) (*types.FolderStatus, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO folder_status (folder_key, folder_name, source, status, total_files, processed_files, error_files, started_at, finished_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, NULL, ?, ?)
		 ON CONFLICT(folder_key) DO UPDATE SET
			status = excluded.status,
			total_files = excluded.total_files,
			processed_files = 0,
			error_files = 0,
			started_at = excluded.started_at,
			finished_at = NULL,
			updated_at = excluded.updated_at`,
		folderKey, folderName, source, types.FolderStatusIngesting, totalFiles, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting folder status: %w", err)
	}
	return s.GetFolderStatus(ctx, folderKey)
}

func (s *SQLiteStore) FinalizeFolder(ctx context.Context, folderKey string, processed, errored int) error {
	status := types.FolderStatusDone
	if errored > 0 {
		status = types.FolderStatusError
	}
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE folder_status SET status = ?, processed_files = ?, error_files = ?, finished_at = ?, updated_at = ?
		 WHERE folder_key = ?`,
		status, processed, errored, now, now, folderKey)
	if err != nil {
		return fmt.Errorf("finalizing folder status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetFolderStatus(ctx context.Context, folderKey string) (*types.FolderStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, folder_key, folder_name, source, status, total_files, processed_files, error_files,
			started_at, finished_at, created_at, updated_at
		 FROM folder_status WHERE folder_key = ?`, folderKey)

	var fs types.FolderStatus
	err := row.Scan(&fs.ID, &fs.FolderKey, &fs.FolderName, &fs.Source, &fs.Status,
		&fs.TotalFiles, &fs.ProcessedFiles, &fs.ErrorFiles,
		&fs.StartedAt, &fs.FinishedAt, &fs.CreatedAt, &fs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning folder status: %w", err)
	}
	return &fs, nil
}

func (s *SQLiteStore) ListFolderStatuses(ctx context.Context) ([]types.FolderStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, folder_key, folder_name, source, status, total_files, processed_files, error_files,
			started_at, finished_at, created_at, updated_at
		 FROM folder_status ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing folder statuses: %w", err)
	}
	defer rows.Close()

	var statuses []types.FolderStatus
	for rows.Next() {
		var fs types.FolderStatus
		if err := rows.Scan(&fs.ID, &fs.FolderKey, &fs.FolderName, &fs.Source, &fs.Status,
			&fs.TotalFiles, &fs.ProcessedFiles, &fs.ErrorFiles,
			&fs.StartedAt, &fs.FinishedAt, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, fs)
	}
	return statuses, rows.Err()
}
