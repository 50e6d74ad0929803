package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/docflow/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestDocument(t *testing.T, store *SQLiteStore, hash string) int64 {
	t.Helper()
	id, err := store.InsertDocument(context.Background(), &types.Document{
		Title:    "doc-" + hash,
		FileType: "txt",
		Source:   types.SourceWatcher,
		FileHash: hash,
	})
	require.NoError(t, err)
	return id
}

func TestInsertDocument_DuplicateHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	firstID := insertTestDocument(t, store, "hash-a")

	_, err := store.InsertDocument(ctx, &types.Document{
		Title:    "other name, same bytes",
		FileType: "txt",
		Source:   types.SourceWatcher,
		FileHash: "hash-a",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicate))

	winner, err := store.GetDocumentByHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, firstID, winner.ID)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), 9999)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = store.GetDocumentByHash(context.Background(), "no-such-hash")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDeleteDocument_CascadesToChunksAndImages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID := insertTestDocument(t, store, "hash-b")

	for i := 1; i <= 3; i++ {
		_, err := store.InsertChunk(ctx, &types.Chunk{DocID: docID, PageNo: 1, ChunkNo: i, Content: "chunk"})
		require.NoError(t, err)
	}
	_, err := store.InsertImage(ctx, &types.Image{DocID: docID, ImagePath: "/img/1.png", ImageName: "1", ImageExt: "png"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, docID))

	chunks, err := store.ListChunksByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	images, err := store.ListImagesByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteDocument(context.Background(), 12345)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestListChunksByDocument_Ordering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID := insertTestDocument(t, store, "hash-c")

	// Insert out of order; reads must come back (page_no, chunk_no) sorted.
	for _, pair := range [][2]int{{2, 1}, {1, 2}, {2, 2}, {1, 1}} {
		_, err := store.InsertChunk(ctx, &types.Chunk{DocID: docID, PageNo: pair[0], ChunkNo: pair[1], Content: "c"})
		require.NoError(t, err)
	}

	chunks, err := store.ListChunksByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	var got [][2]int
	for _, c := range chunks {
		got = append(got, [2]int{c.PageNo, c.ChunkNo})
	}
	assert.Equal(t, [][2]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}}, got)
}

func TestInsertChunk_DuplicatePosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID := insertTestDocument(t, store, "hash-d")

	_, err := store.InsertChunk(ctx, &types.Chunk{DocID: docID, PageNo: 1, ChunkNo: 1, Content: "first"})
	require.NoError(t, err)

	_, err = store.InsertChunk(ctx, &types.Chunk{DocID: docID, PageNo: 1, ChunkNo: 1, Content: "second"})
	assert.Error(t, err)
}

func TestUpsertFolderIngesting_ResetsCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	status, err := store.UpsertFolderIngesting(ctx, "plant-a", "plant-a", types.SourceWatcher, 5)
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusIngesting, status.Status)
	assert.Equal(t, 5, status.TotalFiles)
	require.NotNil(t, status.StartedAt)

	require.NoError(t, store.FinalizeFolder(ctx, "plant-a", 4, 1))

	status, err = store.GetFolderStatus(ctx, "plant-a")
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusError, status.Status)
	assert.Equal(t, 4, status.ProcessedFiles)
	assert.Equal(t, 1, status.ErrorFiles)
	require.NotNil(t, status.FinishedAt)

	// A second round on the same folder starts clean.
	status, err = store.UpsertFolderIngesting(ctx, "plant-a", "plant-a", types.SourceBatch, 2)
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusIngesting, status.Status)
	assert.Equal(t, 2, status.TotalFiles)
	assert.Zero(t, status.ProcessedFiles)
	assert.Zero(t, status.ErrorFiles)
	assert.Nil(t, status.FinishedAt)
}

func TestFinalizeFolder_AllProcessedIsDone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertFolderIngesting(ctx, "plant-b", "plant-b", types.SourceWatcher, 3)
	require.NoError(t, err)
	require.NoError(t, store.FinalizeFolder(ctx, "plant-b", 3, 0))

	status, err := store.GetFolderStatus(ctx, "plant-b")
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusDone, status.Status)
}

func TestFinalizeFolder_UnknownFolder(t *testing.T) {
	store := newTestStore(t)
	err := store.FinalizeFolder(context.Background(), "ghost", 0, 0)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestListFolderStatuses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertFolderIngesting(ctx, "a", "a", types.SourceWatcher, 1)
	require.NoError(t, err)
	_, err = store.UpsertFolderIngesting(ctx, "b", "b", types.SourceBatch, 2)
	require.NoError(t, err)

	statuses, err := store.ListFolderStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
}
