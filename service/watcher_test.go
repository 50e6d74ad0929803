package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/types"
)

type watcherFixture struct {
	stages   *Stages
	store    database.Store
	index    *fakeIndex
	tracking *TrackingStore
	watcher  *WatcherService
}

func newWatcherFixture(t *testing.T) *watcherFixture {
	t.Helper()

	store, err := database.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index := newFakeIndex()
	loaders := NewLoaderRegistry()

	ingest := NewIngestService(
		store,
		index,
		&fakeEmbedder{},
		loaders,
		NewImageExtractor(),
		testModel,
		filepath.Join(t.TempDir(), "images"),
	)
	require.NoError(t, ingest.EnsureCollection(context.Background(), "documents"))

	stages := NewStages(filepath.Join(t.TempDir(), "watch"))
	require.NoError(t, stages.EnsureDirs())

	tracking := NewTrackingStore()

	watcher := NewWatcherService(
		stages,
		&Mover{Retries: 2, Backoff: 10 * time.Millisecond},
		fastDetector(),
		ingest,
		loaders,
		store,
		tracking,
	)

	return &watcherFixture{stages: stages, store: store, index: index, tracking: tracking, watcher: watcher}
}

func dropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func stageFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestHandleFile_SuccessMovesToProcessed(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	path := dropFile(t, fx.stages.Incoming, "report.txt", "maintenance report body")

	require.NoError(t, fx.watcher.HandleFile(ctx, path, types.SourceWatcher))

	assert.NoFileExists(t, path)
	assert.Empty(t, stageFiles(t, fx.stages.Processing))
	assert.Equal(t, []string{"report.txt"}, stageFiles(t, fx.stages.Processed))

	docs, err := fx.store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	// The stored path is the processing-stage path the content was read
	// from, not the final resting place.
	assert.Contains(t, docs[0].FilePath, "processing")
}

func TestHandleFile_DuplicateMovesToDuplicated(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	first := dropFile(t, fx.stages.Incoming, "a.txt", "same content")
	require.NoError(t, fx.watcher.HandleFile(ctx, first, types.SourceWatcher))

	second := dropFile(t, fx.stages.Incoming, "b.txt", "same content")
	require.NoError(t, fx.watcher.HandleFile(ctx, second, types.SourceWatcher))

	assert.Equal(t, []string{"a.txt"}, stageFiles(t, fx.stages.Processed))
	assert.Equal(t, []string{"b.txt"}, stageFiles(t, fx.stages.Duplicated))

	docs, err := fx.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestHandleFile_ParseFailureMovesToError(t *testing.T) {
	fx := newWatcherFixture(t)

	// A .docx that is not a zip archive fails at parse time.
	path := dropFile(t, fx.stages.Incoming, "broken.docx", "this is not a zip")

	err := fx.watcher.HandleFile(context.Background(), path, types.SourceWatcher)
	require.Error(t, err)

	assert.Equal(t, []string{"broken.docx"}, stageFiles(t, fx.stages.Error))
	assert.Empty(t, stageFiles(t, fx.stages.Processing))
}

func TestHandleFile_UnstableFileStaysInIncoming(t *testing.T) {
	fx := newWatcherFixture(t)

	// Zero-byte files never reach the positive-size stability bar.
	path := dropFile(t, fx.stages.Incoming, "empty.txt", "")

	require.NoError(t, fx.watcher.HandleFile(context.Background(), path, types.SourceWatcher))

	assert.FileExists(t, path)
	assert.Empty(t, stageFiles(t, fx.stages.Processed))
	assert.Empty(t, stageFiles(t, fx.stages.Error))
}

func TestHandleFile_UnsupportedIsIgnored(t *testing.T) {
	fx := newWatcherFixture(t)

	path := dropFile(t, fx.stages.Incoming, "notes.md", "markdown is not supported")

	require.NoError(t, fx.watcher.HandleFile(context.Background(), path, types.SourceWatcher))
	assert.FileExists(t, path)
}

func TestHandleFile_TracksUploadLifecycle(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	// Uploads arrive named by tracking id; the watcher keys updates off
	// the stem.
	path := dropFile(t, fx.stages.Incoming, "upload-123.txt", "uploaded body")
	fx.tracking.Create("upload-123", "original.txt", path)

	require.NoError(t, fx.watcher.HandleFile(ctx, path, types.SourceManualUpload))

	rec, ok := fx.tracking.Get("upload-123")
	require.True(t, ok)
	assert.Equal(t, types.TrackingCompleted, rec.Status)
}

func TestHandleDirectory_MixedOutcomes(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	dir := filepath.Join(fx.stages.Incoming, "plant-b")
	dropFile(t, dir, "good.txt", "fine document")
	dropFile(t, dir, "bad.docx", "not a zip archive")
	dropFile(t, dir, "ignored.md", "unsupported, not counted")

	fx.watcher.HandleDirectory(ctx, dir, types.SourceWatcher)

	status, err := fx.store.GetFolderStatus(ctx, "plant-b")
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusError, status.Status)
	assert.Equal(t, "plant-b", status.FolderName)
	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 1, status.ProcessedFiles)
	assert.Equal(t, 1, status.ErrorFiles)
	require.NotNil(t, status.FinishedAt)
}

func TestHandleDirectory_AllGood(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	dir := filepath.Join(fx.stages.Incoming, "plant-c")
	dropFile(t, dir, "one.txt", "first document")
	dropFile(t, dir, "two.txt", "second document")

	fx.watcher.HandleDirectory(ctx, dir, types.SourceWatcher)

	status, err := fx.store.GetFolderStatus(ctx, "plant-c")
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusDone, status.Status)
	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 2, status.ProcessedFiles)
	assert.Zero(t, status.ErrorFiles)
}

func TestHandleDirectory_NestedKeyIsRelativePath(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	dir := filepath.Join(fx.stages.Incoming, "2025", "august")
	dropFile(t, dir, "doc.txt", "nested document")

	fx.watcher.HandleDirectory(ctx, dir, types.SourceBatch)

	status, err := fx.store.GetFolderStatus(ctx, "2025/august")
	require.NoError(t, err)
	assert.Equal(t, "august", status.FolderName)
	assert.Equal(t, types.SourceBatch, status.Source)
}

func TestScanExisting_ProcessesFoldersAndRootFiles(t *testing.T) {
	fx := newWatcherFixture(t)
	ctx := context.Background()

	dropFile(t, fx.stages.Incoming, "loose.txt", "loose root file")
	dir := filepath.Join(fx.stages.Incoming, "batch-folder")
	dropFile(t, dir, "member.txt", "folder member")

	require.NoError(t, fx.watcher.ScanExisting(ctx))

	docs, err := fx.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, types.SourceBatch, doc.Source)
	}

	status, err := fx.store.GetFolderStatus(ctx, "batch-folder")
	require.NoError(t, err)
	assert.Equal(t, types.FolderStatusDone, status.Status)
}

func TestSubscribe_QueuesEventsBeforeRun(t *testing.T) {
	fx := newWatcherFixture(t)

	fsWatcher, err := fx.watcher.Subscribe()
	require.NoError(t, err)

	// The watch is live as soon as Subscribe returns: a file dropped
	// before the event loop starts must still be delivered to it.
	dropFile(t, fx.stages.Incoming, "early.txt", "dropped before the loop started")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, fx.watcher.Run(ctx, fsWatcher))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		docs, err := fx.store.ListDocuments(context.Background())
		return err == nil && len(docs) == 1
	}, 5*time.Second, 50*time.Millisecond)
}
