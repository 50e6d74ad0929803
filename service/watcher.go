package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/metrics"
	"github.com/tieubaoca/docflow/types"
	"github.com/tieubaoca/docflow/utils"
)

// WatcherService reacts to create/move-in events on the incoming root,
// confirms stability, and drives each entry through the per-file pipeline.
// A failing file moves to the error stage and never stops the watcher.
type WatcherService struct {
	stages   *Stages
	mover    *Mover
	detector *StabilityDetector
	ingest   *IngestService
	loaders  *LoaderRegistry
	store    database.Store
	tracking *TrackingStore
}

func NewWatcherService(
	stages *Stages,
	mover *Mover,
	detector *StabilityDetector,
	ingest *IngestService,
	loaders *LoaderRegistry,
	store database.Store,
	tracking *TrackingStore,
) *WatcherService {
	return &WatcherService{
		stages:   stages,
		mover:    mover,
		detector: detector,
		ingest:   ingest,
		loaders:  loaders,
		store:    store,
		tracking: tracking,
	}
}

// Subscribe creates the fsnotify watcher and registers the incoming root
// and every directory under it. It is separate from Run so a caller can
// establish the watch before scanning: a file dropped between the scan
// and the event loop is then seen by one of the two, never lost.
func (w *WatcherService) Subscribe() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := w.addWatchRecursive(watcher, w.stages.Incoming); err != nil {
		watcher.Close()
		return nil, err
	}

	log.Printf("[WATCH] watching: %s", w.stages.Incoming)
	return watcher, nil
}

// Run drains the subscribed watcher until ctx is cancelled and owns its
// close. Events are dispatched sequentially; ordering between nearby
// files is not guaranteed and does not need to be.
func (w *WatcherService) Run(ctx context.Context, watcher *fsnotify.Watcher) error {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.dispatch(ctx, watcher, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WATCH] watcher error: %v", err)
		}
	}
}

// dispatch routes one created/moved-in path. Top-level recovery boundary:
// nothing a single entry does may kill the watcher loop.
func (w *WatcherService) dispatch(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Gone already (moved or a transient editor artifact).
		return
	}

	if info.IsDir() {
		// New subtrees must be watched so files added later are seen.
		if err := w.addWatchRecursive(watcher, path); err != nil {
			log.Printf("[WATCH] failed to watch %s: %v", path, err)
		}
		w.HandleDirectory(ctx, path, types.SourceWatcher)
		return
	}

	if err := w.HandleFile(ctx, path, types.SourceWatcher); err != nil {
		log.Printf("[ERROR] %s -> %v", path, err)
	}
}

func (w *WatcherService) addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// ScanExisting is the startup batch pass over the incoming root:
// directories first so folder aggregates are established, then loose
// files at the root. It reuses the live-event handlers verbatim.
func (w *WatcherService) ScanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.stages.Incoming)
	if err != nil {
		return fmt.Errorf("scanning incoming root: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	log.Printf("[BATCH] scanning existing contents: %s", w.stages.Incoming)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		w.HandleDirectory(ctx, filepath.Join(w.stages.Incoming, entry.Name()), types.SourceBatch)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.stages.Incoming, entry.Name())
		if !w.loaders.Supported(path) {
			continue
		}
		if err := w.HandleFile(ctx, path, types.SourceBatch); err != nil {
			log.Printf("[ERROR] %s -> %v", path, err)
		}
	}

	log.Println("[BATCH] initial scan completed")
	return nil
}

// HandleFile drives one file through stability, the processing stage, and
// ingestion, then routes it to processed/duplicated/error. A file that is
// missing, unsupported, or never stabilizes is skipped without error: it
// either belongs to someone else or will be retried by a later pass.
func (w *WatcherService) HandleFile(ctx context.Context, srcPath, source string) error {
	if _, err := os.Stat(srcPath); err != nil {
		return nil
	}
	if !w.loaders.Supported(srcPath) {
		return nil
	}

	folderName := ""
	if dir := filepath.Dir(srcPath); dir != w.stages.Incoming {
		folderName = filepath.Base(dir)
	}

	log.Printf("[WATCH] file detected: %s (folder=%s)", srcPath, folderName)

	trackingID := utils.FileNameWithoutExt(srcPath)
	w.tracking.Update(trackingID, types.TrackingProcessing, "")

	if !w.detector.WaitFileReady(ctx, srcPath) {
		log.Printf("[SKIP] file not ready: %s", srcPath)
		metrics.FilesSkippedUnstable.Inc()
		return nil
	}

	processingPath, err := w.mover.MoveToStage(srcPath, w.stages.Processing)
	if err != nil {
		w.tracking.Update(trackingID, types.TrackingFailed, err.Error())
		return fmt.Errorf("move to processing failed: %w", err)
	}

	docID, err := w.ingest.IngestFile(ctx, processingPath, source, folderName)

	switch {
	case errors.Is(err, types.ErrDuplicate):
		if _, moveErr := w.mover.MoveToStage(processingPath, w.stages.Duplicated); moveErr != nil {
			log.Printf("[ERROR] move to duplicated failed: %s -> %v", processingPath, moveErr)
		}
		log.Printf("[DUPLICATE] %s (doc_id=%d)", processingPath, docID)
		metrics.FilesDuplicated.Inc()
		w.tracking.Update(trackingID, types.TrackingCompleted, "")
		return nil

	case err != nil:
		// Best effort: never leave the file stranded in processing/.
		if _, moveErr := w.mover.MoveToStage(processingPath, w.stages.Error); moveErr != nil {
			log.Printf("[ERROR] move to error stage failed: %s -> %v", processingPath, moveErr)
		}
		metrics.FilesErrored.Inc()
		w.tracking.Update(trackingID, types.TrackingFailed, err.Error())
		return err

	default:
		if _, moveErr := w.mover.MoveToStage(processingPath, w.stages.Processed); moveErr != nil {
			log.Printf("[ERROR] move to processed failed: %s -> %v", processingPath, moveErr)
		}
		log.Printf("[OK] processed: %s (doc_id=%d)", processingPath, docID)
		metrics.FilesProcessed.Inc()
		w.tracking.Update(trackingID, types.TrackingCompleted, "")
		return nil
	}
}

// HandleDirectory runs the folder aggregate state machine over one
// subtree: INGESTING with a one-time total snapshot, per-file dispatch
// through HandleFile, then DONE/ERROR finalization.
func (w *WatcherService) HandleDirectory(ctx context.Context, dirPath, source string) {
	log.Printf("[WATCH] directory detected: %s", dirPath)

	if !w.detector.WaitDirReady(ctx, dirPath) {
		log.Printf("[SKIP] directory not ready: %s", dirPath)
		return
	}

	folderKey, folderName := w.folderKeyName(dirPath)

	files := w.supportedFiles(dirPath)

	// Total is snapshotted here; files added to the folder afterwards are
	// picked up by their own events, not counted in this round.
	if _, err := w.store.UpsertFolderIngesting(ctx, folderKey, folderName, source, len(files)); err != nil {
		log.Printf("[ERROR] folder status upsert failed: %s -> %v", folderKey, err)
		return
	}

	tracker := newFolderRound()
	for _, f := range files {
		if err := w.HandleFile(ctx, f, source); err != nil {
			log.Printf("[ERROR] %s -> %v", f, err)
			tracker.addError()
		} else {
			tracker.addOK()
		}
	}

	ok, errored := tracker.counts()
	if err := w.store.FinalizeFolder(ctx, folderKey, ok, errored); err != nil {
		log.Printf("[ERROR] folder status finalize failed: %s -> %v", folderKey, err)
		return
	}

	status := types.FolderStatusDone
	if errored > 0 {
		status = types.FolderStatusError
	}
	log.Printf("[FOLDER] %s status=%s total=%d ok=%d err=%d", folderKey, status, len(files), ok, errored)
}

// folderKeyName derives the stable folder key (path relative to the
// incoming root) and the display leaf name. Paths outside the incoming
// root fall back to the leaf name for both.
func (w *WatcherService) folderKeyName(dirPath string) (string, string) {
	absIn, err1 := filepath.Abs(w.stages.Incoming)
	absDir, err2 := filepath.Abs(dirPath)
	name := filepath.Base(dirPath)
	if err1 != nil || err2 != nil {
		return name, name
	}

	rel, err := filepath.Rel(absIn, absDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return name, name
	}
	return filepath.ToSlash(rel), name
}

// supportedFiles lists supported-extension files under dir recursively,
// in deterministic walk order.
func (w *WatcherService) supportedFiles(dir string) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() && w.loaders.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files
}
