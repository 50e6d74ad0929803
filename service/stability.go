package service

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Default stability windows. A file still growing past its timeout is
// skipped, not failed; it stays in incoming/ for a later pass.
const (
	DefaultFileStableTimeout = 20 * time.Second
	DefaultDirStableTimeout  = 60 * time.Second

	filePollInterval = 500 * time.Millisecond
	dirPollInterval  = 800 * time.Millisecond

	// Two identical consecutive observations count as stable.
	stableThreshold = 2
)

// StabilityDetector decides whether a filesystem entry has stopped being
// written. Purely observational: it never moves or opens files for write.
type StabilityDetector struct {
	FileTimeout time.Duration
	DirTimeout  time.Duration

	// PollInterval overrides both poll intervals when set. Tests shrink it.
	PollInterval time.Duration
}

func NewStabilityDetector() *StabilityDetector {
	return &StabilityDetector{
		FileTimeout: DefaultFileStableTimeout,
		DirTimeout:  DefaultDirStableTimeout,
	}
}

// WaitFileReady polls the file size until it is strictly positive and
// unchanged across consecutive polls. A missing file is transient and
// keeps polling. Returns false when the timeout elapses first.
func (d *StabilityDetector) WaitFileReady(ctx context.Context, path string) bool {
	interval := d.PollInterval
	if interval == 0 {
		interval = filePollInterval
	}
	deadline := time.Now().Add(d.FileTimeout)

	lastSize := int64(-1)
	stable := 0

	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err != nil {
			// Not there yet, or locked by the writer. Keep waiting.
			if !sleepCtx(ctx, interval) {
				return false
			}
			continue
		}

		size := info.Size()
		if size == lastSize && size > 0 {
			stable++
			if stable >= stableThreshold {
				return true
			}
		} else {
			stable = 0
		}

		lastSize = size
		if !sleepCtx(ctx, interval) {
			return false
		}
	}

	return false
}

// WaitDirReady polls a recursive (file count, total size) signature of the
// subtree until it repeats. Signature computation failures (filesystem
// races mid-walk) are inconclusive and keep polling.
func (d *StabilityDetector) WaitDirReady(ctx context.Context, dir string) bool {
	interval := d.PollInterval
	if interval == 0 {
		interval = dirPollInterval
	}
	deadline := time.Now().Add(d.DirTimeout)

	var lastSig *dirSignature
	stable := 0

	for time.Now().Before(deadline) {
		sig, err := signatureOf(dir)
		if err != nil {
			if !sleepCtx(ctx, interval) {
				return false
			}
			continue
		}

		if lastSig != nil && *sig == *lastSig {
			stable++
			if stable >= stableThreshold {
				return true
			}
		} else {
			stable = 0
		}

		lastSig = sig
		if !sleepCtx(ctx, interval) {
			return false
		}
	}

	return false
}

type dirSignature struct {
	count int
	total int64
}

func signatureOf(dir string) (*dirSignature, error) {
	var sig dirSignature
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		sig.count++
		sig.total += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

// sleepCtx sleeps for dur, returning false if the context was cancelled.
func sleepCtx(ctx context.Context, dur time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(dur):
		return true
	}
}
