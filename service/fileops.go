package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Stages holds the lifecycle directories under the watch root. Every file
// move between stages goes through Mover; renaming elsewhere is forbidden
// so move semantics stay in one place.
type Stages struct {
	Base       string
	Incoming   string
	Processing string
	Processed  string
	Duplicated string
	Error      string
}

func NewStages(baseDir string) *Stages {
	return &Stages{
		Base:       baseDir,
		Incoming:   filepath.Join(baseDir, "incoming"),
		Processing: filepath.Join(baseDir, "processing"),
		Processed:  filepath.Join(baseDir, "processed"),
		Duplicated: filepath.Join(baseDir, "duplicated"),
		Error:      filepath.Join(baseDir, "error"),
	}
}

// EnsureDirs creates every stage directory that does not exist yet.
func (s *Stages) EnsureDirs() error {
	for _, d := range []string{s.Incoming, s.Processing, s.Processed, s.Duplicated, s.Error} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating stage directory %s: %w", d, err)
		}
	}
	return nil
}

// Mover performs crash-safe moves of files between stage directories.
type Mover struct {
	Retries int
	Backoff time.Duration
}

func NewMover() *Mover {
	return &Mover{Retries: 5, Backoff: time.Second}
}

// MoveToStage moves src into destDir, creating the directory if needed,
// resolving name collisions with a numeric suffix before the extension,
// and retrying transient failures (the Windows file-in-use class of
// errors). Returns the final destination path.
func (m *Mover) MoveToStage(src, destDir string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("move source: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating destination directory: %w", err)
	}

	dest := resolveCollision(filepath.Join(destDir, filepath.Base(src)))

	var lastErr error
	for i := 0; i < m.Retries; i++ {
		if err := moveFile(src, dest); err != nil {
			lastErr = err
			log.Printf("[MOVE RETRY %d/%d] %s | %v", i+1, m.Retries, src, err)
			time.Sleep(m.Backoff)
			continue
		}
		log.Printf("[MOVE OK] %s -> %s", src, dest)
		return dest, nil
	}

	return "", fmt.Errorf("failed to move file after %d retries: %s: %w", m.Retries, src, lastErr)
}

// resolveCollision returns dest if free, otherwise the first
// name_N.ext that does not exist yet.
func resolveCollision(dest string) string {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// removeDirIfExists removes a directory tree, tolerating absence.
func removeDirIfExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}

// moveFile renames, falling back to copy+remove for cross-device moves.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	in.Close()
	return os.Remove(src)
}
