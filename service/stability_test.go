package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastDetector() *StabilityDetector {
	return &StabilityDetector{
		FileTimeout:  500 * time.Millisecond,
		DirTimeout:   500 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestWaitFileReady_StableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("stable content"), 0644))

	assert.True(t, fastDetector().WaitFileReady(context.Background(), path))
}

func TestWaitFileReady_GrowingFileTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "growing.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	stop := make(chan struct{})
	go func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		defer f.Close()
		for {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				f.Write([]byte("more"))
			}
		}
	}()
	defer close(stop)

	assert.False(t, fastDetector().WaitFileReady(context.Background(), path))
}

func TestWaitFileReady_EmptyFileNeverStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	assert.False(t, fastDetector().WaitFileReady(context.Background(), path))
}

func TestWaitFileReady_MissingFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.txt")
	assert.False(t, fastDetector().WaitFileReady(context.Background(), path))
}

func TestWaitFileReady_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &StabilityDetector{
		FileTimeout:  time.Minute,
		PollInterval: 10 * time.Millisecond,
	}
	assert.False(t, d.WaitFileReady(ctx, path))
}

func TestWaitDirReady_StableTree(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.txt"), []byte("bbb"), 0644))

	assert.True(t, fastDetector().WaitDirReady(context.Background(), dir))
}

func TestWaitDirReady_GrowingTreeTimesOut(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0644))

	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				os.WriteFile(filepath.Join(dir, "more.txt"), make([]byte, i+1), 0644)
			}
		}
	}()
	defer close(stop)

	assert.False(t, fastDetector().WaitDirReady(context.Background(), dir))
}
