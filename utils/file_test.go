package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSHA1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	hash, err := FileSHA1(path)
	require.NoError(t, err)
	// sha1("hello")
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", hash)

	// Same bytes under a different name collide.
	other := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0644))
	otherHash, err := FileSHA1(other)
	require.NoError(t, err)
	assert.Equal(t, hash, otherHash)
}

func TestFileSHA1_Missing(t *testing.T) {
	_, err := FileSHA1(filepath.Join(t.TempDir(), "ghost.txt"))
	assert.Error(t, err)
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, "pdf", FileExt("/tmp/Report.PDF"))
	assert.Equal(t, "txt", FileExt("notes.txt"))
	assert.Equal(t, "", FileExt("noext"))
}

func TestFileNameWithoutExt(t *testing.T) {
	assert.Equal(t, "report", FileNameWithoutExt("/a/b/report.pdf"))
	assert.Equal(t, "archive.tar", FileNameWithoutExt("archive.tar.gz"))
	assert.Equal(t, "noext", FileNameWithoutExt("noext"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "report_2025.pdf", SanitizeFileName("report 2025.pdf"))
	assert.Equal(t, "a_b_c.txt", SanitizeFileName("a/b\\c.txt"))
	assert.Equal(t, "plain-name_1.txt", SanitizeFileName("plain-name_1.txt"))
}
