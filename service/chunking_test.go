package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", DefaultChunkSize, DefaultChunkOverlap, DefaultMaxChunks))
	assert.Nil(t, ChunkText("   \n\t  ", DefaultChunkSize, DefaultChunkOverlap, DefaultMaxChunks))
}

func TestChunkText_ShortText(t *testing.T) {
	chunks := ChunkText("hello world", DefaultChunkSize, DefaultChunkOverlap, DefaultMaxChunks)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkText_Overlap(t *testing.T) {
	text := strings.Repeat("a", 80) + strings.Repeat("b", 80)
	chunks := ChunkText(text, 100, 20, DefaultMaxChunks)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 100)
	// The second window starts 80 in, so it replays 20 runes of the first.
	assert.Equal(t, text[80:], chunks[1])
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestChunkText_OverlapClampedToHalfSize(t *testing.T) {
	text := strings.Repeat("x", 1000)
	// overlap 90 of size 100 would advance 10 runes per chunk; the clamp
	// caps it at 50 so the window always makes real progress.
	chunks := ChunkText(text, 100, 90, DefaultMaxChunks)
	assert.Len(t, chunks, 20)
}

func TestChunkText_MultiByteRuneBoundaries(t *testing.T) {
	// 300 runes of Korean are 900 bytes; sizing must count runes so the
	// text still fits a single 500-rune chunk.
	short := ChunkText(strings.Repeat("한", 300), 500, 100, DefaultMaxChunks)
	require.Len(t, short, 1)
	assert.True(t, utf8.ValidString(short[0]))

	chunks := ChunkText(strings.Repeat("한", 1200), 500, 100, DefaultMaxChunks)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d split mid-rune", i)
	}
	assert.Len(t, []rune(chunks[0]), 500)
	assert.Len(t, []rune(chunks[2]), 400)
}

func TestChunkText_MaxChunksCap(t *testing.T) {
	text := strings.Repeat("y", 100_000)
	chunks := ChunkText(text, 100, 0, 10)
	assert.Len(t, chunks, 10)
}

func TestChunkText_NoEmptyChunks(t *testing.T) {
	text := strings.Repeat("z", 150) + strings.Repeat(" ", 300)
	for _, chunk := range ChunkText(text, 100, 0, DefaultMaxChunks) {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}
