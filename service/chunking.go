package service

import "strings"

// Chunking defaults. MaxChunks caps pathological inputs so a corrupt
// extraction can never loop the pipeline.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultMaxChunks    = 200
)

// ChunkText splits text into overlapping slices of at most size runes,
// so multi-byte text is never cut mid-character. Empty or whitespace-only
// text yields no chunks. The overlap is clamped to half the chunk size so
// the window always advances.
func ChunkText(text string, size, overlap, maxChunks int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		return []string{strings.TrimSpace(text)}
	}

	if overlap > size/2 {
		overlap = size / 2
	}
	if overlap < 0 {
		overlap = 0
	}

	step := size - overlap
	chunks := make([]string, 0, n/step+1)

	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if len(chunks) >= maxChunks {
			break
		}
	}

	return chunks
}
