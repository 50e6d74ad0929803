package service

import (
	"regexp"
	"strings"
)

var (
	controlRe   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	zeroWidthRe = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
	rulerRe     = regexp.MustCompile(`[-_=]{3,}`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// NormalizeForEmbedding flattens text into a single clean line before it
// is sent to an embedding provider: newlines and tabs become spaces,
// control and zero-width characters are stripped, ASCII rulers (---, ===)
// are removed and whitespace is collapsed.
func NormalizeForEmbedding(text string) string {
	if text == "" {
		return ""
	}

	text = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ", " ", " ").Replace(text)
	text = controlRe.ReplaceAllString(text, " ")
	text = zeroWidthRe.ReplaceAllString(text, "")
	text = rulerRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// TruncateForEmbedding bounds the text handed to an embedding provider,
// cutting at a rune boundary so multi-byte text is never split mid-rune.
func TruncateForEmbedding(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	out := make([]rune, 0, maxLen)
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > maxLen {
			break
		}
		out = append(out, r)
	}
	return string(out)
}
