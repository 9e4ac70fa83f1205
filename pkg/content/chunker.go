package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// ChunkText splits into paragraph chunks and limits size.
func ChunkText(text string) []string {
	return Chunk(text, DefaultChunkSize, DefaultChunkOverlap)
}

// Chunk splits text on blank lines, then cuts paragraphs longer than size into
// windows of size runes that overlap by overlap runes.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, splitLong(p, size, overlap)...)
	}
	return out
}

func splitLong(s string, size, overlap int) []string {
	if utf8.RuneCountInString(s) <= size {
		return []string{s}
	}
	runes := []rune(s)
	var res []string
	for i := 0; i < len(runes); i += size - overlap {
		end := min(i+size, len(runes))
		if piece := strings.TrimSpace(string(runes[i:end])); piece != "" {
			res = append(res, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return res
}
