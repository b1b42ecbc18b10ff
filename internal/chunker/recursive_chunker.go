package chunker

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ragfaq/internal/domain"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text into chunks of at most chunkSize characters,
// trying paragraph, line, word and finally character boundaries in that order.
// Neighbouring chunks share up to overlap characters.
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveChunker(chunkSize, overlap int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &RecursiveChunker{chunkSize: chunkSize, overlap: overlap, separators: defaultSeparators}
}

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	return toChunks(document, c.split(document.Content, c.separators)), nil
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, good []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if length(p) < c.chunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good, sep)...)
	}
	return out
}

// merge packs small pieces into chunks, carrying a tail of up to overlap characters forward.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	sepLen := length(sep)
	var out, current []string
	total := 0
	for _, p := range pieces {
		l := length(p)
		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}
		if total+l+extra > c.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > c.overlap || (total+l+sepJoin(current, sepLen) > c.chunkSize && total > 0) {
				total -= length(current[0]) + sepJoin(current[1:], sepLen)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l + sepJoin(current[:len(current)-1], sepLen)
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

// sepJoin is the separator cost of appending after the given pieces.
func sepJoin(pieces []string, sepLen int) int {
	if len(pieces) == 0 {
		return 0
	}
	return sepLen
}

func length(s string) int { return utf8.RuneCountInString(s) }

func toChunks(document domain.Document, pieces []string) []domain.Chunk {
	stem := document.ID
	if stem == "" {
		base := filepath.Base(document.Path)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, domain.Chunk{
			Metadata: domain.Metadata{
				ID:         fmt.Sprintf("%s_chunk_%03d", stem, i),
				Source:     document.Path,
				ChunkIndex: i,
			},
			Text: text,
		})
	}
	return chunks
}
