package chunker

import (
	"strings"

	"ragfaq/internal/domain"
	"ragfaq/internal/sentence"
)

// SentenceChunker groups whole sentences into windows. Consecutive windows
// share overlapSentences sentences; an unpunctuated tail counts as a sentence.
type SentenceChunker struct {
	perChunk int
	overlap  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &SentenceChunker{perChunk: sentencesPerChunk, overlap: overlapSentences}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var sents []string
	for _, s := range sentence.Split(document.Content) {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			sents = append(sents, s)
		}
	}
	var pieces []string
	for start := 0; start < len(sents); start += c.perChunk - c.overlap {
		end := min(start+c.perChunk, len(sents))
		pieces = append(pieces, strings.Join(sents[start:end], " "))
		if end == len(sents) {
			break
		}
	}
	return toChunks(document, pieces), nil
}
