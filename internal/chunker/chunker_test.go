package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragfaq/internal/domain"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word" + strings.Repeat("x", i%5)
	}
	return strings.Join(parts, " ")
}

func TestRecursiveChunkerRespectsSize(t *testing.T) {
	c := NewRecursiveChunker(100, 20)
	doc := domain.Document{ID: "doc_1", Path: "raw_docs/doc_1.txt", Content: words(200)}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 100)
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, "raw_docs/doc_1.txt", ch.Source)
	}
	assert.Equal(t, "doc_1_chunk_000", chunks[0].ID)
	assert.Equal(t, "doc_1_chunk_001", chunks[1].ID)
}

func TestRecursiveChunkerOverlaps(t *testing.T) {
	c := NewRecursiveChunker(60, 20)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: words(60)})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		first := strings.Fields(chunks[i].Text)[0]
		assert.Contains(t, prev, first, "chunk %d should start inside the previous chunk", i)
	}
}

func TestRecursiveChunkerPrefersParagraphs(t *testing.T) {
	c := NewRecursiveChunker(500, 50)
	content := "First paragraph about security.\n\nSecond paragraph about cost."
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: content})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text)

	c = NewRecursiveChunker(40, 0)
	chunks, err = c.Chunk(domain.Document{ID: "d", Content: content})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph about security.", chunks[0].Text)
	assert.Equal(t, "Second paragraph about cost.", chunks[1].Text)
}

func TestRecursiveChunkerSplitsLongWords(t *testing.T) {
	c := NewRecursiveChunker(10, 0)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: strings.Repeat("a", 25)})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("a", 10), chunks[0].Text)
	assert.Equal(t, strings.Repeat("a", 5), chunks[2].Text)
}

func TestChunkersIgnoreBlankDocuments(t *testing.T) {
	for _, c := range []domain.Chunker{NewRecursiveChunker(0, 0), NewSentenceChunker(0, 0)} {
		chunks, err := c.Chunk(domain.Document{ID: "d", Content: " \n\t "})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSentenceChunkerWindows(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Chunk(domain.Document{Path: "docs/doc_7.txt", Content: "One. Two. Three. Four."})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two.", chunks[0].Text)
	assert.Equal(t, "Two. Three.", chunks[1].Text)
	assert.Equal(t, "Three. Four.", chunks[2].Text)
	assert.Equal(t, "doc_7_chunk_002", chunks[2].ID)
}

func TestSentenceChunkerKeepsUnterminatedTail(t *testing.T) {
	c := NewSentenceChunker(2, 0)
	chunks, err := c.Chunk(domain.Document{Path: "d.txt", Content: "Design for failure.\nScale  horizontally. Automate recovery"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Design for failure. Scale horizontally.", chunks[0].Text)
	assert.Equal(t, "Automate recovery", chunks[1].Text)
}
