package corpus

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragfaq/internal/chunker"
	"ragfaq/internal/domain"
	"ragfaq/internal/vectorstore"
)

func writeRawDocs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := map[string]string{
		"doc_001.txt": "Reliability\n\nThe reliability pillar covers recovery from failure and meeting demand.",
		"doc_002.txt": "Cost Optimization\n\nThe cost optimization pillar avoids unnecessary costs.",
		"notes.md":    "not part of the corpus",
	}
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestChunkDocumentsWritesChunksAndMetadata(t *testing.T) {
	raw := writeRawDocs(t)
	out := filepath.Join(t.TempDir(), "chunks")
	log, _ := test.NewNullLogger()

	records, err := ChunkDocuments(raw, "doc_*.txt", out, chunker.NewRecursiveChunker(500, 50), logrus.NewEntry(log))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "doc_001_chunk_000", records[0].ID)
	assert.Equal(t, filepath.Join(raw, "doc_001.txt"), records[0].Source)
	assert.FileExists(t, filepath.Join(out, MetadataFile))
	assert.FileExists(t, filepath.Join(out, "doc_002_chunk_000.txt"))

	texts, metas, err := LoadChunks(out, logrus.NewEntry(log))
	require.NoError(t, err)
	assert.Equal(t, records, metas)
	assert.Contains(t, texts[0], "reliability pillar")
}

func TestChunkDocumentsNoMatches(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := ChunkDocuments(t.TempDir(), "doc_*.txt", t.TempDir(), chunker.NewRecursiveChunker(500, 50), logrus.NewEntry(log))
	assert.Error(t, err)
}

func TestLoadChunksSkipsMissingFiles(t *testing.T) {
	raw := writeRawDocs(t)
	out := t.TempDir()
	log, hook := test.NewNullLogger()
	entry := logrus.NewEntry(log)

	_, err := ChunkDocuments(raw, "doc_*.txt", out, chunker.NewRecursiveChunker(500, 50), entry)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(out, "doc_001_chunk_000.txt")))
	hook.Reset()

	texts, metas, err := LoadChunks(out, entry)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, []domain.Metadata{{ID: "doc_002_chunk_000", Source: filepath.Join(raw, "doc_002.txt")}}, metas)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestBuildStoreSavesLoadableStore(t *testing.T) {
	raw := writeRawDocs(t)
	chunks := t.TempDir()
	storePath := filepath.Join(t.TempDir(), "index")
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)

	_, err := ChunkDocuments(raw, "doc_*.txt", chunks, chunker.NewRecursiveChunker(500, 50), entry)
	require.NoError(t, err)
	built, err := BuildStore(chunks, storePath, entry)
	require.NoError(t, err)
	assert.Equal(t, 2, built.Len())

	loaded, err := vectorstore.Load(storePath)
	require.NoError(t, err)
	results, err := loaded.SimilaritySearch("unnecessary costs", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_002_chunk_000", results[0].Metadata.ID)
}

func TestBuildStoreWithoutChunks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`[{"id":"gone","source":"x","chunk_index":0}]`), 0o644))
	log, _ := test.NewNullLogger()
	_, err := BuildStore(dir, filepath.Join(t.TempDir(), "index"), logrus.NewEntry(log))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
