package vectorstore

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragfaq/internal/domain"
)

var pillarTexts = []string{
	"The AWS Well-Architected Framework helps you build secure applications",
	"AWS provides reliability as a key pillar in the framework",
	"Cost optimization helps you avoid unnecessary costs",
	"Performance efficiency is about using resources efficiently",
	"Operational excellence is about running and monitoring systems",
}

var pillarMeta = []domain.Metadata{
	{ID: "doc_1_chunk_000", Source: "doc1.txt", ChunkIndex: 0},
	{ID: "doc_1_chunk_001", Source: "doc1.txt", ChunkIndex: 1},
	{ID: "doc_2_chunk_000", Source: "doc2.txt", ChunkIndex: 0},
	{ID: "doc_3_chunk_000", Source: "doc3.txt", ChunkIndex: 0},
	{ID: "doc_4_chunk_000", Source: "doc4.txt", ChunkIndex: 0},
}

var queries = []string{
	"What is the AWS reliability pillar?",
	"cost optimization",
	"How do I monitor operations?",
	"secure applications on AWS",
	"completely unrelated words zebra",
}

func newPillarStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.AddTexts(pillarTexts, pillarMeta))
	return s
}

func assertParallel(t *testing.T, s *Store) {
	t.Helper()
	assert.Equal(t, len(s.texts), len(s.metadatas))
	assert.Equal(t, len(s.texts), s.index.Size())
}

func TestReliabilityQueryRanksReliabilityFirst(t *testing.T) {
	s := newPillarStore(t)
	results, err := s.SimilaritySearch("What is the AWS reliability pillar?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, strings.ToLower(results[0].Text), "reliability")
	assert.Equal(t, "doc1.txt", results[0].Metadata.Source)
	assert.Equal(t, 1, results[0].Metadata.ChunkIndex)
}

func TestSearchIsDeterministic(t *testing.T) {
	s := newPillarStore(t)
	for _, q := range queries {
		first, err := s.SimilaritySearch(q, 5)
		require.NoError(t, err)
		second, err := s.SimilaritySearch(q, 5)
		require.NoError(t, err)
		assert.Equal(t, first, second, q)
	}
}

func TestSearchOrderingAndKBound(t *testing.T) {
	s := newPillarStore(t)
	for _, q := range queries {
		results, err := s.SimilaritySearch(q, 50)
		require.NoError(t, err)
		assert.Len(t, results, len(pillarTexts))
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance, q)
		}
	}
}

func TestSearchBeforeAddIsNotFitted(t *testing.T) {
	_, err := New().SimilaritySearch("anything", 3)
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestSearchRejectsBadArguments(t *testing.T) {
	s := newPillarStore(t)
	_, err := s.SimilaritySearch("cost", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = s.SimilaritySearch("   ", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAddTextsKeepsCollectionsParallel(t *testing.T) {
	s := New()
	require.NoError(t, s.AddTexts(pillarTexts[:2], nil))
	assertParallel(t, s)
	require.NoError(t, s.AddTexts(pillarTexts[2:], pillarMeta[2:]))
	assertParallel(t, s)
	require.NoError(t, s.AddTexts(nil, nil))
	assertParallel(t, s)
	assert.Equal(t, len(pillarTexts), s.Len())
	assert.Equal(t, domain.Metadata{}, s.metadatas[0])

	err := s.AddTexts([]string{"one", "two"}, []domain.Metadata{{}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assertParallel(t, s)
}

func TestFirstBatchFixesVectorSpace(t *testing.T) {
	s := New()
	require.NoError(t, s.AddTexts([]string{"apple banana"}, nil))
	require.NoError(t, s.AddTexts([]string{"kiwi mango"}, nil))

	// kiwi and mango were not in the fitted vocabulary, so the second entry embeds to the zero vector.
	results, err := s.SimilaritySearch("apple", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "apple banana", results[0].Text)
	assert.Equal(t, "kiwi mango", results[1].Text)
	assert.InDelta(t, 1.0, results[1].Distance, 1e-6)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newPillarStore(t)
	dir := filepath.Join(t.TempDir(), "nested", "store")
	require.NoError(t, s.Save(dir))
	for _, name := range []string{VectorizerFile, TextsFile, MetadataFile, IndexFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	loaded, err := Load(dir)
	require.NoError(t, err)
	assertParallel(t, loaded)

	for _, q := range queries {
		for k := 1; k <= 6; k++ {
			want, err := s.SimilaritySearch(q, k)
			require.NoError(t, err)
			got, err := loaded.SimilaritySearch(q, k)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Text, got[i].Text)
				assert.Equal(t, want[i].Metadata, got[i].Metadata)
				assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-5)
			}
		}
	}
}

func TestLoadMissingVectorizerIsStoreNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newPillarStore(t).Save(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, VectorizerFile)))

	_, err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
	assert.Contains(t, err.Error(), VectorizerFile)
}

func TestLoadMissingDirectoryIsStoreNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestLoadRejectsDesyncedCollections(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newPillarStore(t).Save(dir))
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode([]string{"only one"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TextsFile), buf.Bytes(), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSaveBeforeAddIsNotFitted(t *testing.T) {
	assert.ErrorIs(t, New().Save(t.TempDir()), domain.ErrNotFitted)
}

func TestSaveLoadKeepsTextBytes(t *testing.T) {
	raw := "alpha beta \xff gamma"
	s := New()
	require.NoError(t, s.AddTexts([]string{raw, "delta epsilon"}, nil))
	dir := t.TempDir()
	require.NoError(t, s.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{raw, "delta epsilon"}, loaded.Texts())
}
