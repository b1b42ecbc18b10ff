package vectorstore

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ragfaq/internal/domain"
	"ragfaq/internal/embedding/tfidf"
	"ragfaq/internal/vectorstore/memory"
)

// Artifact file names written under a store directory.
const (
	VectorizerFile = "vectorizer.gob"
	TextsFile      = "texts.gob"
	MetadataFile   = "metadata.json"
	IndexFile      = "index.gob"
)

var artifacts = []string{VectorizerFile, TextsFile, MetadataFile, IndexFile}

// Store owns a vectorizer, an index and the texts and metadata parallel to it.
// Position i in texts, metadatas and the index always describe the same entry.
type Store struct {
	mu         sync.RWMutex
	vectorizer Vectorizer
	index      Index
	texts      []string
	metadatas  []domain.Metadata
}

// New returns an empty store backed by a TF-IDF vectorizer and a flat L2 index.
func New() *Store {
	return NewWith(tfidf.NewEmbedder(), memory.NewIndex())
}

// NewWith returns an empty store over the given components.
func NewWith(vectorizer Vectorizer, index Index) *Store {
	return &Store{vectorizer: vectorizer, index: index}
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}

// Texts returns a copy of the stored texts in insertion order.
func (s *Store) Texts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// AddTexts appends texts with their metadata. The first call fits the vectorizer
// on the whole accumulated collection, fixing the vector space for the store's lifetime.
func (s *Store) AddTexts(texts []string, metadatas []domain.Metadata) error {
	if metadatas == nil {
		metadatas = make([]domain.Metadata, len(texts))
	}
	if len(metadatas) != len(texts) {
		return fmt.Errorf("%d texts but %d metadata records: %w", len(texts), len(metadatas), domain.ErrInvalidArgument)
	}
	if len(texts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]string, 0, len(s.texts)+len(texts))
	all = append(all, s.texts...)
	all = append(all, texts...)
	if !s.vectorizer.Fitted() {
		if err := s.vectorizer.Fit(all); err != nil {
			return fmt.Errorf("fit vectorizer: %w", err)
		}
	}
	vectors, err := s.vectorizer.EmbedMany(texts)
	if err != nil {
		return fmt.Errorf("embed texts: %w", err)
	}
	before := s.index.Size()
	if err := s.index.Insert(vectors); err != nil {
		return fmt.Errorf("insert vectors: %w", err)
	}
	s.texts = all
	s.metadatas = append(s.metadatas, metadatas...)
	if got := s.index.Size(); got != len(s.texts) || got-before != len(texts) {
		return fmt.Errorf("index holds %d vectors for %d texts: %w", got, len(s.texts), domain.ErrDimensionMismatch)
	}
	return nil
}

// SimilaritySearch returns the k entries closest to query, closest first.
func (s *Store) SimilaritySearch(query string, k int) ([]domain.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.vectorizer.Fitted() {
		return nil, domain.ErrNotFitted
	}
	vec, err := s.vectorizer.EmbedOne(query)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(vec, k)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Result, 0, len(hits))
	for _, h := range hits {
		if h.Position >= len(s.texts) {
			return nil, fmt.Errorf("index position %d beyond %d texts: %w", h.Position, len(s.texts), domain.ErrDimensionMismatch)
		}
		results = append(results, domain.Result{
			Text:     s.texts[h.Position],
			Metadata: s.metadatas[h.Position],
			Distance: h.Distance,
		})
	}
	return results, nil
}

// Save writes the four store artifacts under dir, creating it if needed.
// Writes are not atomic: a failure part way leaves a directory Load rejects or misreads.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.vectorizer.Fitted() {
		return domain.ErrNotFitted
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	vec, err := s.vectorizer.MarshalBinary()
	if err != nil {
		return err
	}
	// gob keeps the exact bytes of every text; JSON would rewrite invalid UTF-8.
	var texts bytes.Buffer
	if err := gob.NewEncoder(&texts).Encode(s.texts); err != nil {
		return fmt.Errorf("encode texts: %w", err)
	}
	metas, err := json.Marshal(s.metadatas)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	idx, err := s.index.MarshalBinary()
	if err != nil {
		return err
	}
	files := map[string][]byte{
		VectorizerFile: vec,
		TextsFile:      texts.Bytes(),
		MetadataFile:   metas,
		IndexFile:      idx,
	}
	for _, name := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, name), files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// Load reads a store previously written by Save.
func Load(dir string) (*Store, error) {
	var missing []string
	for _, name := range artifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, name)
				continue
			}
			return nil, err
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s missing %s: %w", dir, strings.Join(missing, ", "), domain.ErrStoreNotFound)
	}

	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}

	s := New()
	data, err := read(VectorizerFile)
	if err != nil {
		return nil, err
	}
	if err := s.vectorizer.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	if data, err = read(TextsFile); err != nil {
		return nil, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s.texts); err != nil {
		return nil, fmt.Errorf("decode texts: %w", err)
	}
	if data, err = read(MetadataFile); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.metadatas); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if data, err = read(IndexFile); err != nil {
		return nil, err
	}
	if err := s.index.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	if len(s.texts) != len(s.metadatas) || len(s.texts) != s.index.Size() {
		return nil, fmt.Errorf("%d texts, %d metadata records, %d vectors: %w",
			len(s.texts), len(s.metadatas), s.index.Size(), domain.ErrDimensionMismatch)
	}
	return s, nil
}
