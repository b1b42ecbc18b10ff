package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"ragfaq/internal/domain"
)

// Neighbor is a stored vector position and its squared L2 distance to a query.
type Neighbor struct {
	Position int
	Distance float64
}

// Index is an exact in-memory nearest-neighbour index using brute-force L2 distance.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

func NewIndex() *Index { return &Index{} }

// Insert appends vectors. The first non-empty insert fixes the dimension.
func (s *Index) Insert(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return fmt.Errorf("zero-length vector: %w", domain.ErrInvalidArgument)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, index has %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	s.dimension = dim
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		s.vectors = append(s.vectors, cp)
	}
	return nil
}

// Search returns the k nearest vectors, closest first. Equal distances keep insertion order.
func (s *Index) Search(vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w", len(vector), s.dimension, domain.ErrDimensionMismatch)
	}
	hits := make([]Neighbor, len(s.vectors))
	for i := range s.vectors {
		hits[i] = Neighbor{Position: i, Distance: squaredL2(s.vectors[i], vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of stored vectors.
func (s *Index) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimension returns the vector dimension, zero while empty.
func (s *Index) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

type snapshot struct {
	Dimension int
	Vectors   [][]float32
}

// MarshalBinary encodes the stored vectors.
func (s *Index) MarshalBinary() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot{Dimension: s.dimension, Vectors: s.vectors}); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the index contents with a snapshot written by MarshalBinary.
func (s *Index) UnmarshalBinary(data []byte) error {
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return fmt.Errorf("stored vector %d has dimension %d, want %d: %w", i, len(v), snap.Dimension, domain.ErrDimensionMismatch)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = snap.Dimension
	s.vectors = snap.Vectors
	return nil
}

func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
