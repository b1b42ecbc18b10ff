package vectorstore

import (
	"encoding"

	"ragfaq/internal/vectorstore/memory"
)

// Vectorizer maps text into a fixed vector space learned by Fit.
type Vectorizer interface {
	Fit(corpus []string) error
	Fitted() bool
	EmbedMany(texts []string) ([][]float32, error)
	EmbedOne(text string) ([]float32, error)
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Index stores vectors by insertion position and answers k-nearest queries.
type Index interface {
	Insert(vectors [][]float32) error
	Search(vector []float32, k int) ([]memory.Neighbor, error)
	Size() int
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}
