package domain

import "errors"

var (
	// ErrNotFitted is returned when embedding or searching happens before a vector space exists.
	ErrNotFitted = errors.New("vectorizer not fitted")
	// ErrInvalidArgument covers non-positive k and empty text where text is required.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStoreNotFound is returned when a persisted store is missing one or more artifacts.
	ErrStoreNotFound = errors.New("vector store not found")
	// ErrDimensionMismatch signals that the parallel collections of a store are out of sync.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Document is a raw text file handed over by corpus acquisition.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Metadata describes where a chunk came from. The zero value is the empty record.
type Metadata struct {
	ID         string `json:"id,omitempty"`
	Source     string `json:"source,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
}

// Chunk is a retrievable unit of text produced by a Chunker.
type Chunk struct {
	Metadata
	Text string
}

// Result is one retrieved chunk. Distance is the squared L2 distance, lower is closer.
type Result struct {
	Text     string
	Metadata Metadata
	Distance float64
}

// Relevance maps the distance between two unit vectors onto [0, 1].
func (r Result) Relevance() float64 {
	rel := 1 - r.Distance/2
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}

// ResultSet is the formatted outcome of a single retrieval.
type ResultSet struct {
	Query   string
	Answer  string
	Results []Result
	Sources []string
	Summary bool
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
