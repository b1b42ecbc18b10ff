package tfidf

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"ragfaq/internal/domain"
)

// Embedder implements a TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates an unfitted TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Fit builds the vocabulary and IDF values from the provided corpus.
// Calling it again replaces the vector space; vectors produced before are no longer comparable.
func (e *Embedder) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("tfidf fit on empty corpus: %w", domain.ErrInvalidArgument)
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return fmt.Errorf("empty vocabulary; corpus contains only stop words: %w", domain.ErrInvalidArgument)
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Fitted reports whether a vocabulary is active.
func (e *Embedder) Fitted() bool { return e.prepared }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedMany returns one vector per text in the fitted space.
func (e *Embedder) EmbedMany(texts []string) ([][]float32, error) {
	if !e.prepared {
		return nil, domain.ErrNotFitted
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

// EmbedOne embeds a single query string.
func (e *Embedder) EmbedOne(text string) ([]float32, error) {
	if !e.prepared {
		return nil, domain.ErrNotFitted
	}
	return e.embed(text), nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tf := make(map[int]int)
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return vec
	}
	weights := make(map[int]float64, len(tf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

type state struct {
	Vocabulary map[string]int
	IDF        []float64
}

// MarshalBinary encodes the fitted vocabulary and IDF weights.
func (e *Embedder) MarshalBinary() ([]byte, error) {
	if !e.prepared {
		return nil, domain.ErrNotFitted
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state{Vocabulary: e.vocabulary, IDF: e.idf}); err != nil {
		return nil, fmt.Errorf("encode tfidf state: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a fitted state written by MarshalBinary.
func (e *Embedder) UnmarshalBinary(data []byte) error {
	var st state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return fmt.Errorf("decode tfidf state: %w", err)
	}
	if len(st.Vocabulary) != len(st.IDF) {
		return fmt.Errorf("tfidf state has %d terms and %d weights: %w", len(st.Vocabulary), len(st.IDF), domain.ErrDimensionMismatch)
	}
	e.vocabulary = st.Vocabulary
	e.idf = st.IDF
	e.dimension = len(st.IDF)
	e.prepared = true
	if e.tokenPattern == nil {
		e.tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	}
	if e.stopwords == nil {
		e.stopwords = defaultStopwords()
	}
	return nil
}
