// Package retriever turns similarity hits into a single answer string.
// Questions that ask for an overview take a broader search and come back as
// a structured summary; everything else is listed passage by passage.
package retriever

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ragfaq/internal/domain"
	"ragfaq/internal/sentence"
)

// SummaryKeywords mark a question as asking for an overview.
var SummaryKeywords = []string{
	"summarize",
	"summarise",
	"summary",
	"overview",
	"key points",
	"main points",
	"critical things",
	"important aspects",
	"most important",
	"key takeaways",
}

const (
	maxTitles      = 5
	maxKeyPoints   = 10
	maxTitleLen    = 100
	minPointLen    = 20
	pointsPerChunk = 2
)

// Searcher answers a query with a formatted result set.
type Searcher interface {
	Search(query string, k int) (domain.ResultSet, error)
}

// Store is the subset of the vector store the retriever needs.
type Store interface {
	SimilaritySearch(query string, k int) ([]domain.Result, error)
}

// Options tune the summary heuristic and score display.
type Options struct {
	// SummaryTopK is the k of the widening search in summary mode.
	SummaryTopK int
	// MinSummaryResults triggers the widening search when fewer hits came back.
	MinSummaryResults int
	// ScoreThreshold hides the relevance line for hits farther than this distance.
	ScoreThreshold float64
}

// DefaultOptions returns the stock summary and display settings.
func DefaultOptions() Options {
	return Options{SummaryTopK: 7, MinSummaryResults: 5, ScoreThreshold: 0.95}
}

// Retriever routes a query to the regular or summary path over one store.
type Retriever struct {
	store Store
	opts  Options
}

var _ Searcher = (*Retriever)(nil)

// New wraps a store. Zero-valued options fall back to DefaultOptions.
func New(store Store, opts Options) *Retriever {
	def := DefaultOptions()
	if opts.SummaryTopK <= 0 {
		opts.SummaryTopK = def.SummaryTopK
	}
	if opts.MinSummaryResults <= 0 {
		opts.MinSummaryResults = def.MinSummaryResults
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = def.ScoreThreshold
	}
	return &Retriever{store: store, opts: opts}
}

// IsSummaryQuery reports whether query contains any summary keyword.
func IsSummaryQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range SummaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Search runs query with k and formats the hits.
func (r *Retriever) Search(query string, k int) (domain.ResultSet, error) {
	if IsSummaryQuery(query) {
		return r.summarySearch(query, k)
	}
	return r.regularSearch(query, k)
}

func (r *Retriever) regularSearch(query string, k int) (domain.ResultSet, error) {
	results, err := r.store.SimilaritySearch(query, k)
	if err != nil {
		return domain.ResultSet{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d relevant passages for: %s\n", len(results), query)
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, strings.TrimSpace(res.Text))
		if res.Distance <= r.opts.ScoreThreshold {
			fmt.Fprintf(&b, "[Relevance: %.2f]\n", res.Relevance())
		}
	}
	return domain.ResultSet{
		Query:   query,
		Answer:  b.String(),
		Results: results,
		Sources: sources(results),
	}, nil
}

func (r *Retriever) summarySearch(query string, k int) (domain.ResultSet, error) {
	results, err := r.store.SimilaritySearch(query, k)
	if err != nil {
		return domain.ResultSet{}, err
	}
	if len(results) < r.opts.MinSummaryResults {
		more, err := r.store.SimilaritySearch(query, r.opts.SummaryTopK)
		if err != nil {
			return domain.ResultSet{}, err
		}
		results = mergeResults(results, more)
	}

	var titles, points []string
	for _, res := range results {
		if t, ok := extractTitle(res.Text); ok {
			titles = append(titles, t)
		}
		points = append(points, extractKeyPoints(res.Text)...)
	}
	titles = truncate(dedupe(titles), maxTitles)
	points = truncate(dedupe(points), maxKeyPoints)

	var b strings.Builder
	fmt.Fprintf(&b, "Summary for: %s\n", query)
	fmt.Fprintf(&b, "(based on %d passages)\n\n", len(results))
	b.WriteString("Key Components:\n")
	if len(titles) == 0 {
		b.WriteString("- (no section titles found)\n")
	}
	for _, t := range titles {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nKey Points:\n")
	if len(points) == 0 {
		b.WriteString("(no key points found)\n")
	}
	for i, p := range points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return domain.ResultSet{
		Query:   query,
		Answer:  b.String(),
		Results: results,
		Sources: sources(results),
		Summary: true,
	}, nil
}

type resultKey struct {
	text     string
	distance float64
}

// mergeResults appends the hits of b not already in a, keeping first-seen order.
func mergeResults(a, b []domain.Result) []domain.Result {
	seen := make(map[resultKey]struct{}, len(a)+len(b))
	out := make([]domain.Result, 0, len(a)+len(b))
	for _, list := range [][]domain.Result{a, b} {
		for _, res := range list {
			key := resultKey{res.Text, res.Distance}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, res)
		}
	}
	return out
}

func extractTitle(text string) (string, bool) {
	first := strings.TrimSpace(text)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = strings.TrimSpace(first[:i])
	}
	if first == "" || utf8.RuneCountInString(first) >= maxTitleLen {
		return "", false
	}
	lower := strings.ToLower(first)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.") {
		return "", false
	}
	if strings.HasPrefix(lower, "[score") || strings.HasPrefix(lower, "[relevance") || strings.Contains(lower, "score:") {
		return "", false
	}
	return first, true
}

func extractKeyPoints(text string) []string {
	var out []string
	for _, s := range sentence.Split(text) {
		s = strings.Join(strings.Fields(s), " ")
		if utf8.RuneCountInString(s) <= minPointLen {
			continue
		}
		out = append(out, s)
		if len(out) == pointsPerChunk {
			break
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func sources(results []domain.Result) []string {
	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Metadata.Source
	}
	return out
}
