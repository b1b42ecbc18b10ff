package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"ragfaq/internal/domain"
	"ragfaq/internal/embedding/tfidf"
	"ragfaq/internal/sentence"
)

const defaultSentences = 5

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// FrequencySummarizer picks the sentences whose content words recur most
// across the input. Tokens and stop words match the TF-IDF vectorizer.
type FrequencySummarizer struct{}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

// NewFrequencySummarizer creates a frequency-based sentence ranker.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

type scored struct {
	text  string
	doc   int
	pos   int
	score float64
}

// Summarize returns up to maxSentences of the best scoring sentences of text,
// in document order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = defaultSentences
	}
	ranked := rank([]string{text})
	if len(ranked) == 0 {
		return "", nil
	}
	return join(best(ranked, maxSentences)), nil
}

// Digest summarizes a collection of passages, taking at most one sentence
// from each so a single long passage cannot fill the whole digest.
func (s *FrequencySummarizer) Digest(texts []string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = defaultSentences
	}
	top := make(map[int]scored)
	for _, sent := range rank(texts) {
		if cur, ok := top[sent.doc]; !ok || sent.score > cur.score {
			top[sent.doc] = sent
		}
	}
	perDoc := make([]scored, 0, len(top))
	for d := range texts {
		if sent, ok := top[d]; ok {
			perDoc = append(perDoc, sent)
		}
	}
	return join(best(perDoc, maxSentences))
}

// rank splits every text into sentences and scores each one by the summed
// normalised frequency of its content words, damped by sentence length.
func rank(texts []string) []scored {
	var sents []scored
	var toks [][]string
	freq := make(map[string]float64)
	for d, text := range texts {
		for p, raw := range sentence.Split(text) {
			words := contentWords(raw)
			for _, w := range words {
				freq[w]++
			}
			sents = append(sents, scored{text: strings.Join(strings.Fields(raw), " "), doc: d, pos: p})
			toks = append(toks, words)
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	for i := range sents {
		if len(toks[i]) == 0 {
			continue
		}
		sum := 0.0
		for _, w := range toks[i] {
			sum += freq[w] / maxF
		}
		sents[i].score = sum / math.Sqrt(float64(len(toks[i])))
	}
	return sents
}

// best keeps the n highest scores and restores document order.
func best(sents []scored, n int) []scored {
	sort.SliceStable(sents, func(i, j int) bool { return sents[i].score > sents[j].score })
	if n > len(sents) {
		n = len(sents)
	}
	out := sents[:n]
	sort.Slice(out, func(i, j int) bool {
		if out[i].doc != out[j].doc {
			return out[i].doc < out[j].doc
		}
		return out[i].pos < out[j].pos
	})
	return out
}

func join(sents []scored) string {
	parts := make([]string, len(sents))
	for i, s := range sents {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

func contentWords(text string) []string {
	var out []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if !tfidf.IsStopWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}
