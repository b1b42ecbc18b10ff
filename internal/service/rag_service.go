package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"ragfaq/internal/domain"
	"ragfaq/internal/retriever"
	"ragfaq/internal/vectorstore"
)

// Config holds what the assistant needs to answer questions.
type Config struct {
	IndexPath         string
	TopK              int
	SummaryTopK       int
	MinSummaryResults int
	ScoreThreshold    float64
}

// Answer is the payload presentation layers render.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Assistant is the query entry point over a persisted vector store.
type Assistant struct {
	cfg Config
	log *logrus.Entry

	mu        sync.RWMutex
	store     *vectorstore.Store
	preloaded *retriever.Retriever
}

// NewAssistant builds an assistant. Nothing is loaded until the first question or Preload.
func NewAssistant(cfg Config, log *logrus.Entry) *Assistant {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.SummaryTopK <= 0 {
		cfg.SummaryTopK = 7
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Assistant{cfg: cfg, log: log.WithField("component", "assistant")}
}

// CreateRetriever loads the store from disk and wraps it in a retriever.
func (a *Assistant) CreateRetriever() (*retriever.Retriever, error) {
	store, err := a.loadStore()
	if err != nil {
		return nil, err
	}
	return a.wrap(store), nil
}

func (a *Assistant) loadStore() (*vectorstore.Store, error) {
	store, err := vectorstore.Load(a.cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("load vector store: %w", err)
	}
	a.log.WithFields(logrus.Fields{"path": a.cfg.IndexPath, "entries": store.Len()}).Debug("vector store loaded")
	return store, nil
}

func (a *Assistant) wrap(store *vectorstore.Store) *retriever.Retriever {
	return retriever.New(store, retriever.Options{
		SummaryTopK:       a.cfg.SummaryTopK,
		MinSummaryResults: a.cfg.MinSummaryResults,
		ScoreThreshold:    a.cfg.ScoreThreshold,
	})
}

// Preload loads the store once and reuses it for every later question.
// The store is read-only afterwards, so concurrent questions are safe.
func (a *Assistant) Preload() error {
	store, err := a.loadStore()
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.store = store
	a.preloaded = a.wrap(store)
	a.mu.Unlock()
	return nil
}

// Texts returns the passages of the preloaded store, or nil before Preload.
func (a *Assistant) Texts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.store == nil {
		return nil
	}
	return a.store.Texts()
}

// AnswerQuestion retrieves passages for question and formats them.
func (a *Assistant) AnswerQuestion(question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("empty question: %w", domain.ErrInvalidArgument)
	}
	k := a.cfg.TopK
	if retriever.IsSummaryQuery(question) {
		k = a.cfg.SummaryTopK
	}

	a.mu.RLock()
	r := a.preloaded
	a.mu.RUnlock()
	if r == nil {
		var err error
		if r, err = a.CreateRetriever(); err != nil {
			return Answer{}, err
		}
	}

	set, err := r.Search(question, k)
	if err != nil {
		return Answer{}, err
	}
	a.log.WithFields(logrus.Fields{"k": k, "hits": len(set.Results), "summary": set.Summary}).Info("question answered")
	return Answer{Answer: set.Answer, Sources: set.Sources}, nil
}
