package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"ragfaq/internal/domain"
	"ragfaq/internal/service"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Asker answers one question; the assistant satisfies it.
type Asker interface {
	AnswerQuestion(question string) (service.Answer, error)
}

const (
	DefaultTitle      = "Documentation FAQ Assistant"
	DefaultDisclaimer = "This tool is not affiliated with or endorsed by any documentation provider. " +
		"Always refer to the official documentation for authoritative information."
)

type Server struct {
	Asker  Asker
	Logger *logrus.Entry
	Router *http.ServeMux

	// Title and Disclaimer are rendered into the index page.
	Title      string
	Disclaimer string
}

type indexPage struct {
	Title      string
	Disclaimer string
}

func NewServer(asker Asker, logger *logrus.Entry) *Server {
	s := &Server{
		Asker:      asker,
		Logger:     logger.WithField("component", "server"),
		Router:     http.NewServeMux(),
		Title:      DefaultTitle,
		Disclaimer: DefaultDisclaimer,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/", s.handleIndex)
	s.Router.HandleFunc("/api/query", s.handleQuery)
	s.Router.HandleFunc("/api/health", s.handleHealth)
}

// Handler returns the router wrapped so a panic in one request never takes the process down.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.Router)
}

func (s *Server) Start(addr string) error {
	s.Logger.Infof("Access the web interface at http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type QueryRequest struct {
	Question string `json:"question"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, indexPage{Title: s.Title, Disclaimer: s.Disclaimer}); err != nil {
		s.Logger.WithError(err).Error("render index")
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "No question provided"})
		return
	}

	s.Logger.WithField("question", req.Question).Info("processing query")
	ans, err := s.Asker.AnswerQuestion(req.Question)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidArgument) {
			code = http.StatusBadRequest
		}
		s.Logger.WithError(err).Error("error processing query")
		jsonResponse(w, code, service.Answer{
			Answer:  fmt.Sprintf("Error processing your query: %v", err),
			Sources: []string{"Error occurred"},
		})
		return
	}
	if ans.Sources == nil {
		ans.Sources = []string{}
	}
	jsonResponse(w, http.StatusOK, ans)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.Logger.WithField("panic", rec).Error("request panicked")
				jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
