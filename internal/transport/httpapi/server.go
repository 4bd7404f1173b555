// Package httpapi exposes concept and job retrieval over HTTP. Every response
// body is the same envelope: {"code": ..., "message": ..., "data": ...}, with
// the HTTP status mirroring the envelope code.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/logger"
	"github.com/kuaixun/fusearch/internal/usecase/concept"
	"github.com/kuaixun/fusearch/internal/usecase/job"
)

// ConceptQuerier resolves a news snippet to its best-matching concept.
type ConceptQuerier interface {
	Query(ctx context.Context, news string, topK int) (*concept.Match, error)
}

// JobSearcher retrieves postings for a target role profile.
type JobSearcher interface {
	Search(ctx context.Context, q job.Query) ([]job.Posting, error)
}

// JobIngestor writes collected postings.
type JobIngestor interface {
	Ingest(ctx context.Context, postings []job.PostingInput) (int64, error)
}

// HealthChecker reports whether one dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Server implements the HTTP API handlers.
type Server struct {
	concepts ConceptQuerier
	jobs     JobSearcher
	ingest   JobIngestor
	health   map[string]HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server. health maps dependency names to
// their reachability checks, reported per-name by GET /healthz.
func NewServer(
	concepts ConceptQuerier,
	jobs JobSearcher,
	ingest JobIngestor,
	health map[string]HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		concepts: concepts,
		jobs:     jobs,
		ingest:   ingest,
		health:   health,
		logger:   logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/concept/query", s.QueryConcept)
		r.Post("/job/search", s.SearchJobs)
		r.Post("/job/ingest", s.IngestJobs)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type conceptQueryRequest struct {
	News string `json:"news"`
	TopK int    `json:"top_k"`
}

type conceptQueryResponse struct {
	Concept  string  `json:"concept"`
	Distance float64 `json:"distance"`
}

// QueryConcept handles POST /api/v1/concept/query.
func (s *Server) QueryConcept(w http.ResponseWriter, r *http.Request) {
	var req conceptQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.News == "" {
		writeEnvelope(w, http.StatusBadRequest, "news is required", nil)
		return
	}

	match, err := s.concepts.Query(r.Context(), req.News, req.TopK)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if match == nil {
		// No concept matched. Still a success, data stays null.
		writeEnvelope(w, http.StatusOK, "success", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "success", conceptQueryResponse{
		Concept:  match.Concept,
		Distance: match.Distance,
	})
}

type jobSearchRequest struct {
	JobTitle  string `json:"job_title"`
	TechStack string `json:"tech_stack"`
	City      string `json:"city"`
	Salary    string `json:"salary"`
	Industry  string `json:"industry"`
	TopK      int    `json:"top_k"`
}

// SearchJobs handles POST /api/v1/job/search.
func (s *Server) SearchJobs(w http.ResponseWriter, r *http.Request) {
	var req jobSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	postings, err := s.jobs.Search(r.Context(), job.Query{
		JobTitle:  req.JobTitle,
		TechStack: req.TechStack,
		City:      req.City,
		Salary:    req.Salary,
		Industry:  req.Industry,
		TopK:      req.TopK,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "success", postings)
}

type jobIngestRequest struct {
	Jobs []job.PostingInput `json:"jobs"`
}

type jobIngestResponse struct {
	Inserted int64 `json:"inserted"`
}

// IngestJobs handles POST /api/v1/job/ingest.
func (s *Server) IngestJobs(w http.ResponseWriter, r *http.Request) {
	var req jobIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	inserted, err := s.ingest.Ingest(r.Context(), req.Jobs)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "success", jobIngestResponse{Inserted: inserted})
}

// HealthCheck handles GET /healthz. Any failing dependency makes the whole
// report unhealthy with status 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.health))
	healthy := true
	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unhealthy"
			healthy = false
			continue
		}
		checks[name] = "healthy"
	}

	if !healthy {
		writeEnvelope(w, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	writeEnvelope(w, http.StatusOK, "success", checks)
}

// writeError maps a use case error to the envelope. Caller-input errors are
// 400, everything else is 500 with the message passed through.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrEmptyBatch) {
		log.Warn("Rejected request", zap.Error(err))
		writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	log.Error("Request failed", zap.Error(err))
	writeEnvelope(w, http.StatusInternalServerError, err.Error(), nil)
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Code: code, Message: message, Data: data})
}
