package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/usecase/concept"
	"github.com/kuaixun/fusearch/internal/usecase/job"
)

func TestQueryConcept_Match(t *testing.T) {
	ts := newTestServer(nil)
	ts.concepts.match = &concept.Match{Concept: "固态电池", Distance: 0.8}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/concept/query",
		`{"news":"某公司发布固态电池量产计划","top_k":5}`)
	expectStatus(t, rec, http.StatusOK)

	if env.Message != "success" {
		t.Errorf("expected success message, got %q", env.Message)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", env.Data)
	}
	if data["concept"] != "固态电池" || data["distance"] != 0.8 {
		t.Errorf("unexpected data: %v", data)
	}
	if ts.concepts.news != "某公司发布固态电池量产计划" || ts.concepts.topK != 5 {
		t.Errorf("request not forwarded: news=%q topK=%d", ts.concepts.news, ts.concepts.topK)
	}
}

func TestQueryConcept_NoMatchIsNullData(t *testing.T) {
	ts := newTestServer(nil)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/concept/query", `{"news":"unrelated"}`)
	expectStatus(t, rec, http.StatusOK)
	if env.Data != nil {
		t.Errorf("expected null data on no match, got %v", env.Data)
	}
}

func TestQueryConcept_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"news":`},
		{"missing news", `{"top_k":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(nil)
			rec, env := ts.do(t, http.MethodPost, "/api/v1/concept/query", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
			if env.Message == "" || env.Message == "success" {
				t.Errorf("expected an error message, got %q", env.Message)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", fmt.Errorf("top_k: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{"empty batch", fmt.Errorf("ingest: %w", domain.ErrEmptyBatch), http.StatusBadRequest},
		{"backend failure", errors.New("milvus unreachable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(nil)
			ts.concepts.err = tt.err

			rec, env := ts.do(t, http.MethodPost, "/api/v1/concept/query", `{"news":"x"}`)
			expectStatus(t, rec, tt.wantStatus)
			// The message is passed through for diagnostics.
			if env.Message != tt.err.Error() {
				t.Errorf("expected message %q, got %q", tt.err.Error(), env.Message)
			}
		})
	}
}

func TestSearchJobs(t *testing.T) {
	ts := newTestServer(nil)
	ts.jobs.postings = []job.Posting{{JobTitle: "后端工程师", City: "北京", Distance: 0.03}}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/job/search",
		`{"job_title":"后端工程师","tech_stack":"Go","city":"北京","salary":"20-40k","top_k":10}`)
	expectStatus(t, rec, http.StatusOK)

	q := ts.jobs.query
	if q.JobTitle != "后端工程师" || q.TechStack != "Go" || q.City != "北京" || q.Salary != "20-40k" || q.TopK != 10 {
		t.Errorf("query not forwarded: %+v", q)
	}
	items, ok := env.Data.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one posting in data, got %v", env.Data)
	}
	posting := items[0].(map[string]any)
	if posting["job_title"] != "后端工程师" {
		t.Errorf("unexpected posting: %v", posting)
	}
}

func TestIngestJobs(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(nil)
		ts.ingest.inserted = 2

		rec, env := ts.do(t, http.MethodPost, "/api/v1/job/ingest",
			`{"jobs":[{"job_title":"a","job_detail":"d"},{"job_title":"b","job_detail":"d"}]}`)
		expectStatus(t, rec, http.StatusOK)

		if len(ts.ingest.postings) != 2 {
			t.Errorf("expected 2 postings forwarded, got %d", len(ts.ingest.postings))
		}
		data := env.Data.(map[string]any)
		if data["inserted"] != float64(2) {
			t.Errorf("expected inserted 2, got %v", data["inserted"])
		}
	})

	t.Run("empty batch is a client error", func(t *testing.T) {
		ts := newTestServer(nil)
		ts.ingest.err = fmt.Errorf("ingest: %w", domain.ErrEmptyBatch)

		rec, _ := ts.do(t, http.MethodPost, "/api/v1/job/ingest", `{"jobs":[]}`)
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		ts := newTestServer(map[string]HealthChecker{
			"milvus":    healthOK,
			"embedding": healthOK,
		})

		rec, env := ts.do(t, http.MethodGet, "/healthz", "")
		expectStatus(t, rec, http.StatusOK)
		checks := env.Data.(map[string]any)
		if checks["milvus"] != "healthy" || checks["embedding"] != "healthy" {
			t.Errorf("unexpected checks: %v", checks)
		}
	})

	t.Run("one dependency down", func(t *testing.T) {
		ts := newTestServer(map[string]HealthChecker{
			"milvus":    healthOK,
			"embedding": healthFail(errors.New("connection refused")),
		})

		rec, env := ts.do(t, http.MethodGet, "/healthz", "")
		expectStatus(t, rec, http.StatusServiceUnavailable)
		checks := env.Data.(map[string]any)
		if checks["milvus"] != "healthy" || checks["embedding"] != "unhealthy" {
			t.Errorf("unexpected checks: %v", checks)
		}
	})
}
