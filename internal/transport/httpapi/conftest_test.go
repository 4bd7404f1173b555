package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/usecase/concept"
	"github.com/kuaixun/fusearch/internal/usecase/job"
)

type fakeConceptQuerier struct {
	match *concept.Match
	err   error
	news  string
	topK  int
}

func (f *fakeConceptQuerier) Query(_ context.Context, news string, topK int) (*concept.Match, error) {
	f.news, f.topK = news, topK
	return f.match, f.err
}

type fakeJobSearcher struct {
	postings []job.Posting
	err      error
	query    job.Query
}

func (f *fakeJobSearcher) Search(_ context.Context, q job.Query) ([]job.Posting, error) {
	f.query = q
	return f.postings, f.err
}

type fakeJobIngestor struct {
	inserted int64
	err      error
	postings []job.PostingInput
}

func (f *fakeJobIngestor) Ingest(_ context.Context, postings []job.PostingInput) (int64, error) {
	f.postings = postings
	return f.inserted, f.err
}

type testServer struct {
	concepts *fakeConceptQuerier
	jobs     *fakeJobSearcher
	ingest   *fakeJobIngestor
	router   chi.Router
}

func newTestServer(health map[string]HealthChecker) *testServer {
	ts := &testServer{
		concepts: &fakeConceptQuerier{},
		jobs:     &fakeJobSearcher{},
		ingest:   &fakeJobIngestor{},
	}
	srv := NewServer(ts.concepts, ts.jobs, ts.ingest, health, zap.NewNop())
	ts.router = chi.NewRouter()
	srv.Register(ts.router)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Code != rec.Code {
		t.Errorf("envelope code %d disagrees with status %d", env.Code, rec.Code)
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
}

func healthOK(_ context.Context) error { return nil }

func healthFail(err error) HealthChecker {
	return func(_ context.Context) error { return err }
}
