// Package job retrieves job postings matching a target role profile and
// ingests collected postings into the job-requirement collection.
package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/domain/filter"
	"github.com/kuaixun/fusearch/internal/usecase/ingest"
)

// DefaultTopK is the posting count used when the caller does not supply one.
const DefaultTopK = 10

// Searcher is the hybrid retrieval contract consumed by job searches.
type Searcher interface {
	Search(
		ctx context.Context, db, collection, query string,
		topK int, filter string, outputFields []string,
	) ([]domain.Hit, error)
}

// Ingestor is the write contract consumed by posting ingestion.
type Ingestor interface {
	Insert(ctx context.Context, db string, schema domain.Schema, docs []ingest.Document) (domain.InsertResult, error)
}

// Query is a validated job search: free text plus optional exact-match
// constraints that narrow candidates before similarity ranking.
type Query struct {
	JobTitle  string
	TechStack string
	City      string
	Salary    string
	Industry  string
	TopK      int
}

// Posting is one retrieved job posting.
type Posting struct {
	City            string  `json:"city"`
	Salary          string  `json:"salary"`
	Seniority       string  `json:"seniority"`
	CompanyName     string  `json:"company_name"`
	CompanyIndustry string  `json:"company_industry"`
	CompanyInfo     string  `json:"company_info"`
	JobTitle        string  `json:"job_title"`
	JobDetail       string  `json:"job_detail"`
	Distance        float64 `json:"distance"`
}

// PostingInput is one collected posting to ingest.
type PostingInput struct {
	City            string `json:"city"`
	Salary          string `json:"salary"`
	Seniority       string `json:"seniority"`
	CompanyName     string `json:"company_name"`
	CompanyIndustry string `json:"company_industry"`
	CompanyInfo     string `json:"company_info"`
	JobTitle        string `json:"job_title"`
	JobDetail       string `json:"job_detail"`
}

// Service searches and ingests job postings against one collection.
type Service struct {
	searcher  Searcher
	ingestor  Ingestor
	schema    domain.Schema
	database  string
	batchSize int
}

// New creates a job service. batchSize <= 0 uses ingest.DefaultChunkSize.
func New(searcher Searcher, ingestor Ingestor, schema domain.Schema, database string, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = ingest.DefaultChunkSize
	}
	return &Service{
		searcher:  searcher,
		ingestor:  ingestor,
		schema:    schema,
		database:  database,
		batchSize: batchSize,
	}
}

var outputFields = []string{
	domain.JobFieldCity,
	domain.JobFieldSalary,
	domain.JobFieldSeniority,
	domain.JobFieldCompanyName,
	domain.JobFieldCompanyIndustry,
	domain.JobFieldCompanyInfo,
	domain.JobFieldJobTitle,
	domain.JobFieldJobDetail,
}

// Search retrieves postings for the target profile. The query text is the
// role plus tech stack; city, salary and industry become equality filters
// applied to both sub-searches before fusion.
func (s *Service) Search(ctx context.Context, q Query) ([]Posting, error) {
	queryText := strings.TrimSpace(q.JobTitle + " " + q.TechStack)
	if queryText == "" {
		return nil, fmt.Errorf("job title is required: %w", domain.ErrInvalidInput)
	}
	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	expr, _ := filter.New().
		Eq(domain.JobFieldCity, q.City).
		Eq(domain.JobFieldSalary, q.Salary).
		Eq(domain.JobFieldCompanyIndustry, q.Industry).
		Build()

	hits, err := s.searcher.Search(ctx, s.database, s.schema.Name, queryText, topK, expr, outputFields)
	if err != nil {
		return nil, fmt.Errorf("search job requirements: %w", err)
	}

	postings := make([]Posting, len(hits))
	for i, h := range hits {
		postings[i] = Posting{
			City:            h.Field(domain.JobFieldCity),
			Salary:          h.Field(domain.JobFieldSalary),
			Seniority:       h.Field(domain.JobFieldSeniority),
			CompanyName:     h.Field(domain.JobFieldCompanyName),
			CompanyIndustry: h.Field(domain.JobFieldCompanyIndustry),
			CompanyInfo:     h.Field(domain.JobFieldCompanyInfo),
			JobTitle:        h.Field(domain.JobFieldJobTitle),
			JobDetail:       h.Field(domain.JobFieldJobDetail),
			Distance:        h.Distance,
		}
	}
	return postings, nil
}

// Ingest writes collected postings in bounded batches and returns the total
// inserted row count. Chunks are independent: a failure reports how many rows
// made it in before the failing chunk.
func (s *Service) Ingest(ctx context.Context, postings []PostingInput) (int64, error) {
	if len(postings) == 0 {
		return 0, fmt.Errorf("ingest postings: %w", domain.ErrEmptyBatch)
	}

	docs := make([]ingest.Document, len(postings))
	for i, p := range postings {
		if p.JobTitle == "" || p.JobDetail == "" {
			return 0, fmt.Errorf("posting %d: job_title and job_detail are required: %w", i, domain.ErrInvalidInput)
		}
		docs[i] = ingest.Document{
			Text: docText(p),
			Meta: map[string]string{
				domain.JobFieldCity:            p.City,
				domain.JobFieldSalary:          p.Salary,
				domain.JobFieldSeniority:       p.Seniority,
				domain.JobFieldCompanyName:     p.CompanyName,
				domain.JobFieldCompanyIndustry: p.CompanyIndustry,
				domain.JobFieldCompanyInfo:     p.CompanyInfo,
				domain.JobFieldJobTitle:        p.JobTitle,
				domain.JobFieldJobDetail:       p.JobDetail,
			},
		}
	}

	var total int64
	for _, chunk := range ingest.Chunk(docs, s.batchSize) {
		res, err := s.ingestor.Insert(ctx, s.database, s.schema, chunk)
		if err != nil {
			return total, fmt.Errorf("ingest postings (after %d rows): %w", total, err)
		}
		total += res.Count
	}
	return total, nil
}

// docText builds the canonical document text for a posting: the searchable
// role description, excluding exact-filter fields like city and salary.
func docText(p PostingInput) string {
	parts := []string{p.JobTitle, p.JobDetail}
	if p.CompanyIndustry != "" {
		parts = append(parts, p.CompanyIndustry)
	}
	if p.CompanyInfo != "" {
		parts = append(parts, p.CompanyInfo)
	}
	return strings.Join(parts, " ")
}
