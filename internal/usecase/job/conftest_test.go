package job

import (
	"context"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/usecase/ingest"
)

type fakeSearcher struct {
	hits []domain.Hit
	err  error

	db           string
	collection   string
	query        string
	topK         int
	filter       string
	outputFields []string
}

func (f *fakeSearcher) Search(
	_ context.Context, db, collection, query string,
	topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	f.db, f.collection, f.query = db, collection, query
	f.topK, f.filter, f.outputFields = topK, filter, outputFields
	return f.hits, f.err
}

type fakeIngestor struct {
	err     error
	failAt  int // fail on the nth insert call (1-based), 0 = never
	calls   int
	inserts [][]ingest.Document
}

func (f *fakeIngestor) Insert(
	_ context.Context, _ string, _ domain.Schema, docs []ingest.Document,
) (domain.InsertResult, error) {
	f.calls++
	if f.err != nil && (f.failAt == 0 || f.calls == f.failAt) {
		return domain.InsertResult{}, f.err
	}
	f.inserts = append(f.inserts, docs)
	return domain.InsertResult{Count: int64(len(docs))}, nil
}

func postingHit(pk int64, title string) domain.Hit {
	return domain.Hit{
		PK:       pk,
		Distance: 0.03,
		Fields: map[string]string{
			domain.JobFieldCity:            "北京",
			domain.JobFieldSalary:          "20-40k",
			domain.JobFieldSeniority:       "3-5年",
			domain.JobFieldCompanyName:     "示例科技",
			domain.JobFieldCompanyIndustry: "互联网",
			domain.JobFieldCompanyInfo:     "B轮",
			domain.JobFieldJobTitle:        title,
			domain.JobFieldJobDetail:       "负责后端服务开发",
		},
	}
}

func posting(title string) PostingInput {
	return PostingInput{
		City:            "北京",
		Salary:          "20-40k",
		Seniority:       "3-5年",
		CompanyName:     "示例科技",
		CompanyIndustry: "互联网",
		CompanyInfo:     "B轮",
		JobTitle:        title,
		JobDetail:       "负责后端服务开发",
	}
}
