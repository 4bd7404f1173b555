package concept

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/usecase/ingest"
)

// Refresher rebuilds the concept collection from the upstream feed: wipe
// everything, then re-ingest in bounded batches. The window of emptiness
// between delete and re-insert is accepted as non-atomic; the refresh is an
// exclusive maintenance window by operational convention, there is no lock
// against simultaneous ad-hoc writes.
type Refresher struct {
	source    Source
	ingestor  Ingestor
	schema    domain.Schema
	database  string
	hour      int // local hour-of-day the daily run fires at
	batchSize int
	logger    *zap.Logger
}

// NewRefresher creates a daily concept refresher. hour is the local
// hour-of-day (0-23) to run at; batchSize <= 0 uses ingest.DefaultChunkSize.
func NewRefresher(
	source Source, ingestor Ingestor, schema domain.Schema,
	database string, hour, batchSize int, logger *zap.Logger,
) *Refresher {
	if batchSize <= 0 {
		batchSize = ingest.DefaultChunkSize
	}
	return &Refresher{
		source:    source,
		ingestor:  ingestor,
		schema:    schema,
		database:  database,
		hour:      hour,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Refresh performs one full delete-and-reingest cycle.
func (r *Refresher) Refresh(ctx context.Context) error {
	records, err := r.source.ConceptStocks(ctx)
	if err != nil {
		return fmt.Errorf("fetch concept universe: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("refresh aborted: feed returned no records")
	}

	if _, err := r.ingestor.Delete(ctx, r.database, r.schema.Name, "pk >= 0"); err != nil {
		return fmt.Errorf("wipe concept collection: %w", err)
	}

	docs := make([]ingest.Document, len(records))
	for i, rec := range records {
		text := rec.DocText()
		docs[i] = ingest.Document{
			Text: text,
			Meta: map[string]string{
				domain.ConceptFieldContent:   text,
				domain.ConceptFieldConcept:   rec.Name,
				domain.ConceptFieldStockCode: rec.StockCode,
			},
		}
	}

	var total int64
	for _, chunk := range ingest.Chunk(docs, r.batchSize) {
		res, err := r.ingestor.Insert(ctx, r.database, r.schema, chunk)
		if err != nil {
			return fmt.Errorf("reingest concepts (after %d rows): %w", total, err)
		}
		total += res.Count
	}

	r.logger.Info("Concept collection refreshed",
		zap.Int("records", len(records)),
		zap.Int64("inserted", total),
	)
	return nil
}

// Run loops forever, waking on a coarse hour-of-day check and refreshing once
// per day when the configured hour is reached. Returns when ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	for {
		if time.Now().Hour() == r.hour {
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("Concept refresh failed", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Hour):
		}
	}
}
