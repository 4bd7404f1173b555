package search

import (
	"context"

	"github.com/kuaixun/fusearch/internal/milvus"
)

// Store is the scoped-acquisition contract towards the storage layer.
type Store interface {
	WithCollection(ctx context.Context, db, collection string, fn func(sess milvus.Session) error) error
}
