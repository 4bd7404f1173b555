package domain

import "errors"

var (
	// ErrInvalidInput signals a caller-supplied parameter that fails validation
	// before any backend call is made.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyBatch signals an encode or insert call with zero rows.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrEmptyHits signals aggregation over an empty hit list. Callers must
	// check for zero hits before resolving.
	ErrEmptyHits = errors.New("empty hits")
	// ErrNotFound signals a missing collection or database.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding service failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals that the vector store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)
