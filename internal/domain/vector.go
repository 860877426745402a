package domain

import "context"

// EmailVector is an email's embedding and payload as stored in the vector store.
type EmailVector struct {
	EmailID   string
	Embedding []float64
	Metadata  map[string]any
}

// VectorSearchResult is one hit from a similarity search.
type VectorSearchResult struct {
	EmailID string
	Score   float64
}

// VectorStore retrieves email embeddings. Embedding generation happens in a
// separate ingestion pipeline; this service only reads.
type VectorStore interface {
	GetByIDs(ctx context.Context, emailIDs []string) ([]*EmailVector, error)
	SearchSimilar(ctx context.Context, embedding []float64, topK int) ([]VectorSearchResult, error)
}
