// Package vector reads email embeddings from a Qdrant collection.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// scrollBatch bounds a single scroll request; larger id sets follow
// next_page_offset across requests.
const scrollBatch = 256

// payloadEmailID is the payload key carrying the email id; the ingestion
// pipeline writes all payload keys in camelCase.
const payloadEmailID = "emailId"

type qdrantStore struct {
	client     *http.Client
	baseURL    string
	collection string
}

// NewQdrantStore returns a VectorStore that reads from the Qdrant REST API.
// Embeddings are written by the ingestion pipeline; this client only reads.
func NewQdrantStore(client *http.Client, baseURL, collection string) domain.VectorStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &qdrantStore{client: client, baseURL: baseURL, collection: collection}
}

type scrollRequest struct {
	Filter      any  `json:"filter,omitempty"`
	Limit       int  `json:"limit"`
	Offset      any  `json:"offset,omitempty"`
	WithPayload bool `json:"with_payload"`
	WithVector  bool `json:"with_vector"`
}

type qdrantPoint struct {
	Payload map[string]any `json:"payload"`
	Vector  []float64      `json:"vector"`
}

type scrollResponse struct {
	Result struct {
		Points         []qdrantPoint `json:"points"`
		NextPageOffset any           `json:"next_page_offset"`
	} `json:"result"`
}

func (s *qdrantStore) GetByIDs(ctx context.Context, emailIDs []string) ([]*domain.EmailVector, error) {
	if len(emailIDs) == 0 {
		return nil, nil
	}
	limit := min(len(emailIDs), scrollBatch)
	filter := map[string]any{
		"must": []any{
			map[string]any{
				"key":   payloadEmailID,
				"match": map[string]any{"any": emailIDs},
			},
		},
	}

	vectors := make([]*domain.EmailVector, 0, len(emailIDs))
	var offset any
	for {
		body := scrollRequest{
			Filter:      filter,
			Limit:       limit,
			Offset:      offset,
			WithPayload: true,
			WithVector:  true,
		}

		var resp scrollResponse
		if err := s.post(ctx, fmt.Sprintf("/collections/%s/points/scroll", s.collection), body, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			id, _ := p.Payload[payloadEmailID].(string)
			if id == "" {
				continue
			}
			vectors = append(vectors, &domain.EmailVector{
				EmailID:   id,
				Embedding: p.Vector,
				Metadata:  p.Payload,
			})
		}

		offset = resp.Result.NextPageOffset
		if offset == nil || len(resp.Result.Points) == 0 {
			return vectors, nil
		}
	}
}

type searchRequest struct {
	Vector      []float64 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func (s *qdrantStore) SearchSimilar(ctx context.Context, embedding []float64, topK int) ([]domain.VectorSearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	body := searchRequest{Vector: embedding, Limit: topK, WithPayload: true}

	var resp searchResponse
	if err := s.post(ctx, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.VectorSearchResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		id, _ := hit.Payload[payloadEmailID].(string)
		if id == "" {
			continue
		}
		results = append(results, domain.VectorSearchResult{EmailID: id, Score: hit.Score})
	}
	return results, nil
}

func (s *qdrantStore) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode qdrant request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant api returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode qdrant response: %w", err)
	}
	return nil
}
