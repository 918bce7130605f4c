package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantRetriever searches a Qdrant collection of document chunks. Payload
// schema: "content" and "source" keyword fields alongside the vector.
// A breaker guards the backend: retrieval is optional glue, so a down
// vector store must fail fast instead of stalling every caller.
type QdrantRetriever struct {
	client     *qdrant.Client
	collection string
	embedder   *Embedder
	breaker    *Breaker
}

// NewQdrantRetriever connects to Qdrant over gRPC.
func NewQdrantRetriever(qdrantURL, collection, apiKey string, embedder *Embedder) (*QdrantRetriever, error) {
	qdrantURL = strings.TrimPrefix(qdrantURL, "http://")
	qdrantURL = strings.TrimPrefix(qdrantURL, "https://")
	host := qdrantURL
	if idx := strings.Index(qdrantURL, ":"); idx != -1 {
		host = qdrantURL[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334, // gRPC port
		APIKey: apiKey,
		UseTLS: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantRetriever{
		client:     client,
		collection: collection,
		embedder:   embedder,
		breaker:    NewBreaker(3, 30*time.Second),
	}, nil
}

// Search embeds the query and returns the topK closest document chunks.
func (r *QdrantRetriever) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	if topK <= 0 {
		return []Document{}, nil
	}

	var docs []Document
	err := r.breaker.Do(func() error {
		vector, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}

		limit := uint64(topK)
		points, err := r.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: r.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		docs = make([]Document, 0, len(points))
		for _, point := range points {
			docs = append(docs, Document{
				ID:      pointID(point),
				Content: payloadString(point, "content"),
				Source:  payloadString(point, "source"),
				Score:   float64(point.Score),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func pointID(point *qdrant.ScoredPoint) string {
	if id := point.Id.GetUuid(); id != "" {
		return id
	}
	return fmt.Sprintf("%d", point.Id.GetNum())
}

func payloadString(point *qdrant.ScoredPoint, key string) string {
	if v, ok := point.Payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
