package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Embedder turns query text into a vector via an OpenAI-compatible
// /v1/embeddings endpoint. The model is optional; when empty the endpoint's
// default is used.
type Embedder struct {
	apiURL string
	model  string
	client *http.Client
}

func NewEmbedder(apiURL, model string) *Embedder {
	return &Embedder{
		apiURL: apiURL,
		model:  model,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Embed converts a retrieval query to its vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{"input": text}
	if e.model != "" {
		payload["model"] = e.model
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("embedding request encode failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding response decode failed: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector for the query")
	}
	return out.Data[0].Embedding, nil
}
