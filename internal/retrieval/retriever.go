package retrieval

import "context"

// Document is one retrieved chunk with its similarity score.
type Document struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Retriever is the thin boundary to the document store. The routing core
// never executes retrieval as part of a decision; executors acting on a
// policy with rag enabled call through this interface.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]Document, error)
}
