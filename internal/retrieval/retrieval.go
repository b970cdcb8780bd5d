package retrieval

import "context"

// Passage is one retrieved document chunk with its source label. Passages
// are produced per query and never retained past prompt assembly.
type Passage struct {
	Document string
	Source   string
}

// Retriever abstracts the vector store. Implementations return the topK
// most relevant passages for a query; empty results mean "no context".
type Retriever interface {
	Query(ctx context.Context, query string, topK int) ([]Passage, error)
}
