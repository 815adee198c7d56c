// Package retriever fetches the document chunks most relevant to a query.
package retriever

import (
	"context"
	"fmt"

	"docsum/internal/domain"
	"docsum/internal/logger"
)

// DefaultTopK is the number of snippets requested per query.
const DefaultTopK = 10

// Retriever embeds a query and fetches the nearest records' text metadata
// from the vector store, preserving the store's relevance ordering.
type Retriever struct {
	embedder domain.EmbeddingProvider
	store    domain.VectorStore
	topK     int
}

func New(embedder domain.EmbeddingProvider, store domain.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns up to topK snippets for the query, best match first.
// Fewer are returned if the index holds fewer records.
func (r *Retriever) Retrieve(ctx context.Context, indexName, query string) ([]string, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.store.Query(ctx, indexName, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", indexName, err)
	}
	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, m.Metadata["text"])
	}
	logger.Debug("retrieved %d snippets from index %s", len(snippets), indexName)
	return snippets, nil
}
