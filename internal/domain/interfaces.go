package domain

import "context"

// Extractor turns raw uploaded document bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Chunker splits extracted text into overlapping chunks in document order.
type Chunker interface {
	Chunk(text string) []Chunk
}

// EmbeddingProvider converts texts into fixed-dimension numeric vectors.
// Passage and query embeddings use different provider modes and are not
// interchangeable.
type EmbeddingProvider interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorStore manages named indexes of embedded records. EnsureIndex is
// idempotent and returns only once the index is ready for writes; Upsert
// returns only once the written records are visible to queries.
type VectorStore interface {
	HasIndex(ctx context.Context, name string) (bool, error)
	EnsureIndex(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []Record) error
	Query(ctx context.Context, name string, vector []float32, topK int) ([]Match, error)
	DeleteIndex(ctx context.Context, name string) error
}

// TextGenerator produces text from a single-shot prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer turns user queries and retrieval results into generated text.
type Summarizer interface {
	EnhanceQuery(ctx context.Context, rawQuery string) (string, error)
	Summarize(ctx context.Context, snippets []string, query string) (string, error)
}

// SnippetRetriever fetches the snippets most relevant to a query from a
// named index, best match first.
type SnippetRetriever interface {
	Retrieve(ctx context.Context, indexName, query string) ([]string, error)
}

// IndexCache remembers the most recently built index name between runs.
// At most one name is ever remembered.
type IndexCache interface {
	Get() (name string, ok bool, err error)
	Set(name string) error
	Evict() error
}
