package domain

// Chunk is a contiguous span of extracted document text.
// IDs are sequential in document order ("Vec1", "Vec2", ...).
type Chunk struct {
	ID   string
	Text string
}

// Record is the persisted unit in the vector store: an embedded chunk
// plus its original text carried as metadata.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// Match is a query hit returned by the vector store, best match first.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}
