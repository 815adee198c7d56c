package domain

import "errors"

// Failure taxonomy for the pipeline. Provider errors wrap one of these
// sentinels so callers can match with errors.Is; none are retried locally.
var (
	// ErrExtraction marks a document that cannot be parsed.
	ErrExtraction = errors.New("document extraction failed")

	// ErrEmbeddingService marks an embedding provider failure. The whole
	// embed call fails together; no partial results are kept.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrStoreUnavailable marks a vector store provider failure.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrStoreTimeout marks an index that did not become ready, or an
	// upsert that did not become visible, within the configured wait.
	ErrStoreTimeout = errors.New("vector store readiness timeout")

	// ErrGeneration marks a language model provider failure.
	ErrGeneration = errors.New("text generation failure")

	// ErrCacheRead marks a malformed cache pointer file. Non-fatal: the
	// pipeline treats it as "nothing to evict".
	ErrCacheRead = errors.New("index cache unreadable")
)
