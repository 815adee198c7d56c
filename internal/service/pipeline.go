// Package service orchestrates one document question-answering request
// end-to-end: fingerprint, conditional index build, retrieval, generation.
// All steps run strictly in sequence.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docsum/internal/domain"
	"docsum/internal/fingerprint"
	"docsum/internal/logger"
)

// Pipeline wires the pipeline's collaborators behind capability interfaces
// so providers can be substituted.
type Pipeline struct {
	extractor  domain.Extractor
	chunker    domain.Chunker
	embedder   domain.EmbeddingProvider
	store      domain.VectorStore
	retriever  domain.SnippetRetriever
	summarizer domain.Summarizer
	cache      domain.IndexCache

	activeIndex string
}

func NewPipeline(
	extractor domain.Extractor,
	chunker domain.Chunker,
	embedder domain.EmbeddingProvider,
	store domain.VectorStore,
	retriever domain.SnippetRetriever,
	summarizer domain.Summarizer,
	cache domain.IndexCache,
) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		retriever:  retriever,
		summarizer: summarizer,
		cache:      cache,
	}
}

// ProcessDocument makes an index available for the uploaded document bytes
// and returns its name. If an index for the document's fingerprint already
// exists it is reused without re-embedding; otherwise a new index is built
// and the previously cached index, if any, is deleted. The cache pointer is
// set to the document's fingerprint either way.
func (p *Pipeline) ProcessDocument(ctx context.Context, data []byte) (string, error) {
	runID := uuid.New().String()
	fp := fingerprint.Fingerprint(data)
	logger.Info("run %s: document received, fingerprint %s", runID, fp)

	exists, err := p.store.HasIndex(ctx, fp)
	if err != nil {
		return "", err
	}
	if exists {
		logger.Info("run %s: index %s exists, reusing without re-embedding", runID, fp)
	} else {
		if err := p.buildIndex(ctx, runID, fp, data); err != nil {
			return "", err
		}
		if err := p.evictPrevious(ctx, runID, fp); err != nil {
			return "", err
		}
	}

	if err := p.cache.Set(fp); err != nil {
		return "", err
	}
	p.activeIndex = fp
	return fp, nil
}

func (p *Pipeline) buildIndex(ctx context.Context, runID, name string, data []byte) error {
	text, err := p.extractor.Extract(data)
	if err != nil {
		return err
	}
	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: document produced no chunks", domain.ErrExtraction)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := p.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return err
	}
	logger.Info("run %s: document vectorized, %d chunks", runID, len(chunks))

	records := make([]domain.Record, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.Record{
			ID:       ch.ID,
			Values:   vectors[i],
			Metadata: map[string]string{"text": ch.Text},
		}
	}
	if err := p.store.EnsureIndex(ctx, name); err != nil {
		return err
	}
	return p.store.Upsert(ctx, name, records)
}

// evictPrevious deletes the index remembered from an earlier document. An
// unreadable cache pointer means nothing to evict; it is logged and not
// propagated. Store failures do propagate.
func (p *Pipeline) evictPrevious(ctx context.Context, runID, current string) error {
	prev, ok, err := p.cache.Get()
	if err != nil {
		logger.Warn("run %s: cache pointer unreadable, nothing to evict: %v", runID, err)
		return nil
	}
	if !ok || prev == current {
		return nil
	}
	logger.Info("run %s: evicting previous index %s", runID, prev)
	return p.store.DeleteIndex(ctx, prev)
}

// Answer enhances the raw query, retrieves the most relevant snippets from
// the active document's index, and returns a generated summary.
func (p *Pipeline) Answer(ctx context.Context, rawQuery string) (string, error) {
	if p.activeIndex == "" {
		return "", errors.New("no document has been processed")
	}
	enhanced, err := p.summarizer.EnhanceQuery(ctx, rawQuery)
	if err != nil {
		return "", err
	}
	logger.Info("%s - %s", rawQuery, enhanced)

	snippets, err := p.retriever.Retrieve(ctx, p.activeIndex, enhanced)
	if err != nil {
		return "", err
	}
	summary, err := p.summarizer.Summarize(ctx, snippets, enhanced)
	if err != nil {
		return "", err
	}
	logger.Info("summary generated")
	return summary, nil
}

// ActiveIndex returns the index name of the most recently processed
// document, or "" if none.
func (p *Pipeline) ActiveIndex() string { return p.activeIndex }
