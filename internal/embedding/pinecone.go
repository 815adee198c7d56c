// Package embedding converts text into fixed-dimension vectors using the
// Pinecone Inference API.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"docsum/internal/domain"
)

// DefaultModel is the multilingual embedding model used for both passages
// and queries.
const DefaultModel = "multilingual-e5-large"

// DefaultDimension is the vector dimensionality of DefaultModel.
const DefaultDimension = 1024

// MaxBatchSize is the provider's limit on inputs per embed call. Longer
// input sequences are split transparently.
const MaxBatchSize = 96

// PineconeClient is an EmbeddingProvider backed by the Pinecone Inference
// REST API.
type PineconeClient struct {
	baseURL   string
	apiKey    string
	model     string
	batchSize int
	dimension int
	client    *http.Client
}

// Config configures the Pinecone inference client. The API key is read from
// the environment variable named by APIKeyEnv.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	BatchSize int
	Dimension int
	Timeout   time.Duration
}

func NewPineconeClient(cfg Config) (*PineconeClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &PineconeClient{
		baseURL:   cfg.BaseURL,
		apiKey:    key,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: t},
	}, nil
}

// Dimension returns the dimensionality of the produced vectors.
func (c *PineconeClient) Dimension() int { return c.dimension }

// EmbedPassages embeds document chunks, one vector per input text in input
// order. Inputs longer than the batch limit are split into consecutive
// batches and the results concatenated; a non-empty tail is embedded as its
// own final batch.
func (c *PineconeClient) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embed(ctx, texts[start:end], "passage")
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds a single search query in query mode.
func (c *PineconeClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type embedInput struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
	Inputs     []embedInput   `json:"inputs"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

func (c *PineconeClient) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	inputs := make([]embedInput, len(texts))
	for i, t := range texts {
		inputs[i] = embedInput{Text: t}
	}
	body := embedRequest{
		Model: c.model,
		Parameters: map[string]any{
			"input_type": inputType,
			"truncate":   "END",
		},
		Inputs: inputs,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbeddingService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-API-Version", "2024-10")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingService, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrEmbeddingService, resp.Status, msg)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingService, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbeddingService, len(out.Data), len(texts))
	}
	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		if len(d.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at position %d", domain.ErrEmbeddingService, i)
		}
		vecs[i] = d.Values
	}
	return vecs, nil
}
