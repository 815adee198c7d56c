// Package pinecone implements the vector store contract against the
// Pinecone REST API: a control plane for index lifecycle and a per-index
// data plane for record writes and queries.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"docsum/internal/domain"
	"docsum/internal/logger"
)

const apiVersion = "2024-10"

// Store is a minimal REST client to Pinecone. Indexes are serverless with a
// cosine metric; records are written under a namespace equal to the index
// name so documents' chunks stay isolated even if ids collide.
type Store struct {
	baseURL   string
	apiKey    string
	dimension int
	metric    string
	cloud     string
	region    string

	// Index provisioning is asynchronous and writes are eventually
	// consistent, so readiness is polled with explicit bounds instead of
	// fixed sleeps.
	pollInterval  time.Duration
	readyTimeout  time.Duration
	settleTimeout time.Duration

	client *http.Client
}

// Config configures the Pinecone store client. The API key is read from the
// environment variable named by APIKeyEnv.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Dimension int
	Metric    string
	Cloud     string
	Region    string

	PollInterval  time.Duration
	ReadyTimeout  time.Duration
	SettleTimeout time.Duration
	Timeout       time.Duration
}

func NewStore(cfg Config) (*Store, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1024
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 5 * time.Minute
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 60 * time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		baseURL:       cfg.BaseURL,
		apiKey:        key,
		dimension:     cfg.Dimension,
		metric:        cfg.Metric,
		cloud:         cfg.Cloud,
		region:        cfg.Region,
		pollInterval:  cfg.PollInterval,
		readyTimeout:  cfg.ReadyTimeout,
		settleTimeout: cfg.SettleTimeout,
		client:        &http.Client{Timeout: timeout},
	}, nil
}

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// HasIndex reports whether an index with the given name exists.
func (s *Store) HasIndex(ctx context.Context, name string) (bool, error) {
	_, status, err := s.describeIndex(ctx, name)
	if err != nil {
		return false, err
	}
	return status != http.StatusNotFound, nil
}

// EnsureIndex creates the index if it does not exist, then blocks until it
// reports ready. Creation is idempotent: an index that is already present is
// not an error. Returns domain.ErrStoreTimeout if the index does not become
// ready within the configured wait.
func (s *Store) EnsureIndex(ctx context.Context, name string) error {
	exists, err := s.HasIndex(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]any{
			"name":      name,
			"dimension": s.dimension,
			"metric":    s.metric,
			"spec": map[string]any{
				"serverless": map[string]any{
					"cloud":  s.cloud,
					"region": s.region,
				},
			},
		}
		status, _, err := s.do(ctx, http.MethodPost, s.baseURL+"/indexes", body)
		if err != nil {
			return err
		}
		// 409: another caller created it first, which is fine.
		if status >= 300 && status != http.StatusConflict {
			return fmt.Errorf("%w: create index %s: status %d", domain.ErrStoreUnavailable, name, status)
		}
	}

	deadline := time.Now().Add(s.readyTimeout)
	for {
		desc, status, err := s.describeIndex(ctx, name)
		if err != nil {
			return err
		}
		if status == http.StatusOK && desc.Status.Ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: index %s not ready after %s", domain.ErrStoreTimeout, name, s.readyTimeout)
		}
		logger.Debug("index %s not ready (state %s), polling again in %s", name, desc.Status.State, s.pollInterval)
		if err := sleepCtx(ctx, s.pollInterval); err != nil {
			return err
		}
	}
}

// Upsert writes records by id under the namespace equal to the index name,
// then blocks until the namespace reports at least that many vectors, so a
// subsequent query observes the write. Returns domain.ErrStoreTimeout if the
// records do not become visible within the configured wait.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	host, err := s.indexHost(ctx, name)
	if err != nil {
		return err
	}
	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		vectors[i] = map[string]any{
			"id":       r.ID,
			"values":   r.Values,
			"metadata": r.Metadata,
		}
	}
	body := map[string]any{
		"vectors":   vectors,
		"namespace": name,
	}
	status, _, err := s.do(ctx, http.MethodPost, host+"/vectors/upsert", body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: upsert into %s: status %d", domain.ErrStoreUnavailable, name, status)
	}
	return s.waitVisible(ctx, host, name, len(records))
}

// waitVisible polls index stats with doubling backoff until the namespace
// holds at least count vectors.
func (s *Store) waitVisible(ctx context.Context, host, namespace string, count int) error {
	deadline := time.Now().Add(s.settleTimeout)
	wait := s.pollInterval
	for {
		var stats struct {
			Namespaces map[string]struct {
				VectorCount int `json:"vectorCount"`
			} `json:"namespaces"`
		}
		status, raw, err := s.do(ctx, http.MethodPost, host+"/describe_index_stats", map[string]any{})
		if err != nil {
			return err
		}
		if status >= 300 {
			return fmt.Errorf("%w: describe index stats: status %d", domain.ErrStoreUnavailable, status)
		}
		if err := json.Unmarshal(raw, &stats); err != nil {
			return fmt.Errorf("%w: decode index stats: %v", domain.ErrStoreUnavailable, err)
		}
		if stats.Namespaces[namespace].VectorCount >= count {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d records not visible in namespace %s after %s",
				domain.ErrStoreTimeout, count, namespace, s.settleTimeout)
		}
		logger.Debug("namespace %s has %d/%d vectors, polling again in %s",
			namespace, stats.Namespaces[namespace].VectorCount, count, wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
		if wait *= 2; wait > 4*s.pollInterval {
			wait = 4 * s.pollInterval
		}
	}
}

// Query returns the topK nearest records in the index's namespace, best
// match first, with metadata but without raw vectors.
func (s *Store) Query(ctx context.Context, name string, vector []float32, topK int) ([]domain.Match, error) {
	host, err := s.indexHost(ctx, name)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"namespace":       name,
		"vector":          vector,
		"topK":            topK,
		"includeValues":   false,
		"includeMetadata": true,
	}
	status, raw, err := s.do(ctx, http.MethodPost, host+"/query", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: query %s: status %d", domain.ErrStoreUnavailable, name, status)
	}
	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float32           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode query response: %v", domain.ErrStoreUnavailable, err)
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// DeleteIndex removes an index and all its records. Safe to call with an
// empty or absent name.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	status, _, err := s.do(ctx, http.MethodDelete, s.baseURL+"/indexes/"+name, nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return fmt.Errorf("%w: delete index %s: status %d", domain.ErrStoreUnavailable, name, status)
	}
	return nil
}

func (s *Store) describeIndex(ctx context.Context, name string) (*indexDescription, int, error) {
	status, raw, err := s.do(ctx, http.MethodGet, s.baseURL+"/indexes/"+name, nil)
	if err != nil {
		return nil, 0, err
	}
	if status == http.StatusNotFound {
		return &indexDescription{}, status, nil
	}
	if status >= 300 {
		return nil, status, fmt.Errorf("%w: describe index %s: status %d", domain.ErrStoreUnavailable, name, status)
	}
	var desc indexDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, status, fmt.Errorf("%w: decode index description: %v", domain.ErrStoreUnavailable, err)
	}
	return &desc, status, nil
}

// indexHost resolves the data-plane URL for an index.
func (s *Store) indexHost(ctx context.Context, name string) (string, error) {
	desc, status, err := s.describeIndex(ctx, name)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound || desc.Host == "" {
		return "", fmt.Errorf("%w: index %s has no host", domain.ErrStoreUnavailable, name)
	}
	if strings.Contains(desc.Host, "://") {
		return desc.Host, nil
	}
	return "https://" + desc.Host, nil
}

func (s *Store) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: marshal request: %v", domain.ErrStoreUnavailable, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrStoreUnavailable, method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %v", domain.ErrStoreUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
