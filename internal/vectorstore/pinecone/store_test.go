package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/domain"
)

// fakePinecone serves both the control plane and the data plane from one
// httptest server. Indexes become ready after readyAfterPolls describe calls.
type fakePinecone struct {
	mu              sync.Mutex
	srv             *httptest.Server
	readyAfterPolls int
	visibleAfter    int // stats calls before upserted vectors are reported

	indexes     map[string]*fakeIndex
	createCalls int
	statsCalls  int
}

type fakeIndex struct {
	describes int
	vectors   map[string][]fakeVector // namespace -> vectors
}

type fakeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

func newFakePinecone(t *testing.T) *fakePinecone {
	t.Helper()
	f := &fakePinecone{indexes: map[string]*fakeIndex{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePinecone) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/indexes":
		var req struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.createCalls++
		if _, ok := f.indexes[req.Name]; ok {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.indexes[req.Name] = &fakeIndex{vectors: map[string][]fakeVector{}}
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/indexes/"):
		name := strings.TrimPrefix(r.URL.Path, "/indexes/")
		idx, ok := f.indexes[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		idx.describes++
		ready := idx.describes > f.readyAfterPolls
		state := "Ready"
		if !ready {
			state = "Initializing"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name":   name,
			"host":   f.srv.URL,
			"status": map[string]any{"ready": ready, "state": state},
		})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/indexes/"):
		name := strings.TrimPrefix(r.URL.Path, "/indexes/")
		if _, ok := f.indexes[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.indexes, name)
		w.WriteHeader(http.StatusAccepted)

	case r.Method == http.MethodPost && r.URL.Path == "/vectors/upsert":
		var req struct {
			Vectors   []fakeVector `json:"vectors"`
			Namespace string       `json:"namespace"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		idx := f.indexes[req.Namespace]
		if idx == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		idx.vectors[req.Namespace] = append(idx.vectors[req.Namespace], req.Vectors...)
		json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(req.Vectors)})

	case r.Method == http.MethodPost && r.URL.Path == "/describe_index_stats":
		f.statsCalls++
		namespaces := map[string]any{}
		if f.statsCalls > f.visibleAfter {
			for _, idx := range f.indexes {
				for ns, vecs := range idx.vectors {
					namespaces[ns] = map[string]any{"vectorCount": len(vecs)}
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"namespaces": namespaces})

	case r.Method == http.MethodPost && r.URL.Path == "/query":
		var req struct {
			Namespace string `json:"namespace"`
			TopK      int    `json:"topK"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		var matches []map[string]any
		for _, idx := range f.indexes {
			for i, v := range idx.vectors[req.Namespace] {
				if len(matches) >= req.TopK {
					break
				}
				matches = append(matches, map[string]any{
					"id":       v.ID,
					"score":    1.0 - float64(i)*0.1,
					"metadata": v.Metadata,
				})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"matches": matches})

	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusTeapot)
	}
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	t.Setenv("PINECONE_API_KEY", "test-key")
	s, err := NewStore(Config{
		BaseURL:       baseURL,
		APIKeyEnv:     "PINECONE_API_KEY",
		PollInterval:  time.Millisecond,
		ReadyTimeout:  time.Second,
		SettleTimeout: time.Second,
	})
	require.NoError(t, err)
	return s
}

func TestHasIndex(t *testing.T) {
	f := newFakePinecone(t)
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	ok, err := s.HasIndex(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.EnsureIndex(ctx, "present"))
	ok, err = s.HasIndex(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureIndex_WaitsUntilReady(t *testing.T) {
	f := newFakePinecone(t)
	f.readyAfterPolls = 3
	s := newTestStore(t, f.srv.URL)

	require.NoError(t, s.EnsureIndex(context.Background(), "docidx"))
	assert.Equal(t, 1, f.createCalls)
}

func TestEnsureIndex_Idempotent(t *testing.T) {
	f := newFakePinecone(t)
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	assert.Equal(t, 1, f.createCalls, "second EnsureIndex must not create again")
}

func TestEnsureIndex_ReadyTimeout(t *testing.T) {
	f := newFakePinecone(t)
	f.readyAfterPolls = 1 << 30 // never ready
	t.Setenv("PINECONE_API_KEY", "test-key")
	s, err := NewStore(Config{
		BaseURL:      f.srv.URL,
		APIKeyEnv:    "PINECONE_API_KEY",
		PollInterval: time.Millisecond,
		ReadyTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	err = s.EnsureIndex(context.Background(), "docidx")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreTimeout)
}

func TestUpsert_WaitsForVisibility(t *testing.T) {
	f := newFakePinecone(t)
	f.visibleAfter = 2
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	records := []domain.Record{
		{ID: "Vec1", Values: []float32{1, 0}, Metadata: map[string]string{"text": "first chunk"}},
		{ID: "Vec2", Values: []float32{0, 1}, Metadata: map[string]string{"text": "second chunk"}},
	}
	require.NoError(t, s.Upsert(ctx, "docidx", records))
	assert.GreaterOrEqual(t, f.statsCalls, 3, "upsert must poll stats until the write is visible")
}

func TestUpsert_SettleTimeout(t *testing.T) {
	f := newFakePinecone(t)
	f.visibleAfter = 1 << 30 // never visible
	t.Setenv("PINECONE_API_KEY", "test-key")
	s, err := NewStore(Config{
		BaseURL:       f.srv.URL,
		APIKeyEnv:     "PINECONE_API_KEY",
		PollInterval:  time.Millisecond,
		ReadyTimeout:  time.Second,
		SettleTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	err = s.Upsert(ctx, "docidx", []domain.Record{{ID: "Vec1", Values: []float32{1}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreTimeout)
}

func TestQuery_ReturnsOrderedMatchesWithMetadata(t *testing.T) {
	f := newFakePinecone(t)
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	records := []domain.Record{
		{ID: "Vec1", Values: []float32{1, 0}, Metadata: map[string]string{"text": "cotton production rose"}},
		{ID: "Vec2", Values: []float32{0, 1}, Metadata: map[string]string{"text": "wheat consumption fell"}},
	}
	require.NoError(t, s.Upsert(ctx, "docidx", records))

	matches, err := s.Query(ctx, "docidx", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2, "never more matches than the index holds")
	assert.Equal(t, "cotton production rose", matches[0].Metadata["text"])
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestQuery_RespectsTopK(t *testing.T) {
	f := newFakePinecone(t)
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	var records []domain.Record
	for i := 0; i < 15; i++ {
		records = append(records, domain.Record{
			ID:       "Vec" + string(rune('a'+i)),
			Values:   []float32{float32(i)},
			Metadata: map[string]string{"text": "snippet"},
		})
	}
	require.NoError(t, s.Upsert(ctx, "docidx", records))

	matches, err := s.Query(ctx, "docidx", []float32{1}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 10)
}

func TestDeleteIndex(t *testing.T) {
	f := newFakePinecone(t)
	s := newTestStore(t, f.srv.URL)
	ctx := context.Background()

	// Empty and absent names are no-ops.
	require.NoError(t, s.DeleteIndex(ctx, ""))
	require.NoError(t, s.DeleteIndex(ctx, "never-existed"))

	require.NoError(t, s.EnsureIndex(ctx, "docidx"))
	require.NoError(t, s.DeleteIndex(ctx, "docidx"))
	ok, err := s.HasIndex(ctx, "docidx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := newTestStore(t, srv.URL)

	_, err := s.HasIndex(context.Background(), "any")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
