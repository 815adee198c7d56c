package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/domain"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

type fakeStore struct {
	domain.VectorStore
	matches   []domain.Match
	err       error
	gotIndex  string
	gotVector []float32
	gotTopK   int
}

func (f *fakeStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]domain.Match, error) {
	f.gotIndex = name
	f.gotVector = vector
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func TestRetrieve_PreservesStoreOrdering(t *testing.T) {
	store := &fakeStore{matches: []domain.Match{
		{ID: "Vec3", Score: 0.9, Metadata: map[string]string{"text": "best"}},
		{ID: "Vec1", Score: 0.7, Metadata: map[string]string{"text": "second"}},
		{ID: "Vec2", Score: 0.4, Metadata: map[string]string{"text": "third"}},
	}}
	r := New(&fakeEmbedder{vec: []float32{1, 0}}, store, 10)

	snippets, err := r.Retrieve(context.Background(), "idx", "cotton")
	require.NoError(t, err)
	assert.Equal(t, []string{"best", "second", "third"}, snippets)
	assert.Equal(t, "idx", store.gotIndex)
	assert.Equal(t, []float32{1, 0}, store.gotVector)
	assert.Equal(t, 10, store.gotTopK)
}

func TestRetrieve_AtMostTopK(t *testing.T) {
	var matches []domain.Match
	for i := 0; i < 25; i++ {
		matches = append(matches, domain.Match{Metadata: map[string]string{"text": "s"}})
	}
	store := &fakeStore{matches: matches}
	r := New(&fakeEmbedder{vec: []float32{1}}, store, 0) // 0 falls back to default

	snippets, err := r.Retrieve(context.Background(), "idx", "q")
	require.NoError(t, err)
	assert.Len(t, snippets, DefaultTopK)
}

func TestRetrieve_FewerWhenIndexSmall(t *testing.T) {
	store := &fakeStore{matches: []domain.Match{
		{Metadata: map[string]string{"text": "only one"}},
	}}
	r := New(&fakeEmbedder{vec: []float32{1}}, store, 10)

	snippets, err := r.Retrieve(context.Background(), "idx", "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"only one"}, snippets)
}

func TestRetrieve_PropagatesErrors(t *testing.T) {
	embErr := errors.New("embed failed")
	r := New(&fakeEmbedder{err: embErr}, &fakeStore{}, 10)
	_, err := r.Retrieve(context.Background(), "idx", "q")
	assert.ErrorIs(t, err, embErr)

	storeErr := errors.New("store failed")
	r = New(&fakeEmbedder{vec: []float32{1}}, &fakeStore{err: storeErr}, 10)
	_, err = r.Retrieve(context.Background(), "idx", "q")
	assert.ErrorIs(t, err, storeErr)
}
