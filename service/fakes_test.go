package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/types"
)

// fakeIndex is an in-memory VectorIndex for tests.
type fakeIndex struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string]map[int64]types.VectorPoint
	upsertErr   error
}

var _ database.VectorIndex = (*fakeIndex)(nil)

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		collections: make(map[string]int),
		points:      make(map[string]map[int64]types.VectorPoint),
	}
}

func (f *fakeIndex) ListCollections(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeIndex) CreateCollection(ctx context.Context, name string, dimension int, distance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[name] = dimension
	f.points[name] = make(map[int64]types.VectorPoint)
	return nil
}

func (f *fakeIndex) CollectionDimension(ctx context.Context, name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dim, ok := f.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection not found: %s", name)
	}
	return dim, nil
}

func (f *fakeIndex) UpsertPoint(ctx context.Context, collection string, point types.VectorPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	pts, ok := f.points[collection]
	if !ok {
		return fmt.Errorf("collection not found: %s", collection)
	}
	pts[point.ID] = point
	return nil
}

func (f *fakeIndex) GetPoint(ctx context.Context, collection string, id int64) (*types.VectorPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	point, ok := f.points[collection][id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &point, nil
}

func (f *fakeIndex) DeletePoints(ctx context.Context, collection string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.points[collection], id)
	}
	return nil
}

func (f *fakeIndex) pointCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points[collection])
}

// fakeEmbedder returns a constant-dimension vector, or a configured error.
type fakeEmbedder struct {
	err   error
	calls int
}

var _ Embedder = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(ctx context.Context, text string, model types.EmbeddingModel) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, model.Dimension), nil
}

var errEmbedderDown = errors.New("embedding provider unavailable")
