package embed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeModel struct {
	dims     int
	modelID  string
	calls    int32
	vecForText func(string) []float32
}

func (f *fakeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.vecForText != nil {
		return f.vecForText(text), nil
	}
	v := make([]float32, f.dims)
	v[0] = 1
	return v, nil
}
func (f *fakeModel) Dimensions() int { return f.dims }
func (f *fakeModel) ModelID() string { return f.modelID }
func (f *fakeModel) Close() error    { return nil }

type fakeStore struct {
	mu   sync.Mutex
	data map[string][]float32
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string][]float32{}} }

func (s *fakeStore) GetCachedEmbedding(ctx context.Context, hash, modelID string) ([]float32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[hash+"|"+modelID]
	return v, ok, nil
}

func (s *fakeStore) PutCachedEmbedding(ctx context.Context, hash, modelID string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash+"|"+modelID] = vec
	return nil
}

func TestEmbedUsesL1OnRepeat(t *testing.T) {
	model := &fakeModel{dims: 4, modelID: "m1"}
	e := New(model, newFakeStore())

	ctx := context.Background()
	if _, err := e.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if model.calls != 1 {
		t.Fatalf("expected 1 inference call, got %d", model.calls)
	}
}

func TestEmbedPromotesFromL2(t *testing.T) {
	model := &fakeModel{dims: 4, modelID: "m1"}
	store := newFakeStore()
	e1 := New(model, store)
	ctx := context.Background()

	if _, err := e1.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if model.calls != 1 {
		t.Fatalf("expected 1 inference call, got %d", model.calls)
	}

	// A fresh Embedder (simulating a new process) sharing the same L2
	// store should hit L2 and never call the model again.
	e2 := New(model, store)
	if _, err := e2.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if model.calls != 1 {
		t.Fatalf("expected L2 hit to avoid a second inference call, got %d calls", model.calls)
	}
}

func TestFIFOCacheEvictsOldestNotLeastRecentlyUsed(t *testing.T) {
	c := newFIFOCache(3)
	c.put("a", []float32{1})
	c.put("b", []float32{2})
	c.put("c", []float32{3})

	// Touch "a" — under LRU this would save it from eviction; under
	// the required FIFO semantics it must not.
	if _, ok := c.get("a"); !ok {
		t.Fatal("expected a hit for a")
	}

	c.put("d", []float32{4})

	if _, ok := c.get("a"); ok {
		t.Fatal("expected a to be evicted despite the recent read (FIFO, not LRU)")
	}
	if _, ok := c.get("d"); !ok {
		t.Fatal("expected d to be present")
	}
}

func TestFIFOCacheRespectsCapacity(t *testing.T) {
	c := newFIFOCache(2)
	for i := 0; i < 5; i++ {
		c.put(string(rune('a'+i)), []float32{float32(i)})
	}
	if c.len() != 2 {
		t.Fatalf("len = %d, want 2", c.len())
	}
}
