package search

import (
	"context"
	"testing"

	"github.com/memoproj/memo/internal/memerr"
	"github.com/memoproj/memo/internal/memory"
)

type fakeStore struct {
	vectorResults  []memory.VectorCandidate
	fullTextIDs    []string
	fullTextErr    error
	records        map[string]*memory.Record
}

func (f *fakeStore) SearchVector(ctx context.Context, queryVec []float32, k int) ([]memory.VectorCandidate, error) {
	return f.vectorResults, nil
}

func (f *fakeStore) SearchFullText(ctx context.Context, query, containerTag string, limit int) ([]string, error) {
	if f.fullTextErr != nil {
		return nil, f.fullTextErr
	}
	return f.fullTextIDs, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*memory.Record, bool, error) {
	r, ok := f.records[id]
	return r, ok, nil
}

func rec(id, content, container string) *memory.Record {
	return &memory.Record{ID: id, Content: content, ContainerTag: container, CreatedAt: 1}
}

func TestSearchBothListsScoresOne(t *testing.T) {
	store := &fakeStore{
		vectorResults: []memory.VectorCandidate{{ID: "mem_1", Similarity: 0.9}},
		fullTextIDs:   []string{"mem_1"},
		records:       map[string]*memory.Record{"mem_1": rec("mem_1", "Auth uses JWT", "project:a")},
	}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, QueryText: "Auth uses JWT", Limit: 10, Threshold: 0.5,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Similarity != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", results[0].Similarity)
	}
}

func TestSearchVectorOnlyUsesRawCosine(t *testing.T) {
	store := &fakeStore{
		vectorResults: []memory.VectorCandidate{{ID: "mem_a", Similarity: 0.82}},
		records:       map[string]*memory.Record{"mem_a": rec("mem_a", "weather in barcelona is 19 today", "project:a")},
	}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, Limit: 10, Threshold: 0.5,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Similarity != 0.82 {
		t.Fatalf("got %+v, want raw cosine 0.82", results)
	}
}

func TestSearchFullTextOnlyRankZeroScoresOne(t *testing.T) {
	store := &fakeStore{
		fullTextIDs: []string{"mem_1"},
		records:     map[string]*memory.Record{"mem_1": rec("mem_1", "login endpoint requires JWT header", "project:a")},
	}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryText: "JWT header", Limit: 10, Threshold: 0.0,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Similarity != 1.0 {
		t.Fatalf("rank-0 BM25-only hit should score 1.0, got %+v", results)
	}
}

func TestSearchFullTextErrorFallsBackToVectorOnly(t *testing.T) {
	store := &fakeStore{
		vectorResults: []memory.VectorCandidate{{ID: "mem_1", Similarity: 0.7}},
		fullTextErr:   memerr.New(memerr.FullTextQueryError, "bad query syntax"),
		records:       map[string]*memory.Record{"mem_1": rec("mem_1", "Login endpoint requires JWT header", "project:a")},
	}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, QueryText: `"unterminated`, Limit: 10, Threshold: 0.5,
	}, 0.6)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].ID != "mem_1" {
		t.Fatalf("expected a vector-only fallback result, got %+v", results)
	}
}

func TestSearchEmptyStoreReturnsNoResults(t *testing.T) {
	store := &fakeStore{records: map[string]*memory.Record{}}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, QueryText: "anything", Limit: 10, Threshold: 0.5,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchRejectsBothSkipped(t *testing.T) {
	s := New(&fakeStore{})
	_, err := s.Search(context.Background(), Request{SkipVector: true, SkipFullText: true, Limit: 10}, 0.6)
	if !memerr.Is(err, memerr.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestSearchContainerFilterDropsOtherContainers(t *testing.T) {
	store := &fakeStore{
		vectorResults: []memory.VectorCandidate{{ID: "mem_1", Similarity: 0.9}},
		records:       map[string]*memory.Record{"mem_1": rec("mem_1", "x", "project:other")},
	}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, Container: "project:mine", Limit: 10, Threshold: 0.0,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected record from a different container to be dropped, got %+v", results)
	}
}

func TestSearchTruncatesToLimit(t *testing.T) {
	vc := []memory.VectorCandidate{}
	records := map[string]*memory.Record{}
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		vc = append(vc, memory.VectorCandidate{ID: id, Similarity: 0.9 - float64(i)*0.01})
		records[id] = rec(id, "content "+id, "project:a")
	}
	store := &fakeStore{vectorResults: vc, records: records}
	s := New(store)
	results, err := s.Search(context.Background(), Request{
		QueryVector: []float32{1, 0}, Limit: 2, Threshold: 0.0,
	}, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}
