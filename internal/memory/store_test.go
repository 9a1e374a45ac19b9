package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/memoproj/memo/internal/db"
)

const testDim = 4

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "memo.db"), testDim, "")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return New(d)
}

func unitVec(vals ...float32) []float32 {
	return Normalize(vals)
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &Record{
		Content:      "hello world",
		Vector:       unitVec(1, 0, 0, 0),
		ContainerTag: "project:abc",
		CreatedAt:    1000,
		UpdatedAt:    1000,
	}
	if err := s.InsertNew(ctx, rec); err != nil {
		t.Fatalf("InsertNew: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected an assigned id")
	}

	got, ok, err := s.Get(ctx, rec.ID)
	if err != nil || !ok {
		t.Fatalf("Get: err=%v ok=%v", err, ok)
	}
	if got.Content != rec.Content {
		t.Errorf("content = %q, want %q", got.Content, rec.Content)
	}
}

func TestDeleteRemovesFromAllTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &Record{Content: "x", Vector: unitVec(1, 0, 0, 0), ContainerTag: "project:abc", CreatedAt: 1000, UpdatedAt: 1000}
	if err := s.InsertNew(ctx, rec); err != nil {
		t.Fatal(err)
	}

	existed, err := s.Delete(ctx, rec.ID)
	if err != nil || !existed {
		t.Fatalf("Delete: err=%v existed=%v", err, existed)
	}

	if _, ok, _ := s.Get(ctx, rec.ID); ok {
		t.Fatal("record still present in memories after delete")
	}

	cands, err := s.SearchVector(ctx, unitVec(1, 0, 0, 0), 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cands {
		if c.ID == rec.ID {
			t.Fatal("record still present in vec_memories after delete")
		}
	}

	existedAgain, err := s.Delete(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if existedAgain {
		t.Fatal("second delete should report the record did not exist")
	}
}

func TestReplaceBySourceFullSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	container := "project:abc"
	source := "/repo/notes.md"

	first := []*Record{
		{Content: "a", Vector: unitVec(1, 0, 0, 0), ContainerTag: container, SourceKey: source, CreatedAt: 1, UpdatedAt: 1},
		{Content: "b", Vector: unitVec(0, 1, 0, 0), ContainerTag: container, SourceKey: source, CreatedAt: 1, UpdatedAt: 1},
	}
	for _, r := range first {
		if err := s.InsertNew(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.CountBySource(ctx, container, source)
	if err != nil || n != 2 {
		t.Fatalf("CountBySource after first insert = %d, err=%v", n, err)
	}

	second := []*Record{
		{Content: "c", Vector: unitVec(0, 0, 1, 0), ContainerTag: container, SourceKey: source, CreatedAt: 2, UpdatedAt: 2},
	}
	for _, r := range second {
		id, err := NewID(r.CreatedAt)
		if err != nil {
			t.Fatal(err)
		}
		r.ID = id
	}

	deleted, inserted, err := s.ReplaceBySource(ctx, container, source, second)
	if err != nil {
		t.Fatalf("ReplaceBySource: %v", err)
	}
	if deleted != 2 || inserted != 1 {
		t.Fatalf("deleted=%d inserted=%d, want 2,1", deleted, inserted)
	}

	n, err = s.CountBySource(ctx, container, source)
	if err != nil || n != 1 {
		t.Fatalf("CountBySource after replace = %d, err=%v", n, err)
	}

	for _, r := range first {
		if _, ok, _ := s.Get(ctx, r.ID); ok {
			t.Fatalf("old record %s survived replace", r.ID)
		}
	}
}

func TestFindExactDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	container := "project:abc"

	rec := &Record{Content: "Auth uses JWT with 24h expiry", Vector: unitVec(1, 0, 0, 0), ContainerTag: container, CreatedAt: 1, UpdatedAt: 1}
	if err := s.InsertNew(ctx, rec); err != nil {
		t.Fatal(err)
	}

	dup, ok, err := s.FindExactDuplicate(ctx, rec.Content, container)
	if err != nil || !ok {
		t.Fatalf("FindExactDuplicate: err=%v ok=%v", err, ok)
	}
	if dup.ID != rec.ID {
		t.Fatalf("got id %q, want %q", dup.ID, rec.ID)
	}

	if _, ok, err := s.FindExactDuplicate(ctx, rec.Content, "project:other"); err != nil || ok {
		t.Fatalf("expected no match in a different container, got ok=%v err=%v", ok, err)
	}
}

func TestReindexFullTextIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &Record{Content: "some text", Vector: unitVec(1, 0, 0, 0), ContainerTag: "project:abc", CreatedAt: 1, UpdatedAt: 1}
	if err := s.InsertNew(ctx, rec); err != nil {
		t.Fatal(err)
	}

	added, removed, err := s.ReindexFullText(ctx)
	if err != nil {
		t.Fatalf("first reindex: %v", err)
	}
	if added != 0 || removed != 0 {
		t.Fatalf("first reindex on a healthy store = {%d,%d}, want {0,0}", added, removed)
	}

	added, removed, err = s.ReindexFullText(ctx)
	if err != nil {
		t.Fatalf("second reindex: %v", err)
	}
	if added != 0 || removed != 0 {
		t.Fatalf("second reindex = {%d,%d}, want {0,0}", added, removed)
	}
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vec := unitVec(0.1, 0.2, 0.3, 0.4)
	if err := s.PutCachedEmbedding(ctx, "hash1", "model-a", vec); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetCachedEmbedding(ctx, "hash1", "model-a")
	if err != nil || !ok {
		t.Fatalf("GetCachedEmbedding: err=%v ok=%v", err, ok)
	}
	if len(got) != len(vec) {
		t.Fatalf("got %d dims, want %d", len(got), len(vec))
	}

	if _, ok, _ := s.GetCachedEmbedding(ctx, "hash1", "model-b"); ok {
		t.Fatal("cache entry should be model-scoped")
	}
}
