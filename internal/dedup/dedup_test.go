package dedup

import (
	"context"
	"testing"

	"github.com/memoproj/memo/internal/memory"
)

type fakeLookup struct {
	exactMatch    *memory.Record
	vectorResults []memory.VectorCandidate
	containerByID map[string]string
}

func (f *fakeLookup) FindExactDuplicate(ctx context.Context, content, containerTag string) (*memory.Record, bool, error) {
	if f.exactMatch != nil {
		return f.exactMatch, true, nil
	}
	return nil, false, nil
}

func (f *fakeLookup) SearchVector(ctx context.Context, queryVec []float32, k int) ([]memory.VectorCandidate, error) {
	return f.vectorResults, nil
}

func (f *fakeLookup) GetContainerTag(ctx context.Context, id string) (string, bool, error) {
	tag, ok := f.containerByID[id]
	return tag, ok, nil
}

func TestCheckDisabled(t *testing.T) {
	d := New(false, 0.9)
	lookup := &fakeLookup{exactMatch: &memory.Record{ID: "mem_1"}}
	v, err := d.Check(context.Background(), lookup, "x", []float32{1, 0}, "project:a")
	if err != nil {
		t.Fatal(err)
	}
	if v.Duplicate {
		t.Fatal("expected not-duplicate when dedup is disabled")
	}
}

func TestCheckExactDuplicate(t *testing.T) {
	d := New(true, 0.9)
	lookup := &fakeLookup{exactMatch: &memory.Record{ID: "mem_1"}}
	v, err := d.Check(context.Background(), lookup, "Auth uses JWT", []float32{1, 0}, "project:a")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Duplicate || !v.Exact || v.Similarity != 1.0 || v.ExistingID != "mem_1" {
		t.Fatalf("got %+v", v)
	}
}

func TestCheckNearDuplicateFilteredByContainer(t *testing.T) {
	d := New(true, 0.9)
	lookup := &fakeLookup{
		vectorResults: []memory.VectorCandidate{
			{ID: "mem_other", Similarity: 0.95},
			{ID: "mem_same", Similarity: 0.92},
		},
		containerByID: map[string]string{
			"mem_other": "project:b",
			"mem_same":  "project:a",
		},
	}
	v, err := d.Check(context.Background(), lookup, "new content", []float32{1, 0}, "project:a")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Duplicate || v.Exact {
		t.Fatalf("expected a near duplicate, got %+v", v)
	}
	if v.ExistingID != "mem_same" {
		t.Fatalf("expected the same-container candidate, got %q", v.ExistingID)
	}
}

func TestCheckBelowThresholdIsNotDuplicate(t *testing.T) {
	d := New(true, 0.9)
	lookup := &fakeLookup{
		vectorResults: []memory.VectorCandidate{{ID: "mem_1", Similarity: 0.5}},
		containerByID: map[string]string{"mem_1": "project:a"},
	}
	v, err := d.Check(context.Background(), lookup, "new content", []float32{1, 0}, "project:a")
	if err != nil {
		t.Fatal(err)
	}
	if v.Duplicate {
		t.Fatalf("expected not-duplicate below threshold, got %+v", v)
	}
}
