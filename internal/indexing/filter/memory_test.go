package filter

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryFilter(t *testing.T) {
	addrs := []string{"AbC123", "DeF456"}
	f := NewMemoryFilter(SourceFunc(func(ctx context.Context) ([]string, error) {
		return addrs, nil
	}))

	// Cold filter lets everything through
	if !f.Contains("anything") {
		t.Error("Expected unbuilt filter to pass every address")
	}

	if err := f.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if !f.Contains("AbC123") {
		t.Error("Expected filter to contain AbC123")
	}
	if f.Contains("abc123") {
		t.Error("Expected filter to be case-sensitive")
	}
	if f.Contains("anything") {
		t.Error("Expected filter not to contain untracked address")
	}

	// Test Add
	f.Add("Ghi789")
	if !f.Contains("Ghi789") {
		t.Error("Expected filter to contain added address")
	}

	// Test Size
	if f.Size() != 3 {
		t.Errorf("Expected size to be 3, got %d", f.Size())
	}

	// Rebuild drops addresses no longer in the source
	addrs = []string{"AbC123"}
	if err := f.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if f.Contains("DeF456") || f.Contains("Ghi789") {
		t.Error("Expected removed addresses to be gone after rebuild")
	}
	if f.Size() != 1 {
		t.Errorf("Expected size to be 1, got %d", f.Size())
	}
}

func TestMemoryFilter_RebuildErrorKeepsPreviousSet(t *testing.T) {
	fail := false
	f := NewMemoryFilter(SourceFunc(func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []string{"AbC123"}, nil
	}))

	if err := f.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	fail = true
	if err := f.Rebuild(context.Background()); err == nil {
		t.Fatal("Expected rebuild error")
	}
	if !f.Contains("AbC123") {
		t.Error("Expected previous set to survive a failed rebuild")
	}
}
