package idgen

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func TestULIDGenerator_SortsInCreationOrder(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	ids := make([]string, 50)
	for i := range ids {
		id, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !ValidULID(id) {
			t.Fatalf("generated id %q is not a valid ULID", id)
		}
		ids[i] = id
	}

	if !sort.StringsAreSorted(ids) {
		t.Fatalf("ids generated within one millisecond are not sorted: %v", ids)
	}
}

func TestValidULID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"", false},
		{"not-a-ulid", false},
		{"01ARZ3NDEKTSV4RRFFQ69G5FA", false},
	}
	for _, tt := range tests {
		if got := ValidULID(tt.id); got != tt.want {
			t.Errorf("ValidULID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNanoIDGenerator(t *testing.T) {
	if _, err := NewNanoIDGenerator(0, DefaultNanoIDAlphabet); err == nil {
		t.Fatal("expected error for size 0")
	}
	if _, err := NewNanoIDGenerator(10, "a"); err == nil {
		t.Fatal("expected error for one-character alphabet")
	}

	g, err := NewNanoIDGenerator(DefaultNanoIDSize, DefaultNanoIDAlphabet)
	if err != nil {
		t.Fatalf("NewNanoIDGenerator: %v", err)
	}
	id, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(id) != DefaultNanoIDSize {
		t.Fatalf("len(id) = %d, want %d", len(id), DefaultNanoIDSize)
	}
	for _, r := range id {
		if !strings.ContainsRune(DefaultNanoIDAlphabet, r) {
			t.Fatalf("id %q contains %q outside the alphabet", id, r)
		}
	}
}
