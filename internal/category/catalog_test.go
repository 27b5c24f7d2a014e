package category_test

import (
	"testing"

	"github.com/pwasut/harnkan/internal/category"
)

func TestLookup_KnownID(t *testing.T) {
	c := category.Lookup("food")
	if c.ID != "food" || c.Name == "" || c.Color == "" {
		t.Errorf("unexpected catalog entry: %+v", c)
	}
}

func TestLookup_UnknownIDFallsBack(t *testing.T) {
	c := category.Lookup("definitely-not-a-category")
	if c.ID != "other" {
		t.Errorf("expected fallback to other, got %+v", c)
	}
}

func TestAll_StableOrderAndContainsOther(t *testing.T) {
	first := category.All()
	second := category.All()

	if len(first) == 0 {
		t.Fatal("catalog is empty")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("catalog order not stable at index %d", i)
		}
	}

	found := false
	for _, c := range first {
		if c.ID == "other" {
			found = true
		}
	}
	if !found {
		t.Error("catalog must carry the guaranteed other entry")
	}
}
