package split_test

import (
	"math"
	"testing"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/split"
)

func people(ids ...string) []domain.Participant {
	out := make([]domain.Participant, len(ids))
	for i, id := range ids {
		out[i] = domain.Participant{ID: id, Name: id}
	}
	return out
}

func TestEqual_EvenDivision(t *testing.T) {
	results, err := split.Equal(90, people("p1", "p2", "p3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Amount != 30 {
			t.Errorf("share = %v, want 30", r.Amount)
		}
		if r.Participant.Status != domain.StatusPending {
			t.Errorf("fresh share should start pending, got %q", r.Participant.Status)
		}
	}
}

func TestEqual_RemainderGoesToFirstParticipant(t *testing.T) {
	results, err := split.Equal(100, people("p1", "p2", "p3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for _, r := range results {
		sum += r.Amount
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("shares sum to %v, want 100", sum)
	}
	if results[0].Amount <= results[1].Amount {
		t.Errorf("first share %v should absorb the remainder over %v", results[0].Amount, results[1].Amount)
	}
}

func TestEqual_NoParticipants(t *testing.T) {
	if _, err := split.Equal(50, nil); err == nil {
		t.Fatal("expected validation error for empty participants")
	}
}

func TestItemized_AssignsPerItem(t *testing.T) {
	items := []domain.BillItem{
		{Description: "pad thai", Amount: 120, AssignedTo: []string{"p1"}},
		{Description: "pitcher", Amount: 90, AssignedTo: []string{"p1", "p2", "p3"}},
	}

	results, err := split.Itemized(items, people("p1", "p2", "p3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(results))
	}
	if results[0].Participant.ID != "p1" || results[0].Amount != 150 {
		t.Errorf("p1 share = %+v, want 150", results[0])
	}
	if results[1].Amount != 30 || results[2].Amount != 30 {
		t.Errorf("shared item not divided evenly: %+v", results[1:])
	}
}

func TestItemized_SkipsUnassignedAndUnknown(t *testing.T) {
	items := []domain.BillItem{
		{Description: "orphan", Amount: 40},
		{Description: "ghost", Amount: 10, AssignedTo: []string{"nobody"}},
		{Description: "real", Amount: 25, AssignedTo: []string{"p2"}},
	}

	results, err := split.Itemized(items, people("p1", "p2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Participant.ID != "p2" || results[0].Amount != 25 {
		t.Errorf("expected single p2/25 share, got %+v", results)
	}
}

func TestItemized_RequiresItems(t *testing.T) {
	if _, err := split.Itemized(nil, people("p1")); err == nil {
		t.Fatal("expected validation error for empty items")
	}
}
