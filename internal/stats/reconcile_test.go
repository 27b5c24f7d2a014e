package stats_test

import (
	"math"
	"testing"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/stats"
)

func pendingSplit(id, name string, amount float64) domain.SplitResult {
	return domain.SplitResult{
		Amount:      amount,
		Participant: domain.Participant{ID: id, Name: name, Status: domain.StatusPending},
	}
}

func TestPendingFromSplitResults_SingleBill(t *testing.T) {
	b := domain.Bill{
		ID: "bill-1",
		SplitResults: []domain.SplitResult{
			pendingSplit("p2", "b", 18.81),
			pendingSplit("p1", "a", 70.33),
			{Amount: 12, Participant: domain.Participant{ID: "p3", Name: "c", Status: domain.StatusPaid}},
		},
	}

	got := stats.PendingFromSplitResults(b)
	if len(got) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(got))
	}
	if got[0].ID != "p1" || got[0].Amount != 70.33 {
		t.Errorf("expected p1/70.33 first, got %s/%v", got[0].ID, got[0].Amount)
	}
	if got[1].ID != "p2" || got[1].Amount != 18.81 {
		t.Errorf("expected p2/18.81 second, got %s/%v", got[1].ID, got[1].Amount)
	}
}

func TestPendingFromSplitResults_FiltersNonPositive(t *testing.T) {
	b := domain.Bill{ID: "bill-1", SplitResults: []domain.SplitResult{
		pendingSplit("p1", "a", 0),
		pendingSplit("p2", "b", -5),
		pendingSplit("p3", "c", 1),
	}}

	got := stats.PendingFromSplitResults(b)
	if len(got) != 1 || got[0].ID != "p3" {
		t.Fatalf("expected only p3, got %+v", got)
	}
}

func TestReconcile_MergesAcrossBills(t *testing.T) {
	bills := []domain.Bill{
		{ID: "bill-1", Title: "Dinner", SplitResults: []domain.SplitResult{pendingSplit("p1", "a", 70.33)}},
		{ID: "bill-2", Title: "Trip", SplitResults: []domain.SplitResult{pendingSplit("p1", "a", 150.00)}},
	}

	got := stats.Reconcile(bills)
	if len(got) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(got))
	}
	p := got[0]
	if p.TotalPendingAmount != 220.33 {
		t.Errorf("total = %v, want 220.33", p.TotalPendingAmount)
	}
	if p.PendingBills != 2 || len(p.Bills) != 2 {
		t.Errorf("pendingBills=%d bills=%d, want 2/2", p.PendingBills, len(p.Bills))
	}
}

func TestReconcile_DedupesWithinOneBill(t *testing.T) {
	bills := []domain.Bill{
		{ID: "bill-1", Title: "Karaoke", SplitResults: []domain.SplitResult{
			pendingSplit("p1", "a", 10),
			pendingSplit("p1", "a", 5),
		}},
	}

	got := stats.Reconcile(bills)
	if len(got) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(got))
	}
	p := got[0]
	if p.PendingBills != 1 || len(p.Bills) != 1 {
		t.Fatalf("pendingBills=%d bills=%d, want 1/1", p.PendingBills, len(p.Bills))
	}
	if p.Bills[0].Amount != 15 {
		t.Errorf("per-bill amount = %v, want 15", p.Bills[0].Amount)
	}
	if p.TotalPendingAmount != 15 {
		t.Errorf("total = %v, want 15", p.TotalPendingAmount)
	}
}

func TestReconcile_SortsByTotalDescending(t *testing.T) {
	bills := []domain.Bill{
		{ID: "bill-1", SplitResults: []domain.SplitResult{
			pendingSplit("p1", "a", 70.33),
			pendingSplit("p2", "b", 18.81),
		}},
	}

	got := stats.Reconcile(bills)
	if len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(got))
	}
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("order = [%s %s], want [p1 p2]", got[0].ID, got[1].ID)
	}
	sum := got[0].TotalPendingAmount + got[1].TotalPendingAmount
	if math.Abs(sum-89.14) > 1e-9 {
		t.Errorf("ledger sum = %v, want 89.14", sum)
	}
}

func TestReconcile_KeepsZeroAmountEntries(t *testing.T) {
	// The cross-bill ledger deliberately does NOT filter non-positive
	// amounts at the entry level, unlike the single-bill path.
	bills := []domain.Bill{
		{ID: "bill-1", SplitResults: []domain.SplitResult{pendingSplit("p1", "a", 0)}},
	}

	got := stats.Reconcile(bills)
	if len(got) != 1 {
		t.Fatalf("expected zero-amount entry in ledger, got %d entries", len(got))
	}
	if got[0].TotalPendingAmount != 0 || got[0].PendingBills != 1 {
		t.Errorf("got total=%v pendingBills=%d, want 0/1", got[0].TotalPendingAmount, got[0].PendingBills)
	}
}

func TestReconcile_SkipsMalformedEntries(t *testing.T) {
	bills := []domain.Bill{
		{ID: "bill-1"}, // no split results at all
		{ID: "bill-2", SplitResults: []domain.SplitResult{
			{Amount: 10}, // no participant
			{Amount: math.NaN(), Participant: domain.Participant{ID: "p1", Name: "a", Status: domain.StatusPending}},
			pendingSplit("p2", "b", 20),
		}},
	}

	got := stats.Reconcile(bills)
	if len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(got))
	}
	// NaN coerces to 0, entry still joins the ledger.
	for _, p := range got {
		if math.IsNaN(p.TotalPendingAmount) || p.TotalPendingAmount < 0 {
			t.Errorf("participant %s has invalid total %v", p.ID, p.TotalPendingAmount)
		}
	}
}

func TestReconcile_SumInvariant(t *testing.T) {
	now := time.Now()
	bills := []domain.Bill{
		{ID: "bill-1", Date: now, SplitResults: []domain.SplitResult{
			pendingSplit("p1", "a", 33.5),
			pendingSplit("p2", "b", 10),
		}},
		{ID: "bill-2", Date: now, SplitResults: []domain.SplitResult{
			pendingSplit("p1", "a", 6.5),
			pendingSplit("p1", "a", 4),
		}},
	}

	for _, p := range stats.Reconcile(bills) {
		var sum float64
		for _, ref := range p.Bills {
			sum += ref.Amount
		}
		if math.Abs(sum-p.TotalPendingAmount) > 1e-9 {
			t.Errorf("participant %s: sum(bills)=%v != total=%v", p.ID, sum, p.TotalPendingAmount)
		}
		if len(p.Bills) != p.PendingBills {
			t.Errorf("participant %s: len(bills)=%d != pendingBills=%d", p.ID, len(p.Bills), p.PendingBills)
		}
	}
}
