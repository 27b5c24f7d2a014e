package stats

import (
	"sort"

	"github.com/pwasut/harnkan/internal/domain"
)

// PendingFromSplitResults lists who still owes on a single bill, sorted
// by amount descending. Entries with a non-positive amount are filtered
// out here — unlike Reconcile, which keeps them. The asymmetry is
// intentional and mirrors the two display paths (single-bill view vs
// dashboard ledger); do not unify without a product decision.
func PendingFromSplitResults(b domain.Bill) []domain.PendingEntry {
	out := make([]domain.PendingEntry, 0, len(b.SplitResults))
	for _, sr := range b.SplitResults {
		p := sr.Participant
		if p.ID == "" || p.Status != domain.StatusPending {
			continue
		}
		amount := sanitizeAmount(sr.Amount)
		if amount <= 0 {
			continue
		}
		out = append(out, domain.PendingEntry{ID: p.ID, Name: p.Name, Amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// Reconcile merges every bill's pending split entries into one ledger
// entry per participant id (names may collide across people, ids do not).
// A participant appearing twice within the same bill is folded into that
// bill's existing ref, which keeps len(Bills) == PendingBills. Malformed
// entries are skipped silently: partial data must not block the dashboard.
// The result is sorted by total pending amount descending; ties keep
// first-seen order.
func Reconcile(bills []domain.Bill) []domain.PendingParticipant {
	index := make(map[string]int)
	ledger := make([]domain.PendingParticipant, 0)

	for _, b := range bills {
		for _, sr := range b.SplitResults {
			p := sr.Participant
			if p.ID == "" || p.Status != domain.StatusPending {
				continue
			}
			amount := sanitizeAmount(sr.Amount)

			i, seen := index[p.ID]
			if !seen {
				index[p.ID] = len(ledger)
				ledger = append(ledger, domain.PendingParticipant{
					ID:                 p.ID,
					Name:               p.Name,
					TotalPendingAmount: amount,
					PendingBills:       1,
					Bills:              []domain.PendingBillRef{pendingRef(b, amount)},
				})
				continue
			}

			entry := &ledger[i]
			entry.TotalPendingAmount += amount

			merged := false
			for j := range entry.Bills {
				if entry.Bills[j].ID == b.ID {
					entry.Bills[j].Amount += amount
					merged = true
					break
				}
			}
			if !merged {
				entry.PendingBills++
				entry.Bills = append(entry.Bills, pendingRef(b, amount))
			}
		}
	}

	sort.SliceStable(ledger, func(i, j int) bool {
		return ledger[i].TotalPendingAmount > ledger[j].TotalPendingAmount
	})
	return ledger
}

func pendingRef(b domain.Bill, amount float64) domain.PendingBillRef {
	title := b.Title
	if title == "" {
		title = domain.DefaultTitle
	}
	date := b.Date
	if date.IsZero() {
		date = b.CreatedAt
	}
	return domain.PendingBillRef{ID: b.ID, Title: title, Amount: amount, Date: date}
}
