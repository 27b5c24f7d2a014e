// Package split computes per-participant shares for a bill, either as an
// equal division of the total or from itemized lines assigned to subsets
// of participants. Shares are rounded to satang (2 decimals) with the
// rounding remainder pushed onto the first participant so the shares
// always sum back to the total.
package split

import (
	"math"

	"github.com/pwasut/harnkan/internal/domain"
)

func roundSatang(v float64) float64 {
	return math.Round(v*100) / 100
}

// Equal divides total evenly among the participants. Every share starts
// out pending regardless of the participant's prior status on other bills.
func Equal(total float64, participants []domain.Participant) ([]domain.SplitResult, error) {
	if len(participants) == 0 {
		return nil, &domain.ErrValidation{Field: "participants", Message: "at least one participant required"}
	}
	if total < 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, &domain.ErrValidation{Field: "total_amount", Message: "must be a non-negative number"}
	}

	share := roundSatang(total / float64(len(participants)))
	results := make([]domain.SplitResult, len(participants))
	for i, p := range participants {
		amount := share
		if i == 0 {
			// First participant absorbs the rounding remainder.
			amount = roundSatang(total - share*float64(len(participants)-1))
		}
		results[i] = domain.SplitResult{
			Amount:      amount,
			Participant: domain.Participant{ID: p.ID, Name: p.Name, Status: domain.StatusPending},
		}
	}
	return results, nil
}

// Itemized assigns each item's amount to its assignees in equal parts and
// returns one split result per participant with a positive share. Items
// with no assignees are skipped; assignee ids that do not match a
// participant are ignored.
func Itemized(items []domain.BillItem, participants []domain.Participant) ([]domain.SplitResult, error) {
	if len(participants) == 0 {
		return nil, &domain.ErrValidation{Field: "participants", Message: "at least one participant required"}
	}
	if len(items) == 0 {
		return nil, &domain.ErrValidation{Field: "items", Message: "itemized split requires items"}
	}

	known := make(map[string]domain.Participant, len(participants))
	for _, p := range participants {
		known[p.ID] = p
	}

	totals := make(map[string]float64)
	order := make([]string, 0, len(participants))
	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}
		if item.Amount < 0 || math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) {
			return nil, &domain.ErrValidation{Field: "items", Message: "item amounts must be non-negative numbers"}
		}

		assignees := make([]string, 0, len(item.AssignedTo))
		for _, id := range item.AssignedTo {
			if _, ok := known[id]; ok {
				assignees = append(assignees, id)
			}
		}
		if len(assignees) == 0 {
			continue
		}

		perHead := item.Amount / float64(len(assignees))
		for _, id := range assignees {
			if _, seen := totals[id]; !seen {
				order = append(order, id)
			}
			totals[id] += perHead
		}
	}

	results := make([]domain.SplitResult, 0, len(order))
	for _, id := range order {
		p := known[id]
		results = append(results, domain.SplitResult{
			Amount:      roundSatang(totals[id]),
			Participant: domain.Participant{ID: p.ID, Name: p.Name, Status: domain.StatusPending},
		})
	}
	return results, nil
}
