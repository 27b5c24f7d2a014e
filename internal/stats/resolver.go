// Package stats holds the pure aggregation core: bill status derivation,
// cross-bill pending reconciliation, and the statistics rollup. Every
// function here is a deterministic fold over an already-materialized bill
// slice; there is no I/O and no clock access beyond the injected "now".
package stats

import (
	"math"

	"github.com/pwasut/harnkan/internal/domain"
)

// ResolveStatus derives a bill's settlement status from its participants:
// paid iff every participant has paid. A bill with zero participants is
// vacuously all-paid and resolves to paid. Participants with a missing or
// unknown status count as not paid.
func ResolveStatus(b domain.Bill) string {
	for _, p := range b.Participants {
		if p.Status != domain.StatusPaid {
			return domain.StatusPending
		}
	}
	return domain.StatusPaid
}

// Resolve returns a copy of the bill with the stored status replaced by
// the derived one. The input is never mutated; callers may keep using
// their original reference.
func Resolve(b domain.Bill) domain.Bill {
	b.Status = ResolveStatus(b)
	return b
}

// ResolveAll resolves every bill into a fresh slice.
func ResolveAll(bills []domain.Bill) []domain.Bill {
	out := make([]domain.Bill, len(bills))
	for i, b := range bills {
		out[i] = Resolve(b)
	}
	return out
}

// sanitizeAmount clamps NaN, infinite, and negative values to 0 so one
// dirty record cannot abort or poison an aggregation pass.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Percentage returns a/b as a rounded percentage, and 0 when b is 0.
func Percentage(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Round(a / b * 100)
}
