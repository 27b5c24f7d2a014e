package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
)

// monthWindow is the fixed trailing window of the monthly series.
const monthWindow = 6

// topCategories is how many categories the charting rollup keeps.
const topCategories = 6

// CategoryLookup resolves a category id to display metadata. The boolean
// reports whether the id belongs to the catalog; unknown ids are folded
// into the default category before aggregation.
type CategoryLookup func(id string) (name, color string, ok bool)

// monthKey buckets a timestamp by calendar year-month, one-based month
// with no zero padding.
func monthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

type catAccum struct {
	id    string
	total float64
	count int
}

// Aggregate folds the bill set into a statistics rollup for the 6-month
// trailing window ending at now. Bills dated outside the window still
// count toward totals and categories, only the monthly series excludes
// them. Each call is independent: same bills + same now means an
// identical rollup. Ties for most-expensive bill and most-frequent
// category go to the first bill/category encountered, so category
// accumulation runs over an insertion-ordered slice rather than a bare
// map.
func Aggregate(bills []domain.Bill, now time.Time, lookup CategoryLookup) *domain.StatisticsRollup {
	resolved := ResolveAll(bills)

	// Zero-filled buckets covering [now-5 months .. now].
	year, month, _ := now.Date()
	buckets := make([]domain.MonthBucket, 0, monthWindow)
	bucketIdx := make(map[string]int, monthWindow)
	for i := monthWindow - 1; i >= 0; i-- {
		t := time.Date(year, month-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		key := monthKey(t)
		bucketIdx[key] = len(buckets)
		buckets = append(buckets, domain.MonthBucket{Key: key})
	}

	rollup := &domain.StatisticsRollup{
		BillCount:     len(resolved),
		MonthlyTotals: buckets,
	}

	catIdx := make(map[string]int)
	cats := make([]catAccum, 0)
	maxIdx := -1
	var maxAmount float64

	for i, b := range resolved {
		amount := sanitizeAmount(b.TotalAmount)
		rollup.TotalAmount += amount

		if maxIdx == -1 || amount > maxAmount {
			maxIdx, maxAmount = i, amount
		}

		switch b.Status {
		case domain.StatusSettled, domain.StatusPaid:
			rollup.SettledBills++
		case domain.StatusPending, domain.StatusPartial:
			rollup.PendingBills++
		}

		cat := b.Category
		if cat == "" {
			cat = domain.DefaultCategory
		}
		if lookup != nil {
			if _, _, ok := lookup(cat); !ok {
				cat = domain.DefaultCategory
			}
		}
		if j, ok := catIdx[cat]; ok {
			cats[j].total += amount
			cats[j].count++
		} else {
			catIdx[cat] = len(cats)
			cats = append(cats, catAccum{id: cat, total: amount, count: 1})
		}

		if j, ok := bucketIdx[monthKey(b.EffectiveDate(now))]; ok {
			rollup.MonthlyTotals[j].Total += amount
		}
	}

	if rollup.BillCount > 0 {
		rollup.AverageAmount = math.Round(rollup.TotalAmount / float64(rollup.BillCount))
	}
	rollup.SettledPct = Percentage(float64(rollup.SettledBills), float64(rollup.BillCount))

	// Most frequent category: first strict maximum in encounter order.
	maxCount := 0
	for _, c := range cats {
		if c.count > maxCount {
			maxCount = c.count
			rollup.MostFrequentCategory = c.id
		}
	}

	if maxIdx >= 0 {
		b := resolved[maxIdx]
		title := b.Title
		if title == "" {
			title = domain.DefaultTitle
		}
		rollup.MostExpensiveBill = &domain.BillHighlight{
			ID:     b.ID,
			Title:  title,
			Amount: maxAmount,
			Date:   b.EffectiveDate(now),
		}
	}

	// Chart rollup keeps the top categories by amount, stable for ties.
	sorted := make([]catAccum, len(cats))
	copy(sorted, cats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].total > sorted[j].total })
	if len(sorted) > topCategories {
		sorted = sorted[:topCategories]
	}
	rollup.Categories = make([]domain.CategoryStat, 0, len(sorted))
	for _, c := range sorted {
		stat := domain.CategoryStat{Category: c.id, Name: c.id, Total: c.total, Count: c.count}
		if lookup != nil {
			if name, color, ok := lookup(c.id); ok {
				stat.Name = name
				stat.Color = color
			}
		}
		rollup.Categories = append(rollup.Categories, stat)
	}

	rollup.PendingParticipants = Reconcile(resolved)
	for _, p := range rollup.PendingParticipants {
		rollup.TotalPendingAmount += p.TotalPendingAmount
	}

	return rollup
}
