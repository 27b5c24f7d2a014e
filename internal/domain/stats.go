package domain

import "time"

// ============================================================
// Pending ledger
// ============================================================

// PendingBillRef is one distinct bill contributing to a participant's
// pending total. Amount is the sum of that participant's pending split
// entries within this single bill.
type PendingBillRef struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

// PendingParticipant is the cross-bill ledger entry for one participant
// identity. Derived on every aggregation pass, never persisted.
type PendingParticipant struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	TotalPendingAmount float64          `json:"total_pending_amount"`
	PendingBills       int              `json:"pending_bills"`
	Bills              []PendingBillRef `json:"bills"`
}

// PendingEntry is the single-bill variant used when displaying who still
// owes on one bill.
type PendingEntry struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ============================================================
// Statistics rollup
// ============================================================

// MonthBucket is one month of the trailing 6-month series.
type MonthBucket struct {
	Key   string  `json:"key"` // "{year}-{month}" with a 1-based month
	Total float64 `json:"total"`
}

// CategoryStat is the per-category rollup used for charting.
type CategoryStat struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// BillHighlight points at the most expensive bill in the set.
type BillHighlight struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

// StatisticsRollup is the aggregate view over a user's bill set for a
// fixed 6-month trailing window anchored at "now".
type StatisticsRollup struct {
	TotalAmount          float64              `json:"total_amount"`
	BillCount            int                  `json:"bill_count"`
	AverageAmount        float64              `json:"average_amount"`
	SettledBills         int                  `json:"settled_bills"`
	PendingBills         int                  `json:"pending_bills"`
	SettledPct           float64              `json:"settled_pct"`
	MonthlyTotals        []MonthBucket        `json:"monthly_totals"`
	Categories           []CategoryStat       `json:"categories"` // top 6 by total
	MostFrequentCategory string               `json:"most_frequent_category"`
	MostExpensiveBill    *BillHighlight       `json:"most_expensive_bill,omitempty"`
	PendingParticipants  []PendingParticipant `json:"pending_participants"`
	TotalPendingAmount   float64              `json:"total_pending_amount"`
}

// ============================================================
// Service metrics summary
// ============================================================

// MetricsSummary is returned by GET /v1/metrics/summary.
type MetricsSummary struct {
	RequestsTotal    int64   `json:"requests_total"`
	ErrorRate        float64 `json:"error_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	BillsCreated     int64   `json:"bills_created"`
	ShareLinksMinted int64   `json:"share_links_minted"`
	QRCodesIssued    int64   `json:"qr_codes_issued"`
	Period           string  `json:"period"`
}
