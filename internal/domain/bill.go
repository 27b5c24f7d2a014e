package domain

import "time"

// Bill statuses. The stored status is a hint; the derived status computed
// from participants overrides it everywhere it matters.
const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusSettled = "settled"
	StatusPaid    = "paid"
)

// DefaultCategory is used whenever a bill carries no recognizable category.
const DefaultCategory = "other"

// DefaultTitle is the display label for bills saved without one.
const DefaultTitle = "Untitled bill"

// Participant is a person owing or having paid a share of a bill.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"` // pending | paid
}

// SplitResult is one line item: how much a specific participant owes for
// this specific bill. The same participant may appear more than once.
type SplitResult struct {
	Amount      float64     `json:"amount"`
	Participant Participant `json:"participant"`
}

// Bill is one expense event split among participants.
type Bill struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Title        string        `json:"title"`
	Date         time.Time     `json:"date"`
	CreatedAt    time.Time     `json:"created_at"`
	TotalAmount  float64       `json:"total_amount"`
	Category     string        `json:"category"`
	Status       string        `json:"status"`
	Participants []Participant `json:"participants"`
	SplitResults []SplitResult `json:"split_results"`
}

// EffectiveDate returns the timestamp used for month bucketing: the bill
// date when set, the creation time as fallback, and now for records that
// carry neither.
func (b *Bill) EffectiveDate(now time.Time) time.Time {
	if !b.Date.IsZero() {
		return b.Date
	}
	if !b.CreatedAt.IsZero() {
		return b.CreatedAt
	}
	return now
}

// Split modes accepted on bill creation.
const (
	SplitEqual    = "equal"
	SplitItemized = "itemized"
)

// BillItem is one itemized line assigned to a subset of participants.
type BillItem struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	AssignedTo  []string `json:"assigned_to"` // participant ids
}

// CreateBillRequest is the payload for POST /v1/users/{userId}/bills.
type CreateBillRequest struct {
	Title        string        `json:"title"`
	Date         string        `json:"date,omitempty"` // YYYY-MM-DD
	TotalAmount  float64       `json:"total_amount"`
	Category     string        `json:"category,omitempty"`
	SplitMode    string        `json:"split_mode"` // equal | itemized
	Participants []Participant `json:"participants"`
	Items        []BillItem    `json:"items,omitempty"` // itemized only
}

// UpdateBillRequest carries partial updates for PATCH. Nil fields are
// left untouched.
type UpdateBillRequest struct {
	Title       *string  `json:"title,omitempty"`
	Date        *string  `json:"date,omitempty"`
	TotalAmount *float64 `json:"total_amount,omitempty"`
	Category    *string  `json:"category,omitempty"`
}
