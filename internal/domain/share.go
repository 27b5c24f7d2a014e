package domain

import "time"

// ShareLink is a temporary, optionally PIN-protected pointer to a bill.
// The token itself is a signed JWT; the stored row exists for revocation
// and view counting.
type ShareLink struct {
	ID        string    `json:"id"`
	BillID    string    `json:"bill_id"`
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"token_id"` // jti claim
	PINHash   string    `json:"-"`
	ViewCount int       `json:"view_count"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Protected reports whether the link requires a PIN.
func (l *ShareLink) Protected() bool { return l.PINHash != "" }

// ShareLinkRequest is the payload for minting a link.
type ShareLinkRequest struct {
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
	PIN        string `json:"pin,omitempty"` // 4-8 digits when set
}

// ShareLinkResponse is returned after minting.
type ShareLinkResponse struct {
	LinkID    string `json:"link_id"`
	Token     string `json:"token"`
	Protected bool   `json:"protected"`
	ExpiresAt string `json:"expires_at"`
}

// SharedBillView is what an unauthenticated viewer receives when
// resolving a share token.
type SharedBillView struct {
	Bill      *Bill          `json:"bill"`
	Pending   []PendingEntry `json:"pending"`
	ExpiresAt string         `json:"expires_at"`
}
