package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusCancelled HoldStatus = "cancelled"
)

// Hold reserves inventory for a limited time. Holds live in the hold store
// only; once confirmed, the durable record is the Sale in the ledger and the
// hold remains as a short-lived tombstone.
type Hold struct {
	ID            string     `json:"id"`
	TicketClassID string     `json:"ticket_class_id"`
	Quantity      int        `json:"quantity"`
	Owner         string     `json:"owner"`
	Status        HoldStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	// SaleID is set when the hold has been confirmed.
	SaleID string `json:"sale_id,omitempty"`
}

// Active reports whether the hold still counts against capacity at the
// given instant. Entries past ExpiresAt are never active, whether or not a
// sweep has physically removed them yet.
func (h Hold) Active(now time.Time) bool {
	return h.Status == HoldStatusActive && h.ExpiresAt.After(now)
}
