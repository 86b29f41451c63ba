package domain

import "time"

// Sale is the durable, immutable record of a committed purchase. Sales are
// created only by confirming a hold; HoldID is unique so a retried
// confirmation lands on the existing sale instead of double-committing.
type Sale struct {
	ID            string
	TicketClassID string
	HoldID        string
	Quantity      int
	Owner         string
	CommittedAt   time.Time
}
