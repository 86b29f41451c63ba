package domain

import "time"

// Event represents a ticketed event. Inventory is tracked per ticket class.
type Event struct {
	ID       string
	Name     string
	StartsAt time.Time
}
