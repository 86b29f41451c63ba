package domain

// TicketClass is a sellable inventory bucket within an event.
//
// TotalCapacity is fixed at publish time except for explicit admin
// adjustments. SoldCount only ever grows, and only through committed sales.
// The capacity invariant is:
//
//	SoldCount + sum(quantity of active, unexpired holds) <= TotalCapacity
type TicketClass struct {
	ID            string
	EventID       string
	Name          string
	TotalCapacity int
	SoldCount     int
}
