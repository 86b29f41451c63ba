package domain

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrTicketClassNotFound   = errors.New("ticket class not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidTTL            = errors.New("invalid ttl")
	ErrOwnerRequired         = errors.New("owner required")
	ErrEventNameRequired     = errors.New("event name required")
	ErrClassNameRequired     = errors.New("ticket class name required")
	ErrClassAlreadyExists    = errors.New("ticket class already exists")
	ErrHoldNotFound          = errors.New("hold not found")
	ErrHoldExpired           = errors.New("hold expired")
	ErrHoldAlreadyConfirmed  = errors.New("hold already confirmed")
	ErrNotOwner              = errors.New("not hold owner")
	ErrLockNotAcquired       = errors.New("lock not acquired")
	ErrInvalidID             = errors.New("invalid id")
)
