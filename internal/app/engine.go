package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tickethub/reservation/internal/clock"
	"github.com/tickethub/reservation/internal/domain"
	"github.com/tickethub/reservation/internal/pubsub"
)

// HoldStore keeps in-flight holds with millisecond expiry. Get returns the
// physical record even when logically expired (nil when evicted);
// ListActiveByClass must filter at read time so an entry past its expiry is
// never counted as active, swept or not.
type HoldStore interface {
	Get(ctx context.Context, holdID string) (*domain.Hold, error)
	Put(ctx context.Context, hold domain.Hold, retention time.Duration) error
	Delete(ctx context.Context, hold domain.Hold) error
	ListActiveByClass(ctx context.Context, ticketClassID string, now time.Time) ([]domain.Hold, error)
	PruneExpired(ctx context.Context, now time.Time) ([]domain.Hold, error)
}

// Ledger is the durable inventory authority. CommitSale must be atomic and
// conditional: the sold_count increment and the sale record land together
// or not at all, and a commit that would exceed total_capacity fails with
// domain.ErrCapacityExceeded. Sales are unique per hold id; committing the
// same hold twice returns the existing sale with created=false.
type Ledger interface {
	GetCapacity(ctx context.Context, ticketClassID string) (total, sold int, err error)
	CommitSale(ctx context.Context, sale domain.Sale) (sale_ domain.Sale, created bool, err error)
}

// ClassLocker serializes operations per ticket class. Distinct classes must
// never contend. Acquire blocks until the lock is held or ctx is done.
type ClassLocker interface {
	Acquire(ctx context.Context, ticketClassID string) (release func(), err error)
}

// Engine orchestrates holds against the ledger and the hold store. The
// availability check and the hold insert run under the per-class lock, so
// no interleaving request can observe stale availability and overcommit.
type Engine struct {
	store     HoldStore
	ledger    Ledger
	locks     ClassLocker
	clock     clock.Clock
	logger    logrus.FieldLogger
	publisher pubsub.Publisher

	holdTTL            time.Duration
	holdTTLMin         time.Duration
	holdTTLMax         time.Duration
	lockTimeout        time.Duration
	confirmedRetention time.Duration
}

const (
	defaultHoldTTL            = 15 * time.Minute
	defaultHoldTTLMin         = time.Second
	defaultHoldTTLMax         = time.Hour
	defaultLockTimeout        = 5 * time.Second
	defaultConfirmedRetention = time.Hour
)

type EngineOption func(*Engine)

// WithHoldTTL overrides the default TTL applied when a request passes zero.
func WithHoldTTL(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.holdTTL = d
		}
	}
}

// WithHoldTTLBounds clamps requested TTLs to [min, max].
func WithHoldTTLBounds(min, max time.Duration) EngineOption {
	return func(e *Engine) {
		if min > 0 {
			e.holdTTLMin = min
		}
		if max > 0 {
			e.holdTTLMax = max
		}
	}
}

// WithLockTimeout bounds how long an operation waits on the class lock.
func WithLockTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.lockTimeout = d
		}
	}
}

// WithConfirmedRetention sets how long confirmed holds stay visible as
// tombstones before eviction.
func WithConfirmedRetention(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.confirmedRetention = d
		}
	}
}

func NewEngine(store HoldStore, ledger Ledger, locks ClassLocker, clk clock.Clock, logger logrus.FieldLogger, publisher pubsub.Publisher, opts ...EngineOption) *Engine {
	e := &Engine{
		store:              store,
		ledger:             ledger,
		locks:              locks,
		clock:              clk,
		logger:             logger,
		publisher:          publisher,
		holdTTL:            defaultHoldTTL,
		holdTTLMin:         defaultHoldTTLMin,
		holdTTLMax:         defaultHoldTTLMax,
		lockTimeout:        defaultLockTimeout,
		confirmedRetention: defaultConfirmedRetention,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type RequestHoldInput struct {
	TicketClassID string
	Quantity      int
	Owner         string
	TTL           time.Duration
}

// RequestHold admits a hold when the class still has capacity for it.
// Admission is first-committed-wins: losers of a race on the last units
// fail immediately with ErrInsufficientInventory.
func (e *Engine) RequestHold(ctx context.Context, in RequestHoldInput) (domain.Hold, error) {
	if in.TicketClassID == "" {
		return domain.Hold{}, domain.ErrInvalidID
	}
	if in.Quantity <= 0 {
		return domain.Hold{}, domain.ErrInvalidQuantity
	}
	if in.Owner == "" {
		return domain.Hold{}, domain.ErrOwnerRequired
	}
	ttl, err := e.clampTTL(in.TTL)
	if err != nil {
		return domain.Hold{}, err
	}

	release, err := e.acquire(ctx, in.TicketClassID)
	if err != nil {
		return domain.Hold{}, err
	}
	defer release()

	now := e.clock.Now()

	available, err := e.availability(ctx, in.TicketClassID, now)
	if err != nil {
		return domain.Hold{}, err
	}
	if in.Quantity > available {
		return domain.Hold{}, domain.ErrInsufficientInventory
	}

	hold := domain.Hold{
		ID:            newUUID(),
		TicketClassID: in.TicketClassID,
		Quantity:      in.Quantity,
		Owner:         in.Owner,
		Status:        domain.HoldStatusActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := e.store.Put(ctx, hold, ttl); err != nil {
		return domain.Hold{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"hold_id":      hold.ID,
		"ticket_class": hold.TicketClassID,
		"quantity":     hold.Quantity,
		"expires_at":   hold.ExpiresAt,
	}).Info("hold created")

	return hold, nil
}

// ConfirmHold converts an active hold into a durable sale. The ledger
// commit and the hold transition are effectively atomic: a failed commit
// leaves the hold active for retry, and a crash between commit and
// transition is healed on retry through the sale's unique hold id.
func (e *Engine) ConfirmHold(ctx context.Context, holdID string) (domain.Sale, error) {
	if holdID == "" {
		return domain.Sale{}, domain.ErrInvalidID
	}

	hold, err := e.store.Get(ctx, holdID)
	if err != nil {
		return domain.Sale{}, err
	}
	if hold == nil {
		return domain.Sale{}, domain.ErrHoldNotFound
	}

	release, err := e.acquire(ctx, hold.TicketClassID)
	if err != nil {
		return domain.Sale{}, err
	}
	defer release()

	// Re-read under the lock: a concurrent cancel or confirm may have won.
	hold, err = e.store.Get(ctx, holdID)
	if err != nil {
		return domain.Sale{}, err
	}
	if hold == nil {
		return domain.Sale{}, domain.ErrHoldNotFound
	}
	if hold.Status == domain.HoldStatusConfirmed {
		return domain.Sale{}, domain.ErrHoldAlreadyConfirmed
	}
	if hold.Status != domain.HoldStatusActive {
		return domain.Sale{}, domain.ErrHoldNotFound
	}

	now := e.clock.Now()
	if !hold.ExpiresAt.After(now) {
		// Eagerly reclaim instead of waiting for the sweeper.
		if err := e.store.Delete(ctx, *hold); err != nil {
			e.logger.WithError(err).WithField("hold_id", holdID).Warn("failed to reclaim expired hold")
		}
		return domain.Sale{}, domain.ErrHoldExpired
	}

	sale, created, err := e.ledger.CommitSale(ctx, domain.Sale{
		ID:            newUUID(),
		TicketClassID: hold.TicketClassID,
		HoldID:        hold.ID,
		Quantity:      hold.Quantity,
		Owner:         hold.Owner,
		CommittedAt:   now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			// The ledger's guard should be unreachable behind the class
			// lock; tripping it means the pre-check saw stale state.
			e.logger.WithFields(logrus.Fields{
				"hold_id":      hold.ID,
				"ticket_class": hold.TicketClassID,
				"quantity":     hold.Quantity,
			}).Warn("ledger rejected commit over capacity")
			return domain.Sale{}, domain.ErrInsufficientInventory
		}
		return domain.Sale{}, err
	}
	if !created {
		e.logger.WithFields(logrus.Fields{
			"hold_id": hold.ID,
			"sale_id": sale.ID,
		}).Info("confirm retry matched existing sale")
	}

	hold.Status = domain.HoldStatusConfirmed
	hold.SaleID = sale.ID
	if err := e.store.Put(ctx, *hold, e.confirmedRetention); err != nil {
		// The sale is durable; the stale hold only deflates availability
		// until it ages out. Divergence resolves in the ledger's favor.
		e.logger.WithError(err).WithFields(logrus.Fields{
			"hold_id": hold.ID,
			"sale_id": sale.ID,
		}).Warn("hold store update failed after ledger commit")
	}

	e.publish(ctx, eventSaleCommitted, *hold, sale.ID)

	e.logger.WithFields(logrus.Fields{
		"hold_id":      hold.ID,
		"sale_id":      sale.ID,
		"ticket_class": hold.TicketClassID,
		"quantity":     hold.Quantity,
	}).Info("hold confirmed")

	return sale, nil
}

// CancelHold releases an active hold. Only the owner may cancel. Exactly
// one of a concurrent cancel/confirm pair wins; the loser sees
// ErrHoldNotFound or ErrHoldAlreadyConfirmed.
func (e *Engine) CancelHold(ctx context.Context, holdID, owner string) error {
	if holdID == "" {
		return domain.ErrInvalidID
	}

	hold, err := e.store.Get(ctx, holdID)
	if err != nil {
		return err
	}
	if hold == nil {
		return domain.ErrHoldNotFound
	}

	release, err := e.acquire(ctx, hold.TicketClassID)
	if err != nil {
		return err
	}
	defer release()

	hold, err = e.store.Get(ctx, holdID)
	if err != nil {
		return err
	}
	if hold == nil {
		return domain.ErrHoldNotFound
	}
	if hold.Status == domain.HoldStatusConfirmed {
		return domain.ErrHoldAlreadyConfirmed
	}
	if hold.Owner != owner {
		return domain.ErrNotOwner
	}
	if !hold.Active(e.clock.Now()) {
		// Expired in the meantime; reclaim and report as gone.
		if err := e.store.Delete(ctx, *hold); err != nil {
			return err
		}
		return domain.ErrHoldNotFound
	}

	if err := e.store.Delete(ctx, *hold); err != nil {
		return err
	}

	e.publish(ctx, eventHoldCancelled, *hold, "")

	e.logger.WithFields(logrus.Fields{
		"hold_id":      hold.ID,
		"ticket_class": hold.TicketClassID,
		"quantity":     hold.Quantity,
	}).Info("hold cancelled")

	return nil
}

// ExtendHold pushes an active hold's expiry out to now+ttl.
func (e *Engine) ExtendHold(ctx context.Context, holdID string, ttl time.Duration) (domain.Hold, error) {
	if holdID == "" {
		return domain.Hold{}, domain.ErrInvalidID
	}
	clamped, err := e.clampTTL(ttl)
	if err != nil {
		return domain.Hold{}, err
	}

	hold, err := e.store.Get(ctx, holdID)
	if err != nil {
		return domain.Hold{}, err
	}
	if hold == nil {
		return domain.Hold{}, domain.ErrHoldNotFound
	}

	release, err := e.acquire(ctx, hold.TicketClassID)
	if err != nil {
		return domain.Hold{}, err
	}
	defer release()

	hold, err = e.store.Get(ctx, holdID)
	if err != nil {
		return domain.Hold{}, err
	}
	if hold == nil {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	if hold.Status == domain.HoldStatusConfirmed {
		return domain.Hold{}, domain.ErrHoldAlreadyConfirmed
	}
	if hold.Status != domain.HoldStatusActive {
		return domain.Hold{}, domain.ErrHoldNotFound
	}

	now := e.clock.Now()
	if !hold.ExpiresAt.After(now) {
		if err := e.store.Delete(ctx, *hold); err != nil {
			e.logger.WithError(err).WithField("hold_id", holdID).Warn("failed to reclaim expired hold")
		}
		return domain.Hold{}, domain.ErrHoldExpired
	}

	hold.ExpiresAt = now.Add(clamped)
	if err := e.store.Put(ctx, *hold, clamped); err != nil {
		return domain.Hold{}, err
	}
	return *hold, nil
}

// GetAvailability reports how many units of the class can still be held or
// sold. Advisory: the number may be stale by the time the caller acts on it.
func (e *Engine) GetAvailability(ctx context.Context, ticketClassID string) (int, error) {
	if ticketClassID == "" {
		return 0, domain.ErrInvalidID
	}
	available, err := e.availability(ctx, ticketClassID, e.clock.Now())
	if err != nil {
		return 0, err
	}
	if available < 0 {
		// A hold confirmed but not yet swept from the store double-counts
		// briefly; never report negative availability.
		available = 0
	}
	return available, nil
}

func (e *Engine) availability(ctx context.Context, ticketClassID string, now time.Time) (int, error) {
	total, sold, err := e.ledger.GetCapacity(ctx, ticketClassID)
	if err != nil {
		return 0, err
	}
	active, err := e.store.ListActiveByClass(ctx, ticketClassID, now)
	if err != nil {
		return 0, err
	}
	held := 0
	for _, h := range active {
		held += h.Quantity
	}
	return total - sold - held, nil
}

func (e *Engine) acquire(ctx context.Context, ticketClassID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	release, err := e.locks.Acquire(lockCtx, ticketClassID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, domain.ErrLockNotAcquired
		}
		return nil, err
	}
	return release, nil
}

func (e *Engine) clampTTL(ttl time.Duration) (time.Duration, error) {
	if ttl < 0 {
		return 0, domain.ErrInvalidTTL
	}
	if ttl == 0 {
		return e.holdTTL, nil
	}
	if ttl < e.holdTTLMin {
		return e.holdTTLMin, nil
	}
	if ttl > e.holdTTLMax {
		return e.holdTTLMax, nil
	}
	return ttl, nil
}

func (e *Engine) publish(ctx context.Context, eventType string, hold domain.Hold, saleID string) {
	event := holdEvent{
		Type:          eventType,
		HoldID:        hold.ID,
		TicketClassID: hold.TicketClassID,
		Quantity:      hold.Quantity,
		Owner:         hold.Owner,
		SaleID:        saleID,
		At:            e.clock.Now(),
	}
	if err := e.publisher.Publish(ctx, hold.TicketClassID, event); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"hold_id": hold.ID,
		}).Warn("failed to publish event")
	}
}

const (
	eventSaleCommitted = "sale.committed"
	eventHoldCancelled = "hold.cancelled"
	eventHoldExpired   = "hold.expired"
)

type holdEvent struct {
	Type          string    `json:"type"`
	HoldID        string    `json:"hold_id"`
	TicketClassID string    `json:"ticket_class_id"`
	Quantity      int       `json:"quantity"`
	Owner         string    `json:"owner"`
	SaleID        string    `json:"sale_id,omitempty"`
	At            time.Time `json:"at"`
}
