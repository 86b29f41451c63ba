package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tickethub/reservation/internal/clock"
	"github.com/tickethub/reservation/internal/pubsub"
)

// Sweeper reclaims expired holds in the background. It is an optimization:
// read-time filtering in the hold store keeps expired entries out of every
// availability computation whether or not a sweep has run yet.
type Sweeper struct {
	store     HoldStore
	clock     clock.Clock
	logger    logrus.FieldLogger
	publisher pubsub.Publisher
	interval  time.Duration
}

func NewSweeper(store HoldStore, clk clock.Clock, logger logrus.FieldLogger, publisher pubsub.Publisher, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		store:     store,
		clock:     clk,
		logger:    logger,
		publisher: publisher,
		interval:  interval,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval).Info("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce prunes everything currently expired and reports what it freed.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.clock.Now()
	reclaimed, err := s.store.PruneExpired(ctx, now)
	if err != nil {
		s.logger.WithError(err).Warn("sweep failed")
		return
	}
	if len(reclaimed) == 0 {
		return
	}

	byClass := make(map[string]int)
	for _, hold := range reclaimed {
		byClass[hold.TicketClassID] += hold.Quantity
		if err := s.publisher.Publish(ctx, hold.TicketClassID, holdEvent{
			Type:          eventHoldExpired,
			HoldID:        hold.ID,
			TicketClassID: hold.TicketClassID,
			Quantity:      hold.Quantity,
			Owner:         hold.Owner,
			At:            now,
		}); err != nil {
			s.logger.WithError(err).WithField("hold_id", hold.ID).Warn("failed to publish expiry event")
		}
	}
	for classID, quantity := range byClass {
		s.logger.WithFields(logrus.Fields{
			"ticket_class": classID,
			"quantity":     quantity,
		}).Info("reclaimed expired holds")
	}
}
