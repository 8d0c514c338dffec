// Package sweeper runs the periodic background task that reconciles link
// state against wall-clock time and usage counters: it evicts expired links,
// raises limit-reached notifications once per link, purges notifications that
// were already shown, and hands unread notifications to the active session.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"shortlink/internal/entity"
	"shortlink/internal/service"
)

// Delivery is the single integration point between the core and the
// presentation layer. Implementations pull and mark-delivered the unread
// notifications for whatever session they consider active; a no-op is valid
// when no session is active.
type Delivery interface {
	Deliver()
}

// NopDelivery is a Delivery that does nothing.
type NopDelivery struct{}

func (NopDelivery) Deliver() {}

// Sweeper scans the full link population on a fixed delay. Cycles never
// overlap: the next delay starts only after the previous cycle has run to
// completion.
type Sweeper struct {
	links    *service.LinkService
	owners   *service.OwnerService
	notifs   *service.NotificationService
	delivery Delivery
	interval time.Duration
	clock    entity.Clock
	logger   zerolog.Logger
}

func New(
	links *service.LinkService,
	owners *service.OwnerService,
	notifs *service.NotificationService,
	delivery Delivery,
	interval time.Duration,
	clock entity.Clock,
	logger zerolog.Logger,
) *Sweeper {
	if delivery == nil {
		delivery = NopDelivery{}
	}
	return &Sweeper{
		links:    links,
		owners:   owners,
		notifs:   notifs,
		delivery: delivery,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Run executes sweep cycles on the fixed delay until the context is
// cancelled. An in-flight cycle always finishes before Run returns.
func (s *Sweeper) Run(ctx context.Context) error {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			s.Sweep()
			timer.Reset(s.interval)
		}
	}
}

// Sweep runs one full cycle over the link population.
func (s *Sweeper) Sweep() {
	now := s.clock.Now()
	var evicted, notified int

	for _, link := range s.links.AllLinks() {
		s.sweepLink(link, now, &evicted, &notified)
	}

	purged := s.notifs.PurgeDelivered()

	s.delivery.Deliver()

	if evicted > 0 || notified > 0 || purged > 0 {
		s.logger.Debug().
			Int("evicted", evicted).
			Int("limit_notified", notified).
			Int("purged", purged).
			Msg("sweep cycle finished")
	}
}

// sweepLink processes a single link. A failure on one link must not abort the
// rest of the cycle, so panics are contained here and logged.
func (s *Sweeper) sweepLink(link *entity.ShortLink, now time.Time, evicted, notified *int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("short_id", link.ShortID()).
				Any("panic", r).
				Msg("sweep failed for link, continuing cycle")
		}
	}()

	if link.IsExpired(now) {
		// The cycle iterates a point-in-time snapshot; the owner may have
		// deleted this link (and released its slot) since. Only the eviction
		// that actually removes the link emits and releases.
		if s.links.Evict(link.ShortID()) {
			s.notifs.EmitExpired(link)
			s.owners.ReleaseSlot(link.Owner())
			*evicted++
		}
		return
	}

	if link.IsExhausted() {
		if _, emitted := s.notifs.EmitLimitReached(link); emitted {
			*notified++
		}
	}
}
