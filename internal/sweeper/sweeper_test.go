package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shortlink/internal/config"
	"shortlink/internal/entity"
	"shortlink/internal/repository"
	"shortlink/internal/service"
	"shortlink/internal/shortcode"
)

type MockDelivery struct {
	mock.Mock
}

func (m *MockDelivery) Deliver() {
	m.Called()
}

type sweeperFixture struct {
	clock  *entity.MockClock
	links  *service.LinkService
	owners *service.OwnerService
	notifs *service.NotificationService
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
	t.Helper()

	cfg := &config.Config{
		DefaultTTLUnits:   1,
		TTLUnit:           config.UnitHours,
		MaxTTLUnits:       72,
		DefaultUsageLimit: 2,
		MaxUsageLimit:     50,
		CodeAlphabet:      "abcdefghijklmnopqrstuvwxyz",
		CodeLength:        6,
		MaxLinksPerOwner:  100,
		BaseURL:           "https://yush.ru/",
		StoragePath:       "data.json",
		SweepInterval:     config.Duration(time.Second),
	}

	clock := entity.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	linkRepo := repository.NewLinkRepository()
	gen := shortcode.NewGenerator(cfg.CodeAlphabet, cfg.CodeLength, linkRepo)

	return &sweeperFixture{
		clock:  clock,
		links:  service.NewLinkService(linkRepo, gen, cfg, clock),
		owners: service.NewOwnerService(repository.NewOwnerRepository(), cfg),
		notifs: service.NewNotificationService(repository.NewNotificationRepository()),
	}
}

func (f *sweeperFixture) sweeper(delivery Delivery) *Sweeper {
	return New(f.links, f.owners, f.notifs, delivery, time.Second, f.clock, zerolog.Nop())
}

// publish creates a link under a fresh owner with an acquired link slot, the
// same way the command layer does it.
func (f *sweeperFixture) publish(t *testing.T, originalURL string) (*entity.ShortLink, *entity.Owner) {
	t.Helper()

	owner := f.owners.Issue()
	draft, err := f.links.NewDraft(originalURL, owner.Token())
	require.NoError(t, err)
	require.NoError(t, f.owners.AcquireSlot(owner))
	link, err := f.links.Publish(draft)
	require.NoError(t, err)
	return link, owner
}

func TestSweeper_Sweep_EvictsExpiredLinks(t *testing.T) {
	f := newSweeperFixture(t)
	sw := f.sweeper(nil)
	link, owner := f.publish(t, "https://example.com")

	// Not yet expired: nothing happens.
	sw.Sweep()
	require.Empty(t, f.notifs.All())

	f.clock.Advance(time.Hour)
	sw.Sweep()

	_, err := f.links.Redirect(link.ShortID())
	require.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, 0, owner.ActiveLinks())

	unread := f.notifs.UnreadFor(owner.Token())
	require.Len(t, unread, 1)
	assert.Equal(t, entity.NotificationExpired, unread[0].Kind())
	assert.Equal(t, link.ShortID(), unread[0].Link().ShortID)

	// The evicted link is gone, so another cycle emits nothing new.
	sw.Sweep()
	assert.Len(t, f.notifs.UnreadFor(owner.Token()), 1)
}

func TestSweeper_Sweep_LimitReachedEmittedOnce(t *testing.T) {
	f := newSweeperFixture(t)
	sw := f.sweeper(nil)
	link, owner := f.publish(t, "https://example.com")

	for i := 0; i < 2; i++ {
		_, err := f.links.Redirect(link.ShortID())
		require.NoError(t, err)
	}
	require.True(t, link.IsExhausted())

	sw.Sweep()
	sw.Sweep()

	all := f.notifs.UnreadFor(owner.Token())
	require.Len(t, all, 1)
	assert.Equal(t, entity.NotificationLimitReached, all[0].Kind())

	// An exhausted link stays resolvable as an entry, only redirects fail.
	_, err := f.links.Redirect(link.ShortID())
	assert.ErrorIs(t, err, entity.ErrExhausted)
}

func TestSweeper_Sweep_PurgesDeliveredTheCycleAfter(t *testing.T) {
	f := newSweeperFixture(t)
	_, owner := f.publish(t, "https://example.com")

	// Deliver the way the command loop does: pull unread and mark them.
	delivered := deliveryFunc(func() {
		f.notifs.MarkDelivered(f.notifs.UnreadFor(owner.Token()))
	})
	sw := f.sweeper(delivered)

	f.clock.Advance(time.Hour)
	sw.Sweep()

	// Purging runs before delivery within a cycle, so the notification
	// delivered this cycle is still stored.
	require.Len(t, f.notifs.All(), 1)
	assert.True(t, f.notifs.All()[0].Delivered())

	sw.Sweep()
	assert.Empty(t, f.notifs.All())
}

type deliveryFunc func()

func (fn deliveryFunc) Deliver() { fn() }

func TestSweeper_Sweep_SkipsLinksRemovedMidCycle(t *testing.T) {
	f := newSweeperFixture(t)
	sw := f.sweeper(nil)
	link, owner := f.publish(t, "https://example.com/a")

	// A second link under the same owner, so the slot count is observable.
	draft, err := f.links.NewDraft("https://example.com/b", owner.Token())
	require.NoError(t, err)
	require.NoError(t, f.owners.AcquireSlot(owner))
	_, err = f.links.Publish(draft)
	require.NoError(t, err)
	require.Equal(t, 2, owner.ActiveLinks())

	f.clock.Advance(time.Hour)

	// The owner deletes the first link the way the console does, after the
	// cycle snapshotted the link population but before it got to this link.
	removed, err := f.links.Delete(link.ShortID(), owner.Token())
	require.NoError(t, err)
	require.True(t, removed)
	f.owners.ReleaseSlot(owner.Token())

	var evicted, notified int
	sw.sweepLink(link, f.clock.Now(), &evicted, &notified)

	// The stale entry must not release the slot again or notify about a
	// link the owner removed on purpose.
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 1, owner.ActiveLinks())
	assert.Empty(t, f.notifs.UnreadFor(owner.Token()))
}

func TestSweeper_Sweep_RacingRedirects(t *testing.T) {
	const workers = 8
	const rounds = 5

	f := newSweeperFixture(t)
	sw := f.sweeper(nil)

	// Limits high enough that these links cannot exhaust during the race.
	var codes []string
	for i := 0; i < 4; i++ {
		link, owner := f.publish(t, "https://example.com")
		_, err := f.links.SetUsageLimit(link.ShortID(), owner.Token(), 50)
		require.NoError(t, err)
		codes = append(codes, link.ShortID())
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	var unexpected []error
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for r := 0; r < rounds; r++ {
				for _, code := range codes {
					_, err := f.links.Redirect(code)
					if err != nil && !errors.Is(err, entity.ErrExpired) && !errors.Is(err, entity.ErrNotFound) {
						mu.Lock()
						unexpected = append(unexpected, err)
						mu.Unlock()
					}
				}
			}
		}()
	}

	close(start)
	f.clock.Advance(time.Hour)
	sw.Sweep()
	wg.Wait()

	// A redirect racing the eviction either completed just before removal,
	// saw the link expired, or missed it entirely. Nothing else.
	require.Empty(t, unexpected)

	sw.Sweep()
	for _, code := range codes {
		_, err := f.links.Redirect(code)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	}
}

func TestSweeper_Sweep_CallsDelivery(t *testing.T) {
	f := newSweeperFixture(t)
	delivery := new(MockDelivery)
	delivery.On("Deliver").Return()
	sw := f.sweeper(delivery)

	sw.Sweep()
	sw.Sweep()

	delivery.AssertNumberOfCalls(t, "Deliver", 2)
}

func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	f := newSweeperFixture(t)
	sw := New(f.links, f.owners, f.notifs, nil, 10*time.Millisecond, f.clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sw.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
