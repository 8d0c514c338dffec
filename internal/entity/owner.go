package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Owner is the holder of an opaque token under which links are created and
// managed. The token is not authenticated, only possessed. The active-link
// counter is mutated by both the interactive actor (create, delete) and the
// sweeper (expiry eviction), so it lives behind the owner's mutex.
type Owner struct {
	mu          sync.Mutex
	token       uuid.UUID
	activeLinks int
}

// NewOwner creates an owner with no active links.
func NewOwner(token uuid.UUID) *Owner {
	return &Owner{token: token}
}

func (o *Owner) Token() uuid.UUID {
	return o.token
}

func (o *Owner) ActiveLinks() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeLinks
}

// AcquireLinkSlot increments the active-link counter unless that would exceed
// the given cap. Check and increment share one lock so the cap cannot be
// overshot by concurrent creations.
func (o *Owner) AcquireLinkSlot(cap int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.activeLinks >= cap {
		return fmt.Errorf("%w: active link cap of %d reached", ErrInvalidParameter, cap)
	}
	o.activeLinks++
	return nil
}

// ReleaseLinkSlot decrements the active-link counter, flooring at zero.
func (o *Owner) ReleaseLinkSlot() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.activeLinks > 0 {
		o.activeLinks--
	}
}

// OwnerSnapshot is an immutable value copy of an Owner, used for persistence.
type OwnerSnapshot struct {
	Token       uuid.UUID `json:"token"`
	ActiveLinks int       `json:"active_links"`
}

func (o *Owner) Snapshot() OwnerSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OwnerSnapshot{Token: o.token, ActiveLinks: o.activeLinks}
}

// OwnerFromSnapshot rebuilds an owner from a persisted snapshot.
func OwnerFromSnapshot(s OwnerSnapshot) *Owner {
	return &Owner{token: s.Token, activeLinks: s.ActiveLinks}
}
