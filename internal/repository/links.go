// Package repository provides the in-memory stores shared by the interactive
// command loop and the background sweeper. The stores own no business rules,
// only storage and iteration, and every operation is safe under concurrent
// read, insert and remove.
package repository

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"shortlink/internal/entity"
)

// ErrCodeExists is returned when attempting to insert a link whose short code
// is already taken.
var ErrCodeExists = errors.New("short code exists")

// LinkRepository stores links keyed by short code.
type LinkRepository struct {
	mu    sync.RWMutex
	links map[string]*entity.ShortLink
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{links: make(map[string]*entity.ShortLink)}
}

// SaveIfAbsent inserts the link only if its short code is not taken. This is
// the single atomic step of the "generate then insert" sequence: two callers
// generating the same code concurrently cannot both succeed.
func (r *LinkRepository) SaveIfAbsent(link *entity.ShortLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.ShortID()]; exists {
		return ErrCodeExists
	}
	r.links[link.ShortID()] = link
	return nil
}

// Get returns the live link for the given short code.
func (r *LinkRepository) Get(shortID string) (*entity.ShortLink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[shortID]
	return link, ok
}

// Exists reports whether a live link holds the given short code.
func (r *LinkRepository) Exists(shortID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.links[shortID]
	return ok
}

// Delete removes the link for the given short code and reports whether a link
// was actually removed.
func (r *LinkRepository) Delete(shortID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[shortID]; !ok {
		return false
	}
	delete(r.links, shortID)
	return true
}

// All returns every live link. The slice is a point-in-time copy; the sweeper
// iterates it while the interactive actor keeps mutating the store.
func (r *LinkRepository) All() []*entity.ShortLink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.ShortLink, 0, len(r.links))
	for _, link := range r.links {
		out = append(out, link)
	}
	return out
}

// ByOwner returns every live link created under the given owner token.
func (r *LinkRepository) ByOwner(owner uuid.UUID) []*entity.ShortLink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.ShortLink
	for _, link := range r.links {
		if link.Owner() == owner {
			out = append(out, link)
		}
	}
	return out
}

func (r *LinkRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.links)
}

// Snapshot returns value copies of all links for persistence.
func (r *LinkRepository) Snapshot() []entity.LinkSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.LinkSnapshot, 0, len(r.links))
	for _, link := range r.links {
		out = append(out, link.Snapshot())
	}
	return out
}

// Restore replaces the store contents with the given snapshots.
func (r *LinkRepository) Restore(snapshots []entity.LinkSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.links = make(map[string]*entity.ShortLink, len(snapshots))
	for _, s := range snapshots {
		r.links[s.ShortID] = entity.LinkFromSnapshot(s)
	}
}
