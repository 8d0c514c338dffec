package repository

import (
	"sync"

	"github.com/google/uuid"

	"shortlink/internal/entity"
)

// OwnerRepository stores owners keyed by token.
type OwnerRepository struct {
	mu     sync.RWMutex
	owners map[uuid.UUID]*entity.Owner
}

func NewOwnerRepository() *OwnerRepository {
	return &OwnerRepository{owners: make(map[uuid.UUID]*entity.Owner)}
}

// Save inserts the owner, overwriting any previous record for the token.
func (r *OwnerRepository) Save(owner *entity.Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[owner.Token()] = owner
}

// Get returns the owner holding the given token.
func (r *OwnerRepository) Get(token uuid.UUID) (*entity.Owner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[token]
	return owner, ok
}

// Snapshot returns value copies of all owners for persistence.
func (r *OwnerRepository) Snapshot() []entity.OwnerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.OwnerSnapshot, 0, len(r.owners))
	for _, owner := range r.owners {
		out = append(out, owner.Snapshot())
	}
	return out
}

// Restore replaces the store contents with the given snapshots.
func (r *OwnerRepository) Restore(snapshots []entity.OwnerSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners = make(map[uuid.UUID]*entity.Owner, len(snapshots))
	for _, s := range snapshots {
		r.owners[s.Token] = entity.OwnerFromSnapshot(s)
	}
}
