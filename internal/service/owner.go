package service

import (
	"fmt"

	"github.com/google/uuid"

	"shortlink/internal/config"
	"shortlink/internal/entity"
)

// OwnerRepository defines the storage operations the owner service needs.
type OwnerRepository interface {
	Save(owner *entity.Owner)
	Get(token uuid.UUID) (*entity.Owner, bool)
}

// OwnerService issues owner tokens and enforces the per-owner active-link cap.
type OwnerService struct {
	repo OwnerRepository
	cfg  *config.Config
}

func NewOwnerService(repo OwnerRepository, cfg *config.Config) *OwnerService {
	return &OwnerService{repo: repo, cfg: cfg}
}

// Issue creates and persists an owner under a token not held by any active
// owner. A random UUID colliding with a live token is re-drawn.
func (s *OwnerService) Issue() *entity.Owner {
	for {
		token := uuid.New()
		if _, exists := s.repo.Get(token); exists {
			continue
		}
		owner := entity.NewOwner(token)
		s.repo.Save(owner)
		return owner
	}
}

// Get returns the owner holding the given token.
func (s *OwnerService) Get(token uuid.UUID) (*entity.Owner, bool) {
	return s.repo.Get(token)
}

// AcquireSlot reserves one active-link slot for the owner, rejecting the
// creation outright when the configured cap would be exceeded.
func (s *OwnerService) AcquireSlot(owner *entity.Owner) error {
	const op = "service.OwnerService.AcquireSlot"

	if err := owner.AcquireLinkSlot(s.cfg.MaxLinksPerOwner); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReleaseSlot gives back one active-link slot, whether the link was removed
// by its owner or evicted by the sweeper. A vanished owner record is not an
// error.
func (s *OwnerService) ReleaseSlot(token uuid.UUID) {
	if owner, ok := s.repo.Get(token); ok {
		owner.ReleaseLinkSlot()
	}
}
