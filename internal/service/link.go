// Package service implements the short-link lifecycle engine: creation with
// uniqueness guarantees, redirects against the expiration/usage state
// machine, owner-scoped edits, and the notification hand-off consumed by the
// sweeper.
package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"shortlink/internal/config"
	"shortlink/internal/entity"
	"shortlink/internal/repository"
)

// LinkRepository defines the storage operations the lifecycle engine needs.
type LinkRepository interface {
	SaveIfAbsent(link *entity.ShortLink) error
	Get(shortID string) (*entity.ShortLink, bool)
	Delete(shortID string) bool
	All() []*entity.ShortLink
	ByOwner(owner uuid.UUID) []*entity.ShortLink
}

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// LinkService owns every operation on short links. It enforces ownership and
// business bounds; storage and per-link atomicity live below it.
type LinkService struct {
	repo     LinkRepository
	gen      CodeGenerator
	cfg      *config.Config
	clock    entity.Clock
	validate *validator.Validate
}

func NewLinkService(repo LinkRepository, gen CodeGenerator, cfg *config.Config, clock entity.Clock) *LinkService {
	return &LinkService{
		repo:     repo,
		gen:      gen,
		cfg:      cfg,
		clock:    clock,
		validate: validator.New(),
	}
}

// ValidateOriginalURL checks that raw is a syntactically well-formed absolute
// URL with a recognized scheme.
func (s *LinkService) ValidateOriginalURL(raw string) error {
	const op = "service.LinkService.ValidateOriginalURL"

	if err := s.validate.Var(raw, "required,url"); err != nil {
		return fmt.Errorf("%s: %w: %q is not a well-formed URL", op, entity.ErrInvalidOriginalLink, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w: %q is not a well-formed URL", op, entity.ErrInvalidOriginalLink, raw)
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return nil
	default:
		return fmt.Errorf("%s: %w: scheme %q is not recognized", op, entity.ErrInvalidOriginalLink, u.Scheme)
	}
}

// Draft holds the validated fields of a link that has not been persisted yet.
// Creation is split from persistence so the caller can check the owner's
// active-link cap before committing.
type Draft struct {
	OriginalURL string
	Owner       uuid.UUID
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UsageLimit  int
}

// NewDraft validates the original URL and fills in the configured defaults.
func (s *LinkService) NewDraft(originalURL string, owner uuid.UUID) (Draft, error) {
	const op = "service.LinkService.NewDraft"

	if err := s.ValidateOriginalURL(originalURL); err != nil {
		return Draft{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now()
	return Draft{
		OriginalURL: originalURL,
		Owner:       owner,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.DefaultTTL()),
		UsageLimit:  s.cfg.DefaultUsageLimit,
	}, nil
}

// Publish assigns a unique short code to the draft and persists the link.
// The insert is atomic per candidate code; a collision with a concurrent
// publisher retries with a freshly drawn code.
func (s *LinkService) Publish(d Draft) (*entity.ShortLink, error) {
	const op = "service.LinkService.Publish"

	for {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link := entity.NewShortLink(code, d.OriginalURL, d.Owner, d.CreatedAt, d.ExpiresAt, d.UsageLimit)
		if err := s.repo.SaveIfAbsent(link); err != nil {
			if errors.Is(err, repository.ErrCodeExists) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return link, nil
	}
}

// Redirect resolves a short code to its destination and counts the usage.
// The exhaustion check and the increment are atomic per link, so concurrent
// redirects cannot push the counter past the limit.
func (s *LinkService) Redirect(shortID string) (string, error) {
	const op = "service.LinkService.Redirect"

	link, ok := s.repo.Get(shortID)
	if !ok {
		return "", fmt.Errorf("%s: %w: no link for code %q", op, entity.ErrNotFound, shortID)
	}

	dest, err := link.Use(s.clock.Now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return dest, nil
}

// SetUsageLimit raises or lowers a link's usage limit within the configured
// ceiling. The new limit must strictly exceed the current usage count.
func (s *LinkService) SetUsageLimit(shortID string, owner uuid.UUID, newLimit int) (*entity.ShortLink, error) {
	const op = "service.LinkService.SetUsageLimit"

	link, err := s.ownedLink(shortID, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if newLimit <= 0 {
		return nil, fmt.Errorf("%s: %w: usage limit must be positive", op, entity.ErrInvalidParameter)
	}
	if newLimit > s.cfg.MaxUsageLimit {
		return nil, fmt.Errorf("%s: %w: usage limit must not exceed %d", op, entity.ErrInvalidParameter, s.cfg.MaxUsageLimit)
	}
	if err := link.RaiseUsageLimit(newLimit); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

// SetOriginalURL replaces the destination of a link.
func (s *LinkService) SetOriginalURL(shortID string, owner uuid.UUID, newURL string) (*entity.ShortLink, error) {
	const op = "service.LinkService.SetOriginalURL"

	link, err := s.ownedLink(shortID, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if link.IsExhausted() {
		return nil, fmt.Errorf("%s: %w: cannot edit an exhausted link", op, entity.ErrInvalidParameter)
	}
	if strings.TrimSpace(newURL) == "" {
		return nil, fmt.Errorf("%s: %w: the destination URL cannot be blank", op, entity.ErrInvalidParameter)
	}
	if err := s.ValidateOriginalURL(newURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link.SetOriginalURL(newURL)
	return link, nil
}

// SetExpiration moves a link's expiry to creation time plus addUnits
// configured time units. Anchoring to the creation time, not to now, lets the
// owner reason from the creation timestamp shown in listings. The resulting
// expiry must lie strictly in the future.
func (s *LinkService) SetExpiration(shortID string, owner uuid.UUID, addUnits int) (time.Time, error) {
	const op = "service.LinkService.SetExpiration"

	link, err := s.ownedLink(shortID, owner)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if link.IsExhausted() {
		return time.Time{}, fmt.Errorf("%s: %w: cannot edit an exhausted link", op, entity.ErrInvalidParameter)
	}
	if addUnits <= 0 {
		return time.Time{}, fmt.Errorf("%s: %w: the TTL must be positive", op, entity.ErrInvalidParameter)
	}
	if addUnits > s.cfg.MaxTTLUnits {
		return time.Time{}, fmt.Errorf("%s: %w: the TTL must not exceed %d %s from creation", op, entity.ErrInvalidParameter, s.cfg.MaxTTLUnits, s.cfg.TTLUnit)
	}

	expiresAt := link.CreatedAt().Add(s.cfg.TTL(addUnits))
	if !expiresAt.After(s.clock.Now()) {
		return time.Time{}, fmt.Errorf("%s: %w: the new expiry %s is not in the future", op, entity.ErrInvalidParameter, expiresAt.Format(time.RFC3339))
	}

	link.SetExpiresAt(expiresAt)
	return expiresAt, nil
}

// Delete removes a link after an ownership check and reports whether a link
// was actually removed. Deletion is allowed even on exhausted links.
func (s *LinkService) Delete(shortID string, owner uuid.UUID) (bool, error) {
	const op = "service.LinkService.Delete"

	if _, err := s.ownedLink(shortID, owner); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.Delete(shortID), nil
}

// Evict removes a link without an ownership check. Only the sweeper uses it,
// on expiry detection.
func (s *LinkService) Evict(shortID string) bool {
	return s.repo.Delete(shortID)
}

// AllLinks returns every live link.
func (s *LinkService) AllLinks() []*entity.ShortLink {
	return s.repo.All()
}

// LinksByOwner returns every live link created under the given owner token.
func (s *LinkService) LinksByOwner(owner uuid.UUID) []*entity.ShortLink {
	return s.repo.ByOwner(owner)
}

func (s *LinkService) ownedLink(shortID string, owner uuid.UUID) (*entity.ShortLink, error) {
	link, ok := s.repo.Get(shortID)
	if !ok {
		return nil, fmt.Errorf("%w: no link for code %q", entity.ErrNotFound, shortID)
	}
	if link.Owner() != owner {
		return nil, fmt.Errorf("%w: the link %q belongs to another token", entity.ErrNotOwner, shortID)
	}
	return link, nil
}
