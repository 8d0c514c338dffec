// Package entity defines the entities of the short-link service: the
// ShortLink itself, the Owner it belongs to, the Notification raised on
// lifecycle transitions, and the error taxonomy shared by all operations.
//
// ShortLink and Owner are mutated by two actors at once (the interactive
// command loop and the background sweeper), so every mutable field is guarded
// by the instance's own mutex and every check-and-set is a single method.
package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ShortLink represents one issued short link. The short code, owner and
// creation time are immutable after construction; everything else is guarded
// by the per-link mutex.
type ShortLink struct {
	mu sync.Mutex

	shortID     string
	owner       uuid.UUID
	createdAt   time.Time
	originalURL string
	expiresAt   time.Time
	usageCount  int
	usageLimit  int
	// limitNotified is set once when a limit-reached notification has been
	// emitted for this link; it is never reset.
	limitNotified bool
}

// NewShortLink constructs a fresh link with a zero usage counter.
func NewShortLink(shortID, originalURL string, owner uuid.UUID, createdAt, expiresAt time.Time, usageLimit int) *ShortLink {
	return &ShortLink{
		shortID:     shortID,
		owner:       owner,
		createdAt:   createdAt,
		originalURL: originalURL,
		expiresAt:   expiresAt,
		usageLimit:  usageLimit,
	}
}

func (l *ShortLink) ShortID() string {
	return l.shortID
}

func (l *ShortLink) Owner() uuid.UUID {
	return l.owner
}

func (l *ShortLink) CreatedAt() time.Time {
	return l.createdAt
}

func (l *ShortLink) OriginalURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.originalURL
}

func (l *ShortLink) SetOriginalURL(originalURL string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.originalURL = originalURL
}

func (l *ShortLink) ExpiresAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expiresAt
}

func (l *ShortLink) SetExpiresAt(expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expiresAt = expiresAt
}

func (l *ShortLink) UsageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usageCount
}

func (l *ShortLink) UsageLimit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usageLimit
}

func (l *ShortLink) LimitNotified() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitNotified
}

// IsExpired reports whether the link's lifetime is over at the given time.
// Expiry is inclusive: a link whose expiresAt equals now is already expired.
func (l *ShortLink) IsExpired(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !now.Before(l.expiresAt)
}

// IsExhausted reports whether the usage counter has reached the usage limit.
func (l *ShortLink) IsExhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usageCount >= l.usageLimit
}

// Use increments the usage counter after checking, under the same lock, that
// the link is neither exhausted nor expired. Two concurrent redirects on a
// link one usage away from its limit cannot both pass the check. Returns the
// destination URL on success.
func (l *ShortLink) Use(now time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usageCount >= l.usageLimit {
		return "", fmt.Errorf("%w: usage limit of %d reached", ErrExhausted, l.usageLimit)
	}
	if !now.Before(l.expiresAt) {
		return "", fmt.Errorf("%w: expired at %s", ErrExpired, l.expiresAt.Format(time.RFC3339))
	}

	l.usageCount++
	return l.originalURL, nil
}

// RaiseUsageLimit sets a new usage limit, rejecting values that would
// immediately re-exhaust the link. The exhaustion check and the write happen
// under one lock so a concurrent redirect cannot slip between them.
func (l *ShortLink) RaiseUsageLimit(newLimit int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usageCount >= l.usageLimit {
		return fmt.Errorf("%w: cannot change the limit of an exhausted link", ErrInvalidParameter)
	}
	if newLimit <= l.usageCount {
		return fmt.Errorf("%w: new limit %d must exceed the current usage count %d", ErrInvalidParameter, newLimit, l.usageCount)
	}

	l.usageLimit = newLimit
	return nil
}

// MarkLimitNotified flips the limit-notified flag and reports whether this
// call was the one that set it. The sweeper uses the return value to emit at
// most one limit-reached notification per link.
func (l *ShortLink) MarkLimitNotified() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limitNotified {
		return false
	}
	l.limitNotified = true
	return true
}

// LinkSnapshot is an immutable value copy of a ShortLink, used for
// persistence and for notifications that outlive the link itself.
type LinkSnapshot struct {
	ShortID       string    `json:"short_id"`
	OriginalURL   string    `json:"original_url"`
	Owner         uuid.UUID `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	UsageCount    int       `json:"usage_count"`
	UsageLimit    int       `json:"usage_limit"`
	LimitNotified bool      `json:"limit_notified"`
}

// Snapshot returns a consistent copy of the link's current state.
func (l *ShortLink) Snapshot() LinkSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LinkSnapshot{
		ShortID:       l.shortID,
		OriginalURL:   l.originalURL,
		Owner:         l.owner,
		CreatedAt:     l.createdAt,
		ExpiresAt:     l.expiresAt,
		UsageCount:    l.usageCount,
		UsageLimit:    l.usageLimit,
		LimitNotified: l.limitNotified,
	}
}

// LinkFromSnapshot rebuilds a link from a persisted snapshot.
func LinkFromSnapshot(s LinkSnapshot) *ShortLink {
	return &ShortLink{
		shortID:       s.ShortID,
		owner:         s.Owner,
		createdAt:     s.CreatedAt,
		originalURL:   s.OriginalURL,
		expiresAt:     s.ExpiresAt,
		usageCount:    s.UsageCount,
		usageLimit:    s.UsageLimit,
		limitNotified: s.LimitNotified,
	}
}
