package service

import (
	"github.com/google/uuid"

	"shortlink/internal/entity"
)

// NotificationRepository defines the storage operations the emitter needs.
type NotificationRepository interface {
	Append(n *entity.Notification)
	All() []*entity.Notification
	UnreadFor(recipient uuid.UUID) []*entity.Notification
	PurgeDelivered() int
}

// NotificationService converts lifecycle transitions into persisted
// notifications addressed to the link owner, with delivery-once semantics.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// EmitExpired records that the link's lifetime ran out.
func (s *NotificationService) EmitExpired(link *entity.ShortLink) *entity.Notification {
	n := entity.NewNotification(link.Snapshot(), entity.NotificationExpired)
	s.repo.Append(n)
	return n
}

// EmitLimitReached records that the link's usage limit was exhausted. The
// link's limit-notified flag gates the emission: only the call that flips the
// flag appends a notification, so a link is never reported twice.
func (s *NotificationService) EmitLimitReached(link *entity.ShortLink) (*entity.Notification, bool) {
	if !link.MarkLimitNotified() {
		return nil, false
	}
	n := entity.NewNotification(link.Snapshot(), entity.NotificationLimitReached)
	s.repo.Append(n)
	return n, true
}

// MarkDelivered flips the delivered flag on each notification. Re-marking an
// already-delivered notification is a no-op.
func (s *NotificationService) MarkDelivered(notifications []*entity.Notification) {
	for _, n := range notifications {
		n.MarkDelivered()
	}
}

// PurgeDelivered removes every delivered notification and returns the count.
func (s *NotificationService) PurgeDelivered() int {
	return s.repo.PurgeDelivered()
}

// UnreadFor returns the undelivered notifications for the given owner.
func (s *NotificationService) UnreadFor(recipient uuid.UUID) []*entity.Notification {
	return s.repo.UnreadFor(recipient)
}

// All returns every stored notification.
func (s *NotificationService) All() []*entity.Notification {
	return s.repo.All()
}
