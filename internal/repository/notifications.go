package repository

import (
	"sync"

	"github.com/google/uuid"

	"shortlink/internal/entity"
)

// NotificationRepository stores notifications in emission order. Notifications
// have no independent key; removal is by object identity.
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications []*entity.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

// Append adds a notification to the store.
func (r *NotificationRepository) Append(n *entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// All returns a point-in-time copy of the stored notifications.
func (r *NotificationRepository) All() []*entity.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entity.Notification(nil), r.notifications...)
}

// UnreadFor returns the undelivered notifications addressed to the given
// owner, in no guaranteed order.
func (r *NotificationRepository) UnreadFor(recipient uuid.UUID) []*entity.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Notification
	for _, n := range r.notifications {
		if n.Recipient() == recipient && !n.Delivered() {
			out = append(out, n)
		}
	}
	return out
}

// PurgeDelivered removes every notification already marked delivered and
// returns how many were removed.
func (r *NotificationRepository) PurgeDelivered() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if !n.Delivered() {
			kept = append(kept, n)
		}
	}
	purged := len(r.notifications) - len(kept)
	r.notifications = kept
	return purged
}

func (r *NotificationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifications)
}

// Snapshot returns value copies of all notifications for persistence.
func (r *NotificationRepository) Snapshot() []entity.NotificationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.NotificationSnapshot, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n.Snapshot())
	}
	return out
}

// Restore replaces the store contents with the given snapshots.
func (r *NotificationRepository) Restore(snapshots []entity.NotificationSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = make([]*entity.Notification, 0, len(snapshots))
	for _, s := range snapshots {
		r.notifications = append(r.notifications, entity.NotificationFromSnapshot(s))
	}
}
