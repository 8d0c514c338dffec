package entity

import (
	"sync"

	"github.com/google/uuid"
)

// NotificationKind identifies the lifecycle transition a notification reports.
type NotificationKind string

const (
	NotificationExpired      NotificationKind = "expired"
	NotificationLimitReached NotificationKind = "limit_reached"
)

// Notification is a persisted message addressed to a link's owner about a
// lifecycle transition. It carries a value snapshot of the link taken at
// emission time, so it stays readable after the sweeper deletes the link.
type Notification struct {
	mu        sync.Mutex
	link      LinkSnapshot
	recipient uuid.UUID
	kind      NotificationKind
	delivered bool
}

// NewNotification creates an undelivered notification for the link's owner.
func NewNotification(link LinkSnapshot, kind NotificationKind) *Notification {
	return &Notification{
		link:      link,
		recipient: link.Owner,
		kind:      kind,
	}
}

func (n *Notification) Link() LinkSnapshot {
	return n.link
}

func (n *Notification) Recipient() uuid.UUID {
	return n.recipient
}

func (n *Notification) Kind() NotificationKind {
	return n.kind
}

func (n *Notification) Delivered() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.delivered
}

// MarkDelivered records that the notification has been shown to its
// recipient. Marking an already-delivered notification is a no-op.
func (n *Notification) MarkDelivered() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = true
}

// NotificationSnapshot is an immutable value copy of a Notification, used for
// persistence.
type NotificationSnapshot struct {
	Link      LinkSnapshot     `json:"link"`
	Recipient uuid.UUID        `json:"recipient"`
	Kind      NotificationKind `json:"kind"`
	Delivered bool             `json:"delivered"`
}

func (n *Notification) Snapshot() NotificationSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return NotificationSnapshot{
		Link:      n.link,
		Recipient: n.recipient,
		Kind:      n.kind,
		Delivered: n.delivered,
	}
}

// NotificationFromSnapshot rebuilds a notification from a persisted snapshot.
func NotificationFromSnapshot(s NotificationSnapshot) *Notification {
	return &Notification{
		link:      s.Link,
		recipient: s.Recipient,
		kind:      s.Kind,
		delivered: s.Delivered,
	}
}
