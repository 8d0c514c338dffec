package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortlink/internal/entity"
	"shortlink/internal/repository"
)

func newNotificationFixture() (*NotificationService, *entity.ShortLink) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	link := entity.NewShortLink("abc123", "https://example.com", uuid.New(), createdAt, createdAt.Add(time.Hour), 10)
	return NewNotificationService(repository.NewNotificationRepository()), link
}

func TestNotificationService_EmitExpired(t *testing.T) {
	svc, link := newNotificationFixture()

	n := svc.EmitExpired(link)

	require.NotNil(t, n)
	assert.Equal(t, entity.NotificationExpired, n.Kind())
	assert.Equal(t, link.Owner(), n.Recipient())
	// The snapshot keeps the notification readable after the link is evicted.
	assert.Equal(t, link.Snapshot(), n.Link())
	assert.Len(t, svc.UnreadFor(link.Owner()), 1)
}

func TestNotificationService_EmitLimitReached_Once(t *testing.T) {
	svc, link := newNotificationFixture()

	n, emitted := svc.EmitLimitReached(link)
	require.True(t, emitted)
	require.NotNil(t, n)
	assert.Equal(t, entity.NotificationLimitReached, n.Kind())

	// The second sweep over the same link must not emit again.
	n, emitted = svc.EmitLimitReached(link)
	assert.False(t, emitted)
	assert.Nil(t, n)
	assert.Len(t, svc.All(), 1)
}

func TestNotificationService_DeliverThenPurge(t *testing.T) {
	svc, link := newNotificationFixture()
	svc.EmitExpired(link)

	unread := svc.UnreadFor(link.Owner())
	require.Len(t, unread, 1)

	svc.MarkDelivered(unread)
	assert.Empty(t, svc.UnreadFor(link.Owner()))

	assert.Equal(t, 1, svc.PurgeDelivered())
	assert.Empty(t, svc.All())
}
