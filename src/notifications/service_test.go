package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/notifications"
	"github.com/theleywin/talent-nest-network/src/realtime"
	"github.com/theleywin/talent-nest-network/src/store"
	"github.com/theleywin/talent-nest-network/src/testutil"
)

type published struct {
	room  string
	event string
	data  any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, room, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{room, event, data})
	return nil
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}

var firstPage = store.Page{Page: 1, Limit: 20}

func TestCreatePublishesToRecipientRoom(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	pub := &recordingPublisher{}
	svc := notifications.NewService(s, s, pub)

	dto, err := svc.Create(ctx, bob.ID, alice.ID, models.NotificationTypeConnectionRequest, "alice sent you a connection request", "/profile/"+alice.ID)
	require.NoError(t, err)
	assert.False(t, dto.Read)
	require.NotNil(t, dto.Sender)
	assert.Equal(t, "alice", dto.Sender.Username)

	sent := pub.all()
	require.Len(t, sent, 1)
	assert.Equal(t, bob.ID, sent[0].room)
	assert.Equal(t, realtime.EventNewNotification, sent[0].event)
	assert.Equal(t, dto.ID, sent[0].data.(*models.NotificationDto).ID)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	bob := testutil.CreateUser(t, s, "bob")
	svc := notifications.NewService(s, s, &recordingPublisher{err: errors.New("broker down")})

	dto, err := svc.Create(ctx, bob.ID, "", models.NotificationTypeEventReminder, "meetup tomorrow", "")
	require.NoError(t, err)
	assert.Nil(t, dto.Sender)

	count, err := svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	s := testutil.NewSQLStore(t)
	bob := testutil.CreateUser(t, s, "bob")
	svc := notifications.NewService(s, s, nil)

	_, err := svc.Create(context.Background(), bob.ID, "", models.NotificationType("birthday"), "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMarkAllReadZeroesUnreadCount(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	clock := testutil.NewClock()
	svc := notifications.NewService(s, s, nil).WithClock(clock.Now)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, bob.ID, alice.ID, models.NotificationTypePostLike, "alice liked your post", "")
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	_, err := svc.Create(ctx, alice.ID, bob.ID, models.NotificationTypePostLike, "bob liked your post", "")
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	changed, err := svc.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	count, err = svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// other recipients are untouched
	count, err = svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	changed, err = svc.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMarkReadOwnership(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	svc := notifications.NewService(s, s, nil)

	dto, err := svc.Create(ctx, bob.ID, alice.ID, models.NotificationTypePostComment, "alice commented", "")
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, dto.ID, alice.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.MarkRead(ctx, models.NewID(), bob.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	read, err := svc.MarkRead(ctx, dto.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	again, err := svc.MarkRead(ctx, dto.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, again.Read)
}

func TestListNewestFirstWithSenders(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	clock := testutil.NewClock()
	svc := notifications.NewService(s, s, nil).WithClock(clock.Now)

	first, err := svc.Create(ctx, bob.ID, alice.ID, models.NotificationTypeConnectionRequest, "first", "")
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := svc.Create(ctx, bob.ID, "", models.NotificationTypeEventReminder, "second", "")
	require.NoError(t, err)

	list, err := svc.List(ctx, bob.ID, firstPage)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Nil(t, list[0].Sender)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[1].Sender)
	assert.Equal(t, alice.ID, list[1].Sender.ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewSQLStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	svc := notifications.NewService(s, s, nil)

	dto, err := svc.Create(ctx, bob.ID, alice.ID, models.NotificationTypePostLike, "like", "")
	require.NoError(t, err)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Delete(ctx, dto.ID, alice.ID)))
	require.NoError(t, svc.Delete(ctx, dto.ID, bob.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, dto.ID, bob.ID)))
}
