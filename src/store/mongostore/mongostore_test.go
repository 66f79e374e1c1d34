package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
	"github.com/theleywin/talent-nest-network/src/store/mongostore"
	"github.com/theleywin/talent-nest-network/src/testutil"
)

// newStore connects to MONGO_TEST_URI and uses a throwaway database.
func newStore(t *testing.T) *mongostore.Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	testutil.QuietLogs()

	ctx := context.Background()
	s, err := mongostore.Open(ctx, mongostore.Config{
		URI:      uri,
		Database: "talentnest_test_" + models.NewID(),
	})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoPendingPairIsUnique(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	now := time.Now().UTC().Truncate(time.Millisecond)

	r := &models.ConnectionRequest{ID: models.NewID(), Sender: alice.ID, Receiver: bob.ID, Status: models.ConnectionStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateRequest(ctx, r))

	dup := *r
	dup.ID = models.NewID()
	assert.ErrorIs(t, s.CreateRequest(ctx, &dup), store.ErrDuplicate)

	found, err := s.FindPendingBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, found.ID)
}

func TestMongoAcceptAndCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	bob := testutil.CreateUser(t, s, "bob")
	now := time.Now().UTC().Truncate(time.Millisecond)

	r := &models.ConnectionRequest{ID: models.NewID(), Sender: alice.ID, Receiver: bob.ID, Status: models.ConnectionStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateRequest(ctx, r))
	require.NoError(t, s.AcceptRequest(ctx, r, now))
	assert.ErrorIs(t, s.AcceptRequest(ctx, r, now), store.ErrStale)
	assert.ErrorIs(t, s.TransitionRequest(ctx, models.NewID(), models.ConnectionStatusPending, models.ConnectionStatusRejected, now), store.ErrNotFound)

	require.NoError(t, s.ConnectUsers(ctx, bob.ID, alice.ID))
	a, err := s.FindUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, a.Connections)
}

func TestMongoNotifications(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := testutil.CreateUser(t, s, "alice")
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateNotification(ctx, &models.Notification{
			ID:        models.NewID(),
			Recipient: alice.ID,
			Type:      models.NotificationTypeEventReminder,
			Content:   "reminder",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}))
	}

	count, err := s.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	flipped, err := s.MarkAllNotificationsRead(ctx, alice.ID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, flipped)

	count, err = s.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
