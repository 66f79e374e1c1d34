// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
	"github.com/theleywin/talent-nest-network/src/store/sqlstore"
)

var quiet sync.Once

// QuietLogs discards log output for the rest of the test binary.
func QuietLogs() {
	quiet.Do(func() {
		logging.Init(logging.Config{Level: "error", Output: io.Discard})
	})
}

// NewSQLStore opens a migrated SQLite store in a temp directory.
func NewSQLStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	QuietLogs()

	s, err := sqlstore.Open(sqlstore.Config{Path: filepath.Join(t.TempDir(), "talentnest.db")})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// CreateUser inserts a user with the given username.
func CreateUser(t *testing.T, users store.UserStore, username string) *models.User {
	t.Helper()

	u := &models.User{
		ID:             models.NewID(),
		Username:       username,
		Email:          username + "@example.com",
		ProfilePicture: "https://cdn.example.com/" + username + ".png",
	}
	require.NoError(t, users.CreateUser(context.Background(), u))
	return u
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
