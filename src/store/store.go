// Package store declares the persistence contracts shared by the MongoDB and
// SQL backends. Implementations return the sentinel errors below so the
// services can map them to apperr kinds without knowing the driver.
package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/theleywin/talent-nest-network/src/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a write violates a unique index, most
	// notably the partial index allowing one pending request per pair.
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrStale is returned by compare-and-set transitions when the record
	// exists but is no longer in the expected state.
	ErrStale = errors.New("store: stale state")
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// MaxSkip caps Skip so oversized page numbers yield an empty page.
const MaxSkip = math.MaxInt32

// Skip is the number of records before the page, saturated at MaxSkip.
func (p Page) Skip() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > MaxSkip/p.Limit {
		return MaxSkip
	}
	return (p.Page - 1) * p.Limit
}

// UserStore is the identity store: user records and their graph edges.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id string) (*models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)

	// AddEdge inserts otherID into the kind set of userID. Idempotent.
	AddEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error
	RemoveEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error
	HasEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) (bool, error)

	// ConnectUsers adds a and b to each other's connection sets. Idempotent,
	// transactional where the backend supports it, lower id written first otherwise.
	ConnectUsers(ctx context.Context, a, b string) error
	DisconnectUsers(ctx context.Context, a, b string) error

	// Summaries resolves ids to public display fields. Unknown ids are omitted.
	Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)

	UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate, at time.Time) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
}

// RequestStore persists connection requests.
type RequestStore interface {
	// CreateRequest returns ErrDuplicate when a pending request already exists for the pair.
	CreateRequest(ctx context.Context, r *models.ConnectionRequest) error
	FindRequest(ctx context.Context, id string) (*models.ConnectionRequest, error)
	FindRequestByPair(ctx context.Context, sender, receiver string, status models.ConnectionStatus) (*models.ConnectionRequest, error)

	// FindPendingBetween looks in both directions.
	FindPendingBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error)

	// TransitionRequest moves a request from one status to another. It returns
	// ErrStale if the request is not in from and ErrDuplicate if the target
	// state violates the pending uniqueness index.
	TransitionRequest(ctx context.Context, id string, from, to models.ConnectionStatus, at time.Time) error

	// ReviveRequest moves a rejected request back to pending and resets createdAt.
	ReviveRequest(ctx context.Context, id string, at time.Time) error

	// AcceptRequest marks a pending request accepted and connects both users.
	AcceptRequest(ctx context.Context, r *models.ConnectionRequest, at time.Time) error

	// ListPending returns pending requests sent or received by userID, newest first.
	ListPending(ctx context.Context, userID string, page Page) ([]models.ConnectionRequest, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	FindNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, recipient string, page Page) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	RequestStore
	NotificationStore

	// Migrate creates tables and indexes, including the pending uniqueness index.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

// OrderedPair returns a and b sorted so two-sided writes always happen in the same order.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// ResolveSummaries maps ids to summaries keeping their order. Unknown ids are skipped.
func ResolveSummaries(ctx context.Context, users UserStore, ids []string) ([]models.UserSummary, error) {
	summaries, err := users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if sum, ok := summaries[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}
