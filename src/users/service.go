// Package users serves profiles, follow edges and user search on top of the
// identity store.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

var errUserNotFound = apperr.NotFound("User not found")

type Service struct {
	users       store.UserStore
	searchLimit int
	now         func() time.Time
}

func NewService(users store.UserStore, searchLimit int) *Service {
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &Service{
		users:       users,
		searchLimit: searchLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NewUser is the input of Create.
type NewUser struct {
	Username       string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email          string `json:"email" validate:"required,email"`
	FirstName      string `json:"firstName" validate:"max=50"`
	LastName       string `json:"lastName" validate:"max=50"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

// Create registers a user record. Credentials live outside this service.
func (s *Service) Create(ctx context.Context, in NewUser) (*models.User, error) {
	if err := lib.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	u := &models.User{
		ID:             models.NewID(),
		Username:       strings.ToLower(in.Username),
		Email:          strings.ToLower(in.Email),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		ProfilePicture: in.ProfilePicture,
		Followers:      []string{},
		Following:      []string{},
		Connections:    []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.users.CreateUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Username or email already taken")
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	logging.Info().Str("user", u.ID).Str("username", u.Username).Msg("user created")
	return u, nil
}

// Get returns the profile of id with every edge set resolved to summaries.
func (s *Service) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u)
}

func (s *Service) profile(ctx context.Context, u *models.User) (*models.UserProfile, error) {
	ids := make([]string, 0, len(u.Followers)+len(u.Following)+len(u.Connections))
	ids = append(ids, u.Followers...)
	ids = append(ids, u.Following...)
	ids = append(ids, u.Connections...)

	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	resolve := func(ids []string) []models.UserSummary {
		out := make([]models.UserSummary, 0, len(ids))
		for _, id := range ids {
			if sum, ok := summaries[id]; ok {
				out = append(out, sum)
			}
		}
		return out
	}

	return &models.UserProfile{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Followers:      resolve(u.Followers),
		Following:      resolve(u.Following),
		Connections:    resolve(u.Connections),
		CreatedAt:      u.CreatedAt,
	}, nil
}

// Connections lists the summaries of id's connections.
func (s *Service) Connections(ctx context.Context, id string) ([]models.UserSummary, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := store.ResolveSummaries(ctx, s.users, u.Connections)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return list, nil
}

// UpdateProfile applies the non-nil fields of p.
func (s *Service) UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate) (*models.UserProfile, error) {
	if err := lib.Validate(p); err != nil {
		return nil, err
	}
	u, err := s.users.UpdateProfile(ctx, id, p, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Failed to update profile", err)
	}
	return s.profile(ctx, u)
}

// Follow records that userID follows targetID on both sides. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, userID, targetID string) error {
	if err := s.checkTarget(ctx, userID, targetID, "You can't follow yourself"); err != nil {
		return err
	}
	if err := s.users.AddEdge(ctx, models.EdgeFollowing, userID, targetID); err != nil {
		return s.edgeErr(err)
	}
	if err := s.users.AddEdge(ctx, models.EdgeFollowers, targetID, userID); err != nil {
		return s.edgeErr(err)
	}
	return nil
}

// Unfollow removes both follow edges. Unfollowing a user not followed is a no-op.
func (s *Service) Unfollow(ctx context.Context, userID, targetID string) error {
	if err := s.checkTarget(ctx, userID, targetID, "You can't unfollow yourself"); err != nil {
		return err
	}
	if err := s.users.RemoveEdge(ctx, models.EdgeFollowing, userID, targetID); err != nil {
		return s.edgeErr(err)
	}
	if err := s.users.RemoveEdge(ctx, models.EdgeFollowers, targetID, userID); err != nil {
		return s.edgeErr(err)
	}
	return nil
}

func (s *Service) checkTarget(ctx context.Context, userID, targetID, selfMessage string) error {
	if userID == targetID {
		return apperr.Validation(selfMessage)
	}
	ok, err := s.users.UserExists(ctx, targetID)
	if err != nil {
		return apperr.Internal("Server error", err)
	}
	if !ok {
		return errUserNotFound
	}
	return nil
}

func (s *Service) edgeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errUserNotFound
	}
	return apperr.Internal("Server error", err)
}

// Search matches query against username, first and last name, case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Query is required")
	}
	list, err := s.users.SearchUsers(ctx, query, s.searchLimit)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return list, nil
}

func (s *Service) find(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return u, nil
}
