package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh 24 character hex identifier. Both storage backends key
// their records with it so ids stay portable between them.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName,omitempty"`
	LastName       string    `json:"lastName,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	Connections    []string  `json:"connections"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsConnectedTo reports whether other is in the user's connection set.
func (u *User) IsConnectedTo(other string) bool {
	for _, id := range u.Connections {
		if id == other {
			return true
		}
	}
	return false
}

// Summary returns the public display fields of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// UserSummary is what other records embed when they populate a user reference.
type UserSummary struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// UserProfile is a user with its graph edges resolved to summaries.
type UserProfile struct {
	ID             string        `json:"_id"`
	Username       string        `json:"username"`
	Email          string        `json:"email"`
	FirstName      string        `json:"firstName,omitempty"`
	LastName       string        `json:"lastName,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty"`
	Bio            string        `json:"bio,omitempty"`
	Followers      []UserSummary `json:"followers"`
	Following      []UserSummary `json:"following"`
	Connections    []UserSummary `json:"connections"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

// EdgeKind names one of the user graph edge sets.
type EdgeKind string

const (
	EdgeFollowers   EdgeKind = "followers"
	EdgeFollowing   EdgeKind = "following"
	EdgeConnections EdgeKind = "connections"
)

func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeFollowers, EdgeFollowing, EdgeConnections:
		return true
	}
	return false
}
