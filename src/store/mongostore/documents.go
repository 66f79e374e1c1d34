package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talent-nest-network/src/models"
)

type userDoc struct {
	ID             primitive.ObjectID   `bson:"_id"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	FirstName      string               `bson:"firstName,omitempty"`
	LastName       string               `bson:"lastName,omitempty"`
	ProfilePicture string               `bson:"profilePicture,omitempty"`
	Bio            string               `bson:"bio,omitempty"`
	Followers      []primitive.ObjectID `bson:"followers"`
	Following      []primitive.ObjectID `bson:"following"`
	Connections    []primitive.ObjectID `bson:"connections"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		ProfilePicture: d.ProfilePicture,
		Bio:            d.Bio,
		Followers:      hexes(d.Followers),
		Following:      hexes(d.Following),
		Connections:    hexes(d.Connections),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type requestDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Sender    primitive.ObjectID `bson:"sender"`
	Receiver  primitive.ObjectID `bson:"receiver"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *requestDoc) toModel() *models.ConnectionRequest {
	return &models.ConnectionRequest{
		ID:        d.ID.Hex(),
		Sender:    d.Sender.Hex(),
		Receiver:  d.Receiver.Hex(),
		Status:    models.ConnectionStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type notificationDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Recipient primitive.ObjectID `bson:"recipient"`
	Sender    primitive.ObjectID `bson:"sender,omitempty"`
	Type      string             `bson:"type"`
	Content   string             `bson:"content"`
	Link      string             `bson:"link,omitempty"`
	Read      bool               `bson:"read"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *notificationDoc) toModel() *models.Notification {
	n := &models.Notification{
		ID:        d.ID.Hex(),
		Recipient: d.Recipient.Hex(),
		Type:      models.NotificationType(d.Type),
		Content:   d.Content,
		Link:      d.Link,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if !d.Sender.IsZero() {
		n.Sender = d.Sender.Hex()
	}
	return n
}
