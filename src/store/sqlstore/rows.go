package sqlstore

import (
	"time"

	"github.com/theleywin/talent-nest-network/src/models"
)

type userRow struct {
	ID             string `gorm:"primaryKey;size:24"`
	Username       string `gorm:"uniqueIndex;size:64"`
	Email          string `gorm:"uniqueIndex;size:255"`
	FirstName      string
	LastName       string
	ProfilePicture string
	Bio            string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userRow) TableName() string { return "users" }

// edgeRow is one member of a user's followers, following or connections set.
type edgeRow struct {
	UserID    string `gorm:"primaryKey;size:24"`
	Kind      string `gorm:"primaryKey;size:16"`
	OtherID   string `gorm:"primaryKey;size:24"`
	CreatedAt time.Time
}

func (edgeRow) TableName() string { return "user_edges" }

type requestRow struct {
	ID         string `gorm:"primaryKey;size:24"`
	SenderID   string `gorm:"size:24;index:idx_connection_requests_sender_status,priority:1"`
	ReceiverID string `gorm:"size:24;index:idx_connection_requests_receiver_status,priority:1"`
	Status     string `gorm:"size:16;index:idx_connection_requests_sender_status,priority:2;index:idx_connection_requests_receiver_status,priority:2"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (requestRow) TableName() string { return "connection_requests" }

type notificationRow struct {
	ID          string `gorm:"primaryKey;size:24"`
	RecipientID string `gorm:"size:24;index:idx_notifications_recipient_read,priority:1;index:idx_notifications_recipient_created,priority:1"`
	SenderID    string `gorm:"size:24"`
	Type        string `gorm:"size:32"`
	Content     string `gorm:"type:text"`
	Link        string
	Read        bool      `gorm:"index:idx_notifications_recipient_read,priority:2"`
	CreatedAt   time.Time `gorm:"index:idx_notifications_recipient_created,priority:2,sort:desc"`
	UpdatedAt   time.Time
}

func (notificationRow) TableName() string { return "notifications" }

func (r *requestRow) toModel() *models.ConnectionRequest {
	return &models.ConnectionRequest{
		ID:        r.ID,
		Sender:    r.SenderID,
		Receiver:  r.ReceiverID,
		Status:    models.ConnectionStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (n *notificationRow) toModel() *models.Notification {
	return &models.Notification{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Sender:    n.SenderID,
		Type:      models.NotificationType(n.Type),
		Content:   n.Content,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
