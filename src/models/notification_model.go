package models

import "time"

type Notification struct {
	ID        string           `json:"_id"`
	Recipient string           `json:"recipient"`
	Sender    string           `json:"sender,omitempty"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type NotificationType string

const (
	NotificationTypeConnectionRequest  NotificationType = "connection_request"
	NotificationTypeConnectionAccepted NotificationType = "connection_accepted"
	NotificationTypePostLike           NotificationType = "post_like"
	NotificationTypePostComment        NotificationType = "post_comment"
	NotificationTypeEventReminder      NotificationType = "event_reminder"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeConnectionRequest,
		NotificationTypeConnectionAccepted,
		NotificationTypePostLike,
		NotificationTypePostComment,
		NotificationTypeEventReminder:
		return true
	}
	return false
}

// NotificationDto is the wire form: sender replaced by its public fields.
type NotificationDto struct {
	ID        string           `json:"_id"`
	Recipient string           `json:"recipient"`
	Sender    *UserSummary     `json:"sender,omitempty"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ToDto attaches the populated sender, which may be nil.
func (n *Notification) ToDto(sender *UserSummary) NotificationDto {
	return NotificationDto{
		ID:        n.ID,
		Recipient: n.Recipient,
		Sender:    sender,
		Type:      n.Type,
		Content:   n.Content,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
