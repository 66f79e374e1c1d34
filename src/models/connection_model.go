package models

import "time"

type ConnectionRequest struct {
	ID        string           `json:"_id"`
	Sender    string           `json:"sender"`
	Receiver  string           `json:"receiver"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type ConnectionStatus string

const (
	ConnectionStatusPending   ConnectionStatus = "pending"
	ConnectionStatusAccepted  ConnectionStatus = "accepted"
	ConnectionStatusRejected  ConnectionStatus = "rejected"
	ConnectionStatusCancelled ConnectionStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed. A rejected
// request can still be revived by a new send from the same sender.
func (s ConnectionStatus) IsTerminal() bool {
	return s != ConnectionStatusPending
}

// ConnectionRequestDto is a request with sender and receiver populated.
type ConnectionRequestDto struct {
	ID        string           `json:"_id"`
	Sender    UserSummary      `json:"sender"`
	Receiver  UserSummary      `json:"receiver"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Relationship between two users as seen from one of them.
type Relationship string

const (
	RelationshipConnected    Relationship = "connected"
	RelationshipPending      Relationship = "pending"
	RelationshipReceived     Relationship = "received"
	RelationshipNotConnected Relationship = "not_connected"
)

type ConnectionStatusView struct {
	Status    Relationship `json:"status"`
	RequestID string       `json:"requestId,omitempty"`
}
