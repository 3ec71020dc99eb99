package models

import "time"

// Event names published on the domain event queue.
const (
	EventUserRegistered   = "user.registered"
	EventProductCreated   = "product.created"
	EventProductUpdated   = "product.updated"
	EventProductDeleted   = "product.deleted"
	EventProductVoted     = "product.voted"
	EventProductCommented = "product.commented"
)

// Event is a domain event emitted after a successful write.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	ActorID    string            `json:"actorId,omitempty"`
	ProductID  string            `json:"productId,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
