package funnel

import (
	"time"

	"github.com/google/uuid"
)

// Direction marks a conversation message as inbound or outbound.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Message is one entry in a lead's conversation log. Append-only.
type Message struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Direction Direction
	Text      string
	MediaURL  string
	CreatedAt time.Time
}

// Evidence records one successfully retrieved proof attachment.
// StorageKey points at the blob store; rows are append-only.
type Evidence struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	StorageKey string
	CreatedAt  time.Time
}
