// Package notifications delivers live forum, event and membership updates to
// connected websocket clients through Redis pub/sub.
package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a live update.
type EventType string

const (
	ThreadCreated  EventType = "thread_created"
	CommentCreated EventType = "comment_created"
	EventUpdated   EventType = "event_updated"
	MemberApproved EventType = "member_approved"
)

// Event is the JSON envelope written to websocket clients.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// NewEvent marshals payload into an envelope stamped with the current time.
func NewEvent(t EventType, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Payload: raw, SentAt: time.Now().UTC()}, nil
}

// Encode returns the wire form sent to websocket clients.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(b), nil
}
