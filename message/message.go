// Package message defines the TLQ message entity and the wire payload
// shapes exchanged with the server.
package message

import (
	"fmt"

	"github.com/google/uuid"
)

// State is the queue-side lifecycle state of a message. Transitions are
// owned by the server; clients only observe and request them.
type State string

const (
	StateReady      State = "Ready"
	StateProcessing State = "Processing"
	StateFailed     State = "Failed"
)

// UnmarshalJSON decodes a state and rejects values outside the known set.
func (s *State) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("message state must be a JSON string, got %s", data)
	}
	switch v := State(data[1 : len(data)-1]); v {
	case StateReady, StateProcessing, StateFailed:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown message state %q", string(v))
	}
}

// Message is a single queue entry. IDs are UUIDv7 so they sort by
// creation time.
type Message struct {
	ID         uuid.UUID `json:"id"`
	Body       string    `json:"body"`
	State      State     `json:"state"`
	LockUntil  *string   `json:"lock_until,omitempty"`
	RetryCount uint32    `json:"retry_count"`
}

// New creates a local Ready message with a freshly generated UUIDv7.
// The server generates IDs in production; this constructor exists for
// tests and local tooling.
func New(body string) *Message {
	return &Message{
		ID:    uuid.Must(uuid.NewV7()),
		Body:  body,
		State: StateReady,
	}
}

// AddRequest is the payload for POST /add.
type AddRequest struct {
	Body string `json:"body"`
}

// GetRequest is the payload for POST /get.
type GetRequest struct {
	Count int `json:"count"`
}

// DeleteRequest is the payload for POST /delete.
type DeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// RetryRequest is the payload for POST /retry.
type RetryRequest struct {
	IDs []uuid.UUID `json:"ids"`
}
