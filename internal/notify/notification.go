// Package notify defines the notification record and the naming conventions
// shared by the publish path, the subscription registry, and the retry loop.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeadLetterKey is the fixed list key holding serialized notifications that
// failed publishing or parsing, until the retry loop republishes them.
const DeadLetterKey = "dlq:notifications"

// Notification is the immutable record delivered to clients. It is created
// once at publish time and serialized as-is onto the user's topic.
type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Well-known notification types. Type is free-form on the wire; these are the
// values the bundled frontend understands.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// New builds a Notification with a fresh id. An empty timestamp is replaced
// with the current time in RFC 3339 form.
func New(userID, typ, message, timestamp string) Notification {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Timestamp: timestamp,
	}
}

// TopicFor returns the pub/sub topic for a user's notifications.
func TopicFor(userID string) string {
	return "notifications:" + userID
}

// Encode serializes the notification into its wire payload.
func (n Notification) Encode() ([]byte, error) {
	return json.Marshal(n)
}

// Decode parses a raw topic payload. A payload that unmarshals but carries no
// userId is rejected as well, since it cannot be routed anywhere.
func Decode(payload []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Notification{}, ErrMalformedMessage
	}
	if n.UserID == "" {
		return Notification{}, ErrMalformedMessage
	}
	return n, nil
}
