package models

// Publish endpoint
type PublishRequest struct {
	UserID    string `json:"userId" validate:"required"`
	Type      string `json:"type"`
	Message   string `json:"message" validate:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}

type PublishResponse struct {
	Status string `json:"status"`
}

// Client acknowledgment
type AckRequest struct {
	ConnectionID   string `json:"connectionId" validate:"required"`
	NotificationID string `json:"notificationId" validate:"required"`
}

type AckResponse struct {
	Status string `json:"status"`
}

// SSE handshake payload sent as the "connected" event data
type ConnectedEvent struct {
	ConnectionID string `json:"connectionId"`
}

// Observability surfaces
type QueueLengthResponse struct {
	Length int64 `json:"length"`
}

type AckCountResponse struct {
	UserID string `json:"userId"`
	Count  int64  `json:"count"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
