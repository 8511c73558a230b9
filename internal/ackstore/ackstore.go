// Package ackstore persists client acknowledgments to sqlite. The ack log is
// observational only: nothing in the delivery path reads it back.
package ackstore

import (
	"context"
	"database/sql"
)

// Store records and counts acknowledgments.
type Store struct {
	db *sql.DB
}

// New creates a Store over an already-migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordAck appends one acknowledgment row.
func (s *Store) RecordAck(ctx context.Context, notificationID, connectionID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO acks (notification_id, connection_id, user_id) VALUES (?, ?, ?)`,
		notificationID, connectionID, userID)
	return err
}

// CountForUser returns how many acknowledgments the user's sessions have sent.
func (s *Store) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM acks WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
