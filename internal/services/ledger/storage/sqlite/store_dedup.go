package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// BeginCommand reserves an idempotency key with a single conditional write.
// Exactly one caller per (userID, idempotencyKey) wins the reservation; the
// losers get the winner's correlation ID back with IsDuplicate set.
func (s *Store) BeginCommand(ctx context.Context, userID, idempotencyKey, correlationID string) (storage.BeginCommandResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.BeginCommandResult{}, err
	}
	if userID == "" || idempotencyKey == "" {
		return storage.BeginCommandResult{}, fmt.Errorf("user id and idempotency key are required")
	}
	if correlationID == "" {
		return storage.BeginCommandResult{}, fmt.Errorf("correlation id is required")
	}

	// The no-op conflict update makes RETURNING yield the stored row either
	// way, so winner detection is one round trip with no read-then-write race.
	var stored string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO command_dedup (user_id, idempotency_key, correlation_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, idempotency_key) DO UPDATE SET correlation_id = command_dedup.correlation_id
		RETURNING correlation_id`,
		userID, idempotencyKey, correlationID, toMillis(time.Now()),
	).Scan(&stored)
	if err != nil {
		return storage.BeginCommandResult{}, fmt.Errorf("reserve idempotency key: %w", err)
	}

	return storage.BeginCommandResult{
		CorrelationID: stored,
		IsDuplicate:   stored != correlationID,
	}, nil
}

// GetCorrelationID returns the correlation ID reserved for an idempotency
// key, or storage.ErrNotFound when no command used the key.
func (s *Store) GetCorrelationID(ctx context.Context, userID, idempotencyKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT correlation_id FROM command_dedup WHERE user_id = ? AND idempotency_key = ?",
		userID, idempotencyKey,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query idempotency key: %w", err)
	}
	return stored, nil
}
