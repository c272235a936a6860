package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/centbook/centbook/internal/services/ledger/storage"
)

const accountColumns = "account_id, user_id, name, currency, allow_negative, balance_cents, archived, version, opened_at, updated_at"

// GetAccount returns one projected account row.
func (s *Store) GetAccount(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE account_id = ?", accountID)

	var (
		rec                     storage.AccountRecord
		allowNegative, archived int64
		openedAt, updatedAt     int64
	)
	err := row.Scan(&rec.AccountID, &rec.UserID, &rec.Name, &rec.Currency,
		&allowNegative, &rec.BalanceCents, &archived, &rec.Version, &openedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.AccountRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.AccountRecord{}, fmt.Errorf("scan account %s: %w", accountID, err)
	}
	rec.AllowNegative = allowNegative != 0
	rec.Archived = archived != 0
	rec.OpenedAt = fromMillis(openedAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// PutAccount upserts one projected account row.
func (s *Store) PutAccount(ctx context.Context, rec storage.AccountRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, user_id, name, currency, allow_negative, balance_cents, archived, version, opened_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			currency = excluded.currency,
			allow_negative = excluded.allow_negative,
			balance_cents = excluded.balance_cents,
			archived = excluded.archived,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		rec.AccountID, rec.UserID, rec.Name, rec.Currency,
		boolToInt(rec.AllowNegative), rec.BalanceCents, boolToInt(rec.Archived),
		rec.Version, toMillis(rec.OpenedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", rec.AccountID, err)
	}
	return nil
}

// ListAccountsByUser returns a user's projected accounts ordered by open time.
func (s *Store) ListAccountsByUser(ctx context.Context, userID string) ([]storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY opened_at ASC, account_id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var records []storage.AccountRecord
	for rows.Next() {
		var (
			rec                     storage.AccountRecord
			allowNegative, archived int64
			openedAt, updatedAt     int64
		)
		if err := rows.Scan(&rec.AccountID, &rec.UserID, &rec.Name, &rec.Currency,
			&allowNegative, &rec.BalanceCents, &archived, &rec.Version, &openedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		rec.AllowNegative = allowNegative != 0
		rec.Archived = archived != 0
		rec.OpenedAt = fromMillis(openedAt)
		rec.UpdatedAt = fromMillis(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return records, nil
}

// InsertMovement records one projected movement row.
func (s *Store) InsertMovement(ctx context.Context, rec storage.MovementRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movements (movement_id, account_id, user_id, kind, signed_cents, transfer_id, description, global_seq, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.MovementID, rec.AccountID, rec.UserID, string(rec.Kind), rec.SignedCents,
		rec.TransferID, rec.Description, rec.GlobalSeq, toMillis(rec.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert movement %s: %w", rec.MovementID, err)
	}
	return nil
}

// ListMovements returns an account's movements, newest first.
func (s *Store) ListMovements(ctx context.Context, accountID string, limit int) ([]storage.MovementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `
		SELECT movement_id, account_id, user_id, kind, signed_cents, transfer_id, description, global_seq, occurred_at
		FROM movements WHERE account_id = ? ORDER BY global_seq DESC`
	args := []any{accountID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements for %s: %w", accountID, err)
	}
	defer rows.Close()

	var records []storage.MovementRecord
	for rows.Next() {
		var (
			rec        storage.MovementRecord
			kind       string
			occurredAt int64
		)
		if err := rows.Scan(&rec.MovementID, &rec.AccountID, &rec.UserID, &kind,
			&rec.SignedCents, &rec.TransferID, &rec.Description, &rec.GlobalSeq, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		rec.Kind = storage.MovementKind(kind)
		rec.OccurredAt = fromMillis(occurredAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return records, nil
}

// TruncateProjections clears all projected state and resets the watermark.
func (s *Store) TruncateProjections(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, stmt := range []string{
		"DELETE FROM movements",
		"DELETE FROM accounts",
		"UPDATE projection_watermark SET global_seq = -1 WHERE id = 1",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate projections: %w", err)
		}
	}
	return nil
}

// Watermark returns the highest global sequence the projection has applied.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var seq int64
	err := s.db.QueryRowContext(ctx,
		"SELECT global_seq FROM projection_watermark WHERE id = 1").Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query projection watermark: %w", err)
	}
	return seq, nil
}

// SetWatermark records the global sequence the projection has been rebuilt
// through.
func (s *Store) SetWatermark(ctx context.Context, seq int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.saveWatermark(ctx, seq)
}

func (s *Store) saveWatermark(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE projection_watermark SET global_seq = ? WHERE id = 1", seq); err != nil {
		return fmt.Errorf("save projection watermark: %w", err)
	}
	return nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
