package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairpay/upiwatch/internal/common"
	"github.com/fairpay/upiwatch/internal/model"
)

// AppendPending adds a record to the end of the pending queue. The record is
// durable before the call returns. Failures are reported as
// common.ErrStoreWrite so callers can decide whether to surface or swallow
// them.
func (s *SQLiteStore) AppendPending(ctx context.Context, record model.PaymentRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStoreWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pending_payments (id, amount, payee, full_message, detected_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Amount.String(),
		record.Payee,
		record.RawMessage,
		record.DetectedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", common.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStoreWrite, err)
	}

	return nil
}

// ListPending returns the full current queue, oldest first, without removing
// entries. The result is a single consistent snapshot. A malformed or
// corrupt store reads as an empty queue rather than an error.
func (s *SQLiteStore) ListPending(ctx context.Context) ([]model.PaymentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, payee, full_message, detected_at
		FROM pending_payments
		ORDER BY rowid ASC
	`)
	if err != nil {
		common.LogError(err, "Reading pending queue failed, treating as empty", nil)
		return []model.PaymentRecord{}, nil
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.PaymentRecord, 0)
	for rows.Next() {
		var (
			rec        model.PaymentRecord
			amountStr  string
			detectedAt int64
		)
		if err := rows.Scan(&rec.ID, &amountStr, &rec.Payee, &rec.RawMessage, &detectedAt); err != nil {
			common.LogError(err, "Corrupt pending queue row, treating queue as empty", nil)
			return []model.PaymentRecord{}, nil
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			common.LogError(err, "Corrupt pending amount, treating queue as empty",
				common.Fields{"id": rec.ID})
			return []model.PaymentRecord{}, nil
		}

		rec.Amount = amount
		rec.DetectedAt = time.UnixMilli(detectedAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		common.LogError(err, "Reading pending queue failed, treating as empty", nil)
		return []model.PaymentRecord{}, nil
	}

	return records, nil
}

// ClearPending removes all entries atomically. A list that happens-before
// the clear is unaffected; one that happens-after sees an empty queue.
func (s *SQLiteStore) ClearPending(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStoreWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_payments`); err != nil {
		return fmt.Errorf("%w: delete: %v", common.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStoreWrite, err)
	}

	return nil
}

// PendingCount returns the number of queued records.
func (s *SQLiteStore) PendingCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_payments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending payments: %w", err)
	}
	return count, nil
}
