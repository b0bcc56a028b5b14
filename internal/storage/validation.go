package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fairpay/upiwatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidRecord = errors.New("invalid payment record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord ensures a payment record satisfies the store invariants:
// an ID, a positive amount and a detection time. An empty payee is valid.
func validateRecord(record model.PaymentRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if !record.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidRecord, record.Amount)
	}
	if record.DetectedAt.IsZero() {
		return fmt.Errorf("%w: missing detection time", ErrInvalidRecord)
	}
	return nil
}
