// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fragment is one part of a multipart message delivery. Carriers split long
// messages into fragments that arrive together; bodies are concatenated in
// delivery order before classification.
type Fragment struct {
	Address string
	Body    string
}

// RawMessage is the transient input to the pipeline. It is consumed during
// classification and extraction and never persisted.
type RawMessage struct {
	ReceivedAt time.Time
	Body       string
	Sender     string
}

// PaymentRecord is a detected UPI transfer staged for the expense-splitting
// consumer. Records are only ever constructed by the extractor after the
// classifier has accepted the source message.
type PaymentRecord struct {
	DetectedAt time.Time
	ID         string
	Payee      string // may be empty, never meaningful whitespace
	RawMessage string // full original body, kept for audit
	Amount     decimal.Decimal
}

// NewPaymentRecord builds a record for an accepted message. Amount must
// already be validated as positive by the extractor.
func NewPaymentRecord(amount decimal.Decimal, payee, rawMessage string, detectedAt time.Time) PaymentRecord {
	return PaymentRecord{
		ID:         uuid.NewString(),
		Amount:     amount,
		Payee:      payee,
		RawMessage: rawMessage,
		DetectedAt: detectedAt,
	}
}

// JoinFragments concatenates fragment bodies in delivery order into the
// single logical body the pipeline operates on.
func JoinFragments(fragments []Fragment) RawMessage {
	msg := RawMessage{}
	if len(fragments) == 0 {
		return msg
	}

	msg.Sender = fragments[0].Address
	for _, f := range fragments {
		msg.Body += f.Body
	}
	return msg
}
