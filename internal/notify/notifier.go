// Package notify defines the alerting contract for detected payments and the
// adapters that fulfil it. The core supplies the alert text and a resume
// payload; rendering the alert is the platform's business.
package notify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fairpay/upiwatch/internal/model"
)

// AlertTitle is the user-visible title for every detection alert.
const AlertTitle = "New payment detected"

// ResumePayload is the sole state carried across the alert-tap boundary.
// When the user acts on an alert, the consumer re-enters with exactly this.
type ResumePayload struct {
	Payee  string
	Amount decimal.Decimal
}

// Notifier raises a user-visible alert for a stored payment record.
type Notifier interface {
	Alert(ctx context.Context, title, body string, payload ResumePayload) error
}

// FormatAlertBody renders the alert text for a record. The payee clause is
// omitted when no payee was extracted.
func FormatAlertBody(record model.PaymentRecord) string {
	payeeText := ""
	if record.Payee != "" {
		payeeText = " to " + record.Payee
	}
	return fmt.Sprintf("Paid ₹%s%s. Tap to add as a shared expense.", record.Amount.StringFixed(2), payeeText)
}

// PayloadFor builds the resume payload for a record.
func PayloadFor(record model.PaymentRecord) ResumePayload {
	return ResumePayload{
		Amount: record.Amount,
		Payee:  record.Payee,
	}
}
