// Package detect decides whether a message body reports a completed UPI
// transfer and extracts the transferred amount and counterparty from it.
package detect

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// paymentKeywords is a cheap high-recall filter. False positives are fine:
// a body with none of these words is never actioned, and the amount match
// in Extract is the real gate for the rest.
var paymentKeywords = []string{"debited", "sent", "paid", "upi"}

// amountPatterns are tried in priority order against the original-case body.
// The first pattern that matches wins; later patterns are never consulted,
// even when the matched amount fails to parse.
var amountPatterns = []*regexp.Regexp{
	// Verb precedes currency and amount: "paid Rs. 1,500".
	regexp.MustCompile(`(?i)(?:sent|paid)\s+(?:rs\.?|inr)\s*([0-9,]+(?:\.[0-9]+)?)`),
	// Currency and amount precede a debit verb: "INR 250 debited".
	regexp.MustCompile(`(?i)(?:rs\.?|inr)\s*([0-9,]+(?:\.[0-9]+)?)\s*(?:debited|has been)`),
	// Debit verb anywhere before currency and amount.
	regexp.MustCompile(`(?i)(?:debited.*?)(?:rs\.?|inr)\s*([0-9,]+(?:\.[0-9]+)?)`),
}

// payeePattern captures 1-31 name characters after "to" or "at", minimally,
// up to " on", " ref", a literal "." or end of body.
var payeePattern = regexp.MustCompile(`(?i)(?:to|at)\s+([A-Za-z0-9][A-Za-z0-9.\s@\-_]{1,30}?)(?:\s+on|\s+ref|\s*\.|$)`)

// Extraction is the result of a successful amount extraction.
type Extraction struct {
	Payee  string // best effort; empty when no payee clause matched
	Amount decimal.Decimal
}

// Detector runs the classification and extraction patterns. It is stateless
// and safe for concurrent use.
type Detector struct {
	amounts []*regexp.Regexp
	payee   *regexp.Regexp
}

// NewDetector creates a detector with the built-in UPI patterns.
func NewDetector() *Detector {
	return &Detector{
		amounts: amountPatterns,
		payee:   payeePattern,
	}
}

// IsPayment reports whether the body looks payment-related. Pure keyword
// check, no side effects.
func (d *Detector) IsPayment(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range paymentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Extract derives the amount and a best-effort payee from a payment-related
// body. It returns false when no amount pattern matches or the matched
// amount is not a positive number; a missing payee is not a failure.
func (d *Detector) Extract(body string) (Extraction, bool) {
	var raw string
	for _, re := range d.amounts {
		if m := re.FindStringSubmatch(body); m != nil {
			raw = m[1]
			break
		}
	}
	if raw == "" {
		return Extraction{}, false
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || !amount.IsPositive() {
		return Extraction{}, false
	}

	payee := ""
	if m := d.payee.FindStringSubmatch(body); m != nil {
		payee = strings.TrimSpace(m[1])
	}

	return Extraction{Amount: amount, Payee: payee}, true
}
