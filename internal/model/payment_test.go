package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinFragments(t *testing.T) {
	tests := []struct {
		name       string
		wantBody   string
		wantSender string
		fragments  []Fragment
	}{
		{
			name: "single fragment",
			fragments: []Fragment{
				{Address: "HDFCBK", Body: "INR 250 debited"},
			},
			wantSender: "HDFCBK",
			wantBody:   "INR 250 debited",
		},
		{
			name: "multipart joins in delivery order",
			fragments: []Fragment{
				{Address: "HDFCBK", Body: "You have paid Rs. "},
				{Address: "HDFCBK", Body: "1,500 to Ramesh Kumar"},
			},
			wantSender: "HDFCBK",
			wantBody:   "You have paid Rs. 1,500 to Ramesh Kumar",
		},
		{
			name:       "no fragments",
			fragments:  nil,
			wantSender: "",
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := JoinFragments(tt.fragments)
			assert.Equal(t, tt.wantSender, msg.Sender)
			assert.Equal(t, tt.wantBody, msg.Body)
		})
	}
}

func TestNewPaymentRecord(t *testing.T) {
	now := time.Now()
	amount := decimal.RequireFromString("99.50")

	rec := NewPaymentRecord(amount, "Chai Point", "debited Rs. 99.50 at Chai Point", now)

	require.NotEmpty(t, rec.ID)
	assert.True(t, rec.Amount.Equal(amount))
	assert.Equal(t, "Chai Point", rec.Payee)
	assert.Equal(t, now, rec.DetectedAt)

	// IDs are unique per record.
	other := NewPaymentRecord(amount, "", "x", now)
	assert.NotEqual(t, rec.ID, other.ID)
}
