package engine

import (
	"context"

	"github.com/fairpay/upiwatch/internal/model"
	"github.com/fairpay/upiwatch/internal/source"
)

// Store is the durable fallback for detections that no live listener took.
type Store interface {
	AppendPending(ctx context.Context, record model.PaymentRecord) error
}

// Gate mirrors the platform's "may we capture messages" permission check.
// Capture never starts until it reports granted.
type Gate interface {
	Granted(ctx context.Context) bool
}

// Feed is a source of inbound message deliveries driving the watch loop.
type Feed interface {
	Run(ctx context.Context, handle source.Handler) error
}
