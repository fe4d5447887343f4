package service

import (
	"context"
	"errors"
	"time"
)

// ErrStoreTimeout signals that a store round trip exceeded its bound.
// Reads are safe to retry; writes must re-read status first (the
// conditional transition guard makes a blind retry harmless anyway).
var ErrStoreTimeout = errors.New("store operation timed out")

const defaultOpTimeout = 5 * time.Second

// withOpTimeout bounds a single store round trip.
func withOpTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultOpTimeout
	}
	return context.WithTimeout(ctx, d)
}

// mapStoreErr converts a context deadline expiry into the service-level
// timeout error so callers can distinguish it from data errors.
func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStoreTimeout
	}
	return err
}
