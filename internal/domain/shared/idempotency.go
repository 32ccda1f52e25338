package shared

import (
	"context"
	"time"
)

// ClaimStore records short-lived keys so that a unit of work is done by at
// most one process instance. A claim expires after its TTL.
type ClaimStore interface {
	// Claim takes key for ttl. Returns true if this call took the claim,
	// false if an unexpired claim already existed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsClaimed reports whether an unexpired claim on key exists
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}
