// Package cache provides fingerprint caching and webhook delivery
// deduplication backed by Redis, with an in-memory variant for
// single-instance deployments and testing.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FingerprintCache stores the last resolved content fingerprint per record
// so change detection can skip records whose payload has not moved since
// the previous pass without a database round trip.
type FingerprintCache interface {
	// Get returns the cached fingerprint for a record, or "" when none
	// is cached. A cache miss is not an error.
	Get(ctx context.Context, tenantID, recordID uuid.UUID) (string, error)

	// Set stores the fingerprint computed by the latest resolution pass.
	Set(ctx context.Context, tenantID, recordID uuid.UUID, fingerprint string) error

	// Invalidate drops the cached fingerprint, forcing the next pass to
	// treat the record as changed.
	Invalidate(ctx context.Context, tenantID, recordID uuid.UUID) error
}

// DeliveryGuard deduplicates inbound webhook deliveries. Source platforms
// re-deliver webhooks on timeout, so the same delivery ID can arrive more
// than once.
type DeliveryGuard interface {
	// MarkDelivery marks a delivery as seen with a TTL. It returns true if
	// the delivery was newly marked, false if it was already seen.
	MarkDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
}

// Store combines both cache concerns behind a single closable handle.
type Store interface {
	FingerprintCache
	DeliveryGuard
	Close() error
}

func fingerprintKey(prefix string, tenantID, recordID uuid.UUID) string {
	return fmt.Sprintf("%sfp:%s:%s", prefix, tenantID, recordID)
}

func deliveryKey(prefix, deliveryID string) string {
	return prefix + "delivery:" + deliveryID
}
