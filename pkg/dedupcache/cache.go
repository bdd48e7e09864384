// Package dedupcache provides a best-effort cache of recently processed
// message ids, sitting in front of the database dedup checks. A hit means the
// id was definitely seen; a miss means nothing and callers must still consult
// storage.
package dedupcache

import (
	"context"
	"time"
)

type Cache interface {
	// Seen reports whether the key was marked within the TTL window.
	Seen(ctx context.Context, key string) bool
	// Mark records the key for the given TTL. Failures are swallowed; the
	// cache is advisory only.
	Mark(ctx context.Context, key string, ttl time.Duration)
	Close()
}
