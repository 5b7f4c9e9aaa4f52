// Package ratelimit provides the per-key sliding-window request quota used
// by the admission gate.
//
// # Sliding Window
//
// A Ledger records the timestamp of every admitted request per key. On each
// Admit call the timestamps that have left the trailing window are pruned,
// and the request is rejected when the number of remaining timestamps has
// already reached the configured maximum:
//
//	ledger := ratelimit.NewLedger(time.Minute, 10)
//	if err := ledger.Admit(key); err != nil {
//	    var rle *ratelimit.RateLimitError
//	    if errors.As(err, &rle) {
//	        // reply 429, Retry-After: rle.RetryAfter
//	    }
//	}
//
// Rejected attempts are not recorded, so a client that keeps retrying while
// limited does not extend its own penalty.
//
// # Thread Safety
//
// Each key owns its own mutex. The read-prune-compare-append sequence is
// atomic for a key, and requests on different keys never contend beyond the
// brief lookup of the key's window.
//
// # Lifecycle
//
// The ledger lives in memory for the life of the process and is never
// persisted. It is constructed once at startup and passed to the components
// that need it.
package ratelimit
