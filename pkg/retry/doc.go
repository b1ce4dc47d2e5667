// Package retry provides exponential backoff retry for transient failures.
//
// # Overview
//
// The viewer's only remote dependency is the decode service, reached over a
// message bus that can drop requests during reconnects. This package wraps
// those round trips so a brief transport hiccup does not surface as a
// failed scroll.
//
// # Core Functions
//
//   - Do: execute a function with retry and exponential backoff
//   - DoWithResult: same, returning the function's result
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (page fetches)
//   - Quick(): 10 attempts, 50ms-1s delay (startup connects)
//
// # Usage
//
//	result, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*nats.Msg, error) {
//	    return conn.RequestWithContext(ctx, subject, payload)
//	})
//
// Errors that retrying cannot fix (malformed requests, closed sessions)
// should be wrapped with NonRetryable so they surface immediately.
package retry
