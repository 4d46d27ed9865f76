// Package client provides the TLQ (Tiny Little Queue) client: a typed
// facade over a minimal line-based request protocol spoken directly on a
// TCP connection, with automatic retry and exponential backoff for
// transient failures.
//
// Transport
//   - Each attempt opens its own connection, writes a hand-built request
//     frame, and reads the response until the server closes the
//     connection. There is no pooling, multiplexing, or TLS.
//   - Responses are split at the blank-line separator; a status code of
//     400 or above maps to a server error carrying the body text.
//
// Retries
//   - Every operation except HealthCheck routes its round trip through
//     the retry engine, bounded by Config.MaxRetries.
//   - Only transport failures (connection, timeout, io) are retried;
//     validation, server, and decode failures surface immediately.
//   - Backoff is RetryDelay * 2^attempt with no jitter and no cap.
//
// Validation
//   - Oversized bodies (> 64KiB), zero counts, and empty ID lists are
//     rejected before any network activity.
package client
