// Package httputil provides HTTP utilities for gem metadata clients.
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures.
// Callers mark an error as transient by wrapping it in [RetryableError]
// (network errors, 5xx responses); any other error stops immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Backoff is exponential without jitter, driven by
// github.com/cenkalti/backoff/v4, and stops early when ctx is cancelled.
//
// Default settings:
//
//   - Attempts: 3
//   - Initial delay: 1 second, doubling each retry
package httputil
