// Package retry implements exponential backoff with jitter for transient
// failures. It is used by the errors package retry configuration and by the
// router when it binds its listening socket.
//
// Basic usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return dialRouter(addr)
//	})
//
// Errors wrapped with retry.NonRetryable abort the loop immediately.
package retry
