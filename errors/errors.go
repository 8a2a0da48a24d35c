// Package errors provides standardized error handling patterns for ServiceBus.
// It includes error classification, standard error variables, and helper functions
// for consistent error wrapping and classification across the framework.
package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/c360/servicebus/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Stub and dispatch errors
	ErrDuplicateStub  = errors.New("stub address already registered")
	ErrStubNotFound   = errors.New("stub not found")
	ErrSourceBusy     = errors.New("request source busy")
	ErrInvalidSession = errors.New("invalid session id")
	ErrNotDispatching = errors.New("dispatcher not running")

	// Connection and networking errors
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrQueueFull         = errors.New("accept queue full")
	ErrCookieUnknown     = errors.New("unknown client cookie")

	// Data and wire errors
	ErrInvalidData   = errors.New("invalid data format")
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
	ErrParsingFailed = errors.New("parsing failed")

	// Identity errors
	ErrClassCollision = errors.New("class magic collision")
	ErrUnknownClass   = errors.New("unknown class id")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Resource errors
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrShuttingDown      = errors.New("component is shutting down")
)

// Classification tables. An error's class is decided by its sentinel, not
// by scanning message text: every failure the framework produces flows
// through one of the sentinels above, and socket-level failures are
// recognized by their net/syscall types.
var (
	// transientSentinels cover conditions that clear on their own: a peer
	// reconnects, a queue drains, a dispatcher comes back up.
	transientSentinels = []error{
		ErrSourceBusy,
		ErrNotDispatching,
		ErrNoConnection,
		ErrConnectionLost,
		ErrConnectionTimeout,
		ErrQueueFull,
		ErrShuttingDown,
		context.DeadlineExceeded,
		context.Canceled,
	}

	// invalidSentinels cover malformed input: bad frames, unknown wire
	// classes, consumed sessions, duplicate registrations.
	invalidSentinels = []error{
		ErrInvalidData,
		ErrFrameTooLarge,
		ErrParsingFailed,
		ErrInvalidSession,
		ErrUnknownClass,
		ErrDuplicateStub,
	}

	// fatalSentinels cover conditions no retry can repair.
	fatalSentinels = []error{
		ErrInvalidConfig,
		ErrMissingConfig,
		ErrClassCollision,
		ErrResourceExhausted,
	}
)

func matchesAny(err error, sentinels []error) bool {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// isSocketFailure recognizes transport-level errors surfaced by the net
// package: timeouts, resets, refused or aborted connections, and streams
// cut mid-frame. All of these mean "the peer is gone or unreachable right
// now", which the router treats as grounds for eviction and retry.
func isSocketFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf resolves an error's class: an explicit classification wins,
// otherwise the sentinel tables and socket checks decide, and unknown
// errors default to transient so callers err on the side of retrying.
func classOf(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case matchesAny(err, fatalSentinels):
		return ErrorFatal
	case matchesAny(err, invalidSentinels):
		return ErrorInvalid
	case matchesAny(err, transientSentinels), isSocketFailure(err):
		return ErrorTransient
	default:
		return ErrorTransient
	}
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	return err != nil && classOf(err) == ErrorTransient
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	return err != nil && classOf(err) == ErrorFatal
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	return err != nil && classOf(err) == ErrorInvalid
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}
	return classOf(err)
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// wrapClassified wraps with context and pins the class, overriding whatever
// the sentinel tables would decide.
func wrapClassified(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapClassified(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapClassified(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapClassified(ErrorInvalid, err, component, method, action)
}

// Retryable reports whether err is worth feeding back into a retry loop.
func Retryable(err error) bool {
	return IsTransient(err)
}

// MarkForRetry adapts err for retry.Do: transient errors pass through so
// the backoff continues, anything else is marked non-retryable so the loop
// stops immediately instead of burning its remaining attempts.
func MarkForRetry(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return retry.NonRetryable(err)
}

// ConnectBackoff returns the backoff policy the router uses when binding its
// listening socket: fast first attempts for a port still draining in
// TIME_WAIT, with delays capped at MaxDelay.
func ConnectBackoff() retry.Config {
	return retry.Config{
		MaxAttempts:  8,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}
