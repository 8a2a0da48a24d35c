// Package errors defines the error handling conventions used across
// ServiceBus: sentinel error variables for well-known conditions, a
// ClassifiedError wrapper that tags errors as transient, invalid, or fatal,
// and Wrap helpers that produce "component.method: action failed" messages.
//
// Peer-visible failures (busy rejections, canceled requests, invalidated
// attributes) are NOT errors in this package's sense; they travel as result
// codes on response events (see the types package). This package covers
// local failures: duplicate registrations, bad sessions, socket errors,
// configuration problems.
package errors
