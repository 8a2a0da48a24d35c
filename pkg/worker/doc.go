// Package worker implements a generic, optionally Prometheus-instrumented
// worker pool. Work items of any type are submitted non-blocking; a full
// queue drops the item and reports ErrQueueFull.
//
// The message router runs its frame forwarding through a pool. With one
// worker the pool preserves submission order, which the router relies on
// for per-connection event ordering.
package worker
