// SPDX-License-Identifier: MIT
//
// Package transport publishes feature data to external consumers.
// Transports are attached to the analyzer as sinks and must be
// thread-safe; Send runs on the analysis goroutine and must not block.
package transport

// Transport sends processed feature data to an external consumer.
type Transport interface {
	Send(data any) error
	Close() error
}
