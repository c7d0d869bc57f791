// SPDX-License-Identifier: MIT
package transport

import (
	applog "pulseviz/internal/log"
)

// LoggingTransport logs each payload at debug level. Used as a
// diagnostic sink when no network transport is configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the payload; it never fails.
func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("Transport: %+v", data)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
