package component

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	// LogLevelDebug represents debug-level logs
	LogLevelDebug LogLevel = "DEBUG"
	// LogLevelInfo represents informational logs
	LogLevelInfo LogLevel = "INFO"
	// LogLevelWarn represents warning logs
	LogLevelWarn LogLevel = "WARN"
	// LogLevelError represents error logs
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a structured log entry published to NATS so remote operators
// can watch a node's components live.
type LogEntry struct {
	Timestamp string   `json:"timestamp"` // RFC3339 format
	Level     LogLevel `json:"level"`
	Component string   `json:"component"`
	Node      string   `json:"node"`
	Message   string   `json:"message"`
	Detail    string   `json:"detail,omitempty"` // error details
}

// Logger provides structured logging for components. It wraps a standard
// slog.Logger for local logging and, when a NATS connection is configured,
// also publishes entries for remote consumption. Without a connection it
// degrades to plain slog.
type Logger struct {
	componentName string
	node          string
	nc            *nats.Conn
	logger        *slog.Logger
	enabled       bool // whether NATS publishing is enabled
}

// NewLogger creates a component logger. nc may be nil to disable remote
// streaming.
func NewLogger(componentName, node string, nc *nats.Conn, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		componentName: componentName,
		node:          node,
		nc:            nc,
		logger:        logger,
		enabled:       nc != nil,
	}
}

// Debug logs a debug-level message
func (cl *Logger) Debug(msg string) {
	cl.publish(context.Background(), LogLevelDebug, msg, "")
	cl.logger.Debug(msg, "component", cl.componentName)
}

// Info logs an info-level message
func (cl *Logger) Info(msg string) {
	cl.publish(context.Background(), LogLevelInfo, msg, "")
	cl.logger.Info(msg, "component", cl.componentName)
}

// Warn logs a warning-level message
func (cl *Logger) Warn(msg string) {
	cl.publish(context.Background(), LogLevelWarn, msg, "")
	cl.logger.Warn(msg, "component", cl.componentName)
}

// Error logs an error-level message with optional error details
func (cl *Logger) Error(msg string, err error) {
	detail := ""
	if err != nil {
		detail = fmt.Sprintf("%+v", err)
	}
	cl.publish(context.Background(), LogLevelError, msg, detail)
	cl.logger.Error(msg, "component", cl.componentName, "error", err)
}

// publish sends a log entry to NATS on subject "logs.{node}.{component}".
// Failures fall back to local logging and never propagate.
func (cl *Logger) publish(ctx context.Context, level LogLevel, message, detail string) {
	if !cl.enabled {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Component: cl.componentName,
		Node:      cl.node,
		Message:   message,
		Detail:    detail,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cl.logger.Error("failed to marshal log entry", "error", err)
		return
	}

	// The connection may have been torn down after the enabled check.
	nc := cl.nc
	if nc == nil {
		return
	}

	subject := fmt.Sprintf("logs.%s.%s", cl.node, cl.componentName)
	if err := nc.Publish(subject, data); err != nil {
		cl.logger.Error("failed to publish log to NATS", "error", err, "subject", subject)
	}
}
