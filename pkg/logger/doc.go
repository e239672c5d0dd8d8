// Package logger provides structured logging with configurable log levels.
// It wraps log/slog, emitting JSON in production and text elsewhere.
package logger
