// Package logger provides slog helpers shared across the notification
// pipeline: a factory with sane defaults and typed attribute constructors
// so log keys stay consistent between packages.
package logger
