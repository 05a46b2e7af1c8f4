// Package logger configures log/slog for nskv binaries.
//
//   - logger.go: handler construction and the shared level
//   - context.go: loggers and connection IDs carried in a context
//   - redact.go: masking of passwords, keys and credentials in store URLs
package logger
