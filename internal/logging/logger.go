// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zap backends.
package logging

import "context"

// Logger is what every component of the device core and the development
// server logs through. Args are key-value pairs:
//
//	log.Info(ctx, "sync batch accepted", "items", n, "flipped", flipped)
//
// Pairs attached to ctx with ContextWith come before args in the entry.
type Logger interface {
	// Debug is off unless log_level is debug.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for failures the core recovers from on its own, such as a
	// remote error that falls back to the local triage result.
	Warn(ctx context.Context, msg string, args ...any)
	// Error is for failures that leave local state needing attention, such as
	// a record the remote accepted that could not be marked synced.
	Error(ctx context.Context, msg string, args ...any)
	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
