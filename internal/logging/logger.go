// Package logging defines the minimal structured-logging interface the
// services depend on, so they can be tested without a real logger.
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are key-value
// pairs.
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// Nop discards everything; used as the default in tests.
type Nop struct{}

func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
