package logger

import "context"

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext. When ctx carries
// none it returns def, or a nop logger if def is nil.
func FromContext(ctx context.Context, def Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	if def == nil {
		return NewNop()
	}
	return def
}
