package common

import (
	"context"
)

type contextKey string

// ContextKeyAddress holds the verified address of a signed request
const ContextKeyAddress contextKey = "address"

// GetContextAddress returns the ContextKeyAddress from the context
func GetContextAddress(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyAddress).(string)
	return addr, ok
}

// WithContextAddress stores a verified address in the context
func WithContextAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ContextKeyAddress, addr)
}
