package core

import "context"

type addressKey struct{}

// WithAddress binds an authenticated address to ctx
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey{}, address)
}

// AddressFromContext returns the address bound by the session guard, if any
func AddressFromContext(ctx context.Context) (string, bool) {
	address, ok := ctx.Value(addressKey{}).(string)
	return address, ok && address != ""
}
