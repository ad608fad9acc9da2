package authforge

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Audit events emitted
// while handling the request carry it as the client_ip metadata field.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
