package domain

import "context"

type bearerKey struct{}

// ContextWithBearer stores the caller's raw bearer token so outbound
// inter-service calls can forward the original Authorization header.
func ContextWithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the caller's bearer token, or "" when the request
// arrived unauthenticated (public path).
func BearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}
