package common

import "context"

type userIDKey struct{}

// WithUserID tags the context with the authenticated shopper id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID reports the authenticated shopper id when the request carried a
// valid access token. Anonymous cart traffic has none.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
