package tenancy

import "context"

type ctxKey string

const creatorKey ctxKey = "creator.creator_id"

// WithCreatorID stores the authenticated creator id in context.
func WithCreatorID(ctx context.Context, creatorID string) context.Context {
	return context.WithValue(ctx, creatorKey, creatorID)
}

// CreatorIDFromContext extracts the creator id if present.
func CreatorIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(creatorKey)
	if val == nil {
		return "", false
	}
	creatorID, ok := val.(string)
	return creatorID, ok && creatorID != ""
}
