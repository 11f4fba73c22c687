package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyStoreSlug  contextKey = "store_slug"
	ContextKeySessionID  contextKey = "session_id"
	ContextKeyCredential contextKey = "credential"
)

// StoreSlugFromContext returns the slug of the store host the request arrived on.
func StoreSlugFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyStoreSlug).(string)
	return v, ok && v != ""
}

func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeySessionID).(uuid.UUID)
	return v, ok
}

// CredentialFromContext returns the merchant bearer token forwarded to the backend.
func CredentialFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyCredential).(string)
	return v
}
