package httpx

import (
	"context"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity attaches an authenticated identity to ctx.
func WithIdentity(ctx context.Context, id jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the identity placed by AuthnMiddleware.
func IdentityFromContext(ctx context.Context) (jwtx.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(jwtx.Identity)
	return id, ok
}
