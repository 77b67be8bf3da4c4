package auth

import (
	"context"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
)

type ctxKey int

const principalKey ctxKey = iota

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok
}
