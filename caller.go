package provenance

import (
	"context"

	"github.com/xraph/provenance/id"
)

type callerKey struct{}

// WithCaller returns a context that identifies account as the caller of
// engine operations.
func WithCaller(ctx context.Context, account id.ID) context.Context {
	return context.WithValue(ctx, callerKey{}, account)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (id.ID, bool) {
	account, ok := ctx.Value(callerKey{}).(id.ID)
	if !ok || account.IsNil() {
		return id.Nil, false
	}
	return account, true
}

func callerOf(ctx context.Context) (id.ID, error) {
	account, ok := CallerFrom(ctx)
	if !ok {
		return id.Nil, ErrUnauthorized
	}
	return account, nil
}
