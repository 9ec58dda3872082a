package httpx

import "context"

type ctxKey string

const ctxKeyAccountID ctxKey = "account_id"

// WithAccountID records the authenticated account id on ctx.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyAccountID, id)
}

// AccountIDFromContext returns the id stored by WithAccountID.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyAccountID).(string)
	return id, ok && id != ""
}
