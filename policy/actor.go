package policy

import "context"

type actorKey struct{}

// WithActor annotates ctx with the account performing the operation.
// Role guards read it back; an absent actor never satisfies a role
// check.
func WithActor(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, actorKey{}, account)
}

// ActorFromContext returns the acting account recorded by WithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(actorKey{}).(string)
	if !ok || account == "" {
		return "", false
	}
	return account, true
}
