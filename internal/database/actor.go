package database

import "context"

// SystemActor is recorded in the audit log when no user is attached to the context.
const SystemActor = "sistema"

type actorKey struct{}

// WithActor attaches the name recorded in audit log entries.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFrom returns the actor attached to ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok && name != "" {
		return name
	}
	return SystemActor
}
