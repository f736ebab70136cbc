package broker

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying b.
func NewContext(ctx context.Context, b *Broker) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the broker stored by NewContext, or ErrNotInstalled.
func FromContext(ctx context.Context) (*Broker, error) {
	b, ok := ctx.Value(ctxKey{}).(*Broker)
	if !ok || b == nil {
		return nil, ErrNotInstalled
	}

	return b, nil
}
