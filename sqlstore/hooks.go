package sqlstore

import (
	"context"
)

// Models may implement these to run code around their INSERT or UPDATE.
// An error from a Before hook aborts the statement.
type (
	BeforeCreateInterface interface {
		BeforeCreate(context.Context) error
	}
	AfterCreateInterface interface {
		AfterCreate(context.Context) error
	}
	BeforeUpdateInterface interface {
		BeforeUpdate(context.Context) error
	}
	AfterUpdateInterface interface {
		AfterUpdate(context.Context) error
	}
)

// trigger calls fn if model implements H.
func trigger[H any](model any, fn func(H) error) error {
	if h, ok := model.(H); ok {
		return fn(h)
	}
	return nil
}

func triggerBeforeCreate(ctx context.Context, model any) error {
	return trigger(model, func(h BeforeCreateInterface) error { return h.BeforeCreate(ctx) })
}

func triggerAfterCreate(ctx context.Context, model any) error {
	return trigger(model, func(h AfterCreateInterface) error { return h.AfterCreate(ctx) })
}

func triggerBeforeUpdate(ctx context.Context, model any) error {
	return trigger(model, func(h BeforeUpdateInterface) error { return h.BeforeUpdate(ctx) })
}

func triggerAfterUpdate(ctx context.Context, model any) error {
	return trigger(model, func(h AfterUpdateInterface) error { return h.AfterUpdate(ctx) })
}
