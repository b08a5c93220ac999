package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// PersistFunc saves obj, a pointer to the type it was registered for.
type PersistFunc func(ctx context.Context, obj any) error

// PersistenceService holds the create and update methods a builder calls
// after objects are constructed or mutated.
type PersistenceService interface {
	Create(ctx context.Context, obj any) error
	Update(ctx context.Context, obj any) error
	SetPersistenceCreateMethod(t reflect.Type, fn PersistFunc)
	SetPersistenceUpdateMethod(t reflect.Type, fn PersistFunc)
}

// PersistenceOption configures the service returned by NewPersistenceService.
type PersistenceOption func(*persistenceService)

// WithPersistenceLogger logs every create/update call at Debug level.
func WithPersistenceLogger(logger *slog.Logger) PersistenceOption {
	return func(p *persistenceService) {
		p.logger = logger
	}
}

// persistenceService keeps methods in memory, keyed by the pointed-to type.
type persistenceService struct {
	creates map[reflect.Type]PersistFunc
	updates map[reflect.Type]PersistFunc
	logger  *slog.Logger
}

var _ PersistenceService = (*persistenceService)(nil)

// NewPersistenceService returns an in-memory PersistenceService. Registering
// a method for a type that already has one replaces it.
func NewPersistenceService(opts ...PersistenceOption) PersistenceService {
	p := &persistenceService{
		creates: make(map[reflect.Type]PersistFunc),
		updates: make(map[reflect.Type]PersistFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *persistenceService) SetPersistenceCreateMethod(t reflect.Type, fn PersistFunc) {
	p.creates[t] = fn
}

func (p *persistenceService) SetPersistenceUpdateMethod(t reflect.Type, fn PersistFunc) {
	p.updates[t] = fn
}

func (p *persistenceService) Create(ctx context.Context, obj any) error {
	return p.call(ctx, "create", p.creates, obj)
}

func (p *persistenceService) Update(ctx context.Context, obj any) error {
	return p.call(ctx, "update", p.updates, obj)
}

func (p *persistenceService) call(ctx context.Context, op string, methods map[reflect.Type]PersistFunc, obj any) error {
	t := reflect.TypeOf(obj)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fn, ok := methods[t]
	if !ok {
		return fmt.Errorf("%w: %s for %v", ErrNoPersistenceMethod, op, t)
	}

	err := fn(ctx, obj)
	if p.logger != nil {
		attrs := []slog.Attr{slog.String("operation", op), slog.String("type", t.String())}
		if err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "persist failed", append(attrs, slog.String("error", err.Error()))...)
		} else {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "persisted", attrs...)
		}
	}
	return err
}

// SetCreatePersistenceMethod registers fn as the create method for T on the
// settings' persistence service.
func SetCreatePersistenceMethod[T any](s *Settings, fn func(context.Context, *T) error) {
	s.persistence.SetPersistenceCreateMethod(reflect.TypeFor[T](), persistFunc(fn))
}

// SetUpdatePersistenceMethod registers fn as the update method for T on the
// settings' persistence service.
func SetUpdatePersistenceMethod[T any](s *Settings, fn func(context.Context, *T) error) {
	s.persistence.SetPersistenceUpdateMethod(reflect.TypeFor[T](), persistFunc(fn))
}

func persistFunc[T any](fn func(context.Context, *T) error) PersistFunc {
	return func(ctx context.Context, obj any) error {
		m, ok := obj.(*T)
		if !ok {
			return fmt.Errorf("fixture: persistence method for %s got %T", reflect.TypeFor[T](), obj)
		}
		return fn(ctx, m)
	}
}

// Persist runs the create method for each obj, stopping at the first error.
func Persist[T any](ctx context.Context, s *Settings, objs ...*T) error {
	if s.persistence == nil {
		return fmt.Errorf("%w: no persistence service", ErrNoPersistenceMethod)
	}
	for _, obj := range objs {
		if err := s.persistence.Create(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

// PersistUpdates runs the update method for each obj, stopping at the first error.
func PersistUpdates[T any](ctx context.Context, s *Settings, objs ...*T) error {
	if s.persistence == nil {
		return fmt.Errorf("%w: no persistence service", ErrNoPersistenceMethod)
	}
	for _, obj := range objs {
		if err := s.persistence.Update(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}
