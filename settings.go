// Package fixture holds the configuration of a test-data object builder.
//
// Settings decides how generated objects get their properties populated:
// which PropertyNamer applies to a type, which properties are exempt from
// naming, which nullable (pointer) properties stay nil, and which
// persistence methods run once objects are built or changed.
//
// A Settings value is plain mutable state. Configure it during test setup
// and pass it by reference to whatever builds objects; it does no locking
// of its own, so do not mutate it while other goroutines read it.
//
// Usage example:
//
//	settings := fixture.NewSettings(fixture.WithLogger(logger))
//
//	// Never name User.ID
//	_ = fixture.DisablePropertyNamingForField(settings, func(u *User) *int64 { return &u.ID })
//
//	// Leave every *time.Time nil
//	settings.BuildNullableTypeAsNull(reflect.TypeFor[*time.Time]())
//
//	users := []*User{{}, {}, {}}
//	namer := fixture.PropertyNamerFor[User](settings)
//	_ = namer.SetValuesOfAll(users[0], users[1], users[2])
package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
)

// Settings is the mutable configuration consumed by an object builder.
type Settings struct {
	// AutoNameProperties controls whether generated objects get their
	// properties populated at all.
	AutoNameProperties bool

	persistence             PersistenceService
	propertyNamers          map[reflect.Type]PropertyNamer
	defaultNamer            PropertyNamer
	disabledProperties      []PropertyRef
	hasDisabledProperties   bool
	buildAllNullablesAsNull bool
	nullableTypesAsNull     []reflect.Type

	logger *slog.Logger
}

// Option configures Settings. Options run after the defaults are applied.
type Option func(*Settings)

// WithLogger sets the logger used to trace configuration changes.
// The logger survives ResetToDefaults.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) {
		s.logger = logger
		if ps, ok := s.persistence.(*persistenceService); ok {
			ps.logger = logger
		}
	}
}

// WithDefaultPropertyNamer replaces the default SequentialNamer.
func WithDefaultPropertyNamer(namer PropertyNamer) Option {
	return func(s *Settings) {
		s.defaultNamer = namer
	}
}

// WithPersistenceService replaces the default in-memory persistence service.
func WithPersistenceService(service PersistenceService) Option {
	return func(s *Settings) {
		s.persistence = service
	}
}

// NewSettings returns Settings initialised to defaults, then applies opts.
func NewSettings(opts ...Option) *Settings {
	s := &Settings{}
	s.ResetToDefaults()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResetToDefaults restores every setting to its default: a SequentialNamer
// as default namer, a fresh in-memory persistence service, no per-type
// namers, no disabled properties, no nullable rules and AutoNameProperties
// switched on. Calling it repeatedly has no further effect.
func (s *Settings) ResetToDefaults() {
	s.SetDefaultPropertyNamer(NewSequentialNamer(s))
	s.persistence = NewPersistenceService(WithPersistenceLogger(s.logger))
	s.AutoNameProperties = true
	s.propertyNamers = make(map[reflect.Type]PropertyNamer)
	s.hasDisabledProperties = false
	s.buildAllNullablesAsNull = false
	s.nullableTypesAsNull = nil
	s.disabledProperties = nil

	s.debug("settings reset to defaults")
}

// SetDefaultPropertyNamer replaces the namer used for types without an
// override. The value is not validated; passing nil is the caller's problem.
func (s *Settings) SetDefaultPropertyNamer(namer PropertyNamer) {
	s.defaultNamer = namer
}

// DefaultPropertyNamer returns the namer used for types without an override.
func (s *Settings) DefaultPropertyNamer() PropertyNamer {
	return s.defaultNamer
}

// SetPersistenceService replaces the persistence service wholesale.
func (s *Settings) SetPersistenceService(service PersistenceService) {
	s.persistence = service
}

// PersistenceService returns the current persistence service.
func (s *Settings) PersistenceService() PersistenceService {
	return s.persistence
}

// SetPropertyNamerFor registers namer for objects of type T.
// A second registration for the same T fails with ErrDuplicateConfiguration
// and keeps the first one.
func SetPropertyNamerFor[T any](s *Settings, namer PropertyNamer) error {
	return s.SetPropertyNamerForType(reflect.TypeFor[T](), namer)
}

// SetPropertyNamerForType is the reflect.Type form of SetPropertyNamerFor.
func (s *Settings) SetPropertyNamerForType(t reflect.Type, namer PropertyNamer) error {
	if _, ok := s.propertyNamers[t]; ok {
		s.warn("rejected duplicate property namer", slog.String("type", t.String()))
		return fmt.Errorf("%w: property namer for %s already set", ErrDuplicateConfiguration, t)
	}
	s.propertyNamers[t] = namer
	s.debug("property namer registered", slog.String("type", t.String()))
	return nil
}

// PropertyNamerFor returns the namer registered for T, or the default namer.
func PropertyNamerFor[T any](s *Settings) PropertyNamer {
	return s.PropertyNamerForType(reflect.TypeFor[T]())
}

// PropertyNamerForType is the reflect.Type form of PropertyNamerFor.
func (s *Settings) PropertyNamerForType(t reflect.Type) PropertyNamer {
	if namer, ok := s.propertyNamers[t]; ok {
		return namer
	}
	return s.defaultNamer
}

// DisablePropertyNamingFor exempts ref from property naming.
func (s *Settings) DisablePropertyNamingFor(ref PropertyRef) {
	s.hasDisabledProperties = true
	s.disabledProperties = append(s.disabledProperties, ref)
	s.debug("property naming disabled", slog.String("property", ref.String()))
}

// DisablePropertyNamingForField exempts the field addressed by accessor.
// See PropertyOf for what accessor may return.
func DisablePropertyNamingForField[T, V any](s *Settings, accessor func(*T) *V) error {
	ref, err := PropertyOf(accessor)
	if err != nil {
		return err
	}
	s.DisablePropertyNamingFor(ref)
	return nil
}

// HasDisabledProperties reports whether any property was exempted since the
// last reset.
func (s *Settings) HasDisabledProperties() bool {
	return s.hasDisabledProperties
}

// ShouldIgnoreProperty reports whether ref is exempt from naming.
func (s *Settings) ShouldIgnoreProperty(ref PropertyRef) bool {
	return slices.ContainsFunc(s.disabledProperties, func(disabled PropertyRef) bool {
		return disabled.Matches(ref)
	})
}

// BuildNullableTypeAsNull makes every property declared as t stay nil.
// t is the nullable type itself, e.g. reflect.TypeFor[*int]().
func (s *Settings) BuildNullableTypeAsNull(t reflect.Type) {
	s.nullableTypesAsNull = append(s.nullableTypesAsNull, t)
	s.debug("nullable type built as null", slog.String("type", t.String()))
}

// BuildNullableAsNull makes every *T property stay nil.
func BuildNullableAsNull[T any](s *Settings) {
	s.BuildNullableTypeAsNull(reflect.TypeFor[*T]())
}

// ShouldBuildNullableTypeAsNull reports whether the declared type of ref was
// marked with BuildNullableTypeAsNull.
func (s *Settings) ShouldBuildNullableTypeAsNull(ref PropertyRef) bool {
	return ref.Type != nil && slices.Contains(s.nullableTypesAsNull, ref.Type)
}

// BuildAllNullablesAsNull switches the global "every nullable stays nil" override.
func (s *Settings) BuildAllNullablesAsNull(on bool) {
	s.buildAllNullablesAsNull = on
}

// IsBuildingAllNullablesAsNull reports the global nullable override.
func (s *Settings) IsBuildingAllNullablesAsNull() bool {
	return s.buildAllNullablesAsNull
}

func (s *Settings) debug(msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (s *Settings) warn(msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}
