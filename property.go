package fixture

import (
	"fmt"
	"reflect"
)

// PropertyRef identifies a struct field by the type that declares it and its name.
//
// DeclaringType is the struct that directly declares the field. For a field
// promoted from an embedded struct that is the embedded struct, not the outer
// one. DeclaringType may also be an interface type, in which case the ref
// stands for the field Name of every struct implementing that interface
// (see Matches).
//
// Type is the declared type of the field. It is nil for interface refs.
type PropertyRef struct {
	DeclaringType reflect.Type
	Name          string
	Type          reflect.Type
}

// String returns "pkg.Type.Field".
func (p PropertyRef) String() string {
	if p.DeclaringType == nil {
		return p.Name
	}
	return p.DeclaringType.String() + "." + p.Name
}

// IsZero reports whether p is the zero PropertyRef.
func (p PropertyRef) IsZero() bool {
	return p.DeclaringType == nil && p.Name == "" && p.Type == nil
}

// Matches reports whether candidate is covered by p.
//
// Names must be equal. When p is declared on an interface, candidate matches
// if its declaring type (or a pointer to it) implements that interface.
// Otherwise the declaring types must be identical.
func (p PropertyRef) Matches(candidate PropertyRef) bool {
	if p.Name != candidate.Name || p.DeclaringType == nil || candidate.DeclaringType == nil {
		return false
	}
	if p.DeclaringType.Kind() == reflect.Interface {
		return implements(candidate.DeclaringType, p.DeclaringType)
	}
	return p.DeclaringType == candidate.DeclaringType
}

func implements(t, iface reflect.Type) bool {
	if t.Implements(iface) {
		return true
	}
	return t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		reflect.PointerTo(t).Implements(iface)
}

// PropertyOf resolves the field addressed by accessor.
//
// The accessor is called with a pointer to a zero T and must return the
// address of one of its fields, e.g.
//
//	ref, err := fixture.PropertyOf(func(u *User) *string { return &u.Email })
//
// Fields of embedded and nested (non-pointer) structs are resolved to the
// struct that declares them. Anything else, including an accessor that
// panics or returns an address outside T, yields ErrInvalidPropertyExpression.
func PropertyOf[T, V any](accessor func(*T) *V) (ref PropertyRef, err error) {
	t := reflect.TypeFor[T]()
	if accessor == nil {
		return PropertyRef{}, fmt.Errorf("%w: nil accessor for %s", ErrInvalidPropertyExpression, t)
	}
	if t.Kind() != reflect.Struct {
		return PropertyRef{}, fmt.Errorf("%w: %s is not a struct", ErrInvalidPropertyExpression, t)
	}

	defer func() {
		if r := recover(); r != nil {
			ref = PropertyRef{}
			err = fmt.Errorf("%w: accessor for %s panicked: %v", ErrInvalidPropertyExpression, t, r)
		}
	}()

	base := new(T)
	ptr := accessor(base)
	if ptr == nil {
		return PropertyRef{}, fmt.Errorf("%w: accessor for %s returned nil", ErrInvalidPropertyExpression, t)
	}

	start := reflect.ValueOf(base).Pointer()
	addr := reflect.ValueOf(ptr).Pointer()
	if addr < start || addr > start+t.Size() {
		return PropertyRef{}, fmt.Errorf("%w: accessor does not address a field of %s", ErrInvalidPropertyExpression, t)
	}

	ref, ok := fieldAt(t, addr-start, reflect.TypeFor[V]())
	if !ok {
		return PropertyRef{}, fmt.Errorf("%w: accessor does not address a field of %s", ErrInvalidPropertyExpression, t)
	}
	return ref, nil
}

// fieldAt finds the field of struct t at offset whose type is vt,
// descending into struct-typed fields.
func fieldAt(t reflect.Type, offset uintptr, vt reflect.Type) (PropertyRef, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		end := f.Offset + f.Type.Size()
		if offset < f.Offset || offset > end || (offset == end && f.Type.Size() > 0) {
			continue
		}
		if offset == f.Offset && f.Type == vt {
			return PropertyRef{DeclaringType: t, Name: f.Name, Type: f.Type}, true
		}
		if f.Type.Kind() == reflect.Struct {
			if ref, ok := fieldAt(f.Type, offset-f.Offset, vt); ok {
				return ref, true
			}
		}
	}
	return PropertyRef{}, false
}

// PropertyNamed looks up a field of struct T by name, following Go's
// promotion rules for embedded structs.
func PropertyNamed[T any](name string) (PropertyRef, error) {
	return propertyNamed(reflect.TypeFor[T](), name)
}

// MustPropertyNamed is like PropertyNamed but panics on error.
// It is meant for package-level tables such as the ones propgen writes.
func MustPropertyNamed[T any](name string) PropertyRef {
	ref, err := PropertyNamed[T](name)
	if err != nil {
		panic(err)
	}
	return ref
}

func propertyNamed(t reflect.Type, name string) (PropertyRef, error) {
	if t.Kind() != reflect.Struct {
		return PropertyRef{}, fmt.Errorf("%w: %s is not a struct", ErrUnknownProperty, t)
	}
	f, ok := t.FieldByName(name)
	if !ok {
		return PropertyRef{}, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, t, name)
	}

	declaring := t
	for _, i := range f.Index[:len(f.Index)-1] {
		declaring = declaring.Field(i).Type
		if declaring.Kind() == reflect.Pointer {
			declaring = declaring.Elem()
		}
	}
	return PropertyRef{DeclaringType: declaring, Name: f.Name, Type: f.Type}, nil
}

// InterfaceProperty returns a ref for field name on every struct implementing I.
// I must be an interface type.
func InterfaceProperty[I any](name string) (PropertyRef, error) {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		return PropertyRef{}, fmt.Errorf("%w: %s is not an interface", ErrInvalidPropertyExpression, t)
	}
	if name == "" {
		return PropertyRef{}, fmt.Errorf("%w: empty property name", ErrInvalidPropertyExpression)
	}
	return PropertyRef{DeclaringType: t, Name: name}, nil
}

// Properties lists the exported fields of struct t (or *t) in declaration
// order. Fields of embedded non-pointer structs are listed in place of the
// embedded field, declared on the embedded type.
func Properties(t reflect.Type) []PropertyRef {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var refs []PropertyRef
	collectProperties(t, &refs)
	return refs
}

func collectProperties(t reflect.Type, refs *[]PropertyRef) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectProperties(f.Type, refs)
			continue
		}
		if !f.IsExported() {
			continue
		}
		*refs = append(*refs, PropertyRef{DeclaringType: t, Name: f.Name, Type: f.Type})
	}
}
