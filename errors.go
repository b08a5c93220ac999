package fixture

import "errors"

var (
	// ErrDuplicateConfiguration is returned when a property namer is registered
	// twice for the same type. The first registration stays in effect.
	ErrDuplicateConfiguration = errors.New("fixture: duplicate configuration")

	// ErrInvalidPropertyExpression is returned when an accessor does not
	// resolve to a field of its argument.
	ErrInvalidPropertyExpression = errors.New("fixture: invalid property expression")

	// ErrUnknownProperty is returned when a property is looked up by a name
	// the type does not declare.
	ErrUnknownProperty = errors.New("fixture: unknown property")

	// ErrNotAStruct is returned when a namer is handed something other than
	// a non-nil pointer to a struct.
	ErrNotAStruct = errors.New("fixture: not a pointer to struct")

	// ErrNoPersistenceMethod is returned when an object is persisted without
	// a create/update method registered for its type.
	ErrNoPersistenceMethod = errors.New("fixture: no persistence method registered")
)
