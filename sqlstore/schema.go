package sqlstore

import (
	"fmt"
	"reflect"
	"strings"
)

// Schema maps a model to a table and back.
type Schema[T any] interface {
	TableName() string
	SelectColumns() []string

	// InsertRow returns the columns and values to insert for m.
	InsertRow(m *T) ([]string, []any)
	// UpdateMap returns the non-key columns to write for m.
	UpdateMap(m *T) map[string]any

	// PK returns the primary key column and m's key value.
	// m may be nil, in which case value is nil.
	PK(m *T) (column string, value any)
	SetPK(m *T, val int64)
	AutoIncrement() bool
}

type schemaColumn struct {
	name     string
	index    []int
	pk       bool
	autoIncr bool
}

// reflectSchema is a Schema derived from struct tags.
type reflectSchema[T any] struct {
	table   string
	columns []schemaColumn
	pk      int
}

// ReflectSchema derives a Schema from T's `db` tags:
//
//	type User struct {
//	    ID    int64  `db:"id,primaryKey,autoIncrement"`
//	    Email string `db:"email"`
//	    Name  string // column "name"
//	    Cache string `db:"-"` // skipped
//	}
//
// Untagged exported fields map to their snake_cased name. Fields promoted
// from embedded structs are included; those behind embedded pointers are not.
// An empty table defaults to the snake_cased type name plus "s".
func ReflectSchema[T any](table string) (Schema[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sqlstore: %s is not a struct", t)
	}
	if table == "" {
		table = toSnakeCase(t.Name()) + "s"
	}

	s := &reflectSchema[T]{table: table, pk: -1}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || crossesPointer(t, f.Index) {
			continue
		}

		col := schemaColumn{name: toSnakeCase(f.Name), index: f.Index}
		if tag, ok := f.Tag.Lookup("db"); ok {
			if tag == "-" {
				continue
			}
			parts := strings.Split(strings.ReplaceAll(tag, ";", ","), ",")
			if parts[0] != "" {
				col.name = parts[0]
			}
			for _, opt := range parts[1:] {
				switch strings.TrimSpace(opt) {
				case "primaryKey":
					col.pk = true
				case "autoIncrement":
					col.autoIncr = true
				}
			}
		}

		if col.pk {
			if s.pk >= 0 {
				return nil, fmt.Errorf("sqlstore: %s declares more than one primary key", t)
			}
			s.pk = len(s.columns)
		}
		s.columns = append(s.columns, col)
	}

	if len(s.columns) == 0 {
		return nil, fmt.Errorf("sqlstore: %s has no columns", t)
	}
	return s, nil
}

func crossesPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() == reflect.Pointer {
			return true
		}
	}
	return false
}

func (s *reflectSchema[T]) TableName() string { return s.table }

func (s *reflectSchema[T]) SelectColumns() []string {
	cols := make([]string, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.name
	}
	return cols
}

func (s *reflectSchema[T]) InsertRow(m *T) ([]string, []any) {
	v := reflect.ValueOf(m).Elem()
	cols := make([]string, 0, len(s.columns))
	vals := make([]any, 0, len(s.columns))
	for _, c := range s.columns {
		fv := v.FieldByIndex(c.index)
		if c.pk && c.autoIncr && fv.IsZero() {
			continue
		}
		cols = append(cols, c.name)
		vals = append(vals, fv.Interface())
	}
	return cols, vals
}

func (s *reflectSchema[T]) UpdateMap(m *T) map[string]any {
	v := reflect.ValueOf(m).Elem()
	set := make(map[string]any, len(s.columns))
	for _, c := range s.columns {
		if c.pk {
			continue
		}
		set[c.name] = v.FieldByIndex(c.index).Interface()
	}
	return set
}

func (s *reflectSchema[T]) PK(m *T) (string, any) {
	if s.pk < 0 {
		return "", nil
	}
	c := s.columns[s.pk]
	if m == nil {
		return c.name, nil
	}
	return c.name, reflect.ValueOf(m).Elem().FieldByIndex(c.index).Interface()
}

func (s *reflectSchema[T]) SetPK(m *T, val int64) {
	if s.pk < 0 {
		return
	}
	fv := reflect.ValueOf(m).Elem().FieldByIndex(s.columns[s.pk].index)
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(val)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(val))
	}
}

func (s *reflectSchema[T]) AutoIncrement() bool {
	return s.pk >= 0 && s.columns[s.pk].autoIncr
}

func toSnakeCase(s string) string {
	var res strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			// "UserID" -> "user_id", not "user_i_d"
			if i > 0 && (runes[i-1] < 'A' || runes[i-1] > 'Z' ||
				(i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z')) {
				res.WriteRune('_')
			}
			res.WriteRune(r + ('a' - 'A'))
		} else {
			res.WriteRune(r)
		}
	}
	return res.String()
}
