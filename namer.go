package fixture

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/exp/constraints"
)

// PropertyNamer populates the properties of generated objects.
// Objects are passed as pointers to structs.
type PropertyNamer interface {
	// SetValuesOf names a single object as the first of its sequence.
	SetValuesOf(obj any) error
	// SetValuesOfAll names objs as one sequence, numbered from 1.
	SetValuesOfAll(objs ...any) error
}

var timeType = reflect.TypeFor[time.Time]()

// SequentialNamer fills properties from the object's position in its sequence.
//
// For object i (1-based):
//   - string fields become FieldName + i ("Email3")
//   - integer fields become i, wrapped into the range of small integer kinds
//   - float fields become i
//   - bool fields alternate, false for odd i and true for even i
//   - time.Time fields become today's date (midnight UTC) plus i-1 days
//   - pointer fields get a new value named by the rules above, unless the
//     settings say the nullable must stay nil
//
// Other kinds are left alone, as are unexported fields and every property
// the settings ignore.
type SequentialNamer struct {
	settings *Settings
	now      func() time.Time
}

var _ PropertyNamer = (*SequentialNamer)(nil)

// NewSequentialNamer returns a SequentialNamer that consults s for ignored
// properties and nullable rules. s may be nil.
func NewSequentialNamer(s *Settings) *SequentialNamer {
	return &SequentialNamer{settings: s, now: time.Now}
}

func (n *SequentialNamer) SetValuesOf(obj any) error {
	return n.name(obj, 1)
}

func (n *SequentialNamer) SetValuesOfAll(objs ...any) error {
	for i, obj := range objs {
		if err := n.name(obj, i+1); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
	}
	return nil
}

func (n *SequentialNamer) name(obj any, seq int) error {
	if n.settings != nil && !n.settings.AutoNameProperties {
		return nil
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrNotAStruct, obj)
	}
	n.nameStruct(v.Elem(), seq)
	return nil
}

func (n *SequentialNamer) nameStruct(v reflect.Value, seq int) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			n.nameStruct(fv, seq)
			continue
		}
		if !f.IsExported() || !fv.CanSet() {
			continue
		}

		ref := PropertyRef{DeclaringType: t, Name: f.Name, Type: f.Type}
		if n.ignored(ref) {
			continue
		}

		if fv.Kind() == reflect.Pointer {
			if n.nullAsNull(ref) {
				fv.SetZero()
				continue
			}
			elem := reflect.New(f.Type.Elem())
			if n.setValue(elem.Elem(), f.Name, seq) {
				fv.Set(elem)
			}
			continue
		}
		n.setValue(fv, f.Name, seq)
	}
}

// setValue reports whether v's kind is one the namer knows.
func (n *SequentialNamer) setValue(v reflect.Value, name string, seq int) bool {
	if v.Type() == timeType {
		v.Set(reflect.ValueOf(n.date(seq)))
		return true
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(name + strconv.Itoa(seq))
	case reflect.Bool:
		v.SetBool(seq%2 == 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(wrapSequence(int64(seq), int64(math.MaxInt64>>(64-v.Type().Bits()))))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(wrapSequence(uint64(seq), uint64(math.MaxUint64>>(64-v.Type().Bits()))))
	case reflect.Float32, reflect.Float64:
		v.SetFloat(float64(seq))
	default:
		return false
	}
	return true
}

func (n *SequentialNamer) date(seq int) time.Time {
	day := n.now().UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, seq-1)
}

func (n *SequentialNamer) ignored(ref PropertyRef) bool {
	return n.settings != nil && n.settings.HasDisabledProperties() && n.settings.ShouldIgnoreProperty(ref)
}

func (n *SequentialNamer) nullAsNull(ref PropertyRef) bool {
	if n.settings == nil {
		return false
	}
	return n.settings.IsBuildingAllNullablesAsNull() || n.settings.ShouldBuildNullableTypeAsNull(ref)
}

// wrapSequence maps seq into 1..limit so small integer kinds never overflow.
func wrapSequence[N constraints.Integer](seq, limit N) N {
	if seq <= limit {
		return seq
	}
	return (seq-1)%limit + 1
}
