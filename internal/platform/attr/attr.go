// Package attr reads optional and level-indexed fields off domain records
// without ever failing: a missing field, an empty list or an index out of
// range all resolve to the caller's default.
package attr

import (
	"reflect"
	"time"

	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

// Accessor resolves one named field. ok is false when the record does not
// carry the field at all.
type Accessor[R any] func(record R) (value any, ok bool)

// Fields maps a field name to its accessor for one record type.
type Fields[R any] map[string]Accessor[R]

type options struct {
	index    int
	hasIndex bool
	def      any
}

type Option func(*options)

// At selects element i of a list-valued field.
func At(i int) Option {
	return func(o *options) {
		o.index = i
		o.hasIndex = true
	}
}

func Default(v any) Option {
	return func(o *options) {
		o.def = v
	}
}

// Get resolves name on record.
func (f Fields[R]) Get(record R, name string, opts ...Option) any {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	accessor, ok := f[name]
	if !ok {
		return o.def
	}
	value, ok := accessor(record)
	if !ok || isNil(value) {
		return o.def
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return value
	}
	if rv.Len() == 0 {
		return o.def
	}
	if !o.hasIndex {
		return value
	}
	if o.index < 0 || o.index >= rv.Len() {
		logging.Default().Debug("attribute index out of range",
			"field", name,
			"index", o.index,
			"len", rv.Len(),
		)
		return o.def
	}
	elem := rv.Index(o.index).Interface()
	if isNil(elem) {
		return o.def
	}
	return elem
}

// Len reports the length of a list-valued field, 0 for anything else.
func (f Fields[R]) Len(record R, name string) int {
	accessor, ok := f[name]
	if !ok {
		return 0
	}
	value, ok := accessor(record)
	if !ok || isNil(value) {
		return 0
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0
	}
	return rv.Len()
}

// MaxLen is the longest list among all fields.
func (f Fields[R]) MaxLen(record R) int {
	longest := 0
	for name := range f {
		longest = max(longest, f.Len(record, name))
	}
	return longest
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Index returns values[i] when i is in range.
func Index[T any](values []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(values) {
		return zero, false
	}
	return values[i], true
}

func IndexOr[T any](values []T, i int, def T) T {
	if v, ok := Index(values, i); ok {
		return v
	}
	return def
}

// Int unwraps an optional int into a nullable column value.
func Int(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func Float(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func String(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func StringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func Bool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

// Seconds converts a duration column value to float seconds, passing nil
// through.
func Seconds(v any) any {
	switch d := v.(type) {
	case time.Duration:
		return d.Seconds()
	case *time.Duration:
		if d == nil {
			return nil
		}
		return d.Seconds()
	default:
		return nil
	}
}

// Number normalizes integer widths to int64 so column values compare equal
// across backends.
func Number(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	default:
		return v
	}
}
