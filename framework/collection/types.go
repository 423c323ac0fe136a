package collection

import "reflect"

// Type is a runtime element type checked on every write.
type Type struct {
	name  string
	check func(v any) bool
}

// TypeFunc builds a Type from an arbitrary predicate.
func TypeFunc(name string, check func(v any) bool) Type {
	return Type{name: name, check: check}
}

// InstanceOf accepts values assignable to T. T may be an interface.
func InstanceOf[T any]() Type {
	return Type{
		name: reflect.TypeFor[T]().String(),
		check: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
	}
}

var (
	Any = Type{name: "any"}

	Int = TypeFunc("int", func(v any) bool {
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	})

	Float = TypeFunc("float", func(v any) bool {
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	})

	String = TypeFunc("string", func(v any) bool {
		_, ok := v.(string)
		return ok
	})

	Bool = TypeFunc("bool", func(v any) bool {
		_, ok := v.(bool)
		return ok
	})
)

// Name returns the human readable type name used in errors.
func (t Type) Name() string {
	if t.name == "" {
		return "any"
	}
	return t.name
}

// Check reports whether v satisfies the type. The zero Type accepts everything.
func (t Type) Check(v any) bool {
	if t.check == nil {
		return true
	}
	return t.check(v)
}

// strictEqual compares without coercion: dynamic types must match exactly.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
