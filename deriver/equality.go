package deriver

import (
	"math"
	"reflect"
)

// Equality reports whether two inputs are indistinguishable for caching purposes.
//
// It must be reflexive, and must only report equality when substituting one
// value for the other would not change what the dependent computation returns.
type Equality[T any] func(a, b T) bool

// Comparable compares with ==. Unlike the other presets it reports NaN as
// different from itself, so a float input holding NaN recomputes every step.
func Comparable[T comparable]() Equality[T] {
	return func(a, b T) bool { return a == b }
}

// Deep compares with reflect.DeepEqual, falling back to Shallow so that a
// value holding NaN still equals itself.
func Deep[T any]() Equality[T] {
	return func(a, b T) bool {
		return reflect.DeepEqual(a, b) || shallowEqual(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
	}
}

// Reference compares by identity.
//
// Pointers, maps, channels and unsafe pointers are equal when they point to
// the same thing; slices when they share the same backing array start and
// length. Functions are only equal when both are nil. Booleans, numbers and
// strings compare by value, and arrays, structs and interfaces compare their
// components with the same rules.
func Reference[T any]() Equality[T] {
	return func(a, b T) bool {
		return referenceEqual(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
	}
}

// Shallow compares one level deep.
//
// Slices and maps are equal when their elements are Reference-equal, and
// pointers when their pointees are. Arrays and structs recurse into each
// component with Shallow, so a struct of slices compares the slices'
// elements. Structs without fields are equal by type alone. Anything else
// compares like Reference.
func Shallow[T any]() Equality[T] {
	return func(a, b T) bool {
		return shallowEqual(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
	}
}

func referenceEqual(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.IsNil() == b.IsNil() && a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return referenceEqual(a.Elem(), b.Elem())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !referenceEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !referenceEqual(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(a, b)
	}
}

func shallowEqual(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Pointer:
		if a.Pointer() == b.Pointer() {
			return true
		}
		if a.IsNil() || b.IsNil() {
			return false
		}
		return referenceEqual(a.Elem(), b.Elem())
	case reflect.Slice:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		for i := 0; i < a.Len(); i++ {
			if !referenceEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		iter := a.MapRange()
		for iter.Next() {
			other := b.MapIndex(iter.Key())
			if !other.IsValid() || !referenceEqual(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return shallowEqual(a.Elem(), b.Elem())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !shallowEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !shallowEqual(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return referenceEqual(a, b)
	}
}

// scalarEqual avoids Interface() so unexported fields can be compared.
func scalarEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return floatEqual(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return floatEqual(real(x), real(y)) && floatEqual(imag(x), imag(y))
	case reflect.String:
		return a.String() == b.String()
	default:
		return false
	}
}

// floatEqual treats NaN as equal to itself, keeping the presets reflexive.
func floatEqual(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}
