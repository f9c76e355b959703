package rootio

import (
	"fmt"
	"reflect"
)

// scalar converts a pointer to a numeric or boolean value into float32.
func scalar(v any) (float32, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	x, ok := toFloat32(rv)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a scalar number", ErrUnsupportedType, rv.Type())
	}
	return x, nil
}

// list converts a pointer to a slice or array of numbers into a fresh []float32.
func list(v any) ([]float32, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, fmt.Errorf("%w: %s is not a list", ErrUnsupportedType, rv.Type())
	}

	// Fast path for the common float32 branches.
	if s, ok := rv.Interface().([]float32); ok {
		return append(make([]float32, 0, len(s)), s...), nil
	}

	out := make([]float32, rv.Len())
	for i := range out {
		x, ok := toFloat32(rv.Index(i))
		if !ok {
			return nil, fmt.Errorf("%w: %s elements are not numbers", ErrUnsupportedType, rv.Type())
		}
		out[i] = x
	}
	return out, nil
}

func toFloat32(rv reflect.Value) (float32, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float32(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float32(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return float32(rv.Float()), true
	default:
		return 0, false
	}
}
