package hostops

import (
	"math"
	"reflect"

	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/domain/errors"
)

// operands returns the operation-specific arguments.
func operands(args []any) []any {
	if len(args) < bridge.ArgumentOffset {
		return nil
	}
	return args[bridge.ArgumentOffset:]
}

// checkArity signals unless the operand count is within [minArgs, maxArgs].
// maxArgs < 0 means unbounded.
func checkArity(args []any, minArgs, maxArgs int) error {
	n := len(operands(args))
	if n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		return errors.NewArity(minArgs, maxArgs, n)
	}
	return nil
}

// memberName extracts a string member name.
func memberName(v any) (string, error) {
	name, ok := v.(string)
	if !ok {
		return "", errors.NewUnsupportedType("member name must be a string", v)
	}
	return name, nil
}

// indirect follows pointers and interfaces down to a concrete value.
func indirect(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Value{}, errors.NewUnsupportedMessage("receiver is nil")
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, errors.NewUnsupportedMessage("receiver is nil")
		}
		v = v.Elem()
	}
	return v, nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

// signChanges reports whether converting the number rv to kind dst would
// flip its sign, which the round-trip check cannot see for same-width types.
func signChanges(rv, converted reflect.Value) bool {
	src, dst := rv.Kind(), converted.Kind()
	switch {
	case isUnsigned(dst) && isSigned(src):
		return rv.Int() < 0
	case isUnsigned(dst) && isFloat(src):
		return rv.Float() < 0
	case isSigned(dst) && isUnsigned(src):
		return converted.Int() < 0
	}
	return false
}

// convert coerces a guest value to t without losing information.
func convert(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if isNumber(rv.Kind()) && isNumber(t.Kind()) {
		if isFloat(rv.Kind()) {
			if isFloat(t.Kind()) {
				return rv.Convert(t), true
			}
			if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
				return reflect.Value{}, false
			}
		}
		c := rv.Convert(t)
		if signChanges(rv, c) || c.Convert(rv.Type()).Interface() != rv.Interface() {
			return reflect.Value{}, false
		}
		return c, true
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

// toIndex converts an integral guest number to an index.
func toIndex(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
