package hostops

import (
	"reflect"

	"github.com/reglet-dev/hostbridge/domain/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// InvokeMember calls an exported method of the receiver.
// Operands: name, method arguments...
func InvokeMember(receiver any, args []any) (any, error) {
	if err := checkArity(args, 1, -1); err != nil {
		return nil, err
	}
	ops := operands(args)
	name, err := memberName(ops[0])
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, errors.NewUnsupportedMessage("receiver is nil")
	}

	method := reflect.ValueOf(receiver).MethodByName(name)
	if !method.IsValid() {
		return nil, errors.NewUnknownIdentifier(name)
	}
	return call(method, ops[1:])
}

// Execute calls the receiver, which must be a Go function.
// Operands: call arguments...
func Execute(receiver any, args []any) (any, error) {
	fn := reflect.ValueOf(receiver)
	if receiver == nil || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, errors.NewUnsupportedMessage("receiver %T is not executable", receiver)
	}
	return call(fn, operands(args))
}

// call checks arity, converts arguments and unpacks results. A trailing
// non-nil error result is returned as the call's error.
func call(fn reflect.Value, in []any) (any, error) {
	t := fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(in) < fixed {
			return nil, errors.NewArity(fixed, -1, len(in))
		}
	} else if len(in) != fixed {
		return nil, errors.NewArity(fixed, fixed, len(in))
	}

	values := make([]reflect.Value, len(in))
	for i, arg := range in {
		var want reflect.Type
		if t.IsVariadic() && i >= fixed {
			want = t.In(fixed).Elem()
		} else {
			want = t.In(i)
		}
		v, ok := convert(arg, want)
		if !ok {
			return nil, errors.NewUnsupportedType("argument has wrong type for "+want.String(), arg)
		}
		values[i] = v
	}

	out := fn.Call(values)

	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		results := make([]any, len(out))
		for i, o := range out {
			results[i] = o.Interface()
		}
		return results, nil
	}
}
