package hostops

import (
	"reflect"

	"github.com/reglet-dev/hostbridge/domain/errors"
)

func arrayValue(receiver any) (reflect.Value, error) {
	if receiver == nil {
		return reflect.Value{}, errors.NewUnsupportedMessage("receiver is nil")
	}
	v, err := indirect(reflect.ValueOf(receiver))
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return reflect.Value{}, errors.NewUnsupportedMessage("%s has no array elements", v.Type())
	}
	return v, nil
}

// ReadElement reads one element of a slice or array. Operands: index.
func ReadElement(receiver any, args []any) (any, error) {
	if err := checkArity(args, 1, 1); err != nil {
		return nil, err
	}
	v, err := arrayValue(receiver)
	if err != nil {
		return nil, err
	}
	idx := operands(args)[0]
	i, ok := toIndex(idx)
	if !ok {
		return nil, errors.NewUnsupportedType("index must be an integer", idx)
	}
	if i < 0 || i >= int64(v.Len()) {
		return nil, errors.NewInvalidArrayIndex(i)
	}
	return v.Index(int(i)).Interface(), nil
}

// ArraySize returns the element count of a slice or array.
func ArraySize(receiver any, args []any) (any, error) {
	if err := checkArity(args, 0, 0); err != nil {
		return nil, err
	}
	v, err := arrayValue(receiver)
	if err != nil {
		return nil, err
	}
	return int64(v.Len()), nil
}

// ReadKey reads a map entry by key of any comparable type. Operands: key.
func ReadKey(receiver any, args []any) (any, error) {
	if err := checkArity(args, 1, 1); err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, errors.NewUnsupportedMessage("receiver is nil")
	}
	v, err := indirect(reflect.ValueOf(receiver))
	if err != nil {
		return nil, err
	}
	if v.Kind() != reflect.Map {
		return nil, errors.NewUnsupportedMessage("%s has no hash entries", v.Type())
	}
	key := operands(args)[0]
	kv, ok := convert(key, v.Type().Key())
	if !ok {
		return nil, errors.NewUnsupportedType("key has wrong type for "+v.Type().Key().String(), key)
	}
	mv := v.MapIndex(kv)
	if !mv.IsValid() {
		return nil, errors.NewUnknownKey(key)
	}
	return mv.Interface(), nil
}
