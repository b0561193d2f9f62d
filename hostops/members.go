package hostops

import (
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/reglet-dev/hostbridge/domain/errors"
)

// MemberReader is implemented by receivers that compute their members.
// ReadMember may return a *errors.Signal (typically unknown_identifier);
// any other error is a host fault.
type MemberReader interface {
	ReadMember(name string) (any, error)
}

// MemberLister is implemented by receivers whose members are not visible to
// reflection, typically alongside MemberReader. HasMember and Members include
// the listed names; a MemberReader without it only reports its Go methods.
type MemberLister interface {
	MemberNames() []string
}

// MemberWriter is implemented by receivers that handle member writes themselves.
type MemberWriter interface {
	WriteMember(name string, value any) error
}

// memberTag is the struct tag that renames or hides a field.
const memberTag = "host"

// field finds the exported struct field visible to guests as name.
func field(t reflect.Type, name string) (reflect.StructField, bool) {
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		if fieldName(f) == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func fieldName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup(memberTag)
	if !ok {
		return f.Name
	}
	tagName, _, _ := strings.Cut(tag, ",")
	switch tagName {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return tagName
}

// ReadMember reads a struct field or string-keyed map entry.
// Operands: name.
func ReadMember(receiver any, args []any) (any, error) {
	if err := checkArity(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := memberName(operands(args)[0])
	if err != nil {
		return nil, err
	}
	if r, ok := receiver.(MemberReader); ok {
		return r.ReadMember(name)
	}

	v, err := indirect(reflect.ValueOf(receiver))
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case reflect.Struct:
		f, ok := field(v.Type(), name)
		if !ok {
			return nil, errors.NewUnknownIdentifier(name)
		}
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			return nil, err
		}
		return fv.Interface(), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, errors.NewUnsupportedMessage("%s has no named members", v.Type())
		}
		mv := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, errors.NewUnknownIdentifier(name)
		}
		return mv.Interface(), nil
	default:
		return nil, errors.NewUnsupportedMessage("%s has no members", v.Type())
	}
}

// WriteMember assigns a struct field (receiver must be a pointer) or a
// string-keyed map entry. Operands: name, value.
func WriteMember(receiver any, args []any) (any, error) {
	if err := checkArity(args, 2, 2); err != nil {
		return nil, err
	}
	ops := operands(args)
	name, err := memberName(ops[0])
	if err != nil {
		return nil, err
	}
	value := ops[1]
	if w, ok := receiver.(MemberWriter); ok {
		return nil, w.WriteMember(name, value)
	}

	v, err := indirect(reflect.ValueOf(receiver))
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case reflect.Struct:
		f, ok := field(v.Type(), name)
		if !ok {
			return nil, errors.NewUnknownIdentifier(name)
		}
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			return nil, err
		}
		if !fv.CanSet() {
			return nil, errors.NewUnsupportedMessage("member %q is not writable", name)
		}
		cv, ok := convert(value, fv.Type())
		if !ok {
			return nil, errors.NewUnsupportedType("cannot assign to "+name, value)
		}
		fv.Set(cv)
		return nil, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, errors.NewUnsupportedMessage("%s has no named members", v.Type())
		}
		if v.IsNil() {
			return nil, errors.NewUnsupportedMessage("map is nil")
		}
		cv, ok := convert(value, v.Type().Elem())
		if !ok {
			return nil, errors.NewUnsupportedType("cannot assign to "+name, value)
		}
		v.SetMapIndex(reflect.ValueOf(name).Convert(v.Type().Key()), cv)
		return nil, nil
	default:
		return nil, errors.NewUnsupportedMessage("%s has no members", v.Type())
	}
}

// HasMember reports whether the receiver exposes a member called name.
// Operands: name.
func HasMember(receiver any, args []any) (any, error) {
	if err := checkArity(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := memberName(operands(args)[0])
	if err != nil {
		return nil, err
	}
	for _, m := range members(receiver) {
		if m == name {
			return true, nil
		}
	}
	return false, nil
}

// Members lists the receiver's field, map-key and method names, sorted.
func Members(receiver any, args []any) (any, error) {
	if err := checkArity(args, 0, 0); err != nil {
		return nil, err
	}
	return members(receiver), nil
}

func members(receiver any) []string {
	names := make([]string, 0)
	if receiver == nil {
		return names
	}

	rv := reflect.ValueOf(receiver)
	for i := 0; i < rv.NumMethod(); i++ {
		names = append(names, rv.Type().Method(i).Name)
	}

	v, err := indirect(rv)
	if err == nil {
		switch v.Kind() {
		case reflect.Struct:
			for _, f := range reflect.VisibleFields(v.Type()) {
				if n := fieldName(f); f.IsExported() && n != "" {
					names = append(names, n)
				}
			}
		case reflect.Map:
			if v.Type().Key().Kind() == reflect.String {
				for _, k := range v.MapKeys() {
					names = append(names, k.String())
				}
			}
		}
	}

	if l, ok := receiver.(MemberLister); ok {
		names = append(names, l.MemberNames()...)
	}

	sort.Strings(names)
	return slices.Compact(names)
}
