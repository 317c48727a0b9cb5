// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"

	"github.com/vanadium/vom/verror"
)

// ValueOf returns v as a *Value.  The type of the result is given by
// DefaultRegistry.Describe(v).
func ValueOf(v interface{}) (*Value, error) {
	switch x := v.(type) {
	case nil:
		return ZeroValue(AnyType), nil
	case Native:
		return x.VDLToValue()
	case *Value:
		if !x.IsValid() {
			return nil, verror.New(ErrUnregisteredType, "", "invalid *vdl.Value")
		}
		return x, nil
	case bool:
		return BoolValue(x), nil
	case byte:
		return ByteValue(x), nil
	case uint16:
		return Uint16Value(x), nil
	case uint32:
		return Uint32Value(x), nil
	case uint64:
		return Uint64Value(x), nil
	case uint:
		return Uint64Value(uint64(x)), nil
	case int16:
		return Int16Value(x), nil
	case int32:
		return Int32Value(x), nil
	case int64:
		return Int64Value(x), nil
	case int:
		return Int64Value(int64(x)), nil
	case float32:
		return Float32Value(x), nil
	case float64:
		return Float64Value(x), nil
	case string:
		return StringValue(x), nil
	case []byte:
		return BytesValue(x), nil
	case []string:
		return StringListValue(x...), nil
	case *Type:
		return TypeObjectValue(x), nil
	}
	return nil, verror.New(ErrUnregisteredType, "", fmt.Sprintf("%T", v))
}

// ToNative returns the native Go representation of v.  Values of a named type
// registered in r become the registered Native, converted to the registered
// version of the type.  Unnamed values of built-in types become the Go
// primitives listed in Describe; Any and Optional values are unwrapped.  All
// other values, including those of unregistered named types, are returned as a
// copy of v: a dynamic record that keeps the type name and all fields.
func (r *Registry) ToNative(v *Value) (interface{}, error) {
	switch v.Kind() {
	case Any, Optional:
		if v.IsNil() {
			return nil, nil
		}
		return r.ToNative(v.Elem())
	}
	if tt, ctor, ok := r.Lookup(v.Type()); ok {
		cv, err := Convert(tt, v)
		if err != nil {
			return nil, err
		}
		native := ctor()
		if err := native.VDLFromValue(cv); err != nil {
			return nil, err
		}
		return native, nil
	}
	if v.Type().Name() == "" {
		switch v.Type() {
		case BoolType:
			return v.Bool(), nil
		case ByteType:
			return byte(v.Uint()), nil
		case Uint16Type:
			return uint16(v.Uint()), nil
		case Uint32Type:
			return uint32(v.Uint()), nil
		case Uint64Type:
			return v.Uint(), nil
		case Int16Type:
			return int16(v.Int()), nil
		case Int32Type:
			return int32(v.Int()), nil
		case Int64Type:
			return v.Int(), nil
		case Float32Type:
			return float32(v.Float()), nil
		case Float64Type:
			return v.Float(), nil
		case StringType:
			return v.RawString(), nil
		case ListByteType:
			return append([]byte(nil), v.Bytes()...), nil
		case ListStringType:
			list := make([]string, v.Len())
			for i := range list {
				list[i] = v.Index(i).RawString()
			}
			return list, nil
		case TypeObjectType:
			return v.TypeObject(), nil
		}
	}
	return CopyValue(v), nil
}

// Assign converts v and stores it in dst, which must be one of:
//
//	Native     converted to dst.VDLType(), then dst.VDLFromValue
//	**Value    set to a copy of v
//	*Value     if valid, converted to its type; otherwise set to a copy of v
//	*interface{}  set to r.ToNative(v)
//	a pointer to one of the Go primitives listed in Describe
//
// Conversion failures have the ErrConversion ID.
func (r *Registry) Assign(dst interface{}, v *Value) error {
	switch x := dst.(type) {
	case Native:
		cv, err := Convert(x.VDLType(), v)
		if err != nil {
			return err
		}
		return x.VDLFromValue(cv)
	case **Value:
		*x = CopyValue(v)
		return nil
	case *Value:
		if !x.IsValid() {
			*x = *CopyValue(v)
			return nil
		}
		cv, err := Convert(x.Type(), v)
		if err != nil {
			return err
		}
		*x = *cv
		return nil
	case *interface{}:
		native, err := r.ToNative(v)
		if err != nil {
			return err
		}
		*x = native
		return nil
	}
	tt, err := r.Describe(derefPrimitive(dst))
	if err != nil {
		return verror.New(ErrUnregisteredType, "", fmt.Sprintf("target %T", dst))
	}
	cv, err := Convert(tt, v)
	if err != nil {
		return err
	}
	switch x := dst.(type) {
	case *bool:
		*x = cv.Bool()
	case *byte:
		*x = byte(cv.Uint())
	case *uint16:
		*x = uint16(cv.Uint())
	case *uint32:
		*x = uint32(cv.Uint())
	case *uint64:
		*x = cv.Uint()
	case *uint:
		*x = uint(cv.Uint())
	case *int16:
		*x = int16(cv.Int())
	case *int32:
		*x = int32(cv.Int())
	case *int64:
		*x = cv.Int()
	case *int:
		*x = int(cv.Int())
	case *float32:
		*x = float32(cv.Float())
	case *float64:
		*x = cv.Float()
	case *string:
		*x = cv.RawString()
	case *[]byte:
		*x = append([]byte(nil), cv.Bytes()...)
	case *[]string:
		list := make([]string, cv.Len())
		for i := range list {
			list[i] = cv.Index(i).RawString()
		}
		*x = list
	case **Type:
		*x = cv.TypeObject()
	}
	return nil
}

// derefPrimitive returns the zero value pointed to by a pointer to a Go
// primitive, or nil for any other dst.
func derefPrimitive(dst interface{}) interface{} {
	switch dst.(type) {
	case *bool:
		return false
	case *byte:
		return byte(0)
	case *uint16:
		return uint16(0)
	case *uint32:
		return uint32(0)
	case *uint64:
		return uint64(0)
	case *uint:
		return uint(0)
	case *int16:
		return int16(0)
	case *int32:
		return int32(0)
	case *int64:
		return int64(0)
	case *int:
		return int(0)
	case *float32:
		return float32(0)
	case *float64:
		return float64(0)
	case *string:
		return ""
	case *[]byte:
		return []byte(nil)
	case *[]string:
		return []string(nil)
	case **Type:
		return (*Type)(nil)
	}
	return struct{}{}
}
