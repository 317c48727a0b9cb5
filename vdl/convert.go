// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import "unicode/utf8"

// Convert returns a new value of type tt converted from src.  Conversion
// succeeds when tt and the type of src are Compatible and the value itself can
// be represented in tt:
//
//	o Identical types are copied.
//	o Numbers convert to any number kind as long as no information is lost;
//	  e.g. uint16(300) converts to uint64, but int32(-1) doesn't convert to any
//	  unsigned kind and float64(1.5) doesn't convert to any integer kind.
//	o String, enum and bytes convert to each other via labels and UTF-8.
//	o Array and list convert elementwise; an array target requires a source
//	  with the same length.
//	o Set, map and struct convert elementwise.  Struct fields are matched by
//	  name; source fields missing from the target are dropped, and target
//	  fields missing from the source keep their zero value.  A map[K]bool
//	  converts to set[K] only if every bool is true.
//	o Union converts to union if the target has a field with the same name as
//	  the chosen source field.
//	o Any and optional sources are unwrapped, and any and optional targets are
//	  wrapped.  A nil source only converts to an any or optional target.
//
// All failures return an error with the ErrConversion ID.
func Convert(tt *Type, src *Value) (*Value, error) {
	if tt == nil || !src.IsValid() {
		return nil, errConvert(nil, tt, "invalid type or value")
	}
	if !Compatible(tt, src.t) {
		return nil, errConvert(src.t, tt, "incompatible types")
	}
	return convert(tt, src)
}

func convert(tt *Type, src *Value) (*Value, error) {
	switch {
	case tt == src.t:
		return CopyValue(src), nil
	case tt.kind == Any:
		return AnyValue(src), nil
	case src.t.kind == Any || src.t.kind == Optional:
		if src.IsNil() {
			if tt.kind == Optional {
				return ZeroValue(tt), nil
			}
			return nil, errConvert(src.t, tt, "nil value")
		}
		return convert(tt, src.Elem())
	case tt.kind == Optional:
		elem, err := convert(tt.elem, src)
		if err != nil {
			return nil, err
		}
		return &Value{tt, elem}, nil
	}
	dst := ZeroValue(tt)
	var err error
	switch {
	case tt.kind == Bool:
		if src.t.kind != Bool {
			return nil, errConvert(src.t, tt, "")
		}
		dst.AssignBool(src.Bool())
	case tt.kind.IsNumber():
		err = convertNumber(dst, src)
	case tt.kind == TypeObject:
		if src.t.kind != TypeObject {
			return nil, errConvert(src.t, tt, "")
		}
		dst.AssignTypeObject(src.TypeObject())
	case tt.kind == String || tt.kind == Enum || (tt.IsBytes() && isStringLike(src.t)):
		err = convertStringLike(dst, src)
	case tt.kind == Array || tt.kind == List:
		err = convertSequence(dst, src)
	case tt.kind == Set:
		err = convertSet(dst, src)
	case tt.kind == Map:
		err = convertMap(dst, src)
	case tt.kind == Struct:
		err = convertStruct(dst, src)
	case tt.kind == Union:
		err = convertUnion(dst, src)
	default:
		err = errConvert(src.t, tt, "")
	}
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// isStringLike returns true iff values of t are strings, enums or bytes.
func isStringLike(t *Type) bool {
	return t.kind == String || t.kind == Enum || t.IsBytes()
}

func convertNumber(dst, src *Value) error {
	bitlen := dst.t.kind.BitLen()
	switch sk, dk := src.t.kind, dst.t.kind; {
	case sk.IsUint():
		x := src.Uint()
		switch {
		case dk.IsUint():
			if !overflowUint(x, bitlen) {
				dst.AssignUint(x)
				return nil
			}
		case dk.IsInt():
			if ix, ok := convertUintToInt(x, bitlen); ok {
				dst.AssignInt(ix)
				return nil
			}
		default:
			if fx, ok := convertUintToFloat(x, bitlen); ok {
				dst.AssignFloat(fx)
				return nil
			}
		}
		return errConvert(src.t, dst.t, "value %d out of range", x)
	case sk.IsInt():
		x := src.Int()
		switch {
		case dk.IsUint():
			if ux, ok := convertIntToUint(x, bitlen); ok {
				dst.AssignUint(ux)
				return nil
			}
		case dk.IsInt():
			if !overflowInt(x, bitlen) {
				dst.AssignInt(x)
				return nil
			}
		default:
			if fx, ok := convertIntToFloat(x, bitlen); ok {
				dst.AssignFloat(fx)
				return nil
			}
		}
		return errConvert(src.t, dst.t, "value %d out of range", x)
	case sk.IsFloat():
		x := src.Float()
		switch {
		case dk.IsUint():
			if ux, ok := convertFloatToUint(x, bitlen); ok {
				dst.AssignUint(ux)
				return nil
			}
		case dk.IsInt():
			if ix, ok := convertFloatToInt(x, bitlen); ok {
				dst.AssignInt(ix)
				return nil
			}
		default:
			if fx, ok := convertFloatToFloat(x, bitlen); ok {
				dst.AssignFloat(fx)
				return nil
			}
		}
		return errConvert(src.t, dst.t, "value %g not representable", x)
	}
	return errConvert(src.t, dst.t, "")
}

// stringLikeBytes returns the contents of a string, enum or bytes value.
func stringLikeBytes(v *Value) string {
	switch {
	case v.t.kind == String:
		return v.RawString()
	case v.t.kind == Enum:
		return v.EnumLabel()
	default:
		return string(v.Bytes())
	}
}

func convertStringLike(dst, src *Value) error {
	if !isStringLike(src.t) {
		return errConvert(src.t, dst.t, "")
	}
	s := stringLikeBytes(src)
	switch {
	case dst.t.kind == String:
		if !utf8.ValidString(s) {
			return errConvert(src.t, dst.t, "invalid UTF-8 %q", s)
		}
		dst.AssignString(s)
	case dst.t.kind == Enum:
		index := dst.t.EnumIndex(s)
		if index < 0 {
			return errConvert(src.t, dst.t, "unknown label %q", s)
		}
		dst.AssignEnumIndex(index)
	case dst.t.kind == Array:
		if len(s) != dst.t.len {
			return errConvert(src.t, dst.t, "length %d", len(s))
		}
		dst.AssignBytes([]byte(s))
	default:
		dst.AssignBytes([]byte(s))
	}
	return nil
}

func convertSequence(dst, src *Value) error {
	if src.t.kind != Array && src.t.kind != List {
		return errConvert(src.t, dst.t, "")
	}
	n := src.Len()
	if dst.t.kind == Array {
		if n != dst.t.len {
			return errConvert(src.t, dst.t, "length %d", n)
		}
	} else {
		dst.AssignLen(n)
	}
	for i := 0; i < n; i++ {
		elem, err := convert(dst.t.elem, src.Index(i))
		if err != nil {
			return err
		}
		if dst.t.IsBytes() {
			dst.Bytes()[i] = byte(elem.Uint())
		} else {
			dst.rep.(repSequence)[i] = elem
		}
	}
	return nil
}

func convertSet(dst, src *Value) error {
	switch src.t.kind {
	case Set, Map:
		for _, k := range src.Keys() {
			if src.t.kind == Map {
				if err := requireTrue(src.t, dst.t, src.MapIndex(k)); err != nil {
					return err
				}
			}
			key, err := convert(dst.t.key, k)
			if err != nil {
				return err
			}
			dst.AssignSetKey(key)
		}
		return nil
	case Struct:
		return eachStructField(src, func(name string, field *Value) error {
			if err := requireTrue(src.t, dst.t, field); err != nil {
				return err
			}
			key, err := convert(dst.t.key, StringValue(name))
			if err != nil {
				return err
			}
			dst.AssignSetKey(key)
			return nil
		})
	}
	return errConvert(src.t, dst.t, "")
}

func requireTrue(from, to *Type, v *Value) error {
	b, err := convert(BoolType, v)
	if err != nil {
		return err
	}
	if !b.Bool() {
		return errConvert(from, to, "false entry")
	}
	return nil
}

func convertMap(dst, src *Value) error {
	switch src.t.kind {
	case Set, Map:
		for _, k := range src.Keys() {
			key, err := convert(dst.t.key, k)
			if err != nil {
				return err
			}
			var elem *Value
			if src.t.kind == Map {
				elem, err = convert(dst.t.elem, src.MapIndex(k))
			} else {
				elem, err = convert(dst.t.elem, BoolValue(true))
			}
			if err != nil {
				return err
			}
			dst.AssignMapIndex(key, elem)
		}
		return nil
	case Struct:
		return eachStructField(src, func(name string, field *Value) error {
			key, err := convert(dst.t.key, StringValue(name))
			if err != nil {
				return err
			}
			elem, err := convert(dst.t.elem, field)
			if err != nil {
				return err
			}
			dst.AssignMapIndex(key, elem)
			return nil
		})
	}
	return errConvert(src.t, dst.t, "")
}

// eachStructField calls fn with the name and value of every field in the
// struct v, including zero fields.
func eachStructField(v *Value, fn func(name string, field *Value) error) error {
	for i, f := range v.t.fields {
		if err := fn(f.Name, v.StructField(i)); err != nil {
			return err
		}
	}
	return nil
}

func convertStruct(dst, src *Value) error {
	switch src.t.kind {
	case Struct:
		for i, f := range src.t.fields {
			field := src.rep.(repSequence)[i]
			if field == nil {
				continue
			}
			dstField, index := dst.t.FieldByName(f.Name)
			if index < 0 {
				continue
			}
			elem, err := convert(dstField.Type, field)
			if err != nil {
				return err
			}
			dst.rep.(repSequence)[index] = elem
		}
		return nil
	case Set, Map:
		for _, k := range src.Keys() {
			name, err := convert(StringType, k)
			if err != nil {
				return err
			}
			dstField, index := dst.t.FieldByName(name.RawString())
			if index < 0 {
				continue
			}
			from := BoolValue(true)
			if src.t.kind == Map {
				from = src.MapIndex(k)
			}
			elem, err := convert(dstField.Type, from)
			if err != nil {
				return err
			}
			dst.rep.(repSequence)[index] = elem
		}
		return nil
	}
	return errConvert(src.t, dst.t, "")
}

func convertUnion(dst, src *Value) error {
	if src.t.kind != Union {
		return errConvert(src.t, dst.t, "")
	}
	index, field := src.UnionField()
	name := src.t.fields[index].Name
	dstField, dstIndex := dst.t.FieldByName(name)
	if dstIndex < 0 {
		return errConvert(src.t, dst.t, "no field %q", name)
	}
	elem, err := convert(dstField.Type, field)
	if err != nil {
		return err
	}
	dst.rep = repUnion{dstIndex, elem}
	return nil
}
