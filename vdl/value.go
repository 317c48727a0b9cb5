// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	errNilType       = errors.New("vdl: nil *Type is invalid")
	errNonNilZeroAny = errors.New("vdl: the any type doesn't have a non-nil zero value")
)

// Value holds any vdl value together with its type.  Decoding a named type
// with no native constructor yields a Value; it keeps the type name and every
// field by name.
//
// Methods panic when called on a kind they don't apply to.  Cyclic values
// aren't supported, and new(Value) is invalid; build values with ZeroValue or
// the helper constructors.
type Value struct {
	t *Type
	// rep depends on the kind of t; zeroRep lists the choices.
	rep interface{}
}

// The zero TypeObject is the any type.
var zeroTypeObject = AnyType

// enumIndex is the rep of an enum: the index of its label.
type enumIndex int

// zeroRep returns the zero rep for t.  Byte lists and arrays use repBytes,
// and an element indexed out of them uses *byte.  Any and optional use a
// nil *Value.
func zeroRep(t *Type) interface{} {
	if t.IsBytes() {
		return make(repBytes, t.len)
	}
	switch t.kind {
	case Bool:
		return false
	case Byte, Uint16, Uint32, Uint64:
		return uint64(0)
	case Int16, Int32, Int64:
		return int64(0)
	case Float32, Float64:
		return float64(0)
	case String:
		return ""
	case Enum:
		return enumIndex(0)
	case TypeObject:
		return zeroTypeObject
	case Array:
		return make(repSequence, t.len)
	case List:
		return repSequence(nil)
	case Set, Map:
		return zeroRepMap(t.key)
	case Struct:
		return make(repSequence, len(t.fields))
	case Union:
		return repUnion{0, ZeroValue(t.fields[0].Type)}
	case Any, Optional:
		return (*Value)(nil)
	}
	panic(fmt.Errorf("vdl: unhandled kind: %v", t.kind))
}

func isZeroRep(t *Type, rep interface{}) bool {
	switch trep := rep.(type) {
	case bool, uint64, int64, float64, string, enumIndex, *Type:
		return rep == zeroRep(t)
	case repBytes:
		return trep.IsZero(t)
	case *byte:
		return *trep == 0
	case repMap:
		return trep.Len() == 0
	case repSequence:
		if t.kind == List {
			return len(trep) == 0
		}
		return trep.AllValuesZero()
	case repUnion:
		return trep.IsZero()
	case *Value:
		return trep == nil
	}
	panic(fmt.Errorf("vdl: isZeroRep unhandled %v %T %v", t, rep, rep))
}

func copyRep(t *Type, rep interface{}) interface{} {
	switch trep := rep.(type) {
	case bool, uint64, int64, float64, string, enumIndex, *Type:
		return trep
	case *byte:
		return uint64(*trep)
	case repBytes:
		return copyRepBytes(trep)
	case repMap:
		return copyRepMap(trep)
	case repSequence:
		return copyRepSequence(trep)
	case repUnion:
		return copyRepUnion(trep)
	case *Value:
		return CopyValue(trep)
	}
	panic(fmt.Errorf("vdl: copyRep unhandled %v %T %v", t.kind, rep, rep))
}

func stringRep(t *Type, rep interface{}) string {
	switch trep := rep.(type) {
	case bool, uint64, int64, float64:
		return fmt.Sprint(trep)
	case *byte:
		return fmt.Sprint(*trep)
	case string:
		return strconv.Quote(trep)
	case repBytes:
		return strconv.Quote(string(trep))
	case enumIndex:
		return t.labels[trep]
	case *Type:
		return trep.String()
	case repMap:
		return trep.String()
	case repSequence:
		return trep.String(t)
	case repUnion:
		return trep.String(t)
	case *Value:
		switch {
		case trep == nil:
			return "nil"
		case t.kind == Optional:
			// The elem type is implied by the optional type.
			return stringRep(t.elem, trep.rep)
		}
		return trep.String()
	}
	panic(fmt.Errorf("vdl: stringRep unhandled %v %T %v", t.kind, rep, rep))
}

// AnyValue returns an any value holding a copy of x.
func AnyValue(x *Value) *Value { return ZeroValue(AnyType).Assign(x) }

// OptionalValue returns ?T holding x, where T is the type of x.  Panics if T
// can't be optional.
func OptionalValue(x *Value) *Value { return &Value{OptionalType(x.t), x} }

// Constructors for values of the built-in scalar types.
func BoolValue(x bool) *Value       { return ZeroValue(BoolType).AssignBool(x) }
func ByteValue(x byte) *Value       { return uintValue(ByteType, uint64(x)) }
func Uint16Value(x uint16) *Value   { return uintValue(Uint16Type, uint64(x)) }
func Uint32Value(x uint32) *Value   { return uintValue(Uint32Type, uint64(x)) }
func Uint64Value(x uint64) *Value   { return uintValue(Uint64Type, x) }
func Int16Value(x int16) *Value     { return intValue(Int16Type, int64(x)) }
func Int32Value(x int32) *Value     { return intValue(Int32Type, int64(x)) }
func Int64Value(x int64) *Value     { return intValue(Int64Type, x) }
func Float32Value(x float32) *Value { return floatValue(Float32Type, float64(x)) }
func Float64Value(x float64) *Value { return floatValue(Float64Type, x) }
func StringValue(x string) *Value   { return ZeroValue(StringType).AssignString(x) }

func uintValue(t *Type, x uint64) *Value   { return &Value{t, x} }
func intValue(t *Type, x int64) *Value     { return &Value{t, x} }
func floatValue(t *Type, x float64) *Value { return &Value{t, x} }

// BytesValue returns a []byte value holding a copy of x.
func BytesValue(x []byte) *Value { return ZeroValue(ListByteType).AssignBytes(x) }

// EnumValue returns the enum value of type t with the given label.  Panics if
// t has no such label.
func EnumValue(t *Type, label string) *Value { return ZeroValue(t).AssignEnumLabel(label) }

// TypeObjectValue returns a typeobject value holding x.
func TypeObjectValue(x *Type) *Value { return ZeroValue(TypeObjectType).AssignTypeObject(x) }

// ListValue returns a list or array of type t with copies of elems.  Panics if
// an elem can't be assigned to the elem type, or if t is an array of another
// length.
func ListValue(t *Type, elems ...*Value) *Value {
	v := ZeroValue(t)
	switch {
	case t.kind == List:
		v.AssignLen(len(elems))
	case t.Len() != len(elems):
		panic(fmt.Errorf("vdl: ListValue on type %q with %d elems", t, len(elems)))
	}
	for ix, elem := range elems {
		v.Index(ix).Assign(elem)
	}
	return v
}

// StringListValue returns a []string value holding x.
func StringListValue(x ...string) *Value {
	elems := make(repSequence, len(x))
	for ix, s := range x {
		elems[ix] = StringValue(s)
	}
	return &Value{ListStringType, elems}
}

// ZeroValue returns the zero value of t.  Numbers are 0, bool is false,
// strings and collections are empty, and enums hold their first label.
// Arrays and structs hold zero elems or fields, unions hold the zero value of
// their first field, and typeobject holds AnyType.  Any and optional are nil.
//
// Panics if t is nil.
func ZeroValue(t *Type) *Value {
	if t == nil {
		panic(errNilType)
	}
	return &Value{t, zeroRep(t)}
}

// NonNilZeroValue is like ZeroValue, but an optional type yields a non-nil
// value holding the zero elem.  Panics if t is nil or any.
func NonNilZeroValue(t *Type) *Value {
	switch {
	case t == nil:
		panic(errNilType)
	case t.kind == Any:
		panic(errNonNilZeroAny)
	case t.kind == Optional:
		return &Value{t, ZeroValue(t.elem)}
	}
	return ZeroValue(t)
}

// CopyValue returns a deep copy of v.
func CopyValue(v *Value) *Value {
	if v == nil {
		return nil
	}
	return &Value{v.t, copyRep(v.t, v.rep)}
}

// EqualValue reports whether a and b have the same type and value.
func EqualValue(a, b *Value) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	case a.t != b.t:
		return false
	case a.t == ByteType:
		// Either rep may be a *byte.
		return a.Uint() == b.Uint()
	}
	switch arep := a.rep.(type) {
	case bool, uint64, int64, float64, string, enumIndex, *Type:
		return a.rep == b.rep
	case repBytes:
		return bytes.Equal(arep, b.rep.(repBytes))
	case repMap:
		return equalRepMap(arep, b.rep.(repMap))
	case repSequence:
		return equalRepSequence(arep, b.rep.(repSequence))
	case repUnion:
		return equalRepUnion(arep, b.rep.(repUnion))
	case *Value:
		return EqualValue(arep, b.rep.(*Value))
	}
	panic(fmt.Errorf("vdl: EqualValue unhandled %v %T %v", a.t.kind, a.rep, a.rep))
}

// IsZero reports whether v is the zero value of its type.
func (v *Value) IsZero() bool { return isZeroRep(v.t, v.rep) }

// IsNil reports whether v is a nil any or optional.
func (v *Value) IsNil() bool {
	elem, ok := v.rep.(*Value)
	return ok && elem == nil
}

// IsValid reports whether v is non-nil and typed.
func (v *Value) IsValid() bool { return v != nil && v.t != nil }

func (v *Value) Kind() Kind  { return v.t.kind }
func (v *Value) Type() *Type { return v.t }

func (v *Value) Bool() bool {
	v.t.checkKind("Bool", Bool)
	return v.rep.(bool)
}

// Uint returns the value of a byte or unsigned integer.
func (v *Value) Uint() uint64 {
	v.t.checkKind("Uint", Byte, Uint16, Uint32, Uint64)
	if b, ok := v.rep.(*byte); ok {
		return uint64(*b)
	}
	return v.rep.(uint64)
}

func (v *Value) Int() int64 {
	v.t.checkKind("Int", Int16, Int32, Int64)
	return v.rep.(int64)
}

func (v *Value) Float() float64 {
	v.t.checkKind("Float", Float32, Float64)
	return v.rep.(float64)
}

// RawString returns the contents of a string value.  String returns the
// quoted, typed form instead.
func (v *Value) RawString() string {
	v.t.checkKind("RawString", String)
	return v.rep.(string)
}

// String returns v in human-readable form.  Values of the unnamed bool and
// string types are printed bare; composites other than bytes print as
// type{...}, and everything else as type(...).
func (v *Value) String() string {
	if !v.IsValid() {
		return "INVALID"
	}
	rep := stringRep(v.t, v.rep)
	switch {
	case v.t == BoolType || v.t == StringType:
		return rep
	case v.t.IsBytes():
	default:
		switch v.t.kind {
		case Array, List, Set, Map, Struct, Union:
			return v.t.String() + rep
		}
	}
	return v.t.String() + "(" + rep + ")"
}

// Bytes returns the contents of a []byte or [N]byte.  The result aliases v.
func (v *Value) Bytes() []byte {
	v.t.checkIsBytes("Bytes")
	return v.rep.(repBytes)
}

func (v *Value) EnumIndex() int {
	v.t.checkKind("EnumIndex", Enum)
	return int(v.rep.(enumIndex))
}

func (v *Value) EnumLabel() string {
	v.t.checkKind("EnumLabel", Enum)
	return v.t.labels[v.rep.(enumIndex)]
}

func (v *Value) TypeObject() *Type {
	v.t.checkKind("TypeObject", TypeObject)
	return v.rep.(*Type)
}

// Len returns the length of an array, list, set or map.
func (v *Value) Len() int {
	switch trep := v.rep.(type) {
	case repBytes:
		return len(trep)
	case repMap:
		return trep.Len()
	case repSequence:
		if v.t.kind != Struct {
			return len(trep)
		}
	}
	panic(v.t.errKind("Len", Array, List, Set, Map))
}

// Index returns elem ix of an array or list.  The result aliases v, so
// assigning to it updates v.
func (v *Value) Index(ix int) *Value {
	switch trep := v.rep.(type) {
	case repBytes:
		return &Value{ByteType, &trep[ix]}
	case repSequence:
		if v.t.kind != Struct {
			return trep.Index(v.t.elem, ix)
		}
	}
	panic(v.t.errKind("Index", Array, List))
}

// Keys returns the keys of a set or map, in no particular order.
func (v *Value) Keys() []*Value {
	v.t.checkKind("Keys", Set, Map)
	return v.rep.(repMap).Keys()
}

func (v *Value) ContainsKey(key *Value) bool {
	v.t.checkKind("ContainsKey", Set, Map)
	_, ok := v.rep.(repMap).Index(typedCopy(v.t.key, key))
	return ok
}

// MapIndex returns the elem stored under key, or nil if there is none.
func (v *Value) MapIndex(key *Value) *Value {
	v.t.checkKind("MapIndex", Map)
	elem, _ := v.rep.(repMap).Index(typedCopy(v.t.key, key))
	return elem
}

// StructField returns field ix of a struct.  The result aliases v.
func (v *Value) StructField(ix int) *Value {
	v.t.checkKind("StructField", Struct)
	return v.rep.(repSequence).Index(v.t.fields[ix].Type, ix)
}

// StructFieldByName returns the named struct field, or nil if there's no such
// field.
func (v *Value) StructFieldByName(name string) *Value {
	v.t.checkKind("StructFieldByName", Struct)
	if _, ix := v.t.FieldByName(name); ix >= 0 {
		return v.rep.(repSequence).Index(v.t.fields[ix].Type, ix)
	}
	return nil
}

// AssignField sets struct field ix to a copy of x.
func (v *Value) AssignField(ix int, x *Value) *Value {
	v.t.checkKind("AssignField", Struct)
	v.rep.(repSequence)[ix] = typedCopy(v.t.fields[ix].Type, x)
	return v
}

// UnionField returns the index and value of the field held by a union.
func (v *Value) UnionField() (int, *Value) {
	v.t.checkKind("UnionField", Union)
	u := v.rep.(repUnion)
	return u.index, u.value
}

// Elem returns the value held by an any or optional, nil when IsNil.
func (v *Value) Elem() *Value {
	v.t.checkKind("Elem", Any, Optional)
	return v.rep.(*Value)
}

// Assign sets v to a copy of x, or to its zero value if x is nil.  Panics
// unless x has the type of v, v is any, or v is optional and x is a nil any.
func (v *Value) Assign(x *Value) *Value {
	switch {
	case v.t.kind == Byte && (x == nil || x.t == v.t):
		// The rep may be a *byte aliasing a byte list.
		var b uint64
		if x != nil {
			b = x.Uint()
		}
		v.AssignUint(b)
	case x == nil:
		v.rep = zeroRep(v.t)
	case x.t == v.t:
		v.rep = copyRep(x.t, x.rep)
	case v.t.kind == Any:
		v.rep = CopyValue(x)
	case v.t.kind == Optional && x.t.kind == Any && x.IsNil():
		v.rep = (*Value)(nil)
	default:
		panic(fmt.Errorf("vdl: value of type %q not assignable from %q", v.t, x.t))
	}
	return v
}

// typedCopy returns a copy of x with type t.
func typedCopy(t *Type, x *Value) *Value {
	return (&Value{t: t}).Assign(x)
}

func (v *Value) AssignBool(x bool) *Value {
	v.t.checkKind("AssignBool", Bool)
	v.rep = x
	return v
}

func (v *Value) AssignUint(x uint64) *Value {
	v.t.checkKind("AssignUint", Byte, Uint16, Uint32, Uint64)
	if b, ok := v.rep.(*byte); ok {
		*b = byte(x)
	} else {
		v.rep = x
	}
	return v
}

func (v *Value) AssignInt(x int64) *Value {
	v.t.checkKind("AssignInt", Int16, Int32, Int64)
	v.rep = x
	return v
}

func (v *Value) AssignFloat(x float64) *Value {
	v.t.checkKind("AssignFloat", Float32, Float64)
	v.rep = x
	return v
}

func (v *Value) AssignString(x string) *Value {
	v.t.checkKind("AssignString", String)
	v.rep = x
	return v
}

// AssignBytes sets a []byte to a copy of x.  For [N]byte, len(x) must be N.
func (v *Value) AssignBytes(x []byte) *Value {
	v.t.checkIsBytes("AssignBytes")
	rep := v.rep.(repBytes)
	if v.t.kind == Array {
		if v.t.len != len(x) {
			panic(fmt.Errorf("vdl: AssignBytes on type [%d]byte with len %d", v.t.len, len(x)))
		}
	} else {
		rep = resizeBytes(rep, len(x))
		v.rep = rep
	}
	copy(rep, x)
	return v
}

// CopyBytes copies min(v.Len(), len(x)) bytes of x into a []byte or [N]byte.
func (v *Value) CopyBytes(x []byte) *Value {
	v.t.checkIsBytes("CopyBytes")
	copy(v.rep.(repBytes), x)
	return v
}

func (v *Value) AssignEnumIndex(ix int) *Value {
	v.t.checkKind("AssignEnumIndex", Enum)
	if ix < 0 || ix >= len(v.t.labels) {
		panic(fmt.Errorf("vdl: enum %q index %d out of range", v.t.name, ix))
	}
	v.rep = enumIndex(ix)
	return v
}

func (v *Value) AssignEnumLabel(label string) *Value {
	v.t.checkKind("AssignEnumLabel", Enum)
	ix := v.t.EnumIndex(label)
	if ix < 0 {
		panic(fmt.Errorf("vdl: enum %q doesn't have label %q", v.t.name, label))
	}
	v.rep = enumIndex(ix)
	return v
}

// AssignTypeObject sets a typeobject to x; nil means AnyType.
func (v *Value) AssignTypeObject(x *Type) *Value {
	v.t.checkKind("AssignTypeObject", TypeObject)
	if x == nil {
		x = zeroTypeObject
	}
	v.rep = x
	return v
}

// AssignLen resizes a list to n elems.  New elems are zero.
func (v *Value) AssignLen(n int) *Value {
	v.t.checkKind("AssignLen", List)
	switch rep := v.rep.(type) {
	case repBytes:
		v.rep = resizeBytes(rep, n)
	case repSequence:
		if n > cap(rep) {
			grown := make(repSequence, n)
			copy(grown, rep)
			v.rep = grown
			break
		}
		if n > len(rep) {
			// Nil elems are lazily zero; see repSequence.Index.
			clear(rep[len(rep):n])
		}
		v.rep = rep[:n]
	}
	return v
}

// resizeBytes returns rep with length n, reusing its storage when it fits.
// Bytes past the old length are zero.
func resizeBytes(rep repBytes, n int) repBytes {
	if n > cap(rep) {
		grown := make(repBytes, n)
		copy(grown, rep)
		return grown
	}
	if n > len(rep) {
		clear(rep[len(rep):n])
	}
	return rep[:n]
}

func (v *Value) AssignSetKey(key *Value) *Value {
	v.t.checkKind("AssignSetKey", Set)
	v.rep.(repMap).Assign(typedCopy(v.t.key, key), nil)
	return v
}

func (v *Value) DeleteSetKey(key *Value) *Value {
	v.t.checkKind("DeleteSetKey", Set)
	v.rep.(repMap).Delete(typedCopy(v.t.key, key))
	return v
}

// AssignMapIndex stores a copy of elem under key, or deletes key if elem is
// nil.
func (v *Value) AssignMapIndex(key, elem *Value) *Value {
	v.t.checkKind("AssignMapIndex", Map)
	rep, k := v.rep.(repMap), typedCopy(v.t.key, key)
	if elem == nil {
		rep.Delete(k)
	} else {
		rep.Assign(k, typedCopy(v.t.elem, elem))
	}
	return v
}

// AssignUnionField makes a union hold a copy of x in field ix.
func (v *Value) AssignUnionField(ix int, x *Value) *Value {
	v.t.checkKind("AssignUnionField", Union)
	if ix < 0 || ix >= len(v.t.fields) {
		panic(fmt.Errorf("vdl: union %q index %d out of range", v.t, ix))
	}
	v.rep = repUnion{ix, typedCopy(v.t.fields[ix].Type, x)}
	return v
}

// SortValuesAsString sorts values in place by String and returns them.  The
// order is only stable within one build; it's meant for tests and for
// printing set and map keys.
func SortValuesAsString(values []*Value) []*Value {
	sort.Slice(values, func(i, j int) bool { return values[i].String() < values[j].String() })
	return values
}
