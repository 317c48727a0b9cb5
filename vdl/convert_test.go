// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadium/vom/verror"
)

func structABC(names ...string) *Type {
	var fields []Field
	for _, name := range names {
		fields = append(fields, Field{name, Int64Type})
	}
	return NamedType("Struct"+strings.Join(names, ""), StructType(fields...))
}

func structValue(tt *Type, values ...int64) *Value {
	v := ZeroValue(tt)
	for i, x := range values {
		v.StructField(i).AssignInt(x)
	}
	return v
}

func TestConvertNumbers(t *testing.T) {
	tests := []struct {
		src    *Value
		tt     *Type
		want   *Value
		errstr string
	}{
		{Uint16Value(300), Uint64Type, Uint64Value(300), ""},
		{Uint16Value(300), ByteType, nil, "out of range"},
		{Uint64Value(255), ByteType, ByteValue(255), ""},
		{Int32Value(-1), Uint64Type, nil, "out of range"},
		{Int32Value(-1), ByteType, nil, "out of range"},
		{Int32Value(-1), Int16Type, Int16Value(-1), ""},
		{Int64Value(1 << 40), Int32Type, nil, "out of range"},
		{Int64Value(1 << 40), Float64Type, Float64Value(1 << 40), ""},
		{Int64Value(1<<24 + 1), Float32Type, nil, "out of range"},
		{Uint64Value(1 << 63), Int64Type, nil, "out of range"},
		{Float64Value(1.5), Int64Type, nil, "not representable"},
		{Float64Value(2), Uint16Type, Uint16Value(2), ""},
		{Float64Value(-2), Uint16Type, nil, "not representable"},
		{Float64Value(0.5), Float32Type, Float32Value(0.5), ""},
		{Float64Value(0.1), Float32Type, nil, "not representable"},
		{Float32Value(0.1), Float64Type, Float64Value(float64(float32(0.1))), ""},
	}
	for _, test := range tests {
		got, err := Convert(test.tt, test.src)
		if !expectErr(t, err, test.errstr, "%v to %v", test.src, test.tt) {
			continue
		}
		if test.errstr != "" {
			assert.Equal(t, ErrConversion.ID, verror.ErrorID(err))
			continue
		}
		if !EqualValue(got, test.want) {
			t.Errorf(`%v to %v got %v, want %v`, test.src, test.tt, got, test.want)
		}
	}
}

func TestConvertStructFields(t *testing.T) {
	abc := structABC("A", "B", "C")
	src := structValue(abc, 1, 2, 3)

	// Fields missing from the target are dropped.
	ac := structABC("A", "C")
	got, err := Convert(ac, src)
	require.NoError(t, err)
	assert.True(t, EqualValue(got, structValue(ac, 1, 3)), "got %v", got)

	// Fields missing from the source take their zero value.
	abcd := structABC("A", "B", "C", "D")
	got, err = Convert(abcd, src)
	require.NoError(t, err)
	assert.True(t, EqualValue(got, structValue(abcd, 1, 2, 3, 0)), "got %v", got)

	// No common fields.
	_, err = Convert(structABC("X"), src)
	assert.Equal(t, ErrConversion.ID, verror.ErrorID(err))

	// Struct to and from map[string]int64.
	m, err := Convert(MapType(StringType, Int64Type), src)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.MapIndex(StringValue("B")).Int())
	back, err := Convert(abc, m)
	require.NoError(t, err)
	assert.True(t, EqualValue(back, src))
}

func TestConvertStringLike(t *testing.T) {
	got, err := Convert(colorType, StringValue("Green"))
	require.NoError(t, err)
	assert.Equal(t, "Green", got.EnumLabel())

	_, err = Convert(colorType, StringValue("Purple"))
	expectErr(t, err, "unknown label", "bad label")

	got, err = Convert(StringType, EnumValue(colorType, "Blue"))
	require.NoError(t, err)
	assert.Equal(t, "Blue", got.RawString())

	got, err = Convert(ListByteType, StringValue("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got.Bytes())

	_, err = Convert(StringType, BytesValue([]byte{0xff, 0xfe}))
	expectErr(t, err, "invalid UTF-8", "bad utf8")

	_, err = Convert(ArrayType(3, ByteType), StringValue("hi"))
	expectErr(t, err, "length 2", "array length")

	_, err = Convert(pointType, StringValue("x"))
	expectErr(t, err, "incompatible types", "string to struct")
}

func TestConvertSequences(t *testing.T) {
	list := ListValue(ListType(Uint16Type), Uint16Value(1), Uint16Value(2))
	got, err := Convert(ArrayType(2, Int64Type), list)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Index(0).Int())
	assert.Equal(t, int64(2), got.Index(1).Int())

	got, err = Convert(ListByteType, list)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got.Bytes())

	_, err = Convert(ArrayType(3, Int64Type), list)
	expectErr(t, err, "length 2", "array length")

	_, err = Convert(ListType(BoolType), ZeroValue(ListType(Float32Type)))
	expectErr(t, err, "incompatible types", "empty incompatible lists")
}

func TestConvertSetMap(t *testing.T) {
	m := ZeroValue(MapType(StringType, BoolType))
	m.AssignMapIndex(StringValue("a"), BoolValue(true))
	set, err := Convert(SetType(StringType), m)
	require.NoError(t, err)
	assert.True(t, set.ContainsKey(StringValue("a")))

	m.AssignMapIndex(StringValue("b"), BoolValue(false))
	_, err = Convert(SetType(StringType), m)
	expectErr(t, err, "false entry", "false map entry")

	back, err := Convert(MapType(StringType, BoolType), set)
	require.NoError(t, err)
	assert.True(t, back.MapIndex(StringValue("a")).Bool())
}

func TestConvertUnion(t *testing.T) {
	other := NamedType("Shape2", UnionType(Field{"Label", StringType}, Field{"Side", Int32Type}))
	src := ZeroValue(shapeType).AssignUnionField(1, StringValue("x"))
	got, err := Convert(other, src)
	require.NoError(t, err)
	index, field := got.UnionField()
	assert.Equal(t, 0, index)
	assert.Equal(t, "x", field.RawString())

	_, err = Convert(other, ZeroValue(shapeType))
	expectErr(t, err, `no field "Circle"`, "missing union field")
}

func TestConvertAnyOptional(t *testing.T) {
	p := pointValue(1, 2)
	av, err := Convert(AnyType, p)
	require.NoError(t, err)
	assert.Equal(t, Any, av.Kind())

	back, err := Convert(pointType, av)
	require.NoError(t, err)
	assert.True(t, EqualValue(back, p))

	opt, err := Convert(OptionalType(pointType), p)
	require.NoError(t, err)
	assert.True(t, EqualValue(opt.Elem(), p))

	nilOpt, err := Convert(OptionalType(pointType), ZeroValue(AnyType))
	require.NoError(t, err)
	assert.True(t, nilOpt.IsNil())

	_, err = Convert(pointType, ZeroValue(AnyType))
	expectErr(t, err, "nil value", "nil any to struct")

	// Values inside any are converted too.
	wrapped := AnyValue(Uint16Value(7))
	got, err := Convert(Int32Type, wrapped)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Int())
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b *Type
		want bool
	}{
		{BoolType, BoolType, true},
		{BoolType, Int32Type, false},
		{Uint16Type, Float64Type, true},
		{StringType, colorType, true},
		{StringType, ListByteType, true},
		{ListByteType, ListType(Uint16Type), true},
		{ListByteType, ListType(StringType), false},
		{StringType, pointType, false},
		{pointType, OptionalType(pointType), true},
		{pointType, structABC("A"), false},
		{pointType, StructType(), true},
		{SetType(StringType), MapType(StringType, BoolType), true},
		{AnyType, pointType, true},
		{TypeObjectType, StringType, false},
	}
	for _, test := range tests {
		if got := Compatible(test.a, test.b); got != test.want {
			t.Errorf(`Compatible(%v, %v) got %v, want %v`, test.a, test.b, got, test.want)
		}
		if got := Compatible(test.b, test.a); got != test.want {
			t.Errorf(`Compatible(%v, %v) got %v, want %v`, test.b, test.a, got, test.want)
		}
	}
}
