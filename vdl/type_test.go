// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIdent(t *testing.T) {
	for ident, want := range map[string][2]string{
		".":         {"", ""},
		"a":         {"", "a"},
		"Foo":       {"", "Foo"},
		"a.Foo":     {"a", "Foo"},
		"a/Foo":     {"", "a/Foo"},
		"a/b.Foo":   {"a/b", "Foo"},
		"a/b.c.Foo": {"a/b.c", "Foo"},
	} {
		pkg, name := SplitIdent(ident)
		assert.Equal(t, want, [2]string{pkg, name}, ident)
	}
}

func TestBuiltinTypes(t *testing.T) {
	for want, tt := range map[string]*Type{
		"any": AnyType, "bool": BoolType, "byte": ByteType,
		"uint16": Uint16Type, "uint32": Uint32Type, "uint64": Uint64Type,
		"int16": Int16Type, "int32": Int32Type, "int64": Int64Type,
		"float32": Float32Type, "float64": Float64Type,
		"string": StringType, "typeobject": TypeObjectType,
	} {
		assert.Equal(t, want, tt.String())
		assert.Equal(t, want, tt.Kind().String())
		assert.Equal(t, tt == AnyType, tt.CanBeNil(), want)
		k := tt.Kind()
		assert.Equal(t, k.IsUint() || k.IsInt() || k.IsFloat(), k.IsNumber(), want)
	}
	assert.True(t, Byte.IsUint())
	assert.False(t, Int16.IsUint())
	assert.Equal(t, 32, Float32.BitLen())
}

// named applies NamedType when name is set.
func named(name string, tt *Type) *Type {
	if name == "" {
		return tt
	}
	return NamedType(name, tt)
}

func TestEnumType(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string // type string, or panic substring when bad is set
		bad    bool
	}{
		{"NoLabels", nil, "no enum labels", true},
		{"EmptyLabel", []string{""}, "empty enum label", true},
		{"", []string{"A"}, "enum{A}", false},
		{"A", []string{"A"}, "A enum{A}", false},
		{"AB", []string{"A", "B"}, "AB enum{A;B}", false},
	}
	for _, test := range tests {
		create := func() *Type { return named(test.name, EnumType(test.labels...)) }
		if test.bad {
			expectPanic(t, func() { create() }, test.want, "enum %s", test.name)
			continue
		}
		tt := create()
		assert.Equal(t, test.want, tt.String())
		assert.Equal(t, len(test.labels), tt.NumEnumLabel())
		for ix, label := range test.labels {
			assert.Equal(t, label, tt.EnumLabel(ix))
			assert.Equal(t, ix, tt.EnumIndex(label))
		}
		assert.Equal(t, -1, tt.EnumIndex("missing"))
	}
}

func TestStructType(t *testing.T) {
	bad := map[string][]Field{
		"empty field name":     {{"", BoolType}},
		"duplicate field name": {{"A", BoolType}, {"A", Int32Type}},
		"nil field type":       {{"A", nil}},
	}
	for want, fields := range bad {
		expectPanic(t, func() { StructType(fields...) }, want, "%v", fields)
	}

	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{"", nil, "struct{}"},
		{"Empty", nil, "Empty struct{}"},
		{"A", []Field{{"A", BoolType}}, "A struct{A bool}"},
		{"ABC", []Field{{"A", BoolType}, {"B", Int32Type}, {"C", Uint64Type}}, "ABC struct{A bool;B int32;C uint64}"},
	}
	for _, test := range tests {
		tt := named(test.name, StructType(test.fields...))
		assert.Equal(t, Struct, tt.Kind())
		assert.Equal(t, test.want, tt.String())
		for ix, field := range test.fields {
			assert.Equal(t, field, tt.Field(ix))
			_, got := tt.FieldByName(field.Name)
			assert.Equal(t, ix, got)
		}
	}

	// Field order is part of the type.
	a, b := Field{"A", BoolType}, Field{"B", Int32Type}
	assert.Same(t, StructType(a, b), StructType(a, b))
	assert.NotSame(t, StructType(a, b), StructType(b, a))
}

func TestUnionType(t *testing.T) {
	expectPanic(t, func() { UnionType() }, "no union fields", "empty union")
	u := UnionType(Field{"A", BoolType}, Field{"B", StringType})
	assert.Equal(t, "union{A bool;B string}", u.String())
	assert.Equal(t, Union, shapeType.Kind())
	_, ix := shapeType.FieldByName("Label")
	assert.Equal(t, 1, ix)
}

func TestCompositeTypes(t *testing.T) {
	good := map[string]func() *Type{
		"[3]byte":                        func() *Type { return ArrayType(3, ByteType) },
		"[]string":                       func() *Type { return ListType(StringType) },
		"set[int32]":                     func() *Type { return SetType(Int32Type) },
		"map[string]any":                 func() *Type { return MapType(StringType, AnyType) },
		"?Point struct{X int64;Y int64}": func() *Type { return OptionalType(pointType) },
	}
	for want, create := range good {
		assert.Equal(t, want, create().String())
	}
	bad := map[string]func() *Type{
		"negative or zero array length": func() *Type { return ArrayType(0, ByteType) },
		"nil elem type":                 func() *Type { return ListType(nil) },
		"invalid key":                   func() *Type { return MapType(AnyType, StringType) },
		"invalid optional type":         func() *Type { return OptionalType(StringType) },
		"cannot be renamed":             func() *Type { return NamedType("A", AnyType) },
	}
	for want, create := range bad {
		expectPanic(t, func() { create() }, want, want)
	}
	expectPanic(t, func() { SetType(ListStringType) }, "invalid key", "list key")

	assert.True(t, ArrayType(2, ByteType).IsBytes())
	assert.True(t, ListByteType.IsBytes())
	assert.False(t, ListType(Uint16Type).IsBytes())
	assert.True(t, pointType.CanBeKey())
	assert.False(t, ListStringType.CanBeKey())
}

func TestTypeMismatch(t *testing.T) {
	for _, f := range []func(){
		func() { BoolType.Elem() },
		func() { StringType.Key() },
		func() { ListStringType.Len() },
		func() { colorType.NumField() },
		func() { pointType.EnumLabel(0) },
	} {
		expectMismatchedKind(t, f)
	}
}

// buildTree builds Node struct{Val string;Children []Node}, and returns the
// Node and []Node types.
func buildTree(t *testing.T) (node, children *Type) {
	var b TypeBuilder
	pendNode := b.Named("Node")
	pendChildren := b.List().AssignElem(pendNode)
	pendNode.AssignBase(b.Struct().AppendField("Val", StringType).AppendField("Children", pendChildren))
	require.True(t, b.Build())
	node, err := pendNode.Built()
	require.NoError(t, err)
	children, err = pendChildren.Built()
	require.NoError(t, err)
	return node, children
}

func TestRecursiveType(t *testing.T) {
	node, children := buildTree(t)
	assert.Equal(t, "Node struct{Val string;Children []Node}", node.String())
	assert.Same(t, children, node.Field(1).Type)
	assert.Same(t, node, children.Elem())
	for i := 0; i < 3; i++ {
		node2, children2 := buildTree(t)
		assert.Same(t, node, node2)
		assert.Same(t, children, children2)
	}

	visits := 0
	node.Walk(WalkAll, func(*Type) bool { visits++; return true })
	assert.Equal(t, 3, visits, "node, string and []Node")
	visits = 0
	node.Walk(WalkInline, func(*Type) bool { visits++; return true })
	assert.Equal(t, 3, visits, "lists are visited but not descended")
}

func TestBuildErrors(t *testing.T) {
	var b TypeBuilder
	self := b.Named("A")
	self.AssignBase(b.Struct().AppendField("Self", self))
	assert.False(t, b.Build())
	_, err := self.Built()
	expectErr(t, err, "strict cycle", "self-containing struct")

	b = TypeBuilder{}
	s := b.Struct().
		AppendField("A", b.Named("Dup").AssignBase(BoolType)).
		AppendField("B", b.Named("Dup").AssignBase(StringType))
	assert.False(t, b.Build())
	_, err = s.Built()
	expectErr(t, err, "duplicate type names", "two types named Dup")

	b = TypeBuilder{}
	lst := b.List()
	lst.AssignElem(lst)
	assert.False(t, b.Build())
	_, err = lst.Built()
	expectErr(t, err, "cycle with no named type", "list of itself")

	b = TypeBuilder{}
	st := b.Struct()
	st.AppendField("Next", b.List().AssignElem(st))
	assert.False(t, b.Build())
	_, err = st.Built()
	expectErr(t, err, "cycle with no named type", "unnamed struct through list")
}
