// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import "github.com/vanadium/vom/vdl"

// TypeId identifies a type within a single stream.
type TypeId uint64

// Version80 is the first byte of every vom stream.
const Version80 byte = 0x80

// Control bytes.
const (
	WireCtrlNil byte = 0xe0 // nil optional or any
	WireCtrlEnd byte = 0xe1 // end of struct fields
)

// Bootstrap type ids, known to both sides without being sent.
const (
	WireIdBool       TypeId = 1
	WireIdByte       TypeId = 2
	WireIdString     TypeId = 3
	WireIdUint16     TypeId = 4
	WireIdUint32     TypeId = 5
	WireIdUint64     TypeId = 6
	WireIdInt16      TypeId = 7
	WireIdInt32      TypeId = 8
	WireIdInt64      TypeId = 9
	WireIdFloat32    TypeId = 10
	WireIdFloat64    TypeId = 11
	WireIdTypeObject TypeId = 14
	WireIdAny        TypeId = 15

	// Ids 16 through 38 are reserved for the types that describe types.
	wireIdWireType     TypeId = 16
	wireIdWireNamed    TypeId = 17
	wireIdWireEnum     TypeId = 18
	wireIdWireArray    TypeId = 19
	wireIdWireList     TypeId = 20
	wireIdWireSet      TypeId = 21
	wireIdWireMap      TypeId = 22
	wireIdWireField    TypeId = 23
	wireIdWireFields   TypeId = 24
	wireIdWireStruct   TypeId = 25
	wireIdWireUnion    TypeId = 26
	wireIdWireOptional TypeId = 27

	WireIdByteList   TypeId = 39
	WireIdStringList TypeId = 40

	// WireIdFirstUserType is the first id assigned to types sent in a stream.
	WireIdFirstUserType TypeId = 41
)

// Field indices of the wireType union.
const (
	wireTypeNamedT = iota
	wireTypeEnumT
	wireTypeArrayT
	wireTypeListT
	wireTypeSetT
	wireTypeMapT
	wireTypeStructT
	wireTypeUnionT
	wireTypeOptionalT
)

var (
	wireNamedType = vdl.NamedType("wireNamed", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Base", Type: vdl.Uint64Type},
	))
	wireEnumType = vdl.NamedType("wireEnum", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Labels", Type: vdl.ListStringType},
	))
	wireArrayType = vdl.NamedType("wireArray", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Elem", Type: vdl.Uint64Type},
		vdl.Field{Name: "Len", Type: vdl.Uint64Type},
	))
	wireListType = vdl.NamedType("wireList", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Elem", Type: vdl.Uint64Type},
	))
	wireSetType = vdl.NamedType("wireSet", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Key", Type: vdl.Uint64Type},
	))
	wireMapType = vdl.NamedType("wireMap", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Key", Type: vdl.Uint64Type},
		vdl.Field{Name: "Elem", Type: vdl.Uint64Type},
	))
	wireFieldType = vdl.NamedType("wireField", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Type", Type: vdl.Uint64Type},
	))
	wireFieldsType = vdl.ListType(wireFieldType)
	wireStructType = vdl.NamedType("wireStruct", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Fields", Type: wireFieldsType},
	))
	wireUnionType = vdl.NamedType("wireUnion", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Fields", Type: wireFieldsType},
	))
	wireOptionalType = vdl.NamedType("wireOptional", vdl.StructType(
		vdl.Field{Name: "Name", Type: vdl.StringType},
		vdl.Field{Name: "Elem", Type: vdl.Uint64Type},
	))

	// wireTypeType is the type of every type message.
	wireTypeType = vdl.NamedType("wireType", vdl.UnionType(
		vdl.Field{Name: "NamedT", Type: wireNamedType},
		vdl.Field{Name: "EnumT", Type: wireEnumType},
		vdl.Field{Name: "ArrayT", Type: wireArrayType},
		vdl.Field{Name: "ListT", Type: wireListType},
		vdl.Field{Name: "SetT", Type: wireSetType},
		vdl.Field{Name: "MapT", Type: wireMapType},
		vdl.Field{Name: "StructT", Type: wireStructType},
		vdl.Field{Name: "UnionT", Type: wireUnionType},
		vdl.Field{Name: "OptionalT", Type: wireOptionalType},
	))

	bootstrapIdToType = map[TypeId]*vdl.Type{
		WireIdBool:         vdl.BoolType,
		WireIdByte:         vdl.ByteType,
		WireIdString:       vdl.StringType,
		WireIdUint16:       vdl.Uint16Type,
		WireIdUint32:       vdl.Uint32Type,
		WireIdUint64:       vdl.Uint64Type,
		WireIdInt16:        vdl.Int16Type,
		WireIdInt32:        vdl.Int32Type,
		WireIdInt64:        vdl.Int64Type,
		WireIdFloat32:      vdl.Float32Type,
		WireIdFloat64:      vdl.Float64Type,
		WireIdTypeObject:   vdl.TypeObjectType,
		WireIdAny:          vdl.AnyType,
		wireIdWireType:     wireTypeType,
		wireIdWireNamed:    wireNamedType,
		wireIdWireEnum:     wireEnumType,
		wireIdWireArray:    wireArrayType,
		wireIdWireList:     wireListType,
		wireIdWireSet:      wireSetType,
		wireIdWireMap:      wireMapType,
		wireIdWireField:    wireFieldType,
		wireIdWireFields:   wireFieldsType,
		wireIdWireStruct:   wireStructType,
		wireIdWireUnion:    wireUnionType,
		wireIdWireOptional: wireOptionalType,
		WireIdByteList:     vdl.ListByteType,
		WireIdStringList:   vdl.ListStringType,
	}
	bootstrapTypeToId = make(map[*vdl.Type]TypeId)

	// bootstrapKindToId maps the kinds that NamedT may rename to the id of their
	// unnamed base.
	bootstrapKindToId = map[vdl.Kind]TypeId{
		vdl.Bool:    WireIdBool,
		vdl.Byte:    WireIdByte,
		vdl.String:  WireIdString,
		vdl.Uint16:  WireIdUint16,
		vdl.Uint32:  WireIdUint32,
		vdl.Uint64:  WireIdUint64,
		vdl.Int16:   WireIdInt16,
		vdl.Int32:   WireIdInt32,
		vdl.Int64:   WireIdInt64,
		vdl.Float32: WireIdFloat32,
		vdl.Float64: WireIdFloat64,
	}
)

func init() {
	for id, tt := range bootstrapIdToType {
		bootstrapTypeToId[tt] = id
	}
}

// hasMsgLen returns true iff value messages of type tt carry a byte length.
func hasMsgLen(tt *vdl.Type) bool {
	if tt.IsBytes() {
		return false
	}
	switch tt.Kind() {
	case vdl.Array, vdl.List, vdl.Set, vdl.Map, vdl.Struct, vdl.Union, vdl.Any, vdl.Optional:
		return true
	}
	return false
}

// wireNameField returns the Name field common to every wireType payload.
func wireNameField(wt *vdl.Value) (int, *vdl.Value, string) {
	index, payload := wt.UnionField()
	return index, payload, payload.StructField(0).RawString()
}
