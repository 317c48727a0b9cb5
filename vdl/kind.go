// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import "fmt"

// Kind is the kind of a Type.
type Kind uint

const (
	Any      Kind = iota // any value, with its type
	Optional             // a value that may be absent

	Bool
	Byte
	Uint16
	Uint32
	Uint64
	Int16
	Int32
	Int64
	Float32
	Float64
	String     // UTF-8
	Enum       // one of a fixed list of labels
	TypeObject // a *Type as a value

	Array  // fixed length sequence
	List   // variable length sequence
	Set    // distinct keys
	Map    // distinct keys, each with an elem
	Struct // named fields, all present
	Union  // named fields, exactly one present

	// internalNamed is a named type under construction in a TypeBuilder.
	internalNamed
)

// kindInfo holds the name of each kind, and the bit length of numbers.
var kindInfo = [...]struct {
	name string
	bits int
}{
	Any:        {"any", 0},
	Optional:   {"optional", 0},
	Bool:       {"bool", 0},
	Byte:       {"byte", 8},
	Uint16:     {"uint16", 16},
	Uint32:     {"uint32", 32},
	Uint64:     {"uint64", 64},
	Int16:      {"int16", 16},
	Int32:      {"int32", 32},
	Int64:      {"int64", 64},
	Float32:    {"float32", 32},
	Float64:    {"float64", 64},
	String:     {"string", 0},
	Enum:       {"enum", 0},
	TypeObject: {"typeobject", 0},
	Array:      {"array", 0},
	List:       {"list", 0},
	Set:        {"set", 0},
	Map:        {"map", 0},
	Struct:     {"struct", 0},
	Union:      {"union", 0},
}

func (k Kind) String() string {
	if k >= internalNamed {
		panic(fmt.Errorf("vdl: unhandled kind: %d", k))
	}
	return kindInfo[k].name
}

// IsNumber reports whether k is an integer or float kind.
func (k Kind) IsNumber() bool { return k.BitLen() > 0 }

// IsUint reports whether k is an unsigned integer kind, including Byte.
func (k Kind) IsUint() bool { return Byte <= k && k <= Uint64 }

func (k Kind) IsInt() bool   { return Int16 <= k && k <= Int64 }
func (k Kind) IsFloat() bool { return k == Float32 || k == Float64 }

// BitLen returns the size of a number kind in bits, and 0 for other kinds.
func (k Kind) BitLen() int {
	if k >= internalNamed {
		return 0
	}
	return kindInfo[k].bits
}
