// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vdl provides generic representations of types and values for the
// vom codec.
//
// Types are built with TypeBuilder or the helpers like StructType, and are
// hash-consed: two *Type pointers are equal iff the types are identical.  Named
// types may be recursive through list, set, map, optional and union; strict
// cycles through struct and array fields are rejected.
//
// There is no notion of pointers in the vdl type system.  Go slices are called
// lists.  There is also no concept of nil list or map values; these values
// start out empty, and you cannot distinguish non-existence from emptiness.
// There is a special type called "typeobject" that allows a type to be used as
// a value.  Optionality is expressed via optional types, which may only wrap
// structs, and via the any type.
//
// Every value has an associated zero value.  Scalars are the same as Go: false
// for bools, 0 for numbers and "" for strings.  The zero value for typeobjects
// is the any type.  The zero value for enums is the label at index 0.  The zero
// value for list, set and map types is the empty value.  The zero value for
// struct types is a struct with all fields set recursively to their zero
// values.  The zero value for union types is field 0 set to its zero value.
// The zero value for any and optional types is nil.
//
// Values convert between compatible types with Convert; see Compatible for the
// rules.  Native Go types participate through the Native interface and a
// Registry.
package vdl
