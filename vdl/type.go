// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"
	"slices"
	"strings"
)

// SplitIdent splits a qualified name at its last dot.
//
//	a/b.Foo   -> (a/b, Foo)
//	a.b/c.Foo -> (a.b/c, Foo)
//	Foo       -> ("",  Foo)
func SplitIdent(ident string) (pkgpath, name string) {
	if dot := strings.LastIndexByte(ident, '.'); dot >= 0 {
		return ident[:dot], ident[dot+1:]
	}
	return "", ident
}

// Type describes a vdl type.  Types are hash-consed: two types are the same
// exactly when their pointers are equal.  Types may be recursive, like a tree
// node struct with a []Node field.
//
// Methods panic when called on a kind they don't apply to.
type Type struct {
	kind   Kind
	name   string
	labels []string // Enum
	len    int      // Array
	elem   *Type    // Optional, Array, List, Map
	key    *Type    // Set, Map
	fields []Field  // Struct, Union
	unique string   // unique type string, set when the type is built
}

// Field is a field of a struct or union.
type Field struct {
	Name string
	Type *Type
}

func (t *Type) Kind() Kind { return t.kind }

// Name returns the name of t, which is empty for unnamed types.
func (t *Type) Name() string { return t.name }

// String returns the unique type string of t, which names every named type
// once and refers back to it afterwards.
func (t *Type) String() string {
	switch {
	case t == nil:
		return "<nil>"
	case t.unique != "":
		return t.unique
	}
	return uniqueTypeStr(t, map[*Type]bool{})
}

// IsBytes reports whether t is []byte or [N]byte, for any byte type.
func (t *Type) IsBytes() bool {
	return (t.kind == List || t.kind == Array) && t.elem.kind == Byte
}

// CanBeNil reports whether values of t may be nil, true for any and optional.
func (t *Type) CanBeNil() bool { return t.kind == Any || t.kind == Optional }

// NonOptional strips one level of optional from t.
func (t *Type) NonOptional() *Type {
	if t.kind == Optional {
		return t.elem
	}
	return t
}

// CanBeOptional reports whether ?t is a valid type; only structs qualify.
func (t *Type) CanBeOptional() bool { return t.kind == Struct }

// CanBeKey reports whether t may be a set or map key.
func (t *Type) CanBeKey() bool { return validKey(t, map[*Type]bool{}) }

func (t *Type) EnumLabel(ix int) string {
	t.checkKind("EnumLabel", Enum)
	return t.labels[ix]
}

// EnumIndex returns the index of label, or -1.
func (t *Type) EnumIndex(label string) int {
	t.checkKind("EnumIndex", Enum)
	return slices.Index(t.labels, label)
}

func (t *Type) NumEnumLabel() int {
	t.checkKind("NumEnumLabel", Enum)
	return len(t.labels)
}

func (t *Type) Len() int {
	t.checkKind("Len", Array)
	return t.len
}

func (t *Type) Elem() *Type {
	t.checkKind("Elem", Optional, Array, List, Map)
	return t.elem
}

func (t *Type) Key() *Type {
	t.checkKind("Key", Set, Map)
	return t.key
}

func (t *Type) Field(ix int) Field {
	t.checkKind("Field", Struct, Union)
	return t.fields[ix]
}

// FieldByName returns the named field and its index, or -1 if there's none.
func (t *Type) FieldByName(name string) (Field, int) {
	t.checkKind("FieldByName", Struct, Union)
	ix := slices.IndexFunc(t.fields, func(f Field) bool { return f.Name == name })
	if ix < 0 {
		return Field{}, -1
	}
	return t.fields[ix], ix
}

func (t *Type) NumField() int {
	t.checkKind("NumField", Struct, Union)
	return len(t.fields)
}

// AssignableFrom reports whether a value of type f can be stored as t without
// conversion.
func (t *Type) AssignableFrom(f *Type) bool { return t == f || t.kind == Any }

// WalkMode selects the subtypes visited by Walk.
type WalkMode int

const (
	// WalkAll visits every reachable subtype.
	WalkAll WalkMode = iota
	// WalkInline doesn't descend through optional, list, set or map, whose
	// values aren't stored inline.
	WalkInline
)

// Walk calls fn on t and then its subtypes depth first, once per type.  It
// stops and returns false when fn does.
func (t *Type) Walk(mode WalkMode, fn func(*Type) bool) bool {
	seen := map[*Type]bool{}
	var walk func(*Type) bool
	walk = func(t *Type) bool {
		if t == nil || seen[t] {
			return true
		}
		seen[t] = true
		if !fn(t) {
			return false
		}
		if mode == WalkInline {
			switch t.kind {
			case Optional, List, Set, Map:
				return true
			}
		}
		if !walk(t.elem) || !walk(t.key) {
			return false
		}
		for _, f := range t.fields {
			if !walk(f.Type) {
				return false
			}
		}
		return true
	}
	return walk(t)
}

func (t *Type) ptype() *Type { return t }

func (t *Type) errKind(method string, allowed ...Kind) error {
	return fmt.Errorf("vdl: %s mismatched kind; got: %v, want: %v", method, t, allowed)
}

func (t *Type) errBytes(method string) error {
	return fmt.Errorf("vdl: %s mismatched type; got: %v, want: bytes", method, t)
}

func (t *Type) checkKind(method string, allowed ...Kind) {
	if t == nil || !slices.Contains(allowed, t.kind) {
		panic(t.errKind(method, allowed...))
	}
}

func (t *Type) checkIsBytes(method string) {
	if !t.IsBytes() {
		panic(t.errBytes(method))
	}
}
