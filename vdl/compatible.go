// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Compatible reports whether values of types a and b may be convertible.
// Incompatible types never convert; compatible ones convert unless a value is
// out of range.  The check exists to reject conversions that an empty value
// would let through, like []bool to []float32.
//
// Optional types are treated as their elem, and any is compatible with every
// type.  Otherwise:
//
//	bool, typeobject        only with themselves
//	numbers                 with each other
//	string, enum            with each other and with []byte or [N]byte
//	array, list             when elems are compatible
//	set[K]                  like map[K]bool
//	map[K]E                 with maps and sets when keys and elems are
//	                        compatible, and with non-empty structs when
//	                        string and K are, and every field is with E
//	struct, union           with the same kind, when every field sharing a
//	                        name is compatible and at least one does.  The
//	                        empty struct is compatible with every struct.
//
// Recursive types are only compared up to their first cycle.
func Compatible(a, b *Type) bool {
	a, b = a.NonOptional(), b.NonOptional()
	if a == b {
		return true
	}
	key := compatKey(a, b)
	if hit, ok := compatCache.Get(key); ok {
		return hit.(bool)
	}
	// Racing callers compute the same result.
	c := compatCheck{map[*Type]bool{}, map[*Type]bool{}}
	result := c.compat(a, b)
	compatCache.Set(key, result, 1)
	return result
}

// compatCache holds results keyed by type address, since types are
// hash-consed and never freed.
var compatCache = func() *ristretto.Cache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 17,
		MaxCost:     1 << 14,
		BufferItems: 64,
	})
	if err != nil {
		panic(fmt.Errorf("vdl: couldn't initialize compat cache: %v", err))
	}
	return cache
}()

// compatKey orders the pair so that most symmetric queries share a key.
func compatKey(a, b *Type) string {
	if compatRank(a) > compatRank(b) {
		a, b = b, a
	}
	return fmt.Sprintf("%p:%p", a, b)
}

func compatRank(t *Type) int {
	rank := int(t.kind) << 16
	switch t.kind {
	case Enum:
		rank += t.NumEnumLabel()
	case Struct, Union:
		rank += t.NumField()
	}
	return rank
}

// Scalar compatibility classes.
const (
	classNone = iota
	classNumber
	classBool
	classTypeObject
	classText
)

func compatClass(t *Type) int {
	switch {
	case t.kind.IsNumber():
		return classNumber
	case t.kind == Bool:
		return classBool
	case t.kind == TypeObject:
		return classTypeObject
	case t.kind == String || t.kind == Enum:
		return classText
	}
	return classNone
}

// compatCheck tracks the types visited on each side, to stop at cycles.
type compatCheck struct {
	seenA, seenB map[*Type]bool
}

func (c compatCheck) flip() compatCheck { return compatCheck{c.seenB, c.seenA} }

func (c compatCheck) compat(a, b *Type) bool {
	if a.kind == Optional {
		a = a.elem
	}
	if b.kind == Optional {
		b = b.elem
	}
	if a == b || c.seenA[a] || c.seenB[b] {
		return true
	}
	c.seenA[a], c.seenB[b] = true, true
	if a.kind == Any || b.kind == Any {
		return true
	}
	if ca, cb := compatClass(a), compatClass(b); ca != classNone || cb != classNone {
		switch {
		case ca == classText && b.IsBytes(), cb == classText && a.IsBytes():
			return true
		}
		return ca == cb
	}
	switch {
	case isSequence(a) && isSequence(b):
		return c.compat(a.elem, b.elem)
	case a.kind == Union && b.kind == Union:
		return c.fields(a, b)
	case a.kind == Struct && b.kind == Struct:
		return a.NumField() == 0 || b.NumField() == 0 || c.fields(a, b)
	case a.kind == Struct && isKeyed(b):
		return c.structEntries(a, b)
	case isKeyed(a) && b.kind == Struct:
		return c.flip().structEntries(b, a)
	case isKeyed(a) && isKeyed(b):
		return c.compat(a.key, b.key) && c.compat(entryElem(a), entryElem(b))
	}
	return false
}

func isSequence(t *Type) bool { return t.kind == Array || t.kind == List }
func isKeyed(t *Type) bool    { return t.kind == Set || t.kind == Map }

// entryElem is the elem of a map, or bool for a set.
func entryElem(t *Type) *Type {
	if t.kind == Set {
		return BoolType
	}
	return t.elem
}

// structEntries checks struct s against set or map m, as if s were
// map[string]E with every field of type E.
func (c compatCheck) structEntries(s, m *Type) bool {
	if s.NumField() == 0 || !c.compat(StringType, m.key) {
		return false
	}
	elem := entryElem(m)
	for _, f := range s.fields {
		if !c.compat(f.Type, elem) {
			return false
		}
	}
	return true
}

// fields checks the same-named fields of two structs or unions.
func (c compatCheck) fields(a, b *Type) bool {
	if len(a.fields) > len(b.fields) {
		return c.flip().fields(b, a)
	}
	matched := false
	for _, af := range a.fields {
		bf, ix := b.FieldByName(af.Name)
		if ix < 0 {
			continue
		}
		if !c.compat(af.Type, bf.Type) {
			return false
		}
		matched = true
	}
	return matched
}
