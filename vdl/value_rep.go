// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"sort"
	"strings"
)

// repBytes is the rep of []byte and [N]byte, so that Bytes can alias it.
type repBytes []byte

func copyRepBytes(rep repBytes) repBytes {
	return append(repBytes(nil), rep...)
}

func (rep repBytes) IsZero(t *Type) bool {
	switch t.kind {
	case List:
		return len(rep) == 0
	case Array:
		return strings.Count(string(rep), "\x00") == len(rep)
	}
	panic(t.errBytes("IsZero"))
}

// repMap is the rep of sets and maps; set entries have a nil val.  Keys of
// scalar, enum and byte-string types live in a Go map.  Other keys can't be Go
// map keys, so they live in a slice and lookups compare with EqualValue.  The
// slice is behind a pointer since Value holds the repMap itself.
type repMap struct {
	fast map[interface{}]kvPair
	slow *[]kvPair
}

type kvPair struct {
	key, val *Value
}

func (kv kvPair) String() string {
	s := stringRep(kv.key.t, kv.key.rep)
	if kv.val != nil {
		s += ": " + stringRep(kv.val.t, kv.val.rep)
	}
	return s
}

func hashableKey(key *Type) bool {
	switch key.kind {
	case Bool, Byte, Uint16, Uint32, Uint64, Int16, Int32, Int64, Float32, Float64, String, Enum:
		return true
	}
	return key.IsBytes()
}

// hashKey returns the Go map key for key, which must be hashable.
func hashKey(key *Value) interface{} {
	if b, ok := key.rep.(repBytes); ok {
		return string(b)
	}
	return key.rep
}

func zeroRepMap(key *Type) repMap {
	if hashableKey(key) {
		return repMap{fast: map[interface{}]kvPair{}}
	}
	return repMap{slow: new([]kvPair)}
}

// each calls fn on every entry until fn returns false.
func (rep repMap) each(fn func(kvPair) bool) {
	if rep.fast != nil {
		for _, kv := range rep.fast {
			if !fn(kv) {
				return
			}
		}
		return
	}
	for _, kv := range *rep.slow {
		if !fn(kv) {
			return
		}
	}
}

func copyRepMap(rep repMap) repMap {
	var cp repMap
	if rep.fast != nil {
		cp.fast = make(map[interface{}]kvPair, len(rep.fast))
	} else {
		slow := make([]kvPair, 0, len(*rep.slow))
		cp.slow = &slow
	}
	rep.each(func(kv kvPair) bool {
		cp.Assign(CopyValue(kv.key), CopyValue(kv.val))
		return true
	})
	return cp
}

func equalRepMap(a, b repMap) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.each(func(kv kvPair) bool {
		val, ok := b.Index(kv.key)
		equal = ok && EqualValue(kv.val, val)
		return equal
	})
	return equal
}

func (rep repMap) Len() int {
	if rep.fast != nil {
		return len(rep.fast)
	}
	return len(*rep.slow)
}

// String sorts the entries so that equal maps print the same.
func (rep repMap) String() string {
	entries := make([]string, 0, rep.Len())
	rep.each(func(kv kvPair) bool {
		entries = append(entries, kv.String())
		return true
	})
	sort.Strings(entries)
	return "{" + strings.Join(entries, ", ") + "}"
}

func (rep repMap) Keys() []*Value {
	keys := make([]*Value, 0, rep.Len())
	rep.each(func(kv kvPair) bool {
		keys = append(keys, kv.key)
		return true
	})
	return keys
}

// find returns the slow index of key, or -1.
func (rep repMap) find(key *Value) int {
	for ix, kv := range *rep.slow {
		if EqualValue(kv.key, key) {
			return ix
		}
	}
	return -1
}

func (rep repMap) Index(key *Value) (*Value, bool) {
	if rep.fast != nil {
		kv, ok := rep.fast[hashKey(key)]
		return kv.val, ok
	}
	if ix := rep.find(key); ix >= 0 {
		return (*rep.slow)[ix].val, true
	}
	return nil, false
}

func (rep repMap) Assign(key, val *Value) {
	switch {
	case rep.fast != nil:
		rep.fast[hashKey(key)] = kvPair{key, val}
	default:
		if ix := rep.find(key); ix >= 0 {
			(*rep.slow)[ix].val = val
			return
		}
		*rep.slow = append(*rep.slow, kvPair{key, val})
	}
}

func (rep repMap) Delete(key *Value) {
	if rep.fast != nil {
		delete(rep.fast, hashKey(key))
		return
	}
	if ix := rep.find(key); ix >= 0 {
		slow := *rep.slow
		last := len(slow) - 1
		slow[ix] = slow[last]
		*rep.slow = slow[:last]
	}
}

// repSequence is the rep of arrays, lists and structs.  A nil entry stands
// for the zero value of its type and is filled in on first Index.  Lists start
// out nil; arrays and structs start at their fixed length.
type repSequence []*Value

func copyRepSequence(rep repSequence) repSequence {
	if rep == nil {
		return nil
	}
	cp := make(repSequence, len(rep))
	for ix, elem := range rep {
		cp[ix] = CopyValue(elem)
	}
	return cp
}

func equalRepSequence(a, b repSequence) bool {
	if len(a) != len(b) {
		return false
	}
	for ix, aelem := range a {
		belem := b[ix]
		switch {
		case aelem == nil && belem == nil:
		case aelem == nil:
			if !belem.IsZero() {
				return false
			}
		case belem == nil:
			if !aelem.IsZero() {
				return false
			}
		case !EqualValue(aelem, belem):
			return false
		}
	}
	return true
}

func (rep repSequence) AllValuesZero() bool {
	for _, elem := range rep {
		if elem != nil && !elem.IsZero() {
			return false
		}
	}
	return true
}

func (rep repSequence) String(t *Type) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for ix, elem := range rep {
		if ix > 0 {
			sb.WriteString(", ")
		}
		et := t.elem
		if t.kind == Struct {
			et = t.fields[ix].Type
			sb.WriteString(t.fields[ix].Name + ": ")
		}
		if elem == nil {
			sb.WriteString(stringRep(et, zeroRep(et)))
		} else {
			sb.WriteString(stringRep(elem.t, elem.rep))
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func (rep repSequence) Index(t *Type, ix int) *Value {
	if rep[ix] == nil {
		rep[ix] = ZeroValue(t)
	}
	return rep[ix]
}

// repUnion is the rep of a union: the index of the chosen field and its value.
type repUnion struct {
	index int
	value *Value
}

func copyRepUnion(rep repUnion) repUnion {
	return repUnion{rep.index, CopyValue(rep.value)}
}

func equalRepUnion(a, b repUnion) bool {
	return a.index == b.index && EqualValue(a.value, b.value)
}

func (rep repUnion) IsZero() bool {
	return rep.index == 0 && rep.value.IsZero()
}

func (rep repUnion) String(t *Type) string {
	return "{" + t.fields[rep.index].Name + ": " + stringRep(rep.value.t, rep.value.rep) + "}"
}
