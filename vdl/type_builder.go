// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var (
	errNameNonEmpty   = errors.New("any and typeobject cannot be renamed")
	errNoLabels       = errors.New("no enum labels")
	errLabelEmpty     = errors.New("empty enum label")
	errHasLabels      = errors.New("labels only valid for enum")
	errLenZero        = errors.New("negative or zero array length")
	errLenNonZero     = errors.New("length only valid for array")
	errElemNil        = errors.New("nil elem type")
	errElemNonNil     = errors.New("elem only valid for optional, array, list and map")
	errKeyNil         = errors.New("nil key type")
	errKeyNonNil      = errors.New("key only valid for set and map")
	errFieldTypeNil   = errors.New("nil field type")
	errFieldNameEmpty = errors.New("empty field name")
	errNoFields       = errors.New("no union fields")
	errHasFields      = errors.New("fields only valid for struct or union")
	errBaseNil        = errors.New("nil base type for named type")
	errBaseCycle      = errors.New("invalid named type cycle")
	errNotBuilt       = errors.New("TypeBuilder.Build must be called before Pending.Built")
)

// Primitive types, the basis for all other types.  All have empty names.
var (
	AnyType        = primitiveType(Any)
	BoolType       = primitiveType(Bool)
	ByteType       = primitiveType(Byte)
	Uint16Type     = primitiveType(Uint16)
	Uint32Type     = primitiveType(Uint32)
	Uint64Type     = primitiveType(Uint64)
	Int16Type      = primitiveType(Int16)
	Int32Type      = primitiveType(Int32)
	Int64Type      = primitiveType(Int64)
	Float32Type    = primitiveType(Float32)
	Float64Type    = primitiveType(Float64)
	StringType     = primitiveType(String)
	TypeObjectType = primitiveType(TypeObject)
)

// Frequently used composite types.
var (
	ListByteType   = ListType(ByteType)
	ListStringType = ListType(StringType)
)

func primitiveType(k Kind) *Type {
	prim, err := typeCons(&Type{kind: k})
	if err != nil {
		panic(err)
	}
	return prim
}

// TypeOrPending is either a built *Type or a PendingType.  TypeBuilder methods
// accept both, so a pending type may refer to finished types and to other
// pending types, including itself.
type TypeOrPending interface {
	ptype() *Type
}

// PendingType is a type under construction.  Built returns the hash-consed
// result once TypeBuilder.Build has run; if any type in the builder failed,
// every Built returns a nil type, and the failing ones return an error.
type PendingType interface {
	TypeOrPending
	Built() (*Type, error)
}

// PendingOptional describes ?Elem; the elem must be a struct.
type PendingOptional interface {
	PendingType
	AssignElem(elem TypeOrPending) PendingOptional
}

// PendingEnum describes an enum.  Labels are non-empty, and there is at least
// one.
type PendingEnum interface {
	PendingType
	AppendLabel(label string) PendingEnum
}

type PendingArray interface {
	PendingType
	AssignLen(len int) PendingArray
	AssignElem(elem TypeOrPending) PendingArray
}

type PendingList interface {
	PendingType
	AssignElem(elem TypeOrPending) PendingList
}

type PendingSet interface {
	PendingType
	AssignKey(key TypeOrPending) PendingSet
}

type PendingMap interface {
	PendingType
	AssignKey(key TypeOrPending) PendingMap
	AssignElem(elem TypeOrPending) PendingMap
}

// PendingStruct describes a struct.  Field order is significant.
type PendingStruct interface {
	PendingType
	AppendField(name string, t TypeOrPending) PendingStruct
	NumField() int
}

// PendingUnion describes a union.  Field order is significant, and field 0
// holds the zero value.
type PendingUnion interface {
	PendingType
	AppendField(name string, t TypeOrPending) PendingUnion
	NumField() int
}

// PendingNamed gives a name to the structure of its base type.
type PendingNamed interface {
	PendingType
	AssignBase(base TypeOrPending) PendingNamed
}

// pending holds the *Type being described.  Build replaces it with the
// hash-consed result.
type pending struct {
	*Type
	err error
}

type (
	pendingOptional struct{ *pending }
	pendingEnum     struct{ *pending }
	pendingArray    struct{ *pending }
	pendingList     struct{ *pending }
	pendingSet      struct{ *pending }
	pendingMap      struct{ *pending }
	pendingStruct   struct{ *pending }
	pendingUnion    struct{ *pending }
	pendingNamed    struct{ *pending }
)

func (p pendingOptional) AssignElem(elem TypeOrPending) PendingOptional {
	p.elem = elem.ptype()
	return p
}

func (p pendingEnum) AppendLabel(label string) PendingEnum {
	p.labels = append(p.labels, label)
	return p
}

func (p pendingArray) AssignLen(len int) PendingArray {
	p.len = len
	return p
}

func (p pendingArray) AssignElem(elem TypeOrPending) PendingArray {
	p.elem = elem.ptype()
	return p
}

func (p pendingList) AssignElem(elem TypeOrPending) PendingList {
	p.elem = elem.ptype()
	return p
}

func (p pendingSet) AssignKey(key TypeOrPending) PendingSet {
	p.key = key.ptype()
	return p
}

func (p pendingMap) AssignKey(key TypeOrPending) PendingMap {
	p.key = key.ptype()
	return p
}

func (p pendingMap) AssignElem(elem TypeOrPending) PendingMap {
	p.elem = elem.ptype()
	return p
}

func (p pendingStruct) AppendField(name string, t TypeOrPending) PendingStruct {
	p.fields = append(p.fields, Field{name, t.ptype()})
	return p
}

func (p pendingStruct) NumField() int { return len(p.fields) }

func (p pendingUnion) AppendField(name string, t TypeOrPending) PendingUnion {
	p.fields = append(p.fields, Field{name, t.ptype()})
	return p
}

func (p pendingUnion) NumField() int { return len(p.fields) }

// AssignBase keeps the base in elem until Build; see resolveNamed.
func (p pendingNamed) AssignBase(base TypeOrPending) PendingNamed {
	p.elem = base.ptype()
	return p
}

// TypeBuilder builds a group of types in two steps: describe each type through
// the Pending values, then call Build.  Describing before building lets types
// refer to each other in any order, and lets recursive types refer to
// themselves.  Errors are reported per pending type by Built.
//
// Within one TypeBuilder each name belongs to exactly one type.  Separate
// builders may reuse a name for different types; that is how two versions of
// a named type coexist in one process.
//
// The zero TypeBuilder is empty and ready to use.
type TypeBuilder struct {
	ptypes []*pending
}

func (b *TypeBuilder) add(t *Type) *pending {
	p := &pending{Type: t, err: errNotBuilt}
	b.ptypes = append(b.ptypes, p)
	return p
}

func (b *TypeBuilder) Optional() PendingOptional {
	return pendingOptional{b.add(&Type{kind: Optional})}
}
func (b *TypeBuilder) Enum() PendingEnum     { return pendingEnum{b.add(&Type{kind: Enum})} }
func (b *TypeBuilder) Array() PendingArray   { return pendingArray{b.add(&Type{kind: Array})} }
func (b *TypeBuilder) List() PendingList     { return pendingList{b.add(&Type{kind: List})} }
func (b *TypeBuilder) Set() PendingSet       { return pendingSet{b.add(&Type{kind: Set})} }
func (b *TypeBuilder) Map() PendingMap       { return pendingMap{b.add(&Type{kind: Map})} }
func (b *TypeBuilder) Struct() PendingStruct { return pendingStruct{b.add(&Type{kind: Struct})} }
func (b *TypeBuilder) Union() PendingUnion   { return pendingUnion{b.add(&Type{kind: Union})} }

// Named starts a type called name; its structure comes from AssignBase.
func (b *TypeBuilder) Named(name string) PendingNamed {
	return pendingNamed{b.add(&Type{kind: internalNamed, name: name})}
}

// Build validates and hash-conses every pending type.  It returns false if any
// of them failed, in which case no pending type has a result.
func (b *TypeBuilder) Build() bool {
	for _, p := range b.ptypes {
		p.err = p.resolveNamed()
	}
	// Names are checked before consing; consing assumes one type per name.
	names := make(map[string]*Type)
	for _, p := range b.ptypes {
		if err := claimNames(p.Type, names); err != nil && p.err == nil {
			p.err = err
		}
	}
	ok := true
	for _, p := range b.ptypes {
		if p.err == nil {
			p.Type, p.err = typeCons(p.Type)
		}
		ok = ok && p.err == nil
	}
	if !ok {
		for _, p := range b.ptypes {
			p.Type = nil
		}
	}
	return ok
}

func (p *pending) ptype() *Type { return p.Type }

func (p *pending) Built() (*Type, error) { return p.Type, p.err }

// resolveNamed copies the structure of the base into a named type, following
// chains of named types.  The *Type keeps its identity, so references to it
// from other pending types stay valid.
func (p *pending) resolveNamed() error {
	if p.Type.kind != internalNamed {
		return nil
	}
	name, base := p.Type.name, p.Type.elem
	if name == "" {
		return fmt.Errorf("PendingNamed used to build unnamed type based on %v", base)
	}
	seen := map[*Type]bool{p.Type: true}
	for ; base == nil || base.kind == internalNamed; base = base.elem {
		switch {
		case base == nil:
			return errBaseNil
		case seen[base]:
			return errBaseCycle
		}
		seen[base] = true
	}
	*p.Type = *base
	p.Type.name = name
	p.Type.unique = ""
	return nil
}

// mustBuild builds b, and panics if p failed.
func mustBuild(b *TypeBuilder, p PendingType) *Type {
	b.Build()
	t, err := p.Built()
	if err != nil {
		panic(err)
	}
	return t
}

// The following helpers build a single type, and panic on invalid types.

func OptionalType(elem *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.Optional().AssignElem(elem))
}

func EnumType(labels ...string) *Type {
	var b TypeBuilder
	e := b.Enum()
	for _, label := range labels {
		e.AppendLabel(label)
	}
	return mustBuild(&b, e)
}

func ArrayType(len int, elem *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.Array().AssignLen(len).AssignElem(elem))
}

func ListType(elem *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.List().AssignElem(elem))
}

func SetType(key *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.Set().AssignKey(key))
}

func MapType(key, elem *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.Map().AssignKey(key).AssignElem(elem))
}

func StructType(fields ...Field) *Type {
	var b TypeBuilder
	s := b.Struct()
	for _, f := range fields {
		s.AppendField(f.Name, f.Type)
	}
	return mustBuild(&b, s)
}

func UnionType(fields ...Field) *Type {
	var b TypeBuilder
	u := b.Union()
	for _, f := range fields {
		u.AppendField(f.Name, f.Type)
	}
	return mustBuild(&b, u)
}

func NamedType(name string, base *Type) *Type {
	var b TypeBuilder
	return mustBuild(&b, b.Named(name).AssignBase(base))
}

// subtypes returns the types t refers to directly.
func subtypes(t *Type) []*Type {
	var subs []*Type
	if t.elem != nil {
		subs = append(subs, t.elem)
	}
	if t.key != nil {
		subs = append(subs, t.key)
	}
	for _, f := range t.fields {
		subs = append(subs, f.Type)
	}
	return subs
}

// claimNames records every named type reachable from t in names, and fails if
// two distinct types share a name.
func claimNames(t *Type, names map[string]*Type) error {
	if t == nil || t.name == "" {
		return nil
	}
	switch prev := names[t.name]; {
	case prev == t:
		return nil
	case prev != nil:
		return fmt.Errorf("duplicate type names %q and %q", prev, t)
	}
	names[t.name] = t
	for _, sub := range subtypes(t) {
		if err := claimNames(sub, names); err != nil {
			return err
		}
	}
	return nil
}

// uniqueTypeStr returns the canonical string of t, which is also its
// human-readable form.  Two types have the same string iff they are equal,
// whether or not they have been hash-consed yet; a type graph that shares a
// subtype and one that holds two copies of it print the same.  Named types
// print only their name once seen, which terminates recursive types since
// every cycle passes through a name.
func uniqueTypeStr(t *Type, seen map[*Type]bool) string {
	var b strings.Builder
	writeTypeStr(&b, t, seen)
	return b.String()
}

func writeTypeStr(b *strings.Builder, t *Type, seen map[*Type]bool) {
	if t.name != "" {
		b.WriteString(t.name)
		if seen[t] {
			return
		}
		b.WriteByte(' ')
	}
	seen[t] = true
	switch t.kind {
	case Optional:
		b.WriteByte('?')
		writeTypeStr(b, t.elem, seen)
	case Enum:
		b.WriteString("enum{" + strings.Join(t.labels, ";") + "}")
	case Array:
		b.WriteString("[" + strconv.Itoa(t.len) + "]")
		writeTypeStr(b, t.elem, seen)
	case List:
		b.WriteString("[]")
		writeTypeStr(b, t.elem, seen)
	case Set:
		b.WriteString("set[")
		writeTypeStr(b, t.key, seen)
		b.WriteByte(']')
	case Map:
		b.WriteString("map[")
		writeTypeStr(b, t.key, seen)
		b.WriteByte(']')
		writeTypeStr(b, t.elem, seen)
	case Struct, Union:
		if t.kind == Struct {
			b.WriteString("struct{")
		} else {
			b.WriteString("union{")
		}
		for ix, f := range t.fields {
			if ix > 0 {
				b.WriteByte(';')
			}
			b.WriteString(f.Name + " ")
			writeTypeStr(b, f.Type, seen)
		}
		b.WriteByte('}')
	default:
		b.WriteString(t.kind.String())
	}
}

// consed holds every hash-consed type, keyed by its unique string.
var (
	consMu sync.Mutex
	consed = map[string]*Type{}
)

// typeCons validates t and returns its hash-consed form.
func typeCons(t *Type) (*Type, error) {
	if err := validType(t); err != nil {
		return nil, err
	}
	consMu.Lock()
	defer consMu.Unlock()
	return consLocked(t), nil
}

// consLocked registers t before its subtypes, so recursive types terminate.
func consLocked(t *Type) *Type {
	if t == nil {
		return nil
	}
	if t.unique == "" {
		t.unique = uniqueTypeStr(t, make(map[*Type]bool))
	}
	if prev := consed[t.unique]; prev != nil {
		return prev
	}
	consed[t.unique] = t
	t.elem = consLocked(t.elem)
	t.key = consLocked(t.key)
	for ix := range t.fields {
		t.fields[ix].Type = consLocked(t.fields[ix].Type)
	}
	return t
}

// validType checks t and every type reachable from it.
func validType(t *Type) error {
	all := make(map[*Type]bool)
	if err := collectTypes(t, all); err != nil {
		return err
	}
	// Unnamed cycles come first; such types have no finite string.
	unnamed := make(map[*Type]cycleState)
	for tt := range all {
		if member := unnamedCycleMember(tt, unnamed); member != nil {
			return fmt.Errorf("%v type is inside of a cycle with no named type", member.kind)
		}
	}
	state := make(map[*Type]cycleState)
	for tt := range all {
		if member := strictCycleMember(tt, state); member != nil {
			return fmt.Errorf("type %q is inside of a strict cycle", member)
		}
	}
	keyOK := make(map[*Type]bool)
	for tt := range all {
		if (tt.kind == Set || tt.kind == Map) && !validKey(tt.key, keyOK) {
			return fmt.Errorf("invalid key %q in %q", tt.key, tt)
		}
	}
	return nil
}

// collectTypes checks the shape of t and its subtypes, adding each to all.
func collectTypes(t *Type, all map[*Type]bool) error {
	if t == nil || all[t] {
		return nil
	}
	all[t] = true
	if err := checkShape(t); err != nil {
		return err
	}
	for _, sub := range subtypes(t) {
		if err := collectTypes(sub, all); err != nil {
			return err
		}
	}
	return nil
}

// kindShape lists the attributes a kind carries; all others must be zero.
type kindShape struct {
	len, elem, key, labels, fields bool
}

var kindShapes = map[Kind]kindShape{
	Optional: {elem: true},
	Enum:     {labels: true},
	Array:    {len: true, elem: true},
	List:     {elem: true},
	Set:      {key: true},
	Map:      {key: true, elem: true},
	Struct:   {fields: true},
	Union:    {fields: true},
}

func checkShape(t *Type) error {
	if t.kind == internalNamed {
		panic(fmt.Errorf("vdl: unresolved named type %q", t.name))
	}
	shape := kindShapes[t.kind]
	switch {
	case (t.kind == Any || t.kind == TypeObject) && t.name != "":
		return errNameNonEmpty
	case shape.len && t.len <= 0:
		return errLenZero
	case !shape.len && t.len != 0:
		return errLenNonZero
	case shape.elem && t.elem == nil:
		return errElemNil
	case !shape.elem && t.elem != nil:
		return errElemNonNil
	case shape.key && t.key == nil:
		return errKeyNil
	case !shape.key && t.key != nil:
		return errKeyNonNil
	case !shape.labels && len(t.labels) > 0:
		return errHasLabels
	case !shape.fields && len(t.fields) > 0:
		return errHasFields
	}
	switch t.kind {
	case Optional:
		if !t.elem.CanBeOptional() {
			return fmt.Errorf("invalid optional type %q", t)
		}
	case Enum:
		if len(t.labels) == 0 {
			return errNoLabels
		}
		for _, label := range t.labels {
			if label == "" {
				return errLabelEmpty
			}
		}
	case Struct, Union:
		names := make(map[string]bool, len(t.fields))
		for _, f := range t.fields {
			switch {
			case f.Type == nil:
				return errFieldTypeNil
			case f.Name == "":
				return errFieldNameEmpty
			case names[f.Name]:
				return fmt.Errorf("%q has duplicate field name %q", t.name, f.Name)
			}
			names[f.Name] = true
		}
		// struct{} is allowed, but a union needs a field 0 for its zero value.
		if t.kind == Union && len(t.fields) == 0 {
			return errNoFields
		}
	}
	return nil
}

type cycleState int

const (
	cycleUnvisited cycleState = iota
	cycleVisiting
	cycleDone
)

// strictCycleMember returns a type on a cycle that passes only through arrays,
// structs and unions, or nil.  Such a type would have an infinite zero value.
func strictCycleMember(t *Type, state map[*Type]cycleState) *Type {
	switch state[t] {
	case cycleVisiting:
		return t
	case cycleDone:
		return nil
	}
	state[t] = cycleVisiting
	var next []*Type
	switch t.kind {
	case Array:
		next = []*Type{t.elem}
	case Struct, Union:
		next = subtypes(t)
	}
	for _, sub := range next {
		if member := strictCycleMember(sub, state); member != nil {
			return member
		}
	}
	state[t] = cycleDone
	return nil
}

// unnamedCycleMember returns a type on a cycle that passes through no named
// type, or nil.  Named types end the walk.
func unnamedCycleMember(t *Type, state map[*Type]cycleState) *Type {
	if t == nil || t.name != "" {
		return nil
	}
	switch state[t] {
	case cycleVisiting:
		return t
	case cycleDone:
		return nil
	}
	state[t] = cycleVisiting
	for _, sub := range subtypes(t) {
		if member := unnamedCycleMember(sub, state); member != nil {
			return member
		}
	}
	state[t] = cycleDone
	return nil
}

// validKey reports whether t may be a set or map key.  Any, typeobject and
// the types that can't be compared by value are excluded, also when nested
// in an array, struct or union.
func validKey(t *Type, ok map[*Type]bool) bool {
	if valid, seen := ok[t]; seen {
		return valid
	}
	ok[t] = true // recursive references don't make a key invalid
	valid := true
	switch t.kind {
	case Any, List, Map, Optional, Set, TypeObject:
		valid = false
	case Array, Struct, Union:
		for _, sub := range subtypes(t) {
			if !validKey(sub, ok) {
				valid = false
				break
			}
		}
	}
	ok[t] = valid
	return valid
}
