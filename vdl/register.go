// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"
	"sync"

	"github.com/vanadium/vom/verror"
)

// Native is implemented by Go types that have a vdl representation.  Generated
// code implements it for every named type it defines; it takes the place of
// reflection when converting between Go values and *Value.
type Native interface {
	// VDLType returns the vdl type of the receiver.
	VDLType() *Type
	// VDLToValue returns the receiver as a Value of type VDLType().
	VDLToValue() (*Value, error)
	// VDLFromValue sets the receiver from v, whose type is VDLType().
	VDLFromValue(v *Value) error
}

// NativeCtor returns a new zero Native, typically a pointer to a zero struct.
type NativeCtor func() Native

// Registry maps named vdl types to the constructors of their native Go
// representations.  The zero Registry is empty and ready to use, and all
// methods are safe for concurrent use.
//
// DefaultRegistry is the process-wide instance that generated code registers
// into; encoders and decoders may be given a different Registry, e.g. for
// tests.
type Registry struct {
	mu       sync.RWMutex
	fromName map[string]registryEntry
}

type registryEntry struct {
	tt   *Type
	ctor NativeCtor
}

// DefaultRegistry is the process-wide Registry.
var DefaultRegistry = &Registry{}

// Register registers ctor as the native constructor for the named type tt.
// Registering the same name again replaces the earlier registration, so the
// last registration wins.  Panics if tt is unnamed, or if ctor is nil.
func (r *Registry) Register(tt *Type, ctor NativeCtor) {
	if tt == nil || tt.Name() == "" {
		panic(fmt.Errorf("vdl: Register of unnamed type %v", tt))
	}
	if ctor == nil {
		panic(fmt.Errorf("vdl: Register(%v) with nil constructor", tt))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fromName == nil {
		r.fromName = make(map[string]registryEntry)
	}
	r.fromName[tt.Name()] = registryEntry{tt, ctor}
}

// Register registers ctor for tt in the DefaultRegistry.
func Register(tt *Type, ctor NativeCtor) {
	DefaultRegistry.Register(tt, ctor)
}

// Lookup returns the registered type and constructor for the type name of tt.
// The registered type may differ from tt when the two sides of a stream were
// built from different versions of a type.
func (r *Registry) Lookup(tt *Type) (*Type, NativeCtor, bool) {
	if r == nil || tt == nil || tt.Name() == "" {
		return nil, nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.fromName[tt.Name()]
	return entry.tt, entry.ctor, ok
}

// Describe returns the vdl type of the native value v.  Natives describe
// themselves, a *Value reports its own type, and Go primitives map to the
// built-in types:
//
//	bool                     BoolType
//	byte                     ByteType
//	uint16, uint32, uint64   Uint{16,32,64}Type
//	uint                     Uint64Type
//	int16, int32, int64      Int{16,32,64}Type
//	int                      Int64Type
//	float32, float64         Float{32,64}Type
//	string                   StringType
//	[]byte                   ListByteType
//	[]string                 ListStringType
//	*Type                    TypeObjectType
//	nil                      AnyType
//
// All other values fail with ErrUnregisteredType.
func (r *Registry) Describe(v interface{}) (*Type, error) {
	switch x := v.(type) {
	case nil:
		return AnyType, nil
	case Native:
		return x.VDLType(), nil
	case *Value:
		if !x.IsValid() {
			return nil, verror.New(ErrUnregisteredType, "", "invalid *vdl.Value")
		}
		return x.Type(), nil
	case bool:
		return BoolType, nil
	case byte:
		return ByteType, nil
	case uint16:
		return Uint16Type, nil
	case uint32:
		return Uint32Type, nil
	case uint64, uint:
		return Uint64Type, nil
	case int16:
		return Int16Type, nil
	case int32:
		return Int32Type, nil
	case int64, int:
		return Int64Type, nil
	case float32:
		return Float32Type, nil
	case float64:
		return Float64Type, nil
	case string:
		return StringType, nil
	case []byte:
		return ListByteType, nil
	case []string:
		return ListStringType, nil
	case *Type:
		return TypeObjectType, nil
	}
	return nil, verror.New(ErrUnregisteredType, "", fmt.Sprintf("%T", v))
}
