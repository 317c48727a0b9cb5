// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/vanadium/vom/vdl"
)

// msgWriter writes whole messages to a stream, preceded by the version byte
// before the first message.
type msgWriter struct {
	w           io.Writer
	sentVersion bool
}

func (mw *msgWriter) write(msgs ...[]byte) error {
	if !mw.sentVersion {
		if _, err := mw.w.Write([]byte{Version80}); err != nil {
			return errors.Wrap(err, "vom: write version")
		}
		mw.sentVersion = true
	}
	for _, msg := range msgs {
		if _, err := mw.w.Write(msg); err != nil {
			return errors.Wrap(err, "vom: write message")
		}
	}
	return nil
}

// TypeEncoder assigns ids to types and writes their type messages.  It's
// safe for concurrent use, so one type stream can serve many value streams.
type TypeEncoder struct {
	idMu   sync.RWMutex
	ids    map[*vdl.Type]TypeId // guarded by idMu
	nextId TypeId               // guarded by idMu
	err    error                // guarded by idMu; set once an assigned id can't be sent

	writeMu sync.Mutex
	mw      *msgWriter // guarded by writeMu
	buf     *encbuf    // guarded by writeMu
	hdr     *encbuf    // guarded by writeMu
}

// NewTypeEncoder returns a TypeEncoder writing type messages to w.
func NewTypeEncoder(w io.Writer) *TypeEncoder {
	return newTypeEncoder(&msgWriter{w: w})
}

func newTypeEncoder(mw *msgWriter) *TypeEncoder {
	return &TypeEncoder{
		ids:    map[*vdl.Type]TypeId{},
		nextId: WireIdFirstUserType,
		mw:     mw,
		buf:    newEncbuf(),
		hdr:    newEncbuf(),
	}
}

// encode returns the id of tt, first writing type messages for tt and every
// type it reaches that hasn't been sent.  Subtypes are written before the
// types that refer to them, except where a cycle refers back to a type whose
// id is already assigned.
//
// Once a type message fails, every later call fails too: the peer never saw
// the ids assigned so far.
func (e *TypeEncoder) encode(tt *vdl.Type) (TypeId, error) {
	tid, isNew, err := e.assignId(tt)
	if err != nil || !isNew {
		return tid, err
	}
	wt, err := e.wireType(tt)
	if err == nil {
		err = e.writeTypeMsg(tid, wt)
	}
	if err != nil {
		e.fail(err)
		return 0, err
	}
	return tid, nil
}

func (e *TypeEncoder) fail(err error) {
	e.idMu.Lock()
	defer e.idMu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

// wireUnionIndex maps the kinds that refer to other types by id to their
// wireType field, and the struct type of that field.
var wireUnionIndex = map[vdl.Kind]struct {
	index int
	tt    *vdl.Type
}{
	vdl.Array:    {wireTypeArrayT, wireArrayType},
	vdl.List:     {wireTypeListT, wireListType},
	vdl.Set:      {wireTypeSetT, wireSetType},
	vdl.Map:      {wireTypeMapT, wireMapType},
	vdl.Optional: {wireTypeOptionalT, wireOptionalType},
}

// wireType returns the wireType value describing tt, encoding its subtypes.
func (e *TypeEncoder) wireType(tt *vdl.Type) (*vdl.Value, error) {
	wt := vdl.ZeroValue(wireTypeType)
	name := vdl.StringValue(tt.Name())
	kind := tt.Kind()
	switch kind {
	case vdl.Bool, vdl.Byte, vdl.String, vdl.Uint16, vdl.Uint32, vdl.Uint64, vdl.Int16, vdl.Int32, vdl.Int64, vdl.Float32, vdl.Float64:
		base := vdl.Uint64Value(uint64(bootstrapKindToId[kind]))
		return wt.AssignUnionField(wireTypeNamedT, wireStruct(wireNamedType, name, base)), nil
	case vdl.Enum:
		labels := make([]string, tt.NumEnumLabel())
		for ix := range labels {
			labels[ix] = tt.EnumLabel(ix)
		}
		return wt.AssignUnionField(wireTypeEnumT, wireStruct(wireEnumType, name, vdl.StringListValue(labels...))), nil
	case vdl.Struct, vdl.Union:
		fields := vdl.ZeroValue(wireFieldsType).AssignLen(tt.NumField())
		for ix := 0; ix < tt.NumField(); ix++ {
			f := tt.Field(ix)
			id, err := e.encode(f.Type)
			if err != nil {
				return nil, err
			}
			fields.Index(ix).Assign(wireStruct(wireFieldType, vdl.StringValue(f.Name), vdl.Uint64Value(uint64(id))))
		}
		if kind == vdl.Struct {
			return wt.AssignUnionField(wireTypeStructT, wireStruct(wireStructType, name, fields)), nil
		}
		return wt.AssignUnionField(wireTypeUnionT, wireStruct(wireUnionType, name, fields)), nil
	}
	wire, ok := wireUnionIndex[kind]
	if !ok {
		return nil, errors.Errorf("vom: encode unhandled type %v", tt)
	}
	var subs []*vdl.Type
	if kind == vdl.Set || kind == vdl.Map {
		subs = append(subs, tt.Key())
	}
	if kind != vdl.Set {
		subs = append(subs, tt.Elem())
	}
	fields := []*vdl.Value{name}
	for _, sub := range subs {
		id, err := e.encode(sub)
		if err != nil {
			return nil, err
		}
		fields = append(fields, vdl.Uint64Value(uint64(id)))
	}
	if kind == vdl.Array {
		fields = append(fields, vdl.Uint64Value(uint64(tt.Len())))
	}
	return wt.AssignUnionField(wire.index, wireStruct(wire.tt, fields...)), nil
}

// wireStruct returns a value of struct type tt with the given fields.
func wireStruct(tt *vdl.Type, fields ...*vdl.Value) *vdl.Value {
	v := vdl.ZeroValue(tt)
	for ix, f := range fields {
		v.AssignField(ix, f)
	}
	return v
}

// writeTypeMsg writes the message defining tid as wt.  Wire types are encoded
// like any other value.
func (e *TypeEncoder) writeTypeMsg(tid TypeId, wt *vdl.Value) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.buf.Reset()
	if err := encodeValue(e.buf, wt, nil); err != nil {
		return err
	}
	e.hdr.Reset()
	binaryEncodeInt(e.hdr, -int64(tid))
	binaryEncodeUint(e.hdr, uint64(e.buf.Len()))
	return e.mw.write(e.hdr.Bytes(), e.buf.Bytes())
}

// lookupId returns the id already assigned to tt, or 0.
func (e *TypeEncoder) lookupId(tt *vdl.Type) (TypeId, error) {
	if tid := bootstrapTypeToId[tt]; tid != 0 {
		return tid, nil
	}
	e.idMu.RLock()
	defer e.idMu.RUnlock()
	if e.err != nil {
		return 0, e.err
	}
	return e.ids[tt], nil
}

// assignId returns the id of tt, assigning the next free id if it has none.
// isNew is true only for the caller that assigned it.
func (e *TypeEncoder) assignId(tt *vdl.Type) (tid TypeId, isNew bool, err error) {
	if tid, err := e.lookupId(tt); err != nil || tid != 0 {
		return tid, false, err
	}
	e.idMu.Lock()
	defer e.idMu.Unlock()
	if e.err != nil {
		return 0, false, e.err
	}
	if tid := e.ids[tt]; tid != 0 {
		return tid, false, nil
	}
	if e.nextId > math.MaxInt64 {
		return 0, false, errors.New("vom: encoder type id overflow")
	}
	tid = e.nextId
	e.nextId++
	e.ids[tt] = tid
	return tid, true, nil
}
