// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"io"
	"math"
	"sync"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/verror"
)

// TypeDecoder manages the receipt and unmarshalling of types from the other
// side of a connection.  Type definitions are recorded as they arrive, and
// each type is built the first time a value refers to it, so definitions may
// refer to ids that are defined later in the stream.
//
// A TypeDecoder created by NewTypeDecoder reads a dedicated type stream in its
// own goroutine, between calls to Start and Stop; lookups of ids that haven't
// arrived yet block until they do.  It is safe for concurrent use, so a single
// type stream may serve many value streams.
type TypeDecoder struct {
	typeMu   sync.Mutex
	cond     *sync.Cond            // signaled when definitions arrive, or err is set
	idToWire map[TypeId]*vdl.Value // GUARDED_BY(typeMu) defined, not yet built
	idToType map[TypeId]*vdl.Type  // GUARDED_BY(typeMu)
	err      error                 // GUARDED_BY(typeMu) set when the type stream ends

	buildMu sync.Mutex // serializes building of types

	// Only set for a dedicated type stream.
	buf      *decbuf
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewTypeDecoder returns a new TypeDecoder that reads types from the given
// reader.  Start must be called to begin reading.
func NewTypeDecoder(r io.Reader, opts ...Option) *TypeDecoder {
	cfg := newConfig(opts)
	d := newTypeDecoder()
	d.buf = newDecbuf(r)
	d.buf.maxLen = cfg.maxMessageLen
	d.done = make(chan struct{})
	return d
}

func newTypeDecoder() *TypeDecoder {
	d := &TypeDecoder{
		idToWire: make(map[TypeId]*vdl.Value),
		idToType: make(map[TypeId]*vdl.Type),
	}
	d.cond = sync.NewCond(&d.typeMu)
	return d
}

// Start starts reading the type stream in a background goroutine.
func (d *TypeDecoder) Start() {
	if d.buf == nil || d.started {
		return
	}
	d.started = true
	go d.readLoop()
}

// Stop stops the TypeDecoder.  Lookups of ids that haven't arrived fail from
// now on.  A read already blocked on the underlying reader is abandoned once it
// returns.
func (d *TypeDecoder) Stop() {
	d.stopOnce.Do(func() {
		d.setErr(errCorrupt("type decoder stopped"))
	})
}

func (d *TypeDecoder) setErr(err error) {
	d.typeMu.Lock()
	if d.err == nil {
		d.err = err
	}
	d.cond.Broadcast()
	d.typeMu.Unlock()
}

func (d *TypeDecoder) stopped() bool {
	d.typeMu.Lock()
	defer d.typeMu.Unlock()
	return d.err != nil
}

// readLoop reads type messages until the stream ends or is corrupt.
func (d *TypeDecoder) readLoop() {
	defer close(d.done)
	r := &valueReader{buf: d.buf}
	version, err := d.buf.ReadByte()
	if err == nil && version != Version80 {
		err = errCorrupt("bad version byte 0x%x", version)
	}
	for err == nil && !d.stopped() {
		err = d.readTypeMessage(r)
	}
	if err != nil {
		if isTruncated(err) && d.buf.Buffered() == 0 {
			err = errCorrupt("type stream ended")
		}
		d.setErr(err)
	}
}

func (d *TypeDecoder) readTypeMessage(r *valueReader) error {
	id, err := binaryDecodeInt(d.buf)
	switch {
	case err != nil:
		return err
	case id >= 0:
		return errCorrupt("value message %d in type stream", id)
	}
	wt, err := r.readMessage(wireTypeType)
	if err != nil {
		return err
	}
	return d.addWireType(TypeId(-id), wt)
}

// addWireType records the definition of id.
func (d *TypeDecoder) addWireType(id TypeId, wt *vdl.Value) error {
	if id < WireIdFirstUserType {
		return errCorrupt("type message redefines bootstrap id %d", id)
	}
	d.typeMu.Lock()
	defer d.typeMu.Unlock()
	if d.idToWire[id] != nil || d.idToType[id] != nil {
		return errCorrupt("duplicate definition of type id %d", id)
	}
	d.idToWire[id] = wt
	d.cond.Broadcast()
	return nil
}

// lookupWire returns the definition of id, blocking on a dedicated type stream
// until it arrives.  Returns a nil definition if id is already built.
func (d *TypeDecoder) lookupWire(id TypeId) (*vdl.Type, *vdl.Value, error) {
	d.typeMu.Lock()
	defer d.typeMu.Unlock()
	for {
		if tt := d.idToType[id]; tt != nil {
			return tt, nil, nil
		}
		if wt := d.idToWire[id]; wt != nil {
			return nil, wt, nil
		}
		if d.buf == nil {
			return nil, nil, errCorrupt("undefined type id %d", id)
		}
		if d.err != nil {
			return nil, nil, verror.Wrap(ErrCorruptStream, d.err, "", "undefined type id", id)
		}
		d.cond.Wait()
	}
}

// lookupType returns the type for id, building it and any types it refers to
// on first use.
func (d *TypeDecoder) lookupType(id TypeId) (*vdl.Type, error) {
	if tt := bootstrapIdToType[id]; tt != nil {
		return tt, nil
	}
	if tt, _, err := d.lookupWire(id); tt != nil || err != nil {
		return tt, err
	}
	d.buildMu.Lock()
	defer d.buildMu.Unlock()
	b := &typeBuilder{dec: d, pending: make(map[TypeId]vdl.TypeOrPending)}
	root, err := b.makePending(id)
	if err != nil {
		return nil, err
	}
	if tt, ok := root.(*vdl.Type); ok {
		return tt, nil // built concurrently
	}
	b.builder.Build()
	built := make(map[TypeId]*vdl.Type, len(b.pending))
	for pid, p := range b.pending {
		ptype, ok := p.(vdl.PendingType)
		if !ok {
			continue
		}
		tt, err := ptype.Built()
		if err != nil {
			return nil, errCorrupt("invalid type %d: %v", pid, err)
		}
		built[pid] = tt
	}
	d.typeMu.Lock()
	for pid, tt := range built {
		d.idToType[pid] = tt
		delete(d.idToWire, pid)
	}
	d.typeMu.Unlock()
	return built[id], nil
}

// typeBuilder converts a group of wire definitions into pending types.
type typeBuilder struct {
	dec     *TypeDecoder
	builder vdl.TypeBuilder
	pending map[TypeId]vdl.TypeOrPending
}

func (b *typeBuilder) makePending(id TypeId) (vdl.TypeOrPending, error) {
	if tt := bootstrapIdToType[id]; tt != nil {
		return tt, nil
	}
	if p := b.pending[id]; p != nil {
		return p, nil
	}
	tt, wt, err := b.dec.lookupWire(id)
	switch {
	case err != nil:
		return nil, err
	case tt != nil:
		return tt, nil
	}
	index, payload, name := wireNameField(wt)
	if index == wireTypeNamedT {
		if name == "" {
			return nil, errCorrupt("type id %d: NamedT without a name", id)
		}
		named := b.builder.Named(name)
		b.pending[id] = named
		base, err := b.idField(payload, 1)
		if err != nil {
			return nil, err
		}
		named.AssignBase(base)
		return named, nil
	}
	// Register the pending type before visiting children, so that cycles find
	// it.
	var base vdl.PendingType
	var fill func() error
	switch index {
	case wireTypeEnumT:
		enum := b.builder.Enum()
		labels := payload.StructField(1)
		for ix := 0; ix < labels.Len(); ix++ {
			enum.AppendLabel(labels.Index(ix).RawString())
		}
		base = enum
	case wireTypeArrayT:
		array := b.builder.Array()
		n := payload.StructField(2).Uint()
		if n > math.MaxInt32 {
			return nil, errCorrupt("type id %d: array length %d too large", id, n)
		}
		array.AssignLen(int(n))
		base, fill = array, func() error {
			elem, err := b.idField(payload, 1)
			if err == nil {
				array.AssignElem(elem)
			}
			return err
		}
	case wireTypeListT:
		list := b.builder.List()
		base, fill = list, func() error {
			elem, err := b.idField(payload, 1)
			if err == nil {
				list.AssignElem(elem)
			}
			return err
		}
	case wireTypeSetT:
		set := b.builder.Set()
		base, fill = set, func() error {
			key, err := b.idField(payload, 1)
			if err == nil {
				set.AssignKey(key)
			}
			return err
		}
	case wireTypeMapT:
		m := b.builder.Map()
		base, fill = m, func() error {
			key, err := b.idField(payload, 1)
			if err != nil {
				return err
			}
			elem, err := b.idField(payload, 2)
			if err == nil {
				m.AssignKey(key).AssignElem(elem)
			}
			return err
		}
	case wireTypeStructT:
		s := b.builder.Struct()
		base, fill = s, func() error {
			return b.eachField(payload, func(name string, t vdl.TypeOrPending) { s.AppendField(name, t) })
		}
	case wireTypeUnionT:
		u := b.builder.Union()
		base, fill = u, func() error {
			return b.eachField(payload, func(name string, t vdl.TypeOrPending) { u.AppendField(name, t) })
		}
	case wireTypeOptionalT:
		opt := b.builder.Optional()
		base, fill = opt, func() error {
			elem, err := b.idField(payload, 1)
			if err == nil {
				opt.AssignElem(elem)
			}
			return err
		}
	default:
		return nil, errCorrupt("type id %d: unknown wire type index %d", id, index)
	}
	result := vdl.TypeOrPending(base)
	if name != "" {
		named := b.builder.Named(name).AssignBase(base)
		result = named
	}
	b.pending[id] = result
	if fill != nil {
		if err := fill(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// idField returns the pending type referred to by the id in field index of the
// wire struct payload.
func (b *typeBuilder) idField(payload *vdl.Value, index int) (vdl.TypeOrPending, error) {
	return b.makePending(TypeId(payload.StructField(index).Uint()))
}

func (b *typeBuilder) eachField(payload *vdl.Value, fn func(string, vdl.TypeOrPending)) error {
	fields := payload.StructField(1)
	for ix := 0; ix < fields.Len(); ix++ {
		field := fields.Index(ix)
		t, err := b.idField(field, 1)
		if err != nil {
			return err
		}
		fn(field.StructField(0).RawString(), t)
	}
	return nil
}
