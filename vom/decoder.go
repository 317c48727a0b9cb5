// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/vanadium/vom/vdl"
)

// Decoder manages the receipt and unmarshalling of typed values from the other
// side of a connection.  A Decoder is not safe for concurrent use.
//
// Each call reads exactly one value message, along with the type messages that
// precede it.  If the input ends in the middle of a message, the call returns
// ErrTruncatedInput and the Decoder rewinds to the start of that message, so
// the call may be retried once more input is available.  Type messages that
// were read completely are kept.  ErrCorruptStream is sticky; every later call
// returns it.  A clean end of input between messages is reported as io.EOF.
type Decoder struct {
	buf         *decbuf
	td          *TypeDecoder
	shared      bool // types arrive on a separate stream
	r           valueReader
	cfg         config
	readVersion bool
	err         error

	// onTypesRead is called with the type table after the first value message
	// is read.
	onTypesRead func(*TypeDecoder)
}

// NewDecoder returns a new Decoder that reads from the given reader.  Types are
// read inline from the same stream, unless the WithTypeDecoder option is given.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return newDecoder(newDecbuf(r), newConfig(opts))
}

// NewDecoderWithTypeDecoder returns a new Decoder that reads values from r,
// and types from td.  A single TypeDecoder may be shared by many Decoders.
func NewDecoderWithTypeDecoder(r io.Reader, td *TypeDecoder, opts ...Option) *Decoder {
	return NewDecoder(r, append(opts, WithTypeDecoder(td))...)
}

func newDecoder(buf *decbuf, cfg config) *Decoder {
	buf.maxLen = cfg.maxMessageLen
	d := &Decoder{buf: buf, cfg: cfg, td: cfg.typeDec}
	if d.td == nil {
		d.td = newTypeDecoder()
	} else {
		d.shared = true
	}
	d.r = valueReader{buf: buf, types: d.td}
	return d
}

// Decode reads the next value and stores it in target, which must be one of:
//
//	vdl.Native         the value is converted to target.VDLType()
//	**vdl.Value        set to the value as decoded, in its wire type
//	*vdl.Value         converted to its type if valid, otherwise set as decoded
//	*interface{}       set to the registered native value, see DecodeNative
//	a pointer to a Go primitive, e.g. *string or *[]byte
//
// Conversion failures return ErrConversion; the value is consumed and the
// stream stays usable.
func (d *Decoder) Decode(target interface{}) error {
	v, err := d.decodeWireValue(false)
	if err != nil {
		return err
	}
	return d.cfg.registry.Assign(target, v)
}

// DecodeValue reads the next value and converts it to tt.  If tt is nil the
// value is returned in its wire type.
func (d *Decoder) DecodeValue(tt *vdl.Type) (*vdl.Value, error) {
	v, err := d.decodeWireValue(false)
	if err != nil || tt == nil {
		return v, err
	}
	return vdl.Convert(tt, v)
}

// DecodeNative reads the next value and returns its native Go representation.
// Values of registered named types are returned as their registered Native;
// values of unknown named types are returned as a *vdl.Value dynamic record,
// which keeps the type name and all fields.
func (d *Decoder) DecodeNative() (interface{}, error) {
	v, err := d.decodeWireValue(false)
	if err != nil {
		return nil, err
	}
	return d.cfg.registry.ToNative(v)
}

// Ignore skips the next value.
func (d *Decoder) Ignore() error {
	_, err := d.decodeWireValue(true)
	return err
}

// decodeWireValue reads the next value message, and returns its value in the
// wire type.  If skip is set, the value isn't materialized if it can be
// skipped using its message length.
func (d *Decoder) decodeWireValue(skip bool) (*vdl.Value, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf.Mark()
	var progress bool
	v, err := d.readValueMessage(skip, &progress)
	switch {
	case err == nil:
		if d.onTypesRead != nil {
			d.onTypesRead(d.td)
			d.onTypesRead = nil
		}
	case isTruncated(err):
		d.buf.Rewind()
		if !progress && d.buf.Buffered() == 0 && errors.Is(err, io.EOF) {
			err = io.EOF
		}
		return nil, err
	case isCorrupt(err):
		d.err = err
	}
	d.buf.Unmark()
	return v, err
}

// readValueMessage reads type messages up to and including the next value
// message.  Completed type messages move the mark past themselves, and set
// progress.
func (d *Decoder) readValueMessage(skip bool, progress *bool) (*vdl.Value, error) {
	if !d.readVersion {
		version, err := d.buf.ReadByte()
		if err != nil {
			return nil, err
		}
		if version != Version80 {
			return nil, errCorrupt("bad version byte 0x%x", version)
		}
		d.readVersion = true
		d.buf.Mark()
	}
	for {
		id, err := binaryDecodeInt(d.buf)
		switch {
		case err != nil:
			return nil, err
		case id == 0:
			return nil, errCorrupt("message id 0")
		case id > 0:
			tt, err := d.td.lookupType(TypeId(id))
			if err != nil {
				return nil, err
			}
			if skip && hasMsgLen(tt) {
				return nil, d.skipMessage()
			}
			return d.r.readMessage(tt)
		}
		if d.shared {
			return nil, errCorrupt("type message %d in a stream with a separate type stream", -id)
		}
		wt, err := d.r.readMessage(wireTypeType)
		if err != nil {
			return nil, err
		}
		if err := d.td.addWireType(TypeId(-id), wt); err != nil {
			return nil, err
		}
		d.buf.Mark()
		*progress = true
	}
}

func (d *Decoder) skipMessage() error {
	n, err := binaryDecodeLen(d.buf)
	if err != nil {
		return err
	}
	return d.buf.Skip(n)
}

// dumpHook receives annotations from a valueReader.  Before reading each atom
// the reader calls prepare, and after reading it calls atom.
type dumpHook interface {
	prepare(format string, v ...interface{})
	atom(kind DumpKind, data interface{}, format string, v ...interface{})
}

// valueReader reads values in the binary format.  It is shared by the
// Decoder, the TypeDecoder and the Dumper.
type valueReader struct {
	buf   *decbuf
	types *TypeDecoder // nil if only bootstrap types may occur
	dump  dumpHook     // nil except for the Dumper
}

func (r *valueReader) prepare(format string, v ...interface{}) {
	if r.dump != nil {
		r.dump.prepare(format, v...)
	}
}

func (r *valueReader) atom(kind DumpKind, data interface{}, format string, v ...interface{}) {
	if r.dump != nil {
		r.dump.atom(kind, data, format, v...)
	}
}

func (r *valueReader) lookupType(id TypeId) (*vdl.Type, error) {
	if r.types != nil {
		return r.types.lookupType(id)
	}
	if tt := bootstrapIdToType[id]; tt != nil {
		return tt, nil
	}
	return nil, errCorrupt("undefined type id %d", id)
}

// readMessage reads the rest of a message holding a value of type tt, handling
// the message length.
func (r *valueReader) readMessage(tt *vdl.Type) (*vdl.Value, error) {
	if hasMsgLen(tt) {
		r.prepare("waiting for message len")
		n, err := binaryDecodeLen(r.buf)
		if err != nil {
			return nil, err
		}
		r.atom(DumpKindMsgLen, uint64(n), "")
		r.buf.SetLimit(n)
	}
	v := vdl.ZeroValue(tt)
	err := r.readValue(v)
	leftover := r.buf.RemoveLimit()
	switch {
	case err != nil:
		return nil, err
	case leftover > 0:
		return nil, errCorrupt("%d leftover bytes in message of type %v", leftover, tt)
	}
	return v, nil
}

// readValue reads a value of type v.Type() into v, which holds the zero value.
func (r *valueReader) readValue(v *vdl.Value) error {
	tt := v.Type()
	switch tt.Kind() {
	case vdl.Optional:
		r.prepare("waiting for optional control byte")
		ctrl, err := r.buf.PeekByte()
		if err != nil {
			return err
		}
		if ctrl == WireCtrlNil {
			if err := r.buf.Skip(1); err != nil {
				return err
			}
			r.atom(DumpKindControl, "NIL", "%v is nil", tt)
			return nil
		}
		v.Assign(vdl.NonNilZeroValue(tt))
		return r.readValue(v.Elem())
	case vdl.Any:
		r.prepare("waiting for any type id")
		id, ctrl, err := binaryDecodeUintWithControl(r.buf)
		switch {
		case err != nil:
			return err
		case ctrl == WireCtrlNil:
			r.atom(DumpKindControl, "NIL", "any(nil)")
			return nil
		case ctrl != 0:
			return errCorrupt("unexpected control byte 0x%x", ctrl)
		}
		elemType, err := r.lookupType(TypeId(id))
		if err != nil {
			r.atom(DumpKindTypeId, id, "%v", err)
			return err
		}
		if elemType == vdl.AnyType {
			return errCorrupt("any value holding type any")
		}
		r.atom(DumpKindTypeId, id, "%v", elemType)
		v.Assign(vdl.ZeroValue(elemType))
		return r.readValue(v.Elem())
	}
	if tt.IsBytes() {
		r.prepare("waiting for bytes len")
		n, err := r.readLen(tt)
		if err != nil {
			return err
		}
		r.atom(DumpKindByteLen, uint64(n), "bytes len")
		r.prepare("waiting for bytes data")
		bytes, err := r.buf.ReadBuf(n)
		if err != nil {
			return err
		}
		if tt.Kind() == vdl.Array {
			v.CopyBytes(bytes)
		} else {
			v.AssignBytes(bytes)
		}
		r.atom(DumpKindPrimValue, bytes, "bytes")
		return nil
	}
	switch kind := tt.Kind(); kind {
	case vdl.Bool:
		r.prepare("waiting for bool value")
		x, err := binaryDecodeBool(r.buf)
		if err != nil {
			return err
		}
		v.AssignBool(x)
		r.atom(DumpKindPrimValue, x, "bool")
	case vdl.Byte:
		r.prepare("waiting for byte value")
		x, err := r.buf.ReadByte()
		if err != nil {
			return err
		}
		v.AssignUint(uint64(x))
		r.atom(DumpKindPrimValue, x, "byte")
	case vdl.Uint16, vdl.Uint32, vdl.Uint64:
		r.prepare("waiting for uint value")
		x, err := binaryDecodeUint(r.buf)
		if err != nil {
			return err
		}
		if bitlen := kind.BitLen(); bitlen < 64 && x>>uint(bitlen) != 0 {
			return errCorrupt("%d out of range for %v", x, tt)
		}
		v.AssignUint(x)
		r.atom(DumpKindPrimValue, x, "uint")
	case vdl.Int16, vdl.Int32, vdl.Int64:
		r.prepare("waiting for int value")
		x, err := binaryDecodeInt(r.buf)
		if err != nil {
			return err
		}
		if shift := uint(64 - kind.BitLen()); x<<shift>>shift != x {
			return errCorrupt("%d out of range for %v", x, tt)
		}
		v.AssignInt(x)
		r.atom(DumpKindPrimValue, x, "int")
	case vdl.Float32, vdl.Float64:
		r.prepare("waiting for float value")
		x, err := binaryDecodeFloat(r.buf)
		if err != nil {
			return err
		}
		if kind == vdl.Float32 && !math.IsNaN(x) && float64(float32(x)) != x {
			return errCorrupt("%g out of range for %v", x, tt)
		}
		v.AssignFloat(x)
		r.atom(DumpKindPrimValue, x, "float")
	case vdl.String:
		r.prepare("waiting for string len")
		n, err := binaryDecodeLen(r.buf)
		if err != nil {
			return err
		}
		r.atom(DumpKindByteLen, uint64(n), "string len")
		r.prepare("waiting for string data")
		bytes, err := r.buf.ReadBuf(n)
		if err != nil {
			return err
		}
		x := string(bytes)
		if !utf8.ValidString(x) {
			return errCorrupt("invalid UTF-8 string %q", x)
		}
		v.AssignString(x)
		r.atom(DumpKindPrimValue, x, "string")
	case vdl.Enum:
		r.prepare("waiting for enum index")
		index, err := binaryDecodeUint(r.buf)
		if err != nil {
			return err
		}
		if index >= uint64(tt.NumEnumLabel()) {
			r.atom(DumpKindIndex, index, "out of range for %v", tt)
			return errCorrupt("enum index %d out of range for %v", index, tt)
		}
		v.AssignEnumIndex(int(index))
		r.atom(DumpKindIndex, index, "%v.%v", tt.Name(), tt.EnumLabel(int(index)))
	case vdl.TypeObject:
		r.prepare("waiting for typeobject id")
		id, err := binaryDecodeUint(r.buf)
		if err != nil {
			return err
		}
		typeobj, err := r.lookupType(TypeId(id))
		if err != nil {
			r.atom(DumpKindTypeId, id, "%v", err)
			return err
		}
		v.AssignTypeObject(typeobj)
		r.atom(DumpKindTypeId, id, "%v", typeobj)
	case vdl.Array, vdl.List:
		r.prepare("waiting for list len")
		n, err := r.readLen(tt)
		if err != nil {
			return err
		}
		r.atom(DumpKindValueLen, uint64(n), "list len")
		if kind == vdl.List {
			v.AssignLen(n)
		}
		for ix := 0; ix < n; ix++ {
			if err := r.readValue(v.Index(ix)); err != nil {
				return err
			}
		}
	case vdl.Set, vdl.Map:
		r.prepare("waiting for %v len", kind)
		n, err := binaryDecodeLen(r.buf)
		if err != nil {
			return err
		}
		r.atom(DumpKindValueLen, uint64(n), "%v len", kind)
		for ix := 0; ix < n; ix++ {
			key := vdl.ZeroValue(tt.Key())
			if err := r.readValue(key); err != nil {
				return err
			}
			if v.ContainsKey(key) {
				return errCorrupt("duplicate key %v in %v", key, tt)
			}
			if kind == vdl.Set {
				v.AssignSetKey(key)
				continue
			}
			elem := vdl.ZeroValue(tt.Elem())
			if err := r.readValue(elem); err != nil {
				return err
			}
			v.AssignMapIndex(key, elem)
		}
	case vdl.Struct:
		// Loop through decoding the field delta and corresponding field.
		index := -1
		for {
			r.prepare("waiting for struct field delta")
			delta, ctrl, err := binaryDecodeUintWithControl(r.buf)
			switch {
			case err != nil:
				return err
			case ctrl == WireCtrlEnd:
				r.atom(DumpKindControl, "END", "%v END", tt.Name())
				return nil
			case ctrl != 0:
				return errCorrupt("unexpected control byte 0x%x", ctrl)
			case delta >= uint64(tt.NumField()-index-1):
				r.atom(DumpKindIndex, delta, "out of range for %v", tt)
				return errCorrupt("field delta %d out of range for %v", delta, tt)
			}
			index += int(delta) + 1
			field := tt.Field(index)
			r.atom(DumpKindIndex, delta, "%v.%v", tt.Name(), field.Name)
			if err := r.readValue(v.StructField(index)); err != nil {
				return err
			}
		}
	case vdl.Union:
		r.prepare("waiting for union field index")
		index, err := binaryDecodeUint(r.buf)
		switch {
		case err != nil:
			return err
		case index >= uint64(tt.NumField()):
			r.atom(DumpKindIndex, index, "out of range for %v", tt)
			return errCorrupt("union index %d out of range for %v", index, tt)
		}
		field := tt.Field(int(index))
		if tt == wireTypeType {
			r.atom(DumpKindWireTypeIndex, index, "%v", field.Type.Name())
		} else {
			r.atom(DumpKindIndex, index, "%v.%v", tt.Name(), field.Name)
		}
		v.AssignUnionField(int(index), vdl.ZeroValue(field.Type))
		_, fv := v.UnionField()
		return r.readValue(fv)
	default:
		return errCorrupt("unhandled type %v", tt)
	}
	return nil
}

// readLen reads the length of a list, or the placeholder preceding an array.
func (r *valueReader) readLen(tt *vdl.Type) (int, error) {
	if tt.Kind() != vdl.Array {
		return binaryDecodeLen(r.buf)
	}
	placeholder, err := binaryDecodeUint(r.buf)
	switch {
	case err != nil:
		return 0, err
	case placeholder != 0:
		return 0, errCorrupt("array %v has non-zero length placeholder %d", tt, placeholder)
	}
	return tt.Len(), nil
}
