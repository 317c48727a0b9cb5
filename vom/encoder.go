// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/verror"
)

// Encoder manages the transmission and marshaling of values to the other side
// of a connection.  An Encoder is not safe for concurrent use.
type Encoder struct {
	mw  *msgWriter
	te  *TypeEncoder
	buf *encbuf
	hdr *encbuf
	cfg config
}

// NewEncoder returns a new Encoder that writes to the given writer in the
// binary format.  Types are sent inline in the same stream, unless the
// WithTypeEncoder option is given.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	cfg := newConfig(opts)
	mw := &msgWriter{w: w}
	te := cfg.typeEnc
	if te == nil {
		te = newTypeEncoder(mw)
	}
	return &Encoder{
		mw:  mw,
		te:  te,
		buf: newEncbuf(),
		hdr: newEncbuf(),
		cfg: cfg,
	}
}

// NewEncoderWithTypeEncoder returns a new Encoder that writes values to w, and
// sends types through te.  A single TypeEncoder may be shared by many
// Encoders.
func NewEncoderWithTypeEncoder(w io.Writer, te *TypeEncoder, opts ...Option) *Encoder {
	return NewEncoder(w, append(opts, WithTypeEncoder(te))...)
}

// Encode transmits the value v.  The type of v is given by vdl.ValueOf; v may be
// a vdl.Native, a *vdl.Value, or a Go primitive.  Types not yet sent on the
// stream are sent before the value.
func (e *Encoder) Encode(v interface{}) error {
	vv, err := vdl.ValueOf(v)
	if err != nil {
		return err
	}
	return e.EncodeValue(vv)
}

// EncodeAs transmits v converted to type tt.  Returns ErrTypeMismatch if v
// can't be represented as tt.
func (e *Encoder) EncodeAs(v interface{}, tt *vdl.Type) error {
	vv, err := vdl.ValueOf(v)
	if err != nil {
		return err
	}
	cv, err := vdl.Convert(tt, vv)
	if err != nil {
		return verror.Wrap(ErrTypeMismatch, err, "", err)
	}
	return e.EncodeValue(cv)
}

// EncodeValue transmits the value v.
func (e *Encoder) EncodeValue(v *vdl.Value) error {
	if !v.IsValid() {
		return errors.New("vom: encode of invalid value")
	}
	tid, err := e.te.encode(v.Type())
	if err != nil {
		return err
	}
	e.buf.Reset()
	if err := encodeValue(e.buf, v, e.te); err != nil {
		return err
	}
	if e.buf.Len() > e.cfg.maxMessageLen {
		return errors.Errorf("vom: message length %d larger than %d bytes", e.buf.Len(), e.cfg.maxMessageLen)
	}
	e.hdr.Reset()
	binaryEncodeInt(e.hdr, int64(tid))
	if hasMsgLen(v.Type()) {
		binaryEncodeUint(e.hdr, uint64(e.buf.Len()))
	}
	if e.mw == e.te.mw {
		// The stream is shared with our own type messages.
		e.te.writeMu.Lock()
		defer e.te.writeMu.Unlock()
	}
	return e.mw.write(e.hdr.Bytes(), e.buf.Bytes())
}

// encodeValue writes v into buf.  Types of any values and typeobjects are sent
// through te, which may only be nil if v contains neither.
func encodeValue(buf *encbuf, v *vdl.Value, te *TypeEncoder) error {
	tt := v.Type()
	switch tt.Kind() {
	case vdl.Optional:
		if v.IsNil() {
			binaryEncodeControl(buf, WireCtrlNil)
			return nil
		}
		return encodeValue(buf, v.Elem(), te)
	case vdl.Any:
		if v.IsNil() {
			binaryEncodeControl(buf, WireCtrlNil)
			return nil
		}
		elem := v.Elem()
		tid, err := encodeTypeId(te, elem.Type())
		if err != nil {
			return err
		}
		binaryEncodeUint(buf, uint64(tid))
		return encodeValue(buf, elem, te)
	}
	if tt.IsBytes() {
		if tt.Kind() == vdl.Array {
			buf.WriteOneByte(0)
		} else {
			binaryEncodeUint(buf, uint64(v.Len()))
		}
		buf.Write(v.Bytes())
		return nil
	}
	switch tt.Kind() {
	case vdl.Bool:
		binaryEncodeBool(buf, v.Bool())
	case vdl.Byte:
		buf.WriteOneByte(byte(v.Uint()))
	case vdl.Uint16, vdl.Uint32, vdl.Uint64:
		binaryEncodeUint(buf, v.Uint())
	case vdl.Int16, vdl.Int32, vdl.Int64:
		binaryEncodeInt(buf, v.Int())
	case vdl.Float32, vdl.Float64:
		binaryEncodeFloat(buf, v.Float())
	case vdl.String:
		binaryEncodeString(buf, v.RawString())
	case vdl.Enum:
		binaryEncodeUint(buf, uint64(v.EnumIndex()))
	case vdl.TypeObject:
		tid, err := encodeTypeId(te, v.TypeObject())
		if err != nil {
			return err
		}
		binaryEncodeUint(buf, uint64(tid))
	case vdl.Array, vdl.List:
		if tt.Kind() == vdl.Array {
			buf.WriteOneByte(0)
		} else {
			binaryEncodeUint(buf, uint64(v.Len()))
		}
		for ix := 0; ix < v.Len(); ix++ {
			if err := encodeValue(buf, v.Index(ix), te); err != nil {
				return err
			}
		}
	case vdl.Set, vdl.Map:
		// Keys are sorted so that equal values have equal encodings.
		keys := vdl.SortValuesAsString(v.Keys())
		binaryEncodeUint(buf, uint64(len(keys)))
		for _, key := range keys {
			if err := encodeValue(buf, key, te); err != nil {
				return err
			}
			if tt.Kind() == vdl.Map {
				if err := encodeValue(buf, v.MapIndex(key), te); err != nil {
					return err
				}
			}
		}
	case vdl.Struct:
		// Zero fields are omitted; each present field is preceded by the number
		// of fields skipped since the previous one.
		prev := -1
		for ix := 0; ix < tt.NumField(); ix++ {
			field := v.StructField(ix)
			if field.IsZero() {
				continue
			}
			binaryEncodeUint(buf, uint64(ix-prev-1))
			if err := encodeValue(buf, field, te); err != nil {
				return err
			}
			prev = ix
		}
		binaryEncodeControl(buf, WireCtrlEnd)
	case vdl.Union:
		index, field := v.UnionField()
		binaryEncodeUint(buf, uint64(index))
		return encodeValue(buf, field, te)
	default:
		return fmt.Errorf("vom: encode unhandled type %v", tt)
	}
	return nil
}

func encodeTypeId(te *TypeEncoder, tt *vdl.Type) (TypeId, error) {
	if te == nil {
		if tid := bootstrapTypeToId[tt]; tid != 0 {
			return tid, nil
		}
		return 0, errors.Errorf("vom: no type encoder for %v", tt)
	}
	return te.encode(tt)
}
