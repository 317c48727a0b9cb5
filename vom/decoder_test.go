// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/verror"
)

// roundTripValues holds a value of every kind.
func roundTripValues() []*vdl.Value {
	set := vdl.ZeroValue(vdl.SetType(vdl.StringType))
	set.AssignSetKey(vdl.StringValue("b"))
	set.AssignSetKey(vdl.StringValue("a"))
	m := vdl.ZeroValue(vdl.MapType(vdl.StringType, vdl.Int64Type))
	m.AssignMapIndex(vdl.StringValue("one"), vdl.Int64Value(1))
	m.AssignMapIndex(vdl.StringValue("two"), vdl.Int64Value(2))
	array := vdl.ZeroValue(vdl.ArrayType(2, vdl.StringType))
	array.Index(0).AssignString("x")
	list := vdl.ListValue(vdl.ListType(vdl.AnyType), vdl.AnyValue(vdl.Int16Value(-3)), vdl.ZeroValue(vdl.AnyType))
	return []*vdl.Value{
		vdl.BoolValue(true),
		vdl.ByteValue(0xff),
		vdl.Uint16Value(0xffff),
		vdl.Uint32Value(0xffffffff),
		vdl.Uint64Value(1 << 63),
		vdl.Int16Value(-0x8000),
		vdl.Int32Value(0x7fffffff),
		vdl.Int64Value(-1 << 63),
		vdl.Float32Value(1.5),
		vdl.Float64Value(-2.25),
		vdl.StringValue("héllo"),
		vdl.BytesValue([]byte("abc")),
		vdl.StringListValue("a", "", "c"),
		vdl.EnumValue(colorType, "Green"),
		vdl.TypeObjectValue(pointType),
		vdl.TypeObjectValue(vdl.AnyType),
		set,
		m,
		array,
		list,
		pointValue(-1, 1),
		vdl.ZeroValue(shapeType).AssignUnionField(1, vdl.StringValue("square")),
		vdl.ZeroValue(shapeType),
		vdl.AnyValue(pointValue(1, 2)),
		vdl.OptionalValue(pointValue(0, 0)),
		vdl.ZeroValue(vdl.OptionalType(pointType)),
		vdl.ZeroValue(nameType).AssignString("name"),
		nodeValue(1, 2, 3),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, want := range roundTripValues() {
		data, err := Encode(want)
		require.NoError(t, err, "%v", want)
		got, err := DecodeValue(data, nil)
		require.NoError(t, err, "%v", want)
		assert.True(t, vdl.EqualValue(want, got), "got %v, want %v", got, want)
	}
}

// All values in one stream, each type sent once.
func TestRoundTripStream(t *testing.T) {
	values := roundTripValues()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, v := range values {
		require.NoError(t, enc.EncodeValue(v))
	}
	dec := NewDecoder(&buf)
	for _, want := range values {
		got, err := dec.DecodeValue(nil)
		require.NoError(t, err)
		assert.True(t, vdl.EqualValue(want, got), "got %v, want %v", got, want)
	}
	_, err := dec.DecodeValue(nil)
	assert.Equal(t, io.EOF, err)
}

func TestDecodeTargets(t *testing.T) {
	data, err := Encode(pointValue(3, 4))
	require.NoError(t, err)

	var p nPoint
	require.NoError(t, Decode(data, &p))
	assert.Equal(t, nPoint{3, 4}, p)

	var v *vdl.Value
	require.NoError(t, Decode(data, &v))
	assert.True(t, vdl.EqualValue(pointValue(3, 4), v))

	// A valid *vdl.Value target converts to its own type.
	xz := vdl.ZeroValue(pointXZType)
	require.NoError(t, Decode(data, xz))
	assert.Equal(t, int64(3), xz.StructField(0).Int())
	assert.Equal(t, int64(0), xz.StructField(1).Int())
}

func TestDecodeNumericConversion(t *testing.T) {
	data, err := Encode(int16(5))
	require.NoError(t, err)
	var i64 int64
	require.NoError(t, Decode(data, &i64))
	assert.Equal(t, int64(5), i64)

	data, err = Encode(float64(3))
	require.NoError(t, err)
	var u32 uint32
	require.NoError(t, Decode(data, &u32))
	assert.Equal(t, uint32(3), u32)

	data, err = Encode(uint64(300))
	require.NoError(t, err)
	var b byte
	err = Decode(data, &b)
	assert.True(t, verror.Is(err, ErrConversion.ID), "got %v", err)
}

// A conversion failure consumes the value, and the stream stays usable.
func TestDecodeConversionNotSticky(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(int64(-1)))
	require.NoError(t, enc.Encode("next"))
	dec := NewDecoder(&buf)

	var u uint64
	err := dec.Decode(&u)
	assert.True(t, verror.Is(err, ErrConversion.ID), "got %v", err)
	var s string
	require.NoError(t, dec.Decode(&s))
	assert.Equal(t, "next", s)
}

// A newer version of a type decodes into the registered version; unknown
// fields are dropped and missing fields are zero.
func TestDecodeForwardCompatible(t *testing.T) {
	data, err := Encode(pointValue(1, 2))
	require.NoError(t, err)

	r := &vdl.Registry{}
	r.Register(pointXZType, func() vdl.Native { return &nPointXZ{} })
	native, err := NewDecoder(bytes.NewReader(data), WithRegistry(r)).DecodeNative()
	require.NoError(t, err)
	assert.Equal(t, &nPointXZ{X: 1}, native)

	// Without a registration the value is a dynamic record.
	native, err = NewDecoder(bytes.NewReader(data), WithRegistry(&vdl.Registry{})).DecodeNative()
	require.NoError(t, err)
	record, ok := native.(*vdl.Value)
	require.True(t, ok, "got %T", native)
	assert.Equal(t, "Point", record.Type().Name())
	assert.Equal(t, int64(2), record.StructFieldByName("Y").Int())

	// Primitives become Go values.
	data, err = Encode("abc")
	require.NoError(t, err)
	native, err = NewDecoder(bytes.NewReader(data)).DecodeNative()
	require.NoError(t, err)
	assert.Equal(t, "abc", native)
}

func TestDecodeIgnore(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(pointValue(1, 2)))
	require.NoError(t, enc.Encode(int64(7)))
	require.NoError(t, enc.Encode(pointValue(3, 4)))
	dec := NewDecoder(&buf)
	require.NoError(t, dec.Ignore())
	require.NoError(t, dec.Ignore())
	got, err := dec.DecodeValue(pointType)
	require.NoError(t, err)
	assert.True(t, vdl.EqualValue(pointValue(3, 4), got))
	assert.Equal(t, io.EOF, dec.Ignore())
}

func TestDecodeEOF(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader(nil)).DecodeValue(nil)
	assert.Equal(t, io.EOF, err)

	// Single-shot decoding needs a whole value.
	_, err = DecodeValue(nil, nil)
	assert.True(t, verror.Is(err, ErrTruncatedInput.ID), "got %v", err)
	_, err = DecodeValue([]byte{Version80}, nil)
	assert.True(t, verror.Is(err, ErrTruncatedInput.ID), "got %v", err)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(pointValue(3, 0))
	require.NoError(t, err)
	for n := 1; n < len(data); n++ {
		_, err := DecodeValue(data[:n], nil)
		assert.True(t, verror.Is(err, ErrTruncatedInput.ID), "len %d: got %v", n, err)
	}
}

// A stream split at any point decodes once the rest arrives.
func TestDecodeTruncatedRetry(t *testing.T) {
	var full bytes.Buffer
	enc := NewEncoder(&full)
	require.NoError(t, enc.Encode(pointValue(3, 4)))
	require.NoError(t, enc.Encode("hello"))
	require.NoError(t, enc.Encode(nodeValue(5, 6)))
	want := []*vdl.Value{pointValue(3, 4), vdl.StringValue("hello"), nodeValue(5, 6)}
	data := full.Bytes()

	for split := 0; split <= len(data); split++ {
		var buf bytes.Buffer
		buf.Write(data[:split])
		dec := NewDecoder(&buf)
		var got []*vdl.Value
		decodeAll := func() {
			for {
				v, err := dec.DecodeValue(nil)
				if err != nil {
					if err != io.EOF && !verror.Is(err, ErrTruncatedInput.ID) {
						t.Fatalf("split %d: unexpected error %v", split, err)
					}
					return
				}
				got = append(got, v)
			}
		}
		decodeAll()
		buf.Write(data[split:])
		decodeAll()
		require.Len(t, got, len(want), "split %d", split)
		for ix := range want {
			assert.True(t, vdl.EqualValue(want[ix], got[ix]), "split %d: got %v, want %v", split, got[ix], want[ix])
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{"bad version", "81 02 01"},
		{"message id 0", "80 00"},
		{"undefined type", "80 52 00"},
		{"invalid bool", "80 02 02"},
		{"invalid UTF-8", "80 06 02 61ff"},
		{"string past message", "80 50 03 01 05 61"},
		{"leftover bytes", "80" + pointTypeHex + "52 04 00 06 e1 00"},
		{"value past message", "80" + pointTypeHex + "52 02 00 06 e1"},
		{"field out of range", "80" + pointTypeHex + "52 03 02 06 e1"},
		{"enum out of range", "80 51 1a 01 00 05436f6c6f72 00 03 03526564 05477265656e 04426c7565 e1 52 03"},
		{"redefined bootstrap type", "80 1f 04 08 01 02 e1"},
		{"duplicate type", "80 51 04 08 01 02 e1 51 04 08 01 02 e1"},
		{"invalid type", "80 51 04 08 01 03 e1 52 01 e0"},
		{"non-zero array placeholder", "80 51 06 02 01 02 00 02 e1 52 01 0708"},
		{"duplicate set key", "80 51 04 04 01 03 e1 52 05 02 0161 0161"},
		{"length too long", "80 4e fc40000001"},
		{"list of itself", "80 51 04 03 01 29 e1 52 01 00"},
		{"struct of itself", "80 51 0a 06 01 01 00 0141 00 29 e1 e1 52 01 e1"},
		{"float32 out of range", "80 14 f8 9a9999999999b93f"},
	}
	for _, test := range tests {
		dec := NewDecoder(bytes.NewReader(hexBytes(t, test.hex)))
		_, err := dec.DecodeValue(nil)
		assert.True(t, verror.Is(err, ErrCorruptStream.ID), "%s: got %v", test.name, err)
		// The error is sticky.
		_, err2 := dec.DecodeValue(nil)
		assert.Equal(t, err, err2, test.name)
	}
}

func TestDecodeMaxMessageLen(t *testing.T) {
	// The message length of []string{"abcde"} is 7.
	data, err := Encode([]string{"abcde"})
	require.NoError(t, err)
	_, err = NewDecoder(bytes.NewReader(data), WithMaxMessageLen(4)).DecodeValue(nil)
	assert.True(t, verror.Is(err, ErrCorruptStream.ID), "got %v", err)
	_, err = NewDecoder(bytes.NewReader(data), WithMaxMessageLen(7)).DecodeValue(nil)
	assert.NoError(t, err)

	// Bytes carry no message length; their own length is bounded instead.
	data, err = Encode([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	_, err = NewDecoder(bytes.NewReader(data), WithMaxMessageLen(4)).DecodeValue(nil)
	assert.True(t, verror.Is(err, ErrCorruptStream.ID), "got %v", err)
	_, err = NewDecoder(bytes.NewReader(data), WithMaxMessageLen(5)).DecodeValue(nil)
	assert.NoError(t, err)
}
