// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Every primitive is built on the uint encoding.  A uint below 0x80 is its own
// byte.  Larger ones are a length byte, the negated byte count, followed by
// the big-endian bytes without leading zeros.  Length bytes never collide
// with the control bytes 0x80 through 0xef.

// intToUint folds the sign into the low bit, so small magnitudes stay small.
func intToUint(v int64) uint64 {
	if v < 0 {
		return uint64(^v)<<1 | 1
	}
	return uint64(v) << 1
}

func uintToInt(u uint64) int64 {
	if u&1 != 0 {
		return ^int64(u >> 1)
	}
	return int64(u >> 1)
}

// Floats are ieee754 with the bytes reversed, so that the exponent and high
// mantissa bits of common values land in the low bytes.
func floatToUint(v float64) uint64 { return bits.ReverseBytes64(math.Float64bits(v)) }
func uintToFloat(u uint64) float64 { return math.Float64frombits(bits.ReverseBytes64(u)) }

func isControl(b byte) bool { return 0x80 <= b && b <= 0xef }

func binaryEncodeControl(buf *encbuf, ctrl byte) {
	if !isControl(ctrl) {
		panic(errCorrupt("invalid control byte 0x%x", ctrl))
	}
	buf.WriteOneByte(ctrl)
}

func binaryEncodeBool(buf *encbuf, v bool) {
	var b byte
	if v {
		b = 1
	}
	buf.WriteOneByte(b)
}

func binaryEncodeUint(buf *encbuf, v uint64) {
	if v < 0x80 {
		buf.WriteOneByte(byte(v))
		return
	}
	n := (bits.Len64(v) + 7) / 8
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], v)
	p := buf.Grow(1 + n)
	p[0] = byte(-int8(n))
	copy(p[1:], be[8-n:])
}

func binaryEncodeInt(buf *encbuf, v int64)     { binaryEncodeUint(buf, intToUint(v)) }
func binaryEncodeFloat(buf *encbuf, v float64) { binaryEncodeUint(buf, floatToUint(v)) }

// binaryEncodeString writes the byte count and then the bytes.
func binaryEncodeString(buf *encbuf, s string) {
	binaryEncodeUint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// binaryPeekUintWithControl peeks at the next uint or control byte.  It
// returns the uint, or the control byte (0 for a uint), and the encoded size.
func binaryPeekUintWithControl(buf *decbuf) (uint64, byte, int, error) {
	first, err := buf.PeekByte()
	switch {
	case err != nil:
		return 0, 0, 0, err
	case first < 0x80:
		return uint64(first), 0, 1, nil
	case isControl(first):
		return 0, first, 1, nil
	}
	n := int(-int8(first))
	if n > 8 {
		return 0, 0, 0, errCorrupt("invalid length byte 0x%x", first)
	}
	p, err := buf.PeekSmall(1 + n)
	if err != nil {
		return 0, 0, 0, err
	}
	enc := p[:1+n]
	var v uint64
	for _, b := range enc[1:] {
		v = v<<8 | uint64(b)
	}
	if enc[1] == 0 || v < 0x80 {
		return 0, 0, 0, errCorrupt("non-canonical uint %x", enc)
	}
	return v, 0, len(enc), nil
}

func binaryDecodeUintWithControl(buf *decbuf) (uint64, byte, error) {
	v, ctrl, n, err := binaryPeekUintWithControl(buf)
	if err != nil {
		return 0, 0, err
	}
	return v, ctrl, buf.Skip(n)
}

func binaryDecodeUint(buf *decbuf) (uint64, error) {
	v, ctrl, err := binaryDecodeUintWithControl(buf)
	switch {
	case err != nil:
		return 0, err
	case ctrl != 0:
		return 0, errCorrupt("unexpected control byte 0x%x", ctrl)
	}
	return v, nil
}

func binaryDecodeInt(buf *decbuf) (int64, error) {
	uval, err := binaryDecodeUint(buf)
	return uintToInt(uval), err
}

func binaryDecodeFloat(buf *decbuf) (float64, error) {
	uval, err := binaryDecodeUint(buf)
	if err != nil {
		return 0, err
	}
	return uintToFloat(uval), nil
}

func binaryDecodeBool(buf *decbuf) (bool, error) {
	v, err := buf.ReadByte()
	switch {
	case err != nil:
		return false, err
	case v > 1:
		return false, errCorrupt("invalid bool 0x%x", v)
	}
	return v == 1, nil
}

// binaryDecodeLen decodes a length, which must fit the remaining limit and
// the maximum message length.
func binaryDecodeLen(buf *decbuf) (int, error) {
	ulen, err := binaryDecodeUint(buf)
	if err != nil {
		return 0, err
	}
	if err := buf.checkLen(ulen); err != nil {
		return 0, err
	}
	return int(ulen), nil
}
