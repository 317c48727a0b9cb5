// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package vom implements Vanadium Object Marshaling, a self-describing binary
serialization protocol similar to the encoding/gob package.  Vom is used to
interchange typed values across networks, languages and storage systems; the
encoding of a value is byte-identical across implementations.

To marshal values create an Encoder and present it with a series of values.  To
unmarshal values create a Decoder and retrieve values.  The implementation
creates a stateful stream of messages between the Encoder and Decoder; each
type is described once per stream, before the first value that needs it.
Encode and Decode are single-shot forms that include full type information in
each encoding.

Values are described by the vdl package.  A Go value is encoded through its
vdl.Native implementation, as a *vdl.Value, or as one of the Go primitives
listed in vdl.Registry.Describe.  Decoded values of registered named types
become their registered Native; values of unknown types decode into a
*vdl.Value dynamic record, which keeps the type name and all fields.

The types of the encoded and decoded values need not be identical, they only
need to be compatible.  Decoding converts the value from its wire type, using
the rules of vdl.Convert:

+ Numeric values are convertible if the encoded value can be represented
without loss; e.g. an encoded float64(1.0) may be decoded into a uint16, but
float64(-1.0) and float64(1.1) may not.

+ String, bytes and enum values are convertible by label or bytes.

+ Struct values are converted field by field, identified by name.  Fields that
only exist on the wire are dropped, and fields that only exist in the target
keep their zero value.  Structs and maps with string keys are convertible.

# Wire format

The stream starts with the version byte 0x80, followed by a sequence of
messages.  Each message describes either a type or a value:

	Stream:   0x80 (TypeMsg | ValueMsg)*
	TypeMsg:  -id len wireType
	ValueMsg: +id [len] value

Numbers are written as varints.  Values 0 through 0x7f take a single byte.
Larger values are written big-endian, preceded by a byte holding the negated
byte count; 0xff means one byte follows, 0xf8 means eight.  Signed integers
fold the sign into the low bit, and floats are written as byte-reversed IEEE
754 doubles, so small integral values stay small.  Bytes 0x80 to 0xef are
control codes; 0xe0 (NIL) marks a nil any or optional, and 0xe1 (END) ends the
fields of a struct.

A value message carries a byte length iff its type is an array, list, set, map,
struct, union, any or optional, other than a byte list or byte array.  Struct fields are written as the number of
fields skipped since the previous field, followed by the field value; zero
fields are omitted.

Types are described with the wireType union, which is itself encoded as a value.
Ids below 41 are bootstrap types known to both sides, and every other id is
defined by a type message earlier in the stream.  A type message may refer to
ids that are defined by later type messages, so recursive types need no special
handling.

# Errors

Decoding distinguishes three classes of failure.  ErrTruncatedInput means the
input ended in the middle of a message; the Decoder rewinds to the start of the
message, and the call may be retried once more input is available.
ErrCorruptStream means the input violates the format, and is sticky.
ErrConversion means a well-formed value doesn't fit the target; the value is
consumed and the stream stays usable.
*/
package vom
