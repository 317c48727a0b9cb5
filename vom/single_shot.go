// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"bytes"
	"io"

	"github.com/dgraph-io/ristretto"

	"github.com/vanadium/vom/vdl"
)

// Encode writes the value v and returns the encoded bytes.  The semantics of
// value encoding are described by Encoder.Encode.
//
// This is a "single-shot" encoding; full type information is always included in
// the returned encoding, as if a new encoder were used for each call.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeAs is the single-shot form of Encoder.EncodeAs.
func EncodeAs(v interface{}, tt *vdl.Type) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeAs(v, tt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads the value from the given data, and stores it in target.  The
// semantics of value decoding are described by Decoder.Decode.
//
// This is a "single-shot" decoding; the data must have been encoded by a call
// to vom.Encode.  Data that ends early is reported as ErrTruncatedInput.
func Decode(data []byte, target interface{}) error {
	dec, err := singleShotDecoder(data)
	if err != nil {
		return err
	}
	return singleShotErr(dec.Decode(target))
}

// DecodeValue is the single-shot form of Decoder.DecodeValue.
func DecodeValue(data []byte, tt *vdl.Type) (*vdl.Value, error) {
	dec, err := singleShotDecoder(data)
	if err != nil {
		return nil, err
	}
	v, err := dec.DecodeValue(tt)
	return v, singleShotErr(err)
}

// singleShotDecoder returns a Decoder for data.  Decoding type messages is
// expensive, so the TypeDecoder is cached, and reused when the same type
// messages are seen again.
func singleShotDecoder(data []byte) (*Decoder, error) {
	key, err := computeTypeDecoderCacheKey(data)
	if err != nil {
		return nil, singleShotErr(err)
	}
	if cached, ok := singleShotTypeDecoderCache.Get(key); ok {
		// Start after the already-read types.
		dec := newDecoder(newDecbufFromBytes(data[len(key):]), newConfig([]Option{WithTypeDecoder(cached.(*TypeDecoder))}))
		dec.readVersion = true
		return dec, nil
	}
	dec := newDecoder(newDecbufFromBytes(data), newConfig(nil))
	dec.onTypesRead = func(td *TypeDecoder) {
		singleShotTypeDecoderCache.Set(key, td, 1)
	}
	return dec, nil
}

func singleShotErr(err error) error {
	if err == io.EOF {
		return errTruncated(io.EOF)
	}
	return err
}

// singleShotTypeDecoderCache is a global cache of TypeDecoders keyed by the
// bytes of the sequence of type messages before the value message.  A sequence
// of type messages that is byte-equal doesn't guarantee the same types in the
// general case, since type ids are scoped to a single Encoder/Decoder stream;
// different streams may represent different types using the same type ids.
// However the single-shot vom.Encode is guaranteed to generate the same bytes
// for a given sequence of types.
var singleShotTypeDecoderCache = newTypeDecoderCache()

func newTypeDecoderCache() *ristretto.Cache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 14,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return cache
}

// computeTypeDecoderCacheKey computes the cache key for the
// singleShotTypeDecoderCache.  The logic is similar to
// Decoder.readValueMessage.
func computeTypeDecoderCacheKey(data []byte) (string, error) {
	buf := newDecbufFromBytes(data)
	version, err := buf.ReadByte()
	switch {
	case err != nil:
		return "", err
	case version != Version80:
		return "", errCorrupt("bad version byte 0x%x", version)
	}
	// Walk through bytes until we get to a value message.
	for {
		readPos := buf.Offset()
		id, err := binaryDecodeInt(buf)
		switch {
		case err != nil:
			return "", err
		case id == 0:
			return "", errCorrupt("message id 0")
		case id > 0:
			// This is a value message.  The bytes read so far include the version
			// byte and all type messages; use all of these bytes as the cache key.
			return string(data[:readPos]), nil
		}
		// This is a type message.  Skip the message length (which always exists
		// for wireType), and the bytes of the message.
		n, err := binaryDecodeLen(buf)
		if err != nil {
			return "", err
		}
		if err := buf.Skip(n); err != nil {
			return "", err
		}
	}
}
