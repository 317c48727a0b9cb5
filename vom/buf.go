// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"io"
	"slices"
)

// minBufFree is the free space left in a buffer after it grows.
const minBufFree = 1024

// encbuf accumulates one message.  It's written many times, read once as a
// whole, and then reset.
type encbuf struct {
	data []byte
}

func newEncbuf() *encbuf { return &encbuf{make([]byte, 0, minBufFree)} }

func (b *encbuf) Bytes() []byte { return b.data }
func (b *encbuf) Len() int      { return len(b.data) }
func (b *encbuf) Reset()        { b.data = b.data[:0] }

// Grow extends the buffer by n bytes and returns them for the caller to fill.
func (b *encbuf) Grow(n int) []byte {
	if cap(b.data)-len(b.data) < n {
		b.data = slices.Grow(b.data, n+minBufFree)
	}
	end := len(b.data) + n
	b.data = b.data[:end]
	return b.data[end-n:]
}

func (b *encbuf) WriteOneByte(c byte)  { b.data = append(b.data, c) }
func (b *encbuf) Write(p []byte)       { b.data = append(b.data, p...) }
func (b *encbuf) WriteString(s string) { b.data = append(b.data, s...) }

func errPastMessageLen() error { return errCorrupt("value extends past its message length") }

// decbuf buffers input for decoding, like bufio.Reader with an API shaped for
// the decoder.
//
// While a mark is set, everything from the mark on is kept, so a read that
// ran out of input can be rewound and retried once more data arrives.  A
// limit confines reads to the current message body.
type decbuf struct {
	data   []byte // len(data) == cap(data)
	rpos   int    // next unread byte
	wpos   int    // end of buffered input
	limit  int    // bytes left in the message body, or -1
	mark   int    // retained position, or -1
	mlimit int    // limit when the mark was set
	maxLen int    // largest length accepted by binaryDecodeLen
	src    io.Reader
}

func newDecbuf(r io.Reader) *decbuf {
	b := newDecbufFromBytes(make([]byte, minBufFree))
	b.wpos, b.src = 0, r
	return b
}

// newDecbufFromBytes returns a decbuf over data, which it doesn't copy.
func newDecbufFromBytes(data []byte) *decbuf {
	return &decbuf{data: data, wpos: len(data), limit: -1, mark: -1, maxLen: DefaultMaxMessageLen}
}

// Reset drops all buffered input, the limit and the mark.
func (b *decbuf) Reset() {
	b.rpos, b.wpos, b.limit, b.mark = 0, 0, -1, -1
}

func (b *decbuf) Buffered() int { return b.wpos - b.rpos }

// Unread returns the buffered input that hasn't been read.  It aliases the
// buffer until the next call.
func (b *decbuf) Unread() []byte { return b.data[b.rpos:b.wpos] }

// Offset returns the read position.  It's only meaningful for a decbuf made
// by newDecbufFromBytes, where it's the offset into the original data.
func (b *decbuf) Offset() int { return b.rpos }

func (b *decbuf) Mark()   { b.mark, b.mlimit = b.rpos, b.limit }
func (b *decbuf) Unmark() { b.mark = -1 }

// Rewind returns to the mark, which must be set.
func (b *decbuf) Rewind() { b.rpos, b.limit = b.mark, b.mlimit }

// SinceMark returns the bytes read since the mark, which must be set.  The
// result aliases the buffer until the next call.
func (b *decbuf) SinceMark() []byte { return b.data[b.mark:b.rpos] }

// SetLimit allows only n more bytes to be read, until RemoveLimit.  Reading
// past the limit is a corrupt stream.
func (b *decbuf) SetLimit(n int) { b.limit = n }

// RemoveLimit clears the limit and returns the bytes it had left, or -1 if
// there was none.
func (b *decbuf) RemoveLimit() int {
	n := b.limit
	b.limit = -1
	return n
}

// checkLen reports whether a declared length of n bytes can be read.
func (b *decbuf) checkLen(n uint64) error {
	switch {
	case n > uint64(b.maxLen):
		return errCorrupt("length %d larger than %d bytes", n, b.maxLen)
	case b.limit >= 0 && n > uint64(b.limit):
		return errCorrupt("length %d extends past its message length", n)
	}
	return nil
}

// consume charges n bytes against the limit.
func (b *decbuf) consume(n int) error {
	if b.limit < 0 {
		return nil
	}
	if n > b.limit {
		return errPastMessageLen()
	}
	b.limit -= n
	return nil
}

// fill ensures n bytes are buffered past the read position, reading from src
// as needed.  It fails with a truncation error when src runs dry.
func (b *decbuf) fill(n int) error {
	if b.Buffered() >= n {
		return nil
	}
	if b.src == nil {
		return errTruncated(io.EOF)
	}
	b.compact(n)
	for b.Buffered() < n {
		nread, err := b.src.Read(b.data[b.wpos:])
		b.wpos += nread
		if err != nil && b.Buffered() < n {
			return errTruncated(err)
		}
	}
	return nil
}

// compact moves retained data to the front of the buffer, growing it so that
// n bytes fit past the read position.
func (b *decbuf) compact(n int) {
	keep := b.rpos
	if b.mark >= 0 {
		keep = b.mark
	}
	need := b.rpos - keep + n
	if len(b.data)-keep < need {
		grown := make([]byte, max(2*len(b.data), need+minBufFree))
		copy(grown, b.data[keep:b.wpos])
		b.data = grown
	} else if keep > 0 {
		copy(b.data, b.data[keep:b.wpos])
	}
	b.rpos -= keep
	b.wpos -= keep
	if b.mark >= 0 {
		b.mark -= keep
	}
}

// ReadBuf reads the next n bytes.  The result aliases the buffer until the
// next call.
func (b *decbuf) ReadBuf(n int) ([]byte, error) {
	if err := b.consume(n); err != nil {
		return nil, err
	}
	if err := b.fill(n); err != nil {
		return nil, err
	}
	b.rpos += n
	return b.data[b.rpos-n : b.rpos], nil
}

// PeekSmall returns at least the next n bytes without reading them.
func (b *decbuf) PeekSmall(n int) ([]byte, error) {
	if b.limit >= 0 && n > b.limit {
		return nil, errPastMessageLen()
	}
	if err := b.fill(n); err != nil {
		return nil, err
	}
	return b.Unread(), nil
}

func (b *decbuf) Skip(n int) error {
	_, err := b.ReadBuf(n)
	return err
}

func (b *decbuf) ReadByte() (byte, error) {
	p, err := b.ReadBuf(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b *decbuf) PeekByte() (byte, error) {
	p, err := b.PeekSmall(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}
