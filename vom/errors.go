// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"fmt"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/verror"
)

const pkgPath = "github.com/vanadium/vom/vom"

var (
	// ErrTruncatedInput is returned when the input ends in the middle of a
	// message.  The decoder rewinds to the start of the unfinished message, so
	// the call may be retried once more input is available.
	ErrTruncatedInput = verror.Register(pkgPath+".ErrTruncatedInput", verror.RetryRefetch, "{1:}vom: truncated input{:_}")
	// ErrCorruptStream is returned when the input violates the wire format.
	// The error is sticky; every later call on the same Decoder returns it.
	ErrCorruptStream = verror.Register(pkgPath+".ErrCorruptStream", verror.RetryConnection, "{1:}vom: corrupt stream{:_}")
	// ErrTypeMismatch is returned by EncodeAs when the value doesn't fit the
	// requested type.
	ErrTypeMismatch = verror.Register(pkgPath+".ErrTypeMismatch", verror.NoRetry, "{1:}vom: type mismatch{:_}")

	// ErrConversion is returned when a decoded value can't be converted to the
	// target.  The message has been consumed and the stream stays usable.
	ErrConversion = vdl.ErrConversion
	// ErrUnregisteredType is returned when a Go value has no vdl type.
	ErrUnregisteredType = vdl.ErrUnregisteredType
)

func errCorrupt(format string, v ...interface{}) error {
	return verror.New(ErrCorruptStream, "", fmt.Sprintf(format, v...))
}

func errTruncated(cause error) error {
	return verror.Wrap(ErrTruncatedInput, cause, "", cause)
}

func isTruncated(err error) bool { return verror.Is(err, ErrTruncatedInput.ID) }

func isCorrupt(err error) bool { return verror.Is(err, ErrCorruptStream.ID) }
