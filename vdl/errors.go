// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"

	"github.com/vanadium/vom/verror"
)

const pkgPath = "github.com/vanadium/vom/vdl"

var (
	// ErrConversion is returned when a value cannot be converted to a target
	// type: the types are incompatible, or the value itself does not fit.
	ErrConversion = verror.Register(pkgPath+".ErrConversion", verror.NoRetry, "{1:}vdl: invalid conversion{:_}")
	// ErrUnregisteredType is returned when a native value has no describable
	// vdl type.
	ErrUnregisteredType = verror.Register(pkgPath+".ErrUnregisteredType", verror.NoRetry, "{1:}vdl: unregistered type{:_}")
)

func errConvert(from, to *Type, format string, v ...interface{}) error {
	detail := fmt.Sprintf("from %v to %v", from, to)
	if format != "" {
		detail += ": " + fmt.Sprintf(format, v...)
	}
	return verror.New(ErrConversion, "", detail)
}
