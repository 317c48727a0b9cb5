// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recovered runs f and returns what it panicked with, if anything.
func recovered(f func()) (p interface{}) {
	defer func() { p = recover() }()
	f()
	return nil
}

// expectErr checks that err contains want, or is nil when want is empty.
func expectErr(t *testing.T, err error, want string, format string, args ...interface{}) bool {
	t.Helper()
	msg := fmt.Sprintf(format, args...)
	if want == "" {
		return assert.NoError(t, err, msg)
	}
	return assert.Error(t, err, msg) && assert.Contains(t, err.Error(), want, msg)
}

// expectPanic checks that f panics with a message containing want, or doesn't
// panic when want is empty.
func expectPanic(t *testing.T, f func(), want string, format string, args ...interface{}) {
	t.Helper()
	p := recovered(f)
	msg := fmt.Sprintf(format, args...)
	if want == "" {
		assert.Nil(t, p, msg)
		return
	}
	assert.Contains(t, fmt.Sprint(p), want, msg)
}

func expectMismatchedKind(t *testing.T, f func()) {
	t.Helper()
	expectPanic(t, f, "mismatched kind", "")
}

var (
	pointType = NamedType("Point", StructType(Field{"X", Int64Type}, Field{"Y", Int64Type}))
	colorType = NamedType("Color", EnumType("Red", "Green", "Blue"))
	shapeType = NamedType("Shape", UnionType(Field{"Circle", Float64Type}, Field{"Label", StringType}))
)

func pointValue(x, y int64) *Value {
	return ZeroValue(pointType).AssignField(0, Int64Value(x)).AssignField(1, Int64Value(y))
}
