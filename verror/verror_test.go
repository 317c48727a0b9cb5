// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verror_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/vanadium/vom/verror"
)

var (
	errFoo = verror.Register("github.com/vanadium/vom/verror.errFoo", verror.RetryRefetch, "{1:}foo happened{:_}")
	errBar = verror.Register("github.com/vanadium/vom/verror.errBar", verror.NoRetry, "bar {2} {1}")
)

func TestFormatParams(t *testing.T) {
	tests := []struct {
		format string
		params []interface{}
		want   string
	}{
		{"", nil, ""},
		{"plain", []interface{}{"a"}, "plain"},
		{"{1} {2}", []interface{}{"a", "b"}, "a b"},
		{"{2} {1}", []interface{}{"a", "b"}, "b a"},
		{"{3}", []interface{}{"a"}, "?"},
		{"x{:_}", nil, "x"},
		{"x{:_}", []interface{}{"a", 2}, "x: a 2"},
		{"{1:}x{:_}", []interface{}{"", "b"}, "x: b"},
		{"{1:}x{:_}", []interface{}{"vom", "b", "c"}, "vom:x: b c"},
		{"{_} and {1}", []interface{}{"a", "b"}, "b and a"},
		{"{:2:}", []interface{}{"a", "b"}, ": b:"},
		{"{bogus}", nil, "{bogus}"},
		{"open {", nil, "open {"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, verror.FormatParams(test.format, test.params...), "format %q", test.format)
	}
}

func TestNew(t *testing.T) {
	err := verror.New(errFoo, "vom", "bad byte")
	assert.Equal(t, "vom:foo happened: bad byte", err.Error())
	assert.Equal(t, errFoo.ID, verror.ErrorID(err))
	assert.Equal(t, verror.RetryRefetch, verror.Action(err))
	assert.True(t, verror.Is(err, errFoo.ID))
	assert.False(t, verror.Is(err, errBar.ID))

	err = verror.New(errBar, "x", "y")
	assert.Equal(t, "bar y x", err.Error())
	assert.Equal(t, verror.NoRetry, verror.Action(err))
}

func TestWrapped(t *testing.T) {
	base := verror.Wrap(errFoo, io.ErrUnexpectedEOF, "vom")
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Unwrap(base))

	// IDs survive wrapping by pkg/errors and fmt.
	for _, err := range []error{
		errors.Wrap(base, "couldn't decode"),
		errors.WithStack(base),
		fmt.Errorf("decoding: %w", base),
	} {
		assert.Equal(t, errFoo.ID, verror.ErrorID(err), "%v", err)
		assert.Equal(t, verror.RetryRefetch, verror.Action(err))
	}
	assert.Equal(t, base, errors.Cause(errors.Wrap(base, "outer")))
}

func TestUnknown(t *testing.T) {
	assert.Equal(t, verror.ID(""), verror.ErrorID(nil))
	plain := errors.New("plain")
	assert.Equal(t, verror.Unknown.ID, verror.ErrorID(plain))
	assert.Equal(t, verror.NoRetry, verror.Action(plain))

	conv := verror.Convert(plain)
	assert.Equal(t, verror.Unknown.ID, verror.ErrorID(conv))
	assert.Equal(t, "Error: plain", conv.Error())
	assert.Nil(t, verror.Convert(nil))

	withID := verror.New(errBar)
	assert.Equal(t, withID, verror.Convert(withID))
}

func TestActionCode(t *testing.T) {
	assert.Equal(t, "RetryConnection", verror.RetryConnection.String())
	assert.Equal(t, "ActionCode(9)", verror.ActionCode(9).String())
	assert.Equal(t, verror.RetryBackoff, verror.ActionCode(7).RetryAction())
}
