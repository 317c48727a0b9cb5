// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verror extends the regular error mechanism with stable error
// identifiers and retry actions.
//
// To define a new error identifier, for example "someNewError", client code is
// expected to declare a variable like this:
//
//	var someNewError = verror.Register("my/package/name.someNewError", verror.NoRetry,
//	                                   "{1:}English text for new error{:_}")
//
// Error identifier strings should start with the package path to ensure
// uniqueness.
//
// Errors are given parameters when used.  The tokens {1}, {2}, etc. refer to
// the first and second positional parameters respectively, while {_} is
// replaced by the positional parameters not explicitly referred to elsewhere
// in the message.  If a token is of the form {:<number>}, {<number>:}, {:_} or
// {_:}, and the corresponding parameter is not the empty string, the parameter
// is preceded by ": " or followed by ":" respectively.
//
// The Action of an error tells a caller that does not understand the specific
// ID what it may do about it.
package verror

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ID is a unique identifier for errors.
type ID string

// An ActionCode represents the action expected to be performed by a typical
// client receiving an error that perhaps it does not understand.
type ActionCode uint32

// Codes for ActionCode.
const (
	// Retry actions are encoded in the bottom few bits.
	RetryActionMask ActionCode = 3

	NoRetry         ActionCode = 0 // Do not retry.
	RetryConnection ActionCode = 1 // Renew high-level connection/context.
	RetryRefetch    ActionCode = 2 // Refetch and retry (e.g., more input has arrived).
	RetryBackoff    ActionCode = 3 // Backoff and retry a finite number of times.
)

// String returns the string label of x.
func (x ActionCode) String() string {
	switch x {
	case NoRetry:
		return "NoRetry"
	case RetryConnection:
		return "RetryConnection"
	case RetryRefetch:
		return "RetryRefetch"
	case RetryBackoff:
		return "RetryBackoff"
	}
	return fmt.Sprintf("ActionCode(%d)", x)
}

// RetryAction returns the retry action encoded in x.
func (x ActionCode) RetryAction() ActionCode {
	return x & RetryActionMask
}

// An IDAction combines a unique identifier ID for errors with an ActionCode.
// It is unwise ever to create two IDActions that associate different
// ActionCodes with the same ID.
type IDAction struct {
	ID     ID
	Action ActionCode
}

var (
	// Unknown is the IDAction of errors that carry no ID.
	Unknown = Register("github.com/vanadium/vom/verror.Unknown", NoRetry, "{1:}Error{:_}")
	// Internal reports a broken invariant.
	Internal = Register("github.com/vanadium/vom/verror.Internal", NoRetry, "{1:}Internal error{:_}")
	// BadArg reports an invalid argument.
	BadArg = Register("github.com/vanadium/vom/verror.BadArg", NoRetry, "{1:}Bad argument{:_}")
)

var catalogue = struct {
	sync.RWMutex
	formats map[ID]string
}{formats: make(map[ID]string)}

// Register returns an IDAction with the given ID and Action fields, and
// records format as the message text for id.
func Register(id ID, action ActionCode, format string) IDAction {
	catalogue.Lock()
	catalogue.formats[id] = format
	catalogue.Unlock()
	return IDAction{id, action}
}

func lookupFormat(id ID) string {
	catalogue.RLock()
	defer catalogue.RUnlock()
	if f, ok := catalogue.formats[id]; ok {
		return f
	}
	return string(id) + "{:_}"
}

// E is the representation of a verror error.
type E struct {
	IDAction  IDAction
	Msg       string        // Formatted error message.
	ParamList []interface{} // The parameters given to New.
	cause     error
}

// New returns an error with the given IDAction, whose message is the
// registered format applied to params.
func New(idAction IDAction, params ...interface{}) error {
	return &E{
		IDAction:  idAction,
		Msg:       FormatParams(lookupFormat(idAction.ID), params...),
		ParamList: params,
	}
}

// Wrap is like New, but records cause as the underlying error.  The cause is
// reachable through errors.Unwrap; errors.Cause stops at the verror so that
// its ID stays visible.
func Wrap(idAction IDAction, cause error, params ...interface{}) error {
	e := New(idAction, params...).(*E)
	e.cause = cause
	return e
}

// Error returns the formatted message.
func (e *E) Error() string {
	return e.Msg
}

// Unwrap returns the underlying error, if any.
func (e *E) Unwrap() error {
	return e.cause
}

// asE finds the outermost *E in err's wrap chain.
func asE(err error) (*E, bool) {
	for err != nil {
		if e, ok := err.(*E); ok {
			return e, true
		}
		switch w := err.(type) {
		case interface{ Cause() error }:
			err = w.Cause()
		case interface{ Unwrap() error }:
			err = w.Unwrap()
		default:
			return nil, false
		}
	}
	return nil, false
}

// ErrorID returns the ID of the given err, or Unknown.ID if the err has no ID.
// If err is nil then ErrorID returns "".  Errors wrapped by
// github.com/pkg/errors or fmt.Errorf are looked through.
func ErrorID(err error) ID {
	if err == nil {
		return ""
	}
	if e, ok := asE(err); ok {
		return e.IDAction.ID
	}
	return Unknown.ID
}

// Action returns the action of the given err, or NoRetry if the err has no
// Action.
func Action(err error) ActionCode {
	if e, ok := asE(err); ok {
		return e.IDAction.Action
	}
	return NoRetry
}

// Is returns true iff err has the given id.
func Is(err error, id ID) bool {
	return ErrorID(err) == id
}

// Convert returns err as an error with an ID.  Errors that already carry an
// ID are returned unchanged; others become Unknown errors carrying err's
// message.
func Convert(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := asE(err); ok {
		return err
	}
	return Wrap(Unknown, err, "", errors.Cause(err).Error())
}
