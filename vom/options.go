// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import "github.com/vanadium/vom/vdl"

// DefaultMaxMessageLen is the default limit on the declared length of a
// single message.
const DefaultMaxMessageLen = 1 << 30 // 1GiB

// Option configures an Encoder or Decoder.
type Option func(*config)

type config struct {
	registry      *vdl.Registry
	maxMessageLen int
	typeEnc       *TypeEncoder
	typeDec       *TypeDecoder
}

func newConfig(opts []Option) config {
	c := config{
		registry:      vdl.DefaultRegistry,
		maxMessageLen: DefaultMaxMessageLen,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithRegistry sets the registry used to materialize decoded values.  The
// default is vdl.DefaultRegistry.
func WithRegistry(r *vdl.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithMaxMessageLen limits the declared length of messages.  Longer messages
// are rejected as corrupt.
func WithMaxMessageLen(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxMessageLen = n
		}
	}
}

// WithTypeEncoder makes the Encoder send its types through te, rather than
// inline in its own stream.
func WithTypeEncoder(te *TypeEncoder) Option {
	return func(c *config) { c.typeEnc = te }
}

// WithTypeDecoder makes the Decoder read its types from td, rather than
// inline from its own stream.
func WithTypeDecoder(td *TypeDecoder) Option {
	return func(c *config) { c.typeDec = td }
}
