// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// input is the contents of one input file, as vom bytes.
type input struct {
	name string
	data []byte
}

// readInputs reads the named files; "-" or no names means stdin.
func (e *env) readInputs(names []string) ([]input, error) {
	if len(names) == 0 {
		names = []string{"-"}
	}
	inputs := make([]input, 0, len(names))
	for _, name := range names {
		data, err := e.readInput(name)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read %s", name)
		}
		e.logger.Debug("read input", "name", name, "bytes", len(data))
		inputs = append(inputs, input{name, data})
	}
	return inputs, nil
}

func (e *env) readInput(name string) ([]byte, error) {
	var r io.Reader = e.stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if e.zstd || strings.HasSuffix(name, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't start zstd decoder")
		}
		defer zr.Close()
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if e.cfg.Binary {
		return data, nil
	}
	return parseHex(data)
}

// parseHex decodes hex text, ignoring whitespace.
func parseHex(text []byte) ([]byte, error) {
	digits := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	data := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(data, digits); err != nil {
		return nil, errors.Wrap(err, "invalid hex input")
	}
	return data, nil
}
