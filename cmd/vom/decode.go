// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/vom"
)

func newDecodeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [files...]",
		Short: "Print the values in vom data",
		Long: `decode prints every value in each input, in the format given by --format:

  text  the vdl string form of each value, one per line
  yaml  a YAML document per value
  cbor  the CBOR diagnostic notation of each value, one per line

Each file is an independent stream; files are decoded concurrently, and printed
in argument order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := e.readInputs(args)
			if err != nil {
				return err
			}
			results, err := e.decodeAll(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			var firstErr error
			for ix, res := range results {
				if len(results) > 1 {
					fmt.Fprintf(e.stdout, "== %s\n", inputs[ix].name)
				}
				if err := writeValues(e.stdout, e.cfg.Format, res.values); err != nil {
					return err
				}
				if res.err != nil {
					e.logger.Error("decode failed", "input", inputs[ix].name, "values", len(res.values), "err", res.err)
					if firstErr == nil {
						firstErr = errors.Wrapf(res.err, "couldn't decode %s", inputs[ix].name)
					}
				}
			}
			return firstErr
		},
	}
}

// decodeResult holds the values of one input, and the error that stopped
// decoding it, if any.
type decodeResult struct {
	values []*vdl.Value
	err    error
}

func (e *env) decodeAll(ctx context.Context, inputs []input) ([]decodeResult, error) {
	results := make([]decodeResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for ix := range inputs {
		ix := ix
		g.Go(func() error {
			dec := vom.NewDecoder(bytes.NewReader(inputs[ix].data), e.decoderOptions()...)
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := dec.DecodeValue(nil)
				switch {
				case err == io.EOF:
					return nil
				case err != nil:
					results[ix].err = err
					return nil
				}
				results[ix].values = append(results[ix].values, v)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
