// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanadium/vom/vom"
)

func newDumpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [files...]",
		Short: "Print an annotated dump of vom data",
		Long: `dump prints every atom of the vom encoding, one per line, followed by the
status of the dumper after each value.  Corrupt data is reported in the status,
and everything before it is still dumped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := e.readInputs(args)
			if err != nil {
				return err
			}
			for _, in := range inputs {
				if len(inputs) > 1 {
					fmt.Fprintf(e.stdout, "== %s\n", in.name)
				}
				d := vom.NewDumper(vom.NewDumpWriter(e.stdout))
				d.Write(in.data)
				d.Close()
			}
			return nil
		},
	}
}
