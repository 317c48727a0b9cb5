// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vanadium/vom/vdl"
	"github.com/vanadium/vom/vom"
)

// scalarTypes are the types accepted by encode --type.
var scalarTypes = map[string]*vdl.Type{
	"bool":    vdl.BoolType,
	"byte":    vdl.ByteType,
	"uint16":  vdl.Uint16Type,
	"uint32":  vdl.Uint32Type,
	"uint64":  vdl.Uint64Type,
	"int16":   vdl.Int16Type,
	"int32":   vdl.Int32Type,
	"int64":   vdl.Int64Type,
	"float32": vdl.Float32Type,
	"float64": vdl.Float64Type,
	"string":  vdl.StringType,
	"[]byte":  vdl.ListByteType,
}

func scalarTypeNames() string {
	var names []string
	for name := range scalarTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newEncodeCmd(e *env) *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "encode --type T VALUE...",
		Short: "Encode values given on the command line",
		Long: `encode writes the values as a single vom stream, in hex.  Each VALUE is parsed
as a YAML scalar and converted to the type given by --type; []byte values are
given in hex.  The known types are: ` + scalarTypeNames() + `.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt := scalarTypes[typeName]
			if tt == nil {
				return errors.Errorf("unknown type %q, want one of %s", typeName, scalarTypeNames())
			}
			var buf bytes.Buffer
			enc := vom.NewEncoder(&buf, e.decoderOptions()...)
			for _, arg := range args {
				x, err := parseScalar(tt, arg)
				if err != nil {
					return errors.Wrapf(err, "couldn't parse %q", arg)
				}
				if err := enc.EncodeAs(x, tt); err != nil {
					return errors.Wrapf(err, "couldn't encode %q as %v", arg, tt)
				}
			}
			e.logger.Debug("encoded", "type", tt, "values", len(args), "bytes", buf.Len())
			_, err := fmt.Fprintf(e.stdout, "%x\n", buf.Bytes())
			return err
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "type of the values")
	cmd.MarkFlagRequired("type")
	return cmd
}

// parseScalar parses arg for encoding as tt.
func parseScalar(tt *vdl.Type, arg string) (interface{}, error) {
	switch tt {
	case vdl.StringType:
		return arg, nil
	case vdl.ListByteType:
		return parseHex([]byte(arg))
	}
	var x interface{}
	if err := yaml.Unmarshal([]byte(arg), &x); err != nil {
		return nil, err
	}
	switch x.(type) {
	case bool, int, int64, uint64, float64:
		return x, nil
	}
	return nil, errors.Errorf("not a %v", tt)
}
