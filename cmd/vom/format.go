// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vanadium/vom/vdl"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatCBOR = "cbor"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatYAML, formatCBOR:
		return true
	}
	return false
}

// writeValues writes values to w in the given format.
func writeValues(w io.Writer, format string, values []*vdl.Value) error {
	switch format {
	case formatText:
		for _, v := range values {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return err
			}
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, v := range values {
			if err := enc.Encode(toGeneric(v)); err != nil {
				return errors.Wrap(err, "couldn't encode yaml")
			}
		}
		return enc.Close()
	case formatCBOR:
		for _, v := range values {
			data, err := cbor.Marshal(toGeneric(v))
			if err != nil {
				return errors.Wrap(err, "couldn't encode cbor")
			}
			notation, err := cbor.Diagnose(data)
			if err != nil {
				return errors.Wrap(err, "couldn't diagnose cbor")
			}
			if _, err := fmt.Fprintln(w, notation); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("unknown format %q", format)
	}
	return nil
}

// toGeneric converts v into plain Go values that generic encoders understand.
// Structs and unions become maps keyed by field name; enums and typeobjects
// become strings.
func toGeneric(v *vdl.Value) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case vdl.Bool:
		return v.Bool()
	case vdl.Byte, vdl.Uint16, vdl.Uint32, vdl.Uint64:
		return v.Uint()
	case vdl.Int16, vdl.Int32, vdl.Int64:
		return v.Int()
	case vdl.Float32, vdl.Float64:
		return v.Float()
	case vdl.String:
		return v.RawString()
	case vdl.Enum:
		return v.EnumLabel()
	case vdl.TypeObject:
		return v.TypeObject().String()
	case vdl.Any, vdl.Optional:
		return toGeneric(v.Elem())
	case vdl.Array, vdl.List:
		if v.Type().IsBytes() {
			return append([]byte(nil), v.Bytes()...)
		}
		list := make([]interface{}, v.Len())
		for ix := range list {
			list[ix] = toGeneric(v.Index(ix))
		}
		return list
	case vdl.Set:
		keys := vdl.SortValuesAsString(v.Keys())
		set := make([]interface{}, len(keys))
		for ix, key := range keys {
			set[ix] = toGeneric(key)
		}
		return set
	case vdl.Map:
		m := make(map[interface{}]interface{}, v.Len())
		for _, key := range v.Keys() {
			m[genericKey(key)] = toGeneric(v.MapIndex(key))
		}
		return m
	case vdl.Struct:
		m := make(map[string]interface{}, v.Type().NumField())
		for ix := 0; ix < v.Type().NumField(); ix++ {
			m[v.Type().Field(ix).Name] = toGeneric(v.StructField(ix))
		}
		return m
	case vdl.Union:
		ix, field := v.UnionField()
		return map[string]interface{}{v.Type().Field(ix).Name: toGeneric(field)}
	}
	return v.String()
}

// genericKey returns a comparable map key for key.  Composite keys use their
// string form.
func genericKey(key *vdl.Value) interface{} {
	switch key.Kind() {
	case vdl.Array, vdl.Struct:
		return key.String()
	}
	return toGeneric(key)
}
