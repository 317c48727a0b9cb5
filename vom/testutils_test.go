// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadium/vom/vdl"
)

// matchHexPat reports whether target matches pat.  A pattern is hex with
// optional groups like "11[22,33]44", whose comma separated parts may appear
// in any order; type messages are written in the order types are reached, so
// their tests use groups.
func matchHexPat(target, pat string) (bool, error) {
	for {
		open := strings.IndexByte(pat, '[')
		if open < 0 {
			return target == pat, nil
		}
		lit := pat[:open]
		if !strings.HasPrefix(target, lit) {
			return false, nil
		}
		closeIx := strings.IndexByte(pat[open:], ']')
		if closeIx < 0 {
			return false, fmt.Errorf("no closing ] in hex pattern %q", pat)
		}
		parts := strings.Split(pat[open+1:open+closeIx], ",")
		n := 0
		for _, part := range parts {
			n += len(part)
		}
		target = target[len(lit):]
		if len(target) < n || !matchPrefixSeq(target[:n], parts) {
			return false, nil
		}
		target, pat = target[n:], pat[open+closeIx+1:]
	}
}

// matchPrefixSeq reports whether some ordering of parts, concatenated, is a
// prefix of target.
func matchPrefixSeq(target string, parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	for ix, part := range parts {
		if !strings.HasPrefix(target, part) {
			continue
		}
		rest := slices.Delete(slices.Clone(parts), ix, ix+1)
		if matchPrefixSeq(target[len(part):], rest) {
			return true
		}
	}
	return false
}

// hexBytes returns the bytes for hex, which may contain spaces and the
// sequence syntax of matchHexPat; sequences are used in the given order.
func hexBytes(t *testing.T, pat string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.NewReplacer(" ", "", "[", "", "]", "", ",", "").Replace(pat))
	require.NoError(t, err, "bad hex %q", pat)
	return b
}

func expectHexPat(t *testing.T, got []byte, pat string) {
	t.Helper()
	match, err := matchHexPat(hex.EncodeToString(got), strings.ReplaceAll(pat, " ", ""))
	require.NoError(t, err)
	assert.True(t, match, "got hex %x, want %s", got, pat)
}

// Types shared by the tests in this package.
var (
	pointType = vdl.NamedType("Point", vdl.StructType(
		vdl.Field{Name: "X", Type: vdl.Int64Type},
		vdl.Field{Name: "Y", Type: vdl.Int64Type},
	))
	pointXZType = vdl.NamedType("Point", vdl.StructType(
		vdl.Field{Name: "X", Type: vdl.Int64Type},
		vdl.Field{Name: "Z", Type: vdl.Int64Type},
	))
	colorType = vdl.NamedType("Color", vdl.EnumType("Red", "Green", "Blue"))
	shapeType = vdl.NamedType("Shape", vdl.UnionType(
		vdl.Field{Name: "Circle", Type: vdl.Float64Type},
		vdl.Field{Name: "Label", Type: vdl.StringType},
	))
	nameType = vdl.NamedType("Name", vdl.StringType)

	// Node is a linked list, recursive through an optional.
	nodeType = buildNodeType()
)

func buildNodeType() *vdl.Type {
	var b vdl.TypeBuilder
	node := b.Named("Node")
	next := b.Optional().AssignElem(node)
	node.AssignBase(b.Struct().
		AppendField("Value", vdl.Int64Type).
		AppendField("Next", next))
	b.Build()
	tt, err := node.Built()
	if err != nil {
		panic(err)
	}
	return tt
}

func pointValue(x, y int64) *vdl.Value {
	return vdl.ZeroValue(pointType).AssignField(0, vdl.Int64Value(x)).AssignField(1, vdl.Int64Value(y))
}

// nodeValue returns a list holding values, in order.
func nodeValue(values ...int64) *vdl.Value {
	var next *vdl.Value
	for ix := len(values) - 1; ix >= 0; ix-- {
		v := vdl.ZeroValue(nodeType)
		v.StructField(0).AssignInt(values[ix])
		if next != nil {
			v.StructField(1).Assign(vdl.OptionalValue(next))
		}
		next = v
	}
	return next
}

// nPoint is a Native for pointType.
type nPoint struct {
	X, Y int64
}

func (p *nPoint) VDLType() *vdl.Type { return pointType }

func (p *nPoint) VDLToValue() (*vdl.Value, error) { return pointValue(p.X, p.Y), nil }

func (p *nPoint) VDLFromValue(v *vdl.Value) error {
	p.X = v.StructField(0).Int()
	p.Y = v.StructField(1).Int()
	return nil
}

// nPointXZ is a later version of Point, with Y removed and Z added.
type nPointXZ struct {
	X, Z int64
}

func (p *nPointXZ) VDLType() *vdl.Type { return pointXZType }

func (p *nPointXZ) VDLToValue() (*vdl.Value, error) {
	return vdl.ZeroValue(pointXZType).AssignField(0, vdl.Int64Value(p.X)).AssignField(1, vdl.Int64Value(p.Z)), nil
}

func (p *nPointXZ) VDLFromValue(v *vdl.Value) error {
	p.X = v.StructField(0).Int()
	p.Z = v.StructField(1).Int()
	return nil
}

func TestMatchHexPat(t *testing.T) {
	for pat, want := range map[string]bool{
		"112233":        true,
		"[112233]":      true,
		"11[2233]":      true,
		"[22,11]33":     true,
		"11[33,22]":     true,
		"1[23,12]3":     true,
		"[33,22,11]":    true,
		"[1,2,3,1,2,3]": true,
		"11223":         false,
		"1122333":       false,
		"11[22,3]":      false,
		"[11,2,33]":     false,
		"[332211]":      false,
		"[11,11,11]":    false,
	} {
		got, err := matchHexPat("112233", pat)
		require.NoError(t, err, pat)
		assert.Equal(t, want, got, pat)
	}
	_, err := matchHexPat("11", "[11")
	assert.Error(t, err)
}
