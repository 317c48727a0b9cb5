// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runVom runs the vom command with args and stdin, with an empty config file.
func runVom(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	config := filepath.Join(t.TempDir(), "vom.yaml")
	require.NoError(t, os.WriteFile(config, nil, 0o644))
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", config}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestEncode(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--type", "int64", "7"}, "80120e\n"},
		{[]string{"--type", "uint16", "7", "128"}, "800807" + "08ff80\n"},
		{[]string{"-t", "bool", "true"}, "800201\n"},
		{[]string{"-t", "string", "123"}, "800603313233\n"},
		{[]string{"-t", "[]byte", "0102"}, "804e03020102\n"},
		{[]string{"-t", "float64", "1"}, "8016fef03f\n"},
	}
	for _, test := range tests {
		got, err := runVom(t, "", append([]string{"encode"}, test.args...)...)
		require.NoError(t, err, "%v", test.args)
		assert.Equal(t, test.want, got, "%v", test.args)
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := runVom(t, "", "encode", "--type", "point", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
	_, err = runVom(t, "", "encode", "--type", "uint16", "-1")
	assert.Error(t, err)
	_, err = runVom(t, "", "encode", "--type", "int64", "abc")
	assert.Error(t, err)
}

func TestDecodeFormats(t *testing.T) {
	// int64(7) followed by "abc".
	const stream = "80 12 0e 06 03 616263"
	tests := []struct {
		format, want string
	}{
		{"text", "int64(7)\n\"abc\"\n"},
		{"yaml", "7\n---\nabc\n"},
		{"cbor", "7\n\"abc\"\n"},
	}
	for _, test := range tests {
		got, err := runVom(t, stream, "decode", "--format", test.format)
		require.NoError(t, err, test.format)
		assert.Equal(t, test.want, got, test.format)
	}
}

func TestDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.hex")
	require.NoError(t, os.WriteFile(first, []byte("80 12 0e\n"), 0o644))
	second := filepath.Join(dir, "second.bin")
	require.NoError(t, os.WriteFile(second, []byte{0x80, 0x02, 0x01}, 0o644))

	got, err := runVom(t, "", "decode", first)
	require.NoError(t, err)
	assert.Equal(t, "int64(7)\n", got)

	got, err = runVom(t, "", "decode", "--binary", second)
	require.NoError(t, err)
	assert.Equal(t, "true\n", got)

	// Several files are printed in argument order.
	got, err = runVom(t, "", "decode", first, first)
	require.NoError(t, err)
	assert.Equal(t, "== "+first+"\nint64(7)\n== "+first+"\nint64(7)\n", got)
}

func TestDecodeZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte("8006 03616263"), nil)
	require.NoError(t, enc.Close())

	file := filepath.Join(t.TempDir(), "stream.hex.zst")
	require.NoError(t, os.WriteFile(file, compressed, 0o644))
	got, err := runVom(t, "", "decode", file)
	require.NoError(t, err)
	assert.Equal(t, "\"abc\"\n", got)

	got, err = runVom(t, string(compressed), "decode", "--zstd")
	require.NoError(t, err)
	assert.Equal(t, "\"abc\"\n", got)
}

// Values before a corrupt message are still printed.
func TestDecodeCorrupt(t *testing.T) {
	got, err := runVom(t, "80 12 0e 02 07", "decode")
	assert.Error(t, err)
	assert.Equal(t, "int64(7)\n", got)

	_, err = runVom(t, "80 1", "decode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hex")
}

func TestDecodeMaxMessageLen(t *testing.T) {
	_, err := runVom(t, "80 4e 02 0102", "decode", "--max-message-len", "1")
	assert.Error(t, err)
	_, err = runVom(t, "80 4e 02 0102", "decode", "--max-message-len", "2")
	assert.NoError(t, err)
}

func TestDump(t *testing.T) {
	got, err := runVom(t, "80 12 0e", "dump")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Version")
	assert.Contains(t, lines[3], "PrimValue")
	assert.Contains(t, lines[4], "DumpStatus{MsgId: 9")
}

func TestVerboseLogs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader("80 12 0e"), &stdout, &stderr)
	config := filepath.Join(t.TempDir(), "vom.yaml")
	require.NoError(t, os.WriteFile(config, nil, 0o644))
	cmd.SetArgs([]string{"--config", config, "-v", "decode"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), "read input")
}
