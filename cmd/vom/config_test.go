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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, "format: yaml\nbinary: true\nmax_message_len: 1024\nlog_level: info\n")
	cfg, err := ReadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, Config{Format: "yaml", Binary: true, MaxMessageLen: 1024, LogLevel: "info"}, cfg)

	// Unset fields keep their defaults.
	cfg, err = ReadConfig(writeConfig(t, "binary: true\n"), true)
	require.NoError(t, err)
	assert.Equal(t, formatText, cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestReadConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := ReadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	_, err = ReadConfig(missing, true)
	assert.Error(t, err)
}

func TestReadConfigInvalid(t *testing.T) {
	for _, text := range []string{
		"format: xml\n",
		"max_message_len: -1\n",
		"log_level: loud\n",
		"format: [\n",
	} {
		_, err := ReadConfig(writeConfig(t, text), true)
		assert.Error(t, err, text)
	}
}

// Flags given on the command line override the config file.
func TestConfigFlagsOverride(t *testing.T) {
	path := writeConfig(t, "format: cbor\n")
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader("80 12 0e"), &out, &errOut)
	cmd.SetArgs([]string{"--config", path, "decode"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "7\n", out.String())

	out.Reset()
	cmd = newRootCmd(strings.NewReader("80 12 0e"), &out, &errOut)
	cmd.SetArgs([]string{"--config", path, "decode", "--format", "text"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "int64(7)\n", out.String())
}
