// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vanadium/vom/vom"
)

// env holds the state shared by all subcommands.
type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	cfg        Config
	zstd       bool
	verbose    bool
	logger     *slog.Logger
}

// decoderOptions returns the codec options given by the config.
func (e *env) decoderOptions() []vom.Option {
	if e.cfg.MaxMessageLen > 0 {
		return []vom.Option{vom.WithMaxMessageLen(e.cfg.MaxMessageLen)}
	}
	return nil
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "vom",
		Short: "Inspect and produce vom encoded data",
		Long: `vom dumps, decodes and encodes data in the vom binary format.

Input is hex text by default; use --binary for raw bytes.  Input files with a
.zst suffix, or all input with --zstd, are zstd-compressed.  Settings are read
from $HOME/.vom.yaml unless --config is given.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd.Flags())
		},
	}
	addGlobalFlags(root.PersistentFlags(), e)
	root.AddCommand(newDumpCmd(e), newDecodeCmd(e), newEncodeCmd(e))
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

func addGlobalFlags(flags *pflag.FlagSet, e *env) {
	flags.StringVar(&e.configPath, "config", "", "config file (default $HOME/.vom.yaml)")
	flags.StringVarP(&e.cfg.Format, "format", "f", formatText, "decode output format: text, yaml or cbor")
	flags.BoolVar(&e.cfg.Binary, "binary", false, "read raw binary input instead of hex text")
	flags.BoolVar(&e.zstd, "zstd", false, "input is zstd-compressed")
	flags.IntVar(&e.cfg.MaxMessageLen, "max-message-len", 0, "largest accepted message, in bytes (0 means the default)")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "log debug information to stderr")
}

// init loads the config file, lets explicitly set flags override it, and sets
// up logging.
func (e *env) init(flags *pflag.FlagSet) error {
	path, mustExist := e.configPath, true
	if path == "" {
		path, mustExist = defaultConfigPath(), false
	}
	cfg, err := ReadConfig(path, mustExist)
	if err != nil {
		return err
	}
	if flags.Changed("format") {
		cfg.Format = e.cfg.Format
	}
	if flags.Changed("binary") {
		cfg.Binary = e.cfg.Binary
	}
	if flags.Changed("max-message-len") {
		cfg.MaxMessageLen = e.cfg.MaxMessageLen
	}
	if e.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	e.cfg = cfg
	level, _ := parseLevel(cfg.LogLevel)
	e.logger = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
	e.logger.Debug("config loaded", "path", path, "format", cfg.Format, "binary", cfg.Binary)
	return nil
}
