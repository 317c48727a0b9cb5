// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings read from the config file.  Flags given on the
// command line take precedence.
type Config struct {
	Format        string `yaml:"format"`
	Binary        bool   `yaml:"binary"`
	MaxMessageLen int    `yaml:"max_message_len"`
	LogLevel      string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{Format: formatText, LogLevel: "warn"}
}

// defaultConfigPath returns $HOME/.vom.yaml, or "" if there is no home.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vom.yaml")
}

// ReadConfig reads the config file at path on top of the defaults.  A missing
// file is only an error if mustExist is set.
func ReadConfig(path string, mustExist bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err) && !mustExist:
		return cfg, nil
	case err != nil:
		return cfg, errors.Wrap(err, "couldn't open config file")
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "couldn't decode config file %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config file %s", path)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !validFormat(c.Format) {
		return errors.Errorf("unknown format %q", c.Format)
	}
	if c.MaxMessageLen < 0 {
		return errors.Errorf("negative max_message_len %d", c.MaxMessageLen)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, errors.Errorf("unknown log_level %q", s)
	}
	return level, nil
}
