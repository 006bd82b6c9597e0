// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// configFile is picked up from the working directory when --config is not given.
const configFile = ".dbtpatch.toml"

type config struct {
	// Indent is the mapping indent used when a file has to be re-encoded.
	Indent   int    `toml:"indent"`
	LogLevel string `toml:"log-level"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}
