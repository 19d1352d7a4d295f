// grapple: a genome reference assembly pipeline.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package cmd

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/internal"
	"github.com/exascience/grapple/stages"
)

// Colors are the console colours as hex strings.
type Colors struct {
	Status string `yaml:"status"`
	Error  string `yaml:"error"`
}

// Config is the optional grapple configuration file.
//
//	tools:
//	  samtools: /opt/samtools/bin/samtools
//	temp-dir: /scratch
//	stage-timeout: 2h
//	colors:
//	  status: "#4e9a06"
//	  error: "#cc0000"
type Config struct {
	Tools        stages.Tools  `yaml:"tools"`
	TempDir      string        `yaml:"temp-dir"`
	StageTimeout time.Duration `yaml:"stage-timeout"`
	Colors       Colors        `yaml:"colors"`
}

// DefaultConfig returns tools on PATH, the system temp directory, no
// timeout and the default colours.
func DefaultConfig() Config {
	return Config{
		Tools: stages.DefaultTools(),
		Colors: Colors{
			Status: internal.DefaultStatusColor,
			Error:  internal.DefaultErrorColor,
		},
	}
}

// LoadConfig reads the configuration file filename on top of
// DefaultConfig. An empty filename returns the defaults.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	if filename == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, diag.Environmentf(err, "unable to read configuration file %v", filename)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, diag.Configf("The configuration file %v is invalid: %v", filename, err)
	}
	if file.StageTimeout < 0 {
		return cfg, diag.Configf("The stage timeout in %v is negative", filename)
	}
	cfg.Tools = file.Tools.Merge(cfg.Tools)
	if file.TempDir != "" {
		cfg.TempDir = file.TempDir
	}
	cfg.StageTimeout = file.StageTimeout
	if file.Colors.Status != "" {
		cfg.Colors.Status = file.Colors.Status
	}
	if file.Colors.Error != "" {
		cfg.Colors.Error = file.Colors.Error
	}
	return cfg, nil
}
