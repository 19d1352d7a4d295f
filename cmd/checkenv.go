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
	"context"
	"flag"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/exascience/grapple/diag"
)

// CheckEnvHelp is the help string for the check-env command.
const CheckEnvHelp = "Check-env command:\n" +
	"grapple check-env\n" +
	"[--config config.yaml]\n"

// CheckEnv implements the grapple check-env command. It reports
// whether every external tool of the pipeline can be found.
func CheckEnv(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configFile string
	flags := flag.NewFlagSet("check-env", flag.ContinueOnError)
	flags.StringVar(&configFile, "config", "", "YAML configuration file")
	if err := parseFlags(flags, args, CheckEnvHelp, stderr); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	tools := cfg.Tools.List()
	found, err := lookupTools(ctx, tools, exec.LookPath)
	if err != nil {
		return diag.Interrupted(err)
	}

	var missing []string
	for i, tool := range tools {
		if found[i] {
			fmt.Fprintln(stdout, tool, "found")
		} else {
			fmt.Fprintln(stdout, tool, "not found")
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return diag.Environmentf(nil, "missing tools: %v", strings.Join(missing, ", "))
	}
	return nil
}

// lookupTools resolves every tool concurrently with lookPath and
// reports, per tool, whether it was found.
func lookupTools(ctx context.Context, tools []string, lookPath func(string) (string, error)) ([]bool, error) {
	found := make([]bool, len(tools))
	g, ctx := errgroup.WithContext(ctx)
	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := lookPath(tool)
			found[i] = err == nil
			return nil
		})
	}
	return found, g.Wait()
}
