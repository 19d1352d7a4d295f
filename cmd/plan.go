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
	"flag"
	"io"

	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/pipeline"
)

// PlanHelp is the help string for the plan command.
const PlanHelp = "Plan command:\n" +
	"grapple plan\n" +
	"[-d | --disable_ec]\n"

// Plan implements the grapple plan command. It prints the stage
// sequence of a run as a Graphviz digraph.
func Plan(args []string, stdout, stderr io.Writer) error {
	var disableEC bool
	flags := flag.NewFlagSet("plan", flag.ContinueOnError)
	for _, name := range []string{"d", "disable_ec"} {
		flags.BoolVar(&disableEC, name, false, "skip read error correction")
	}
	if err := parseFlags(flags, args, PlanHelp, stderr); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}
	plan, err := pipeline.NewPlan(!disableEC)
	if err != nil {
		return diag.Environmentf(err, "unable to plan the pipeline")
	}
	if err := plan.WriteDOT(stdout); err != nil {
		return diag.Environmentf(err, "unable to write the plan")
	}
	return nil
}
