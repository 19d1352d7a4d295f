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

// grapple assembles a consensus reference genome from sequencing reads.
//
// grapple drives a fixed chain of external tools: samtools converts
// the reads to FASTQ, karect optionally corrects them, bowtie2 aligns
// them to a reference, samtools sorts and indexes the alignment, and
// samtools and bcftools call the variants and apply them to the
// reference. The consensus is written upper-cased to a file or to
// standard output.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/exascience/grapple/cmd"
	"github.com/exascience/grapple/diag"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: assemble, check-env, plan")
	fmt.Fprint(os.Stderr, "\n", cmd.AssembleHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CheckEnvHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.PlanHelp)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	args := os.Args[1:]
	command := "assemble"
	if len(args) > 0 {
		switch args[0] {
		case "assemble", "check-env", "plan", "help", "-help", "--help", "-h", "--h":
			command, args = args[0], args[1:]
		}
	}

	var err error
	switch command {
	case "assemble":
		err = cmd.Assemble(ctx, args, os.Stdin, os.Stdout, os.Stderr)
	case "check-env":
		err = cmd.CheckEnv(ctx, args, os.Stdout, os.Stderr)
	case "plan":
		err = cmd.Plan(args, os.Stdout, os.Stderr)
	default:
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
	}
	stop()
	if err != nil {
		cmd.ReportError(os.Stderr, err)
		os.Exit(diag.ExitCode(err))
	}
}
