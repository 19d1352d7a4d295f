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
	"log"
	"os"
	"strings"
	"time"

	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/internal"
	"github.com/exascience/grapple/pipeline"
	"github.com/exascience/grapple/stages"
	"github.com/exascience/grapple/utils"
)

// AssembleHelp is the help string for the assemble command.
const AssembleHelp = "Assemble command:\n" +
	"grapple [assemble] -r ref.fa\n" +
	"[-i | --input reads.bam]\n" +
	"[-o | --output consensus.fa]\n" +
	"[-d | --disable_ec]\n" +
	"[--ploidy [n | 2n]]\n" +
	"[--mode [equal | indel | subs]]\n" +
	"[-v | --verbose]\n" +
	"[-V | --version]\n" +
	"[--config config.yaml]\n" +
	"[--temp-dir dir]\n" +
	"[--stage-timeout duration]\n" +
	"[--log-path dir]\n" +
	"[--timed]\n"

// assembleOptions are the values of the assemble command line.
type assembleOptions struct {
	input, output, reference string
	disableEC, verbose       bool
	version, timed           bool
	ploidy, mode             string
	configFile, tempDir      string
	logPath                  string
	stageTimeout             time.Duration
}

func newAssembleFlags(o *assembleOptions) *flag.FlagSet {
	flags := flag.NewFlagSet("assemble", flag.ContinueOnError)
	for _, name := range []string{"i", "input"} {
		flags.StringVar(&o.input, name, "", "BAM file of reads, standard input when absent")
	}
	for _, name := range []string{"o", "output"} {
		flags.StringVar(&o.output, name, "", "consensus FASTA file, standard output when absent")
	}
	for _, name := range []string{"r", "ref"} {
		flags.StringVar(&o.reference, name, "", "reference genome in FASTA format")
	}
	for _, name := range []string{"d", "disable_ec"} {
		flags.BoolVar(&o.disableEC, name, false, "skip read error correction")
	}
	for _, name := range []string{"v", "verbose"} {
		flags.BoolVar(&o.verbose, name, false, "show the output of the external tools")
	}
	for _, name := range []string{"V", "version"} {
		flags.BoolVar(&o.version, name, false, "print the version and exit")
	}
	flags.StringVar(&o.ploidy, "ploidy", stages.PloidyHaploid, "ploidy of the cells: n or 2n")
	flags.StringVar(&o.mode, "mode", stages.ModeEqual, "error correction mode: equal, indel or subs")
	flags.StringVar(&o.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&o.tempDir, "temp-dir", "", "directory for intermediate files")
	flags.DurationVar(&o.stageTimeout, "stage-timeout", 0, "time limit for every external tool invocation")
	flags.StringVar(&o.logPath, "log-path", "", "directory for the log file")
	flags.BoolVar(&o.timed, "timed", false, "log the elapsed time of every stage")
	return flags
}

// Assemble implements the grapple assemble command. It reads the reads
// from stdin when no input file is given and writes the consensus to
// stdout when no output file is given.
func Assemble(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	var o assembleOptions
	flags := newAssembleFlags(&o)
	if err := parseFlags(flags, args, AssembleHelp, stderr); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, utils.ProgramName, utils.ProgramVersion)
		return nil
	}

	cfg, err := LoadConfig(o.configFile)
	if err != nil {
		return err
	}
	explicit := explicitFlags(flags)
	if explicit["temp-dir"] {
		cfg.TempDir = o.tempDir
	}
	if explicit["stage-timeout"] {
		if o.stageTimeout < 0 {
			return diag.Configf("The stage timeout %v is negative", o.stageTimeout)
		}
		cfg.StageTimeout = o.stageTimeout
	}
	errorColor = cfg.Colors.Error

	colored := isTerminal(stderr)
	status, err := internal.Console(stderr, cfg.Colors.Status, colored)
	if err != nil {
		return diag.Configf("The status colour is invalid: %v", err)
	}
	if _, err := internal.Console(stderr, cfg.Colors.Error, colored); err != nil {
		return diag.Configf("The error colour is invalid: %v", err)
	}

	diagnostics := stderr
	if o.logPath != "" {
		f, err := createLogFile(o.logPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		status = io.MultiWriter(f, status)
		diagnostics = io.MultiWriter(f, stderr)
	}
	logger := log.New(status, "", log.LstdFlags)
	if o.logPath != "" {
		logger.Println("Command line:", strings.Join(append([]string{utils.ProgramName}, args...), " "))
	}

	p := pipeline.New(o.reference)
	p.Input = o.input
	p.Output = o.output
	p.Correct = !o.disableEC
	if p.Correct {
		if p.Correction.CellType, err = stages.CellTypeForPloidy(o.ploidy); err != nil {
			return err
		}
		if p.Correction.MatchType, err = stages.MatchTypeForMode(o.mode); err != nil {
			return err
		}
	}
	p.TempDir = cfg.TempDir
	p.Timeout = cfg.StageTimeout
	p.Timed = o.timed
	p.Tools = cfg.Tools
	p.Sinks = stages.NewSinks(o.verbose, diagnostics)
	p.Stdout = stdout
	p.Log = logger
	if o.input == "" && stdin != nil && !internal.IsTerminal(stdin.Fd()) {
		p.Stdin = stdin
	}

	err = p.Run(ctx)
	if err != nil && o.verbose && diag.KindOf(err) != diag.Interrupt {
		logger.Println("Error:", err)
	}
	return err
}
