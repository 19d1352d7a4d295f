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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/internal"
	"github.com/exascience/grapple/utils"
)

// ProgramMessage is the first line logged by every grapple command.
var ProgramMessage = fmt.Sprint(
	utils.ProgramName, " version ", utils.ProgramVersion,
	" compiled with ", runtime.Version(),
	" - see ", utils.ProgramURL, " for more information.",
)

// HelpMessage is printed to show the --help flag.
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

// errorColor colours the error line main prints; Assemble replaces it
// with the configured colour.
var errorColor = internal.DefaultErrorColor

// errHelp is returned by parseFlags when help was requested and
// printed.
var errHelp = errors.New("help requested")

// parseFlags parses args and prints help to w when they are
// malformed or help is requested. Remaining positional parameters are
// a configuration error.
func parseFlags(flags *flag.FlagSet, args []string, help string, w io.Writer) error {
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fmt.Fprint(w, help)
			return errHelp
		}
		fmt.Fprint(w, help)
		return diag.Configf("%v", err)
	}
	if flags.NArg() > 0 {
		fmt.Fprint(w, help)
		return diag.Configf("Cannot parse remaining parameters: %v", flags.Args())
	}
	return nil
}

// explicitFlags returns the names of the flags set on the command line.
func explicitFlags(flags *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// isTerminal reports whether w is a terminal.
func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	return ok && internal.IsTerminal(f.Fd())
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/grapple/grapple-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

// createLogFile creates a timestamped log file below path, or below
// $HOME when path is empty.
func createLogFile(path string) (*os.File, error) {
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return nil, diag.Environmentf(err, "unable to create log directory for %v", fullPath)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, diag.Environmentf(err, "unable to create log file %v", fullPath)
	}
	fmt.Fprintln(f, ProgramMessage)
	return f, nil
}

// ReportError prints the user-facing message of err to w, coloured
// when w is a terminal. Interrupts print nothing.
func ReportError(w io.Writer, err error) {
	msg := diag.Message(err)
	if msg == "" {
		return
	}
	out, cerr := internal.Console(w, errorColor, isTerminal(w))
	if cerr != nil {
		out = w
	}
	fmt.Fprintln(out, msg)
}
