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

// Package stages wraps the external tools of the assembly pipeline.
//
// Each stage validates the format of its inputs before anything is
// launched, derives its output path from the run's Namer, runs one or
// more blocking external invocations, and returns the path of the
// artifact it produced. Failures are *diag.Error values naming the
// step that broke.
package stages

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/exascience/grapple/artifacts"
	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/resources"
)

// Tools names the executables the stages launch.
type Tools struct {
	Samtools     string `yaml:"samtools"`
	Karect       string `yaml:"karect"`
	Bowtie2      string `yaml:"bowtie2"`
	Bowtie2Build string `yaml:"bowtie2-build"`
	Bcftools     string `yaml:"bcftools"`
}

// DefaultTools returns executables looked up on PATH.
func DefaultTools() Tools {
	return Tools{
		Samtools:     "samtools",
		Karect:       "karect",
		Bowtie2:      "bowtie2",
		Bowtie2Build: "bowtie2-build",
		Bcftools:     "bcftools",
	}
}

// Merge returns t with every empty field taken from defaults.
func (t Tools) Merge(defaults Tools) Tools {
	pick := func(s, d string) string {
		if s == "" {
			return d
		}
		return s
	}
	return Tools{
		Samtools:     pick(t.Samtools, defaults.Samtools),
		Karect:       pick(t.Karect, defaults.Karect),
		Bowtie2:      pick(t.Bowtie2, defaults.Bowtie2),
		Bowtie2Build: pick(t.Bowtie2Build, defaults.Bowtie2Build),
		Bcftools:     pick(t.Bcftools, defaults.Bcftools),
	}
}

// List returns the configured executables in a fixed order.
func (t Tools) List() []string {
	return []string{t.Karect, t.Bowtie2, t.Bowtie2Build, t.Samtools, t.Bcftools}
}

// Runner runs the pipeline stages of one run.
type Runner struct {
	Namer    *artifacts.Namer
	Launcher Launcher
	Prober   resources.Prober
	Sinks    Sinks
	Tools    Tools

	// Timeout bounds every external invocation; zero means no limit.
	Timeout time.Duration

	// Log receives progress narration; nil discards it.
	Log *log.Logger
}

// NewRunner returns a Runner with the host prober, the exec launcher
// and default tools.
func NewRunner(namer *artifacts.Namer, sinks Sinks) *Runner {
	return &Runner{
		Namer:    namer,
		Launcher: ExecLauncher{},
		Prober:   resources.Host{},
		Sinks:    sinks,
		Tools:    DefaultTools(),
	}
}

func (r *Runner) status(msg string) {
	if r.Log != nil {
		r.Log.Println(msg)
	}
}

// budget probes the host. Only stages that pass a memory ceiling ask
// for memory.
func (r *Runner) budget(withMemory bool) (resources.Budget, error) {
	b, err := r.Prober.Probe(withMemory)
	if err != nil {
		return b, diag.Environmentf(err, "unable to determine system resources")
	}
	return b, nil
}

// run launches tool with args for step. Tool stdout goes to stdout,
// or to the diagnostics sink when stdout is nil.
func (r *Runner) run(ctx context.Context, step Step, stdout io.Writer, tool string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return diag.Interrupted(err)
	}
	if stdout == nil {
		stdout = r.Sinks.Diagnostics
	}
	inv := &Invocation{
		Step:   step,
		Path:   tool,
		Args:   args,
		Stdout: stdout,
		Stderr: r.Sinks.Diagnostics,
	}
	stageCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	err := r.Launcher.Launch(stageCtx, inv)
	if err == nil {
		return nil
	}
	return r.classify(ctx, stageCtx, inv, err)
}

func (r *Runner) classify(ctx, stageCtx context.Context, inv *Invocation, err error) error {
	name := filepath.Base(inv.Path)
	switch {
	case ctx.Err() != nil:
		return diag.Interrupted(err)
	case stageCtx.Err() == context.DeadlineExceeded:
		msg := fmt.Sprintf("%v (timed out after %v)", inv.Step.FailureMessage(), r.Timeout)
		return diag.ToolFailure(string(inv.Step), name, inv.Step.Subcommand(), msg, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return diag.ToolFailure(string(inv.Step), name, inv.Step.Subcommand(), inv.Step.FailureMessage(), err)
	}
	var execErr *exec.Error
	var pathErr *os.PathError
	if errors.As(err, &execErr) || errors.As(err, &pathErr) {
		return diag.Environmentf(err, "unable to run %v", name)
	}
	return diag.ToolFailure(string(inv.Step), name, inv.Step.Subcommand(), inv.Step.FailureMessage(), err)
}

// runTo is run with the tool's standard output captured in the file
// out.
func (r *Runner) runTo(ctx context.Context, step Step, out string, tool string, args ...string) (err error) {
	f, err := os.Create(out)
	if err != nil {
		return diag.Environmentf(err, "unable to create %v", out)
	}
	defer func() {
		if nerr := f.Close(); err == nil && nerr != nil {
			err = diag.Environmentf(nerr, "unable to write %v", out)
		}
	}()
	return r.run(ctx, step, f, tool, args...)
}

// produced checks that step left its declared output behind. Some
// tools exit with status 0 without writing anything.
func produced(step Step, tool, path string) error {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return nil
	}
	if err == nil {
		err = errors.Errorf("%v is a directory", path)
	}
	return diag.ToolFailure(string(step), filepath.Base(tool), step.Subcommand(), step.FailureMessage(),
		errors.Wrapf(err, "missing output %v", path))
}

// checkExist returns an environment error when path cannot be
// accessed.
func checkExist(argument, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return diag.Environmentf(err, "unable to access the %v", argument)
	}
	if info.IsDir() {
		return diag.Environmentf(nil, "the %v %v is a directory", argument, path)
	}
	return nil
}
