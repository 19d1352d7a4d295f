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

// Package pipeline sequences the assembly stages of one run.
//
// A run moves through the states of its Plan one at a time. Each
// stage's output artifact is the input of the next, so no two stages
// ever run at the same time. The first failure moves the run to Failed
// and nothing is delivered.
package pipeline

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/exascience/grapple/artifacts"
	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/fasta"
	"github.com/exascience/grapple/formats"
	"github.com/exascience/grapple/resources"
	"github.com/exascience/grapple/stages"
)

// Pipeline is the configuration and state of one assembly run.
type Pipeline struct {
	// Reference is the required reference genome in FASTA format.
	Reference string

	// Input is the BAM file of reads. When empty, the reads are read
	// from Stdin.
	Input string

	// Output is the consensus FASTA file to write. When empty, the
	// consensus is streamed to Stdout.
	Output string

	// Correct enables the read correction stage.
	Correct    bool
	Correction stages.Correction

	// TempDir holds the intermediate artifacts; empty means os.TempDir().
	TempDir string

	// Timeout bounds every external invocation; zero means no limit.
	Timeout time.Duration

	// Timed logs the elapsed time of every stage.
	Timed bool

	IDs      artifacts.Source
	Launcher stages.Launcher
	Prober   resources.Prober
	Sinks    stages.Sinks
	Tools    stages.Tools

	// Stdin is nil when standard input cannot supply reads, for
	// example when it is a terminal.
	Stdin  io.Reader
	Stdout io.Writer
	Log    *log.Logger

	run   artifacts.RunID
	state State
	trace []State
}

// New returns a Pipeline with default collaborators: random run
// identifiers, the exec launcher, the host prober and tools looked up
// on PATH.
func New(reference string) *Pipeline {
	return &Pipeline{
		Reference:  reference,
		Correct:    true,
		Correction: stages.DefaultCorrection,
		IDs:        artifacts.UUIDSource{},
		Launcher:   stages.ExecLauncher{},
		Prober:     resources.Host{},
		Sinks:      stages.NewSinks(false, os.Stderr),
		Tools:      stages.DefaultTools(),
		Stdout:     os.Stdout,
	}
}

// State returns the current state of the run.
func (p *Pipeline) State() State { return p.state }

// Trace returns the states the run has entered, in order.
func (p *Pipeline) Trace() []State { return append([]State(nil), p.trace...) }

// RunID returns the identifier of the last run, once it has started.
func (p *Pipeline) RunID() artifacts.RunID { return p.run }

func (p *Pipeline) enter(s State) {
	p.state = s
	p.trace = append(p.trace, s)
}

func (p *Pipeline) logf(format string, v ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, v...)
	}
}

// Run executes the pipeline. It validates the configuration before
// any stage runs and returns the first failure as a *diag.Error.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	p.trace = nil
	defer func() {
		if err != nil {
			if ctx.Err() != nil && diag.KindOf(err) != diag.Interrupt {
				err = diag.Interrupted(err)
			}
			p.enter(Failed)
		}
	}()

	if err := p.validate(); err != nil {
		return err
	}
	plan, err := NewPlan(p.Correct)
	if err != nil {
		return diag.Environmentf(err, "unable to plan the pipeline")
	}
	p.run, err = p.IDs.NewRunID()
	if err != nil {
		return diag.Environmentf(err, "unable to start the pipeline")
	}
	namer := artifacts.NewNamer(p.TempDir, p.run)
	runner := stages.NewRunner(namer, p.Sinks)
	runner.Launcher = p.Launcher
	runner.Prober = p.Prober
	runner.Tools = p.Tools
	runner.Timeout = p.Timeout
	runner.Log = p.Log

	var artifact string
	if !plan.Enabled(Correct) {
		p.logf("Read error correction is disabled")
	}
	for _, s := range plan.States() {
		p.enter(s)
		artifact, err = p.timed(s, func() (string, error) {
			return p.step(ctx, s, runner, namer, artifact)
		})
		if err != nil {
			return err
		}
	}
	p.enter(Done)
	p.logf("The reference genome has been successfully assembled!")
	return nil
}

func (p *Pipeline) step(ctx context.Context, s State, runner *stages.Runner, namer *artifacts.Namer, artifact string) (string, error) {
	switch s {
	case AcquireInput:
		return p.acquire(ctx, namer)
	case Convert:
		return runner.BamToFastq(ctx, artifact)
	case Correct:
		return runner.Correct(ctx, artifact, p.Correction)
	case Align:
		return runner.Align(ctx, artifact, p.Reference)
	case ConvertBack:
		return runner.SamToBam(ctx, artifact)
	case SortIndex:
		return runner.SortAndIndex(ctx, artifact)
	case CallVariants:
		return runner.CallVariants(ctx, artifact, p.Reference)
	case Normalize:
		out, err := runner.Normalize(ctx, artifact)
		if err != nil {
			return "", err
		}
		contigs, err := fasta.Contigs(out)
		if err != nil {
			return "", diag.Environmentf(err, "unable to read the consensus %v", out)
		}
		p.logf("The consensus contains %d sequence(s)", len(contigs))
		return out, nil
	case DeliverOutput:
		return p.deliver(ctx, artifact)
	}
	return "", diag.Configf("The pipeline has no stage %v", s)
}

func (p *Pipeline) timed(s State, f func() (string, error)) (string, error) {
	if !p.Timed {
		return f()
	}
	start := time.Now()
	defer func() {
		p.logf("Elapsed time for %v: %v", s, time.Since(start))
	}()
	return f()
}

// validate checks everything that can be checked before a stage runs.
func (p *Pipeline) validate() error {
	if p.Reference == "" {
		return diag.Configf("A reference genome was not provided so the pipeline cannot execute")
	}
	if err := formats.Check("reference genome file", p.Reference, formats.FASTA); err != nil {
		return err
	}
	if err := checkFile(p.Reference); err != nil {
		return err
	}
	if p.Correct {
		if err := p.Correction.CellType.Validate(); err != nil {
			return err
		}
		if err := p.Correction.MatchType.Validate(); err != nil {
			return err
		}
	}
	if p.Input != "" {
		return checkFile(p.Input)
	}
	if p.Stdin == nil {
		return diag.Configf("No input was provided: use --input or pipe reads in BAM format on standard input")
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return diag.Environmentf(err, "unable to access %v", path)
	}
	if info.IsDir() {
		return diag.Environmentf(nil, "%v is a directory", path)
	}
	return nil
}
