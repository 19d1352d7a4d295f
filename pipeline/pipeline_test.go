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

package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/grapple/artifacts"
	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/resources"
	"github.com/exascience/grapple/stages"
)

// fakeTools imitates the external tools: every invocation writes the
// artifact the real tool would, and bcftools consensus writes a
// lower-cased copy of the reference.
type fakeTools struct {
	calls []*stages.Invocation
	fail  stages.Step
}

func (f *fakeTools) Launch(_ context.Context, inv *stages.Invocation) error {
	f.calls = append(f.calls, inv)
	if inv.Step == f.fail {
		return errors.New("exit status 1")
	}
	switch inv.Step {
	case stages.StepBamToFastq:
		_, err := io.WriteString(inv.Stdout, "@r1\nACGT\n+\nIIII\n")
		return err
	case stages.StepAlign:
		_, err := io.WriteString(inv.Stdout, "@HD\tVN:1.6\n")
		return err
	case stages.StepCorrect:
		var input, dir string
		for _, arg := range inv.Args {
			if strings.HasPrefix(arg, "-inputfile=") {
				input = strings.TrimPrefix(arg, "-inputfile=")
			}
			if strings.HasPrefix(arg, "-resultdir=") {
				dir = strings.TrimPrefix(arg, "-resultdir=")
			}
		}
		return os.WriteFile(filepath.Join(dir, "karect_"+filepath.Base(input)), []byte("@r1\nACGT\n+\nIIII\n"), 0644)
	case stages.StepConsensus:
		return lowerCopy(inv.Args[2], option(inv.Args, "-o"))
	}
	if out := option(inv.Args, "-o"); out != "" {
		return os.WriteFile(out, nil, 0644)
	}
	if out := option(inv.Args, "-bo"); out != "" {
		return os.WriteFile(out, nil, 0644)
	}
	return nil
}

func option(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func lowerCopy(from, to string) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if strings.HasPrefix(line, ">") {
			out.WriteString(line)
		} else {
			out.WriteString(strings.ToLower(line))
		}
	}
	return os.WriteFile(to, out.Bytes(), 0644)
}

func newTestPipeline(t *testing.T, launcher stages.Launcher) (*Pipeline, string) {
	dir := t.TempDir()
	reference := filepath.Join(dir, "lambda.fa")
	require.NoError(t, os.WriteFile(reference, []byte(">lambda_phage length=60\nGGGCGGCGACCTcgcgggTTTTCGCTATTTATGAAAATTTTCCGGTTTAAGGCGTTTCCG\nttcttcttcg\n"), 0644))
	input := filepath.Join(dir, "reads.bam")
	require.NoError(t, os.WriteFile(input, []byte("BAM\x01"), 0644))

	p := New(reference)
	p.Input = input
	p.Output = filepath.Join(dir, "consensus.fa")
	p.TempDir = t.TempDir()
	p.IDs = &artifacts.SequenceSource{Pid: 1}
	p.Launcher = launcher
	p.Prober = resources.Fixed{Threads: 2, MemoryGB: 1}
	p.Sinks = stages.NewSinks(false, nil)
	p.Stdout = io.Discard
	return p, dir
}

func readLines(t *testing.T, r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRunWithoutCorrection(t *testing.T) {
	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools)
	p.Correct = false
	var logs bytes.Buffer
	p.Log = log.New(&logs, "", 0)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, Done, p.State())
	assert.Contains(t, logs.String(), "Read error correction is disabled\n")
	assert.Equal(t, []State{AcquireInput, Convert, Align, ConvertBack, SortIndex, CallVariants, Normalize, DeliverOutput, Done}, p.Trace())
	assert.Equal(t, artifacts.RunID("1-1"), p.RunID())
	for _, inv := range tools.calls {
		assert.NotEqual(t, stages.StepCorrect, inv.Step)
	}

	f, err := os.Open(p.Output)
	require.NoError(t, err)
	defer f.Close()
	lines := readLines(t, f)
	require.Len(t, lines, 3)
	assert.Equal(t, ">lambda_phage length=60", lines[0])
	for _, line := range lines[1:] {
		assert.Equal(t, strings.ToUpper(line), line)
	}
	assert.Equal(t, "TTCTTCTTCG", lines[2])
}

func TestRunWithCorrection(t *testing.T) {
	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools)
	p.Correction = stages.Correction{CellType: stages.Diploid, MatchType: stages.InsDelMatch}
	require.NoError(t, p.Run(context.Background()))
	assert.Contains(t, p.Trace(), Correct)

	var steps []stages.Step
	for _, inv := range tools.calls {
		steps = append(steps, inv.Step)
	}
	assert.Equal(t, []stages.Step{
		stages.StepBamToFastq, stages.StepCorrect, stages.StepIndexReference, stages.StepAlign,
		stages.StepSamToBam, stages.StepSort, stages.StepIndexReads,
		stages.StepPileup, stages.StepCall, stages.StepIndexVariants, stages.StepConsensus,
	}, steps)
	assert.Contains(t, tools.calls[1].Args, "-celltype=diploid")
	assert.Contains(t, tools.calls[1].Args, "-matchtype=insdel")
	// bowtie2 aligns the corrected reads.
	assert.Equal(t, filepath.Join(p.TempDir, "karect_1-1_bam_to_fq_out.fq"), option(tools.calls[3].Args, "-U"))
}

func TestRunToStdout(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTools{})
	p.Correct = false
	p.Output = ""
	var out bytes.Buffer
	p.Stdout = &out
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, ">lambda_phage length=60\nGGGCGGCGACCTCGCGGGTTTTCGCTATTTATGAAAATTTTCCGGTTTAAGGCGTTTCCG\nTTCTTCTTCG\n", out.String())
}

func TestReferenceFormatMismatch(t *testing.T) {
	tools := &fakeTools{}
	p, dir := newTestPipeline(t, tools)
	p.Reference = filepath.Join(dir, "reads.fastq")
	require.NoError(t, os.WriteFile(p.Reference, []byte("@r\nA\n+\nI\n"), 0644))

	err := p.Run(context.Background())
	e, ok := diag.As(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, diag.Format, e.Kind)
	assert.Equal(t, "reference genome file", e.Argument)
	assert.Empty(t, tools.calls)
	assert.Equal(t, Failed, p.State())
	assert.NoFileExists(t, p.Output)
}

func TestConfigErrors(t *testing.T) {
	tools := &fakeTools{}

	p, _ := newTestPipeline(t, tools)
	p.Reference = ""
	assert.Equal(t, diag.Config, diag.KindOf(p.Run(context.Background())))

	p, _ = newTestPipeline(t, tools)
	p.Input = ""
	assert.Equal(t, diag.Config, diag.KindOf(p.Run(context.Background())))

	p, _ = newTestPipeline(t, tools)
	p.Input = ""
	p.Stdin = strings.NewReader("")
	assert.Equal(t, diag.Config, diag.KindOf(p.Run(context.Background())))
	assert.Equal(t, []State{AcquireInput, Failed}, p.Trace())

	p, _ = newTestPipeline(t, tools)
	p.Correction.MatchType = "fuzzy"
	assert.Equal(t, diag.Parameter, diag.KindOf(p.Run(context.Background())))

	p, dir := newTestPipeline(t, tools)
	p.Input = filepath.Join(dir, "missing.bam")
	assert.Equal(t, diag.Environment, diag.KindOf(p.Run(context.Background())))

	assert.Empty(t, tools.calls)
}

func TestRunFromStdin(t *testing.T) {
	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools)
	p.Correct = false
	p.Input = ""
	p.Stdin = strings.NewReader("BAM\x01 piped reads")
	require.NoError(t, p.Run(context.Background()))

	require.NotEmpty(t, tools.calls)
	dump := tools.calls[0].Args[1]
	assert.Equal(t, filepath.Join(p.TempDir, "1-1_stdin_dump.bam"), dump)
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Equal(t, "BAM\x01 piped reads", string(data))
}

func TestToolFailure(t *testing.T) {
	tools := &fakeTools{fail: stages.StepSort}
	p, _ := newTestPipeline(t, tools)
	p.Correct = false
	err := p.Run(context.Background())
	e, ok := diag.As(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, diag.Tool, e.Kind)
	assert.Equal(t, "The read file could not be sorted", diag.Message(err))
	assert.Equal(t, Failed, p.State())
	assert.Equal(t, []State{AcquireInput, Convert, Align, ConvertBack, SortIndex, Failed}, p.Trace())
	assert.NoFileExists(t, p.Output)
}

func TestInterrupted(t *testing.T) {
	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx)
	assert.Equal(t, diag.Interrupt, diag.KindOf(err))
	assert.Empty(t, diag.Message(err))
	assert.Empty(t, tools.calls)
	assert.NoFileExists(t, p.Output)
}

func TestDeliveryFailure(t *testing.T) {
	p, dir := newTestPipeline(t, &fakeTools{})
	p.Correct = false
	p.Output = filepath.Join(dir, "no-such-dir", "consensus.fa")
	err := p.Run(context.Background())
	assert.Equal(t, diag.Environment, diag.KindOf(err))
	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), "."), entry.Name())
	}
}

func TestDeliverReplacesOutput(t *testing.T) {
	p, dir := newTestPipeline(t, &fakeTools{})
	p.Correct = false
	require.NoError(t, os.WriteFile(p.Output, []byte("stale\n"), 0644))
	require.NoError(t, p.Run(context.Background()))
	data, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), ">lambda_phage"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".consensus.fa."), entry.Name())
	}
}

func TestEndToEnd(t *testing.T) {
	for _, tool := range stages.DefaultTools().List() {
		if tool == "karect" {
			continue
		}
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%v not available", tool)
		}
	}
	dir := t.TempDir()
	bam := filepath.Join(dir, "lambda_reads.bam")
	out, err := exec.Command("samtools", "view", "-b", "-o", bam, filepath.Join("testdata", "lambda_reads.sam")).CombinedOutput()
	require.NoError(t, err, string(out))

	p := New(filepath.Join("testdata", "lambda_ref.fa"))
	p.Input = bam
	p.Output = filepath.Join(dir, "consensus.fa")
	p.TempDir = dir
	p.Correct = false
	p.Stdout = io.Discard
	require.NoError(t, p.Run(context.Background()))

	f, err := os.Open(p.Output)
	require.NoError(t, err)
	defer f.Close()
	lines := readLines(t, f)
	require.NotEmpty(t, lines)
	assert.Equal(t, ">lambda_phage", lines[0])
	for _, line := range lines[1:] {
		assert.NotEmpty(t, line)
		assert.Equal(t, strings.ToUpper(line), line)
	}
}

func TestOutputMode(t *testing.T) {
	p, dir := newTestPipeline(t, &fakeTools{})
	p.Correct = false
	require.NoError(t, p.Run(context.Background()))

	// A file created the ordinary way carries the mode the umask allows.
	plain := filepath.Join(dir, "plain.fa")
	f, err := os.Create(plain)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	want, err := os.Stat(plain)
	require.NoError(t, err)
	got, err := os.Stat(p.Output)
	require.NoError(t, err)
	assert.Equal(t, want.Mode().Perm(), got.Mode().Perm())
}

func TestOutputModeKept(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeTools{})
	p.Correct = false
	require.NoError(t, os.WriteFile(p.Output, []byte("stale\n"), 0600))
	require.NoError(t, os.Chmod(p.Output, 0640))
	require.NoError(t, p.Run(context.Background()))
	info, err := os.Stat(p.Output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

// countingProber counts host probes and shrinks the memory it reports.
type countingProber struct {
	probes, memoryProbes int
}

func (c *countingProber) Probe(withMemory bool) (resources.Budget, error) {
	c.probes++
	b := resources.Budget{Threads: 2}
	if withMemory {
		c.memoryProbes++
		b.MemoryGB = 4 / float64(c.probes)
	}
	return b, nil
}

func TestBudgetProbedPerStage(t *testing.T) {
	tools := &fakeTools{}
	prober := &countingProber{}
	p, _ := newTestPipeline(t, tools)
	p.Prober = prober
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 3, prober.probes)
	assert.Equal(t, 1, prober.memoryProbes)
	assert.Contains(t, tools.calls[1].Args, "-memory=4.00")

	prober = &countingProber{}
	p, _ = newTestPipeline(t, &fakeTools{})
	p.Prober = prober
	p.Correct = false
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, prober.probes)
	assert.Equal(t, 0, prober.memoryProbes)
}
