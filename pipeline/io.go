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
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/exascience/grapple/artifacts"
	"github.com/exascience/grapple/diag"
)

// acquire returns the path of the input reads. Reads piped on Stdin are
// buffered into a run-scoped BAM file first.
func (p *Pipeline) acquire(ctx context.Context, namer *artifacts.Namer) (string, error) {
	if p.Input != "" {
		return p.Input, nil
	}
	path := namer.Path("stdin_dump", "bam")
	p.logf("Reading the input reads from standard input")
	f, err := os.Create(path)
	if err != nil {
		return "", diag.Environmentf(err, "unable to create %v", path)
	}

	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := io.Copy(f, p.Stdin)
		done <- result{n, err}
	}()

	// A blocked read on standard input cannot be cancelled, so an
	// interrupt abandons the copy.
	select {
	case <-ctx.Done():
		_ = f.Close()
		return "", diag.Interrupted(ctx.Err())
	case res := <-done:
		if nerr := f.Close(); res.err == nil {
			res.err = nerr
		}
		if res.err != nil {
			return "", diag.Environmentf(res.err, "unable to buffer standard input into %v", path)
		}
		if res.n == 0 {
			return "", diag.Configf("No input was provided: standard input is empty")
		}
	}
	return path, nil
}

// deliver streams the lines of the final artifact to Output, or to
// Stdout when no output file was requested. File output is written
// next to its destination and renamed into place, so an interrupted
// run never leaves a partial consensus behind.
func (p *Pipeline) deliver(ctx context.Context, artifact string) (string, error) {
	if p.Output == "" {
		if err := copyLines(ctx, p.Stdout, artifact); err != nil {
			return "", classifyDelivery(ctx, err, "standard output")
		}
		return "", nil
	}

	dir, base := filepath.Split(p.Output)
	if dir == "" {
		dir = "."
	}
	// The staging file is created like any new file, subject to the
	// umask. An existing output keeps its permissions.
	perm := os.FileMode(0666)
	if info, err := os.Stat(p.Output); err == nil && info.Mode().IsRegular() {
		perm = info.Mode().Perm()
	}
	tmpName := filepath.Join(dir, "."+base+"."+string(p.run)+".tmp")
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return "", diag.Environmentf(err, "unable to create %v", p.Output)
	}
	if perm != 0666 {
		err = tmp.Chmod(perm)
	}
	if err == nil {
		err = copyLines(ctx, tmp, artifact)
	}
	if nerr := tmp.Close(); err == nil {
		err = nerr
	}
	if err == nil {
		err = os.Rename(tmpName, p.Output)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", classifyDelivery(ctx, err, p.Output)
	}
	p.logf("The consensus was written to %v", p.Output)
	return p.Output, nil
}

func classifyDelivery(ctx context.Context, err error, dest string) error {
	if ctx.Err() != nil {
		return diag.Interrupted(err)
	}
	return diag.Environmentf(err, "unable to write the consensus to %v", dest)
}

// copyLines copies path to w line by line.
func copyLines(ctx context.Context, w io.Writer, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	out := bufio.NewWriter(w)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<30)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := out.Write(scanner.Bytes()); err != nil {
			return errors.Wrap(err, "write failed")
		}
		if err := out.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "write failed")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "unable to read %v", path)
	}
	return out.Flush()
}
