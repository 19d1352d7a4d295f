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

package stages

import (
	"context"
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Invocation is one external command launched by a stage.
type Invocation struct {
	Step Step

	// Path is the executable, as configured; Args excludes it.
	Path string
	Args []string

	Stdout io.Writer
	Stderr io.Writer
}

// A Launcher runs an invocation to completion. It returns nil only
// when the process exited with status 0, and ctx.Err() when ctx was
// done before the process exited.
type Launcher interface {
	Launch(ctx context.Context, inv *Invocation) error
}

// ExecLauncher runs invocations as child processes.
type ExecLauncher struct{}

// Launch implements Launcher. The child runs in its own process group;
// when ctx is done, the whole group is killed and Launch waits for the
// child to exit.
func (ExecLauncher) Launch(ctx context.Context, inv *Invocation) error {
	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Stdout = sinkOrNil(inv.Stdout)
	cmd.Stderr = sinkOrNil(inv.Stderr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	select {
	case <-ctx.Done():
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// sinkOrNil lets exec connect discarded streams to the null device
// instead of copying them through a pipe.
func sinkOrNil(w io.Writer) io.Writer {
	if w == io.Discard {
		return nil
	}
	return w
}
