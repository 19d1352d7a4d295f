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

// Package resources probes the host for the thread and memory budgets
// passed to resource-aware tools.
package resources

import (
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

// Budget is the thread count and memory ceiling handed to an external
// tool.
type Budget struct {
	Threads int

	// MemoryGB is available memory in decimal gigabytes. It is zero when
	// memory was not probed.
	MemoryGB float64
}

// ThreadsArg formats the thread count for a command line.
func (b Budget) ThreadsArg() string {
	return strconv.Itoa(b.Threads)
}

// MemoryArg formats the memory ceiling for a command line.
func (b Budget) MemoryArg() string {
	return strconv.FormatFloat(b.MemoryGB, 'f', 2, 64)
}

// A Prober reports the current host capacity. Probe is called once per
// stage that needs a budget, since available memory changes while the
// pipeline runs. Memory is only queried when withMemory is true.
type Prober interface {
	Probe(withMemory bool) (Budget, error)
}

// Host probes the machine the pipeline runs on.
type Host struct{}

const bytesPerGB = 1e9

// Probe returns the logical core count and, when requested, the memory
// currently available, never total memory.
func (Host) Probe(withMemory bool) (Budget, error) {
	b := Budget{Threads: runtime.NumCPU()}
	if !withMemory {
		return b, nil
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Budget{}, errors.Wrap(err, "unable to query available memory")
	}
	b.MemoryGB = float64(vm.Available) / bytesPerGB
	return b, nil
}

// Fixed is a Prober that always returns the same budget.
type Fixed Budget

// Probe implements Prober.
func (f Fixed) Probe(withMemory bool) (Budget, error) {
	b := Budget(f)
	if !withMemory {
		b.MemoryGB = 0
	}
	return b, nil
}
