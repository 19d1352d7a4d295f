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

// Package artifacts names the intermediate files of a pipeline run.
//
// All intermediates live in a temporary directory shared with other
// runs. Each run prefixes its files with its own run identifier, which
// is the only thing keeping concurrent runs apart: there is no
// locking.
package artifacts

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RunID identifies one pipeline execution.
type RunID string

// A Source produces run identifiers.
type Source interface {
	NewRunID() (RunID, error)
}

// UUIDSource draws random (version 4) UUIDs from crypto/rand. With 122
// random bits, a collision among a billion concurrent runs has a
// probability below 1e-18.
type UUIDSource struct{}

// NewRunID implements Source.
func (UUIDSource) NewRunID() (RunID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "unable to generate run identifier")
	}
	return RunID(id.String()), nil
}

// SequenceSource produces deterministic identifiers from a process id
// and a counter. Identifiers are unique within one SequenceSource and
// across processes with distinct pids.
type SequenceSource struct {
	Pid     int
	counter uint64
}

// NewRunID implements Source.
func (s *SequenceSource) NewRunID() (RunID, error) {
	n := atomic.AddUint64(&s.counter, 1)
	return RunID(fmt.Sprintf("%d-%d", s.Pid, n)), nil
}
