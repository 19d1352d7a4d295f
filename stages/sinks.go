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

import "io"

// Sinks receives the diagnostic output of external tools. Tool output
// never reaches the pipeline's standard output.
type Sinks struct {
	Diagnostics io.Writer
}

// NewSinks resolves the verbosity setting once: verbose runs mirror
// tool diagnostics to stderr, quiet runs discard them.
func NewSinks(verbose bool, stderr io.Writer) Sinks {
	if verbose {
		return Sinks{Diagnostics: stderr}
	}
	return Sinks{Diagnostics: io.Discard}
}
