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

package artifacts

import (
	"os"
	"path/filepath"
	"strings"
)

// Namer derives run-scoped paths in a temporary directory.
type Namer struct {
	Dir string
	Run RunID
}

// NewNamer returns a Namer for run in dir. An empty dir selects
// os.TempDir().
func NewNamer(dir string, run RunID) *Namer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Namer{Dir: dir, Run: run}
}

// Path returns <dir>/<run>_<name>.<ext>. The result depends only on
// its arguments and the Namer's fields, so repeated calls yield the
// same path. An empty ext yields a path without extension, as used for
// index prefixes.
func (n *Namer) Path(name, ext string) string {
	base := string(n.Run) + "_" + name
	if ext != "" {
		base += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(n.Dir, base)
}

// Sibling returns the path a tool writes when it derives its output
// name by prefixing the input's base name, placed in the Namer's
// directory.
func (n *Namer) Sibling(prefix, input string) string {
	return filepath.Join(n.Dir, prefix+filepath.Base(input))
}
