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

	"github.com/exascience/grapple/diag"
	"github.com/exascience/grapple/formats"
)

// CellType is the karect -celltype value.
type CellType string

// Cell types accepted by karect.
const (
	Haploid CellType = "haploid"
	Diploid CellType = "diploid"
)

// MatchType is the karect -matchtype value.
type MatchType string

// Match types accepted by karect.
const (
	EditMatch    MatchType = "edit"
	HammingMatch MatchType = "hamming"
	InsDelMatch  MatchType = "insdel"
)

// Validate rejects cell types karect does not know. karect ignores
// invalid values instead of failing on them.
func (c CellType) Validate() error {
	switch c {
	case Haploid, Diploid:
		return nil
	}
	return diag.Parameterf("cell type", "The cell type is not a valid value")
}

// Validate rejects match types karect does not know.
func (m MatchType) Validate() error {
	switch m {
	case EditMatch, HammingMatch, InsDelMatch:
		return nil
	}
	return diag.Parameterf("match type", "The match type is not a valid value")
}

// Ploidy values of the command line.
const (
	PloidyHaploid = "n"
	PloidyDiploid = "2n"
)

// Correction modes of the command line.
const (
	ModeEqual = "equal"
	ModeIndel = "indel"
	ModeSubs  = "subs"
)

// CellTypeForPloidy maps a command line ploidy to a karect cell type.
func CellTypeForPloidy(ploidy string) (CellType, error) {
	switch ploidy {
	case PloidyHaploid:
		return Haploid, nil
	case PloidyDiploid:
		return Diploid, nil
	}
	return "", diag.Parameterf("ploidy", "The ploidy %q is not one of %v or %v", ploidy, PloidyHaploid, PloidyDiploid)
}

// MatchTypeForMode maps a command line correction mode to a karect
// match type.
func MatchTypeForMode(mode string) (MatchType, error) {
	switch mode {
	case ModeEqual:
		return EditMatch, nil
	case ModeIndel:
		return InsDelMatch, nil
	case ModeSubs:
		return HammingMatch, nil
	}
	return "", diag.Parameterf("mode", "The correction mode %q is not one of %v, %v or %v", mode, ModeEqual, ModeIndel, ModeSubs)
}

// Correction holds the karect parameters of the correct stage.
type Correction struct {
	CellType  CellType
	MatchType MatchType
}

// DefaultCorrection is haploid cells with equally weighted errors.
var DefaultCorrection = Correction{CellType: Haploid, MatchType: EditMatch}

// Correct corrects the reads in a FASTQ file with karect and returns
// the corrected FASTQ path.
func (r *Runner) Correct(ctx context.Context, reads string, c Correction) (string, error) {
	if err := formats.Check("read file", reads, formats.FASTQ); err != nil {
		return "", err
	}
	if err := checkExist("read file", reads); err != nil {
		return "", err
	}
	if err := c.CellType.Validate(); err != nil {
		return "", err
	}
	if err := c.MatchType.Validate(); err != nil {
		return "", err
	}
	budget, err := r.budget(true)
	if err != nil {
		return "", err
	}
	r.status("Correcting the reads")
	// karect prints its progress on stdout, so stdout goes to the diagnostics sink.
	err = r.run(ctx, StepCorrect, nil, r.Tools.Karect,
		"-correct",
		"-inputfile="+reads,
		"-celltype="+string(c.CellType),
		"-matchtype="+string(c.MatchType),
		"-threads="+budget.ThreadsArg(),
		"-memory="+budget.MemoryArg(),
		"-resultdir="+r.Namer.Dir,
		"-tempdir="+r.Namer.Dir,
	)
	if err != nil {
		return "", err
	}
	out := r.Namer.Sibling("karect_", reads)
	if err := produced(StepCorrect, r.Tools.Karect, out); err != nil {
		return "", err
	}
	return out, nil
}
