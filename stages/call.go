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
	"github.com/exascience/grapple/fasta"
	"github.com/exascience/grapple/formats"
)

// CallVariants piles up the sorted reads against the reference, calls
// variants with bcftools and applies them to the reference. It returns
// the path of the consensus FASTA.
func (r *Runner) CallVariants(ctx context.Context, reads, reference string) (string, error) {
	if err := formats.Check("read file", reads, formats.BAM); err != nil {
		return "", err
	}
	if err := formats.Check("reference genome file", reference, formats.FASTA); err != nil {
		return "", err
	}
	pileup := r.Namer.Path("pileup", "vcf")
	variants := r.Namer.Path("variants", "vcf.gz")
	out := r.Namer.Path("consensus", "fa")
	r.status("Calling the variants")
	if err := r.run(ctx, StepPileup, nil, r.Tools.Samtools, "mpileup", "-uf", reference, "-o", pileup, reads); err != nil {
		return "", err
	}
	if err := formats.Check("pileup file", pileup, formats.VCF); err != nil {
		return "", err
	}
	if err := r.run(ctx, StepCall, nil, r.Tools.Bcftools, "call", "-mv", "-Oz", "-o", variants, pileup); err != nil {
		return "", err
	}
	if err := formats.Check("variant file", variants, formats.VCF); err != nil {
		return "", err
	}
	if err := r.run(ctx, StepIndexVariants, nil, r.Tools.Bcftools, "index", variants); err != nil {
		return "", err
	}
	if err := r.run(ctx, StepConsensus, nil, r.Tools.Bcftools, "consensus", "-f", reference, "-o", out, variants); err != nil {
		return "", err
	}
	if err := produced(StepConsensus, r.Tools.Bcftools, out); err != nil {
		return "", err
	}
	return out, nil
}

// Normalize upper-cases the sequence lines of a consensus FASTA and
// returns the path of the normalized copy. Header lines are kept as
// they are.
func (r *Runner) Normalize(ctx context.Context, consensus string) (string, error) {
	if err := formats.Check("consensus file", consensus, formats.FASTA); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", diag.Interrupted(err)
	}
	out := r.Namer.Path("formatted_consensus", "fa")
	r.status("Formatting the consensus")
	if err := fasta.Normalize(consensus, out); err != nil {
		return "", diag.Environmentf(err, "unable to format the consensus %v", consensus)
	}
	return out, nil
}
