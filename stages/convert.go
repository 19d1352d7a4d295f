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

	"github.com/exascience/grapple/formats"
)

// BamToFastq converts the reads in a BAM file to FASTQ with samtools
// bam2fq and returns the FASTQ path.
func (r *Runner) BamToFastq(ctx context.Context, reads string) (string, error) {
	if err := formats.Check("read file", reads, formats.BAM); err != nil {
		return "", err
	}
	out := r.Namer.Path("bam_to_fq_out", "fq")
	r.status("Converting the input from BAM format to FASTQ format")
	if err := r.runTo(ctx, StepBamToFastq, out, r.Tools.Samtools, "bam2fq", reads); err != nil {
		return "", err
	}
	return out, nil
}

// SamToBam converts aligned reads from SAM to BAM with samtools view
// and returns the BAM path.
func (r *Runner) SamToBam(ctx context.Context, reads string) (string, error) {
	if err := formats.Check("read file", reads, formats.SAM); err != nil {
		return "", err
	}
	out := r.Namer.Path("aligned_reads", "bam")
	r.status("Converting the aligned reads from SAM format to BAM format")
	if err := r.run(ctx, StepSamToBam, nil, r.Tools.Samtools, "view", "-bo", out, reads); err != nil {
		return "", err
	}
	if err := produced(StepSamToBam, r.Tools.Samtools, out); err != nil {
		return "", err
	}
	return out, nil
}
