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

// Align builds a bowtie2 index of the reference and aligns the reads
// against it. It returns the path of the SAM alignment.
func (r *Runner) Align(ctx context.Context, reads, reference string) (string, error) {
	if err := formats.Check("read file", reads, formats.FASTQ); err != nil {
		return "", err
	}
	if err := formats.Check("reference genome file", reference, formats.FASTA); err != nil {
		return "", err
	}
	budget, err := r.budget(false)
	if err != nil {
		return "", err
	}
	index := r.Namer.Path("bt2_index", "")
	out := r.Namer.Path("aligned_reads", "sam")
	r.status("Aligning the reads")
	if err := r.run(ctx, StepIndexReference, nil, r.Tools.Bowtie2Build, reference, index); err != nil {
		return "", err
	}
	if err := r.runTo(ctx, StepAlign, out, r.Tools.Bowtie2, "-p", budget.ThreadsArg(), "-x", index, "-U", reads); err != nil {
		return "", err
	}
	return out, nil
}

// SortAndIndex sorts aligned reads by coordinate and indexes the result
// with samtools. It returns the path of the sorted BAM file; the index
// is written next to it.
func (r *Runner) SortAndIndex(ctx context.Context, reads string) (string, error) {
	if err := formats.Check("read file", reads, formats.BAM); err != nil {
		return "", err
	}
	budget, err := r.budget(false)
	if err != nil {
		return "", err
	}
	tmp := r.Namer.Path("samtools_sorting", "")
	out := r.Namer.Path("sorted_reads", "bam")
	r.status("Sorting and indexing the reads")
	if err := r.run(ctx, StepSort, nil, r.Tools.Samtools, "sort", "-o", out, "-@", budget.ThreadsArg(), "-T", tmp, reads); err != nil {
		return "", err
	}
	if err := r.run(ctx, StepIndexReads, nil, r.Tools.Samtools, "index", out); err != nil {
		return "", err
	}
	if err := produced(StepSort, r.Tools.Samtools, out); err != nil {
		return "", err
	}
	return out, nil
}
