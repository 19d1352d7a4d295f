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

// Package formats classifies pipeline artifacts by their file name.
//
// Validation only looks at the path string. A misnamed file passes
// and fails later inside the external tool that reads it.
package formats

import (
	"fmt"
	"strings"

	"github.com/exascience/grapple/diag"
)

// Format is the expected content type of a pipeline artifact.
type Format int

// Artifact formats known to the pipeline.
const (
	BAM Format = iota + 1
	FASTQ
	FASTA
	SAM
	VCF
)

// File name extensions, per format.
const (
	BamExt   = ".bam"
	FastqExt = ".fastq"
	FqExt    = ".fq"
	FaExt    = ".fa"
	FnaExt   = ".fna"
	FastaExt = ".fasta"
	SamExt   = ".sam"
	VcfExt   = ".vcf"
	VcfGzExt = ".vcf.gz"
	BcfExt   = ".bcf"
)

var extensions = map[Format][]string{
	BAM:   {BamExt},
	FASTQ: {FastqExt, FqExt},
	FASTA: {FaExt, FnaExt, FastaExt},
	SAM:   {SamExt},
	VCF:   {VcfExt, VcfGzExt, BcfExt},
}

func (f Format) String() string {
	switch f {
	case BAM:
		return "BAM"
	case FASTQ:
		return "FASTQ"
	case FASTA:
		return "FASTA"
	case SAM:
		return "SAM"
	case VCF:
		return "VCF"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Matches reports whether the name of path carries one of the
// extensions accepted for f. The comparison is case-sensitive.
func (f Format) Matches(path string) bool {
	if path == "" {
		return false
	}
	for _, ext := range extensions[f] {
		if strings.HasSuffix(path, ext) && len(path) > len(ext) {
			return true
		}
	}
	return false
}

// Check returns a format-mismatch error naming the offending argument
// when path does not carry an extension accepted for f.
func Check(argument, path string, f Format) error {
	if f.Matches(path) {
		return nil
	}
	return diag.Formatf(argument, "The %v is not in %v format", argument, f)
}
