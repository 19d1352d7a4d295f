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

// Step identifies one external invocation of the pipeline. A stage
// runs one or more steps.
type Step string

// Pipeline steps, in execution order.
const (
	StepBamToFastq     Step = "bam2fq"
	StepCorrect        Step = "correct"
	StepIndexReference Step = "index-reference"
	StepAlign          Step = "align"
	StepSamToBam       Step = "sam2bam"
	StepSort           Step = "sort"
	StepIndexReads     Step = "index-reads"
	StepPileup         Step = "pileup"
	StepCall           Step = "call"
	StepIndexVariants  Step = "index-variants"
	StepConsensus      Step = "consensus"
)

type stepInfo struct {
	subcommand string
	failure    string
}

var stepTable = map[Step]stepInfo{
	StepBamToFastq:     {"bam2fq", "The reads could not be converted from BAM to FASTQ format"},
	StepCorrect:        {"-correct", "The reads could not be corrected"},
	StepIndexReference: {"", "An index could not be constructed from the reference genome provided"},
	StepAlign:          {"", "The reads could not be aligned to the reference genome"},
	StepSamToBam:       {"view", "The reads could not be converted from SAM format to BAM format"},
	StepSort:           {"sort", "The read file could not be sorted"},
	StepIndexReads:     {"index", "The sorted reads could not be indexed"},
	StepPileup:         {"mpileup", "The reads could not be processed by mpileup before being called"},
	StepCall:           {"call", "The variants could not be called"},
	StepIndexVariants:  {"index", "The variant index could not be constructed"},
	StepConsensus:      {"consensus", "A consensus could not be generated from the variants"},
}

// FailureMessage returns the user-facing message reported when s fails.
func (s Step) FailureMessage() string {
	if info, ok := stepTable[s]; ok {
		return info.failure
	}
	return "The pipeline step " + string(s) + " failed"
}

// Subcommand returns the sub-command of the tool s runs, if it has one.
func (s Step) Subcommand() string {
	return stepTable[s].subcommand
}
