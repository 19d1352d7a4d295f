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

package fasta

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/exascience/pargo/pipeline"
	"github.com/pkg/errors"
)

// HeaderPrefix starts every FASTA header line.
const HeaderPrefix = ">"

// maxLineLength bounds the length of a single FASTA line. Consensus
// files written by bcftools wrap at 60 bases, but unwrapped references
// put a whole contig on one line.
const maxLineLength = 1 << 30

// NormalizeLine returns line in upper case unless it is a header line.
func NormalizeLine(line string) string {
	if strings.HasPrefix(line, HeaderPrefix) {
		return line
	}
	return strings.ToUpper(line)
}

// NormalizeStream copies FASTA lines from r to w, upper-casing
// sequence lines. Lines are transformed in parallel batches and
// written in their original order; every line written ends in a
// newline.
func NormalizeStream(r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	scanner := pipeline.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var p pipeline.Pipeline
	p.Source(scanner)
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines := data.([]string)
		for i, line := range lines {
			lines[i] = NormalizeLine(line)
		}
		return lines
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, line := range data.([]string) {
			if _, err := out.WriteString(line); err != nil {
				p.SetErr(err)
				return data
			}
			if err := out.WriteByte('\n'); err != nil {
				p.SetErr(err)
				return data
			}
		}
		return data
	})))
	p.Run()
	if err := p.Err(); err != nil {
		return err
	}
	return out.Flush()
}

// Normalize writes a normalized copy of the FASTA file input to output.
func Normalize(input, output string) (err error) {
	in, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "unable to open consensus")
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "unable to create normalized consensus")
	}
	defer func() {
		if nerr := out.Close(); err == nil {
			err = nerr
		}
	}()
	return NormalizeStream(in, out)
}

// ContigFromHeader returns the sequence name of a FASTA header line:
// the first run of printable, non-blank characters after '>'.
func ContigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	if i >= len(b) {
		return ""
	}
	return string(b[i:j])
}

// Contigs returns the sequence names of the FASTA file filename, in
// file order.
func Contigs(filename string) (contigs []string, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if b := scanner.Bytes(); len(b) > 0 && b[0] == '>' {
			contigs = append(contigs, ContigFromHeader(b))
		}
	}
	return contigs, scanner.Err()
}
