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

package pipeline

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	"github.com/willf/bitset"

	"github.com/exascience/grapple/formats"
)

// State is a state of the orchestrator.
type State int

// Orchestrator states. AcquireInput through DeliverOutput run in this
// order; Correct is skipped when correction is disabled. Failed is
// reachable from every state and absorbing.
const (
	AcquireInput State = iota
	Convert
	Correct
	Align
	ConvertBack
	SortIndex
	CallVariants
	Normalize
	DeliverOutput
	Done
	Failed
)

var stateNames = [...]string{
	AcquireInput:  "acquire-input",
	Convert:       "convert",
	Correct:       "correct",
	Align:         "align",
	ConvertBack:   "convert-back",
	SortIndex:     "sort-index",
	CallVariants:  "call-variants",
	Normalize:     "normalize",
	DeliverOutput: "deliver-output",
	Done:          "done",
	Failed:        "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// produces is the format of the artifact each state hands to the next.
var produces = map[State]formats.Format{
	AcquireInput: formats.BAM,
	Convert:      formats.FASTQ,
	Correct:      formats.FASTQ,
	Align:        formats.SAM,
	ConvertBack:  formats.BAM,
	SortIndex:    formats.BAM,
	CallVariants: formats.FASTA,
	Normalize:    formats.FASTA,
}

// Plan is the fixed stage sequence of a run, as a linear graph from
// AcquireInput to DeliverOutput. Edges carry the format of the
// artifact passed along them.
type Plan struct {
	enabled *bitset.BitSet
	graph   graph.Graph[string, State]
	order   []State
}

// NewPlan returns the plan of a run, with or without read correction.
func NewPlan(correction bool) (*Plan, error) {
	enabled := bitset.New(uint(Done))
	for s := AcquireInput; s < Done; s++ {
		enabled.Set(uint(s))
	}
	if !correction {
		enabled.Clear(uint(Correct))
	}

	g := graph.New(func(s State) string { return s.String() }, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	var prev State = -1
	for s := AcquireInput; s < Done; s++ {
		if !enabled.Test(uint(s)) {
			continue
		}
		if err := g.AddVertex(s, graph.VertexAttribute("shape", "box")); err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %v", s)
		}
		if prev >= 0 {
			label := graph.EdgeAttribute("label", produces[prev].String())
			if err := g.AddEdge(prev.String(), s.String(), label); err != nil {
				return nil, errors.Wrapf(err, "unable to connect stage %v to %v", prev, s)
			}
		}
		prev = s
	}

	keys, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, errors.Wrap(err, "unable to order stages")
	}
	order := make([]State, 0, len(keys))
	for _, k := range keys {
		s, err := g.Vertex(k)
		if err != nil {
			return nil, errors.Wrapf(err, "unknown stage %v", k)
		}
		order = append(order, s)
	}
	return &Plan{enabled: enabled, graph: g, order: order}, nil
}

// Enabled reports whether s runs in this plan.
func (p *Plan) Enabled(s State) bool {
	return s >= 0 && s < Done && p.enabled.Test(uint(s))
}

// States returns the states of the plan in execution order.
func (p *Plan) States() []State {
	return append([]State(nil), p.order...)
}

// WriteDOT writes the plan as a Graphviz digraph.
func (p *Plan) WriteDOT(w io.Writer) error {
	return errors.Wrap(draw.DOT(p.graph, w, draw.GraphAttribute("rankdir", "LR")), "unable to draw plan")
}
