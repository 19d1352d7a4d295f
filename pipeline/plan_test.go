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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanOrder(t *testing.T) {
	plan, err := NewPlan(true)
	require.NoError(t, err)
	assert.Equal(t, []State{AcquireInput, Convert, Correct, Align, ConvertBack, SortIndex, CallVariants, Normalize, DeliverOutput}, plan.States())
	assert.True(t, plan.Enabled(Correct))

	plan, err = NewPlan(false)
	require.NoError(t, err)
	assert.Equal(t, []State{AcquireInput, Convert, Align, ConvertBack, SortIndex, CallVariants, Normalize, DeliverOutput}, plan.States())
	assert.False(t, plan.Enabled(Correct))
	assert.True(t, plan.Enabled(Align))
	assert.False(t, plan.Enabled(Done))
	assert.False(t, plan.Enabled(Failed))
}

func TestPlanDOT(t *testing.T) {
	plan, err := NewPlan(false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, plan.WriteDOT(&buf))
	dot := buf.String()
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, `"acquire-input"`)
	assert.Contains(t, dot, `"deliver-output"`)
	assert.Contains(t, dot, `"convert" -> "align"`)
	assert.NotContains(t, dot, `"correct"`)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "convert-back", ConvertBack.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
