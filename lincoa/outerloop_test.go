// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOuterLoopUnconstrainedQuadratic(t *testing.T) {
	p := &Problem{
		N: 2, NPT: 5,
		Eval: func(x []float64) float64 {
			return (x[0]-1)*(x[0]-1) + (x[1]-2)*(x[1]-2)
		},
		Stop: Termination{RhoBeg: 1, RhoEnd: 1e-6, MaxFun: 500},
	}
	opt, err := p.New(nil)
	require.NoError(t, err)
	w := opt.Init()
	res := opt.Solve([]float64{0, 0}, w)

	require.InDelta(t, 1.0, res.X[0], 1e-2)
	require.InDelta(t, 2.0, res.X[1], 1e-2)
	require.InDelta(t, 0.0, res.F, 1e-3)
}

func TestOuterLoopLinearObjectiveWithInequalities(t *testing.T) {
	// minimize x+y s.t. x+y>=1, x>=0, y>=0.
	p := &Problem{
		N: 2, NPT: 5,
		Eval: func(x []float64) float64 { return x[0] + x[1] },
		A: [][]float64{
			{-1, -1},
			{-1, 0},
			{0, -1},
		},
		B:    []float64{-1, 0, 0},
		Stop: Termination{RhoBeg: 0.5, RhoEnd: 1e-6, MaxFun: 500},
	}
	opt, err := p.New(nil)
	require.NoError(t, err)
	w := opt.Init()
	res := opt.Solve([]float64{1, 1}, w)

	require.InDelta(t, 1.0, res.F, 1e-2)
	require.LessOrEqual(t, res.Cstrv, 1e-4)
}

func TestOuterLoopEqualityViaOpposingInequalities(t *testing.T) {
	// minimize x^2+y^2+z^2 s.t. x+y+z=1.
	p := &Problem{
		N: 3, NPT: 7,
		Eval: func(x []float64) float64 {
			return x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
		},
		A: [][]float64{
			{1, 1, 1},
			{-1, -1, -1},
		},
		B:    []float64{1, -1},
		Stop: Termination{RhoBeg: 0.5, RhoEnd: 1e-7, MaxFun: 800},
	}
	opt, err := p.New(nil)
	require.NoError(t, err)
	w := opt.Init()
	res := opt.Solve([]float64{1, 0, 0}, w)

	require.InDelta(t, 1.0/3.0, res.F, 1e-2)
	require.LessOrEqual(t, res.Cstrv, 1e-3)
}

func TestOuterLoopInfiniteLoopRegression(t *testing.T) {
	// A historical LINCOA infinite loop involved a point pinned against a
	// single active constraint where the objective is flat near the
	// boundary; the solver must still terminate.
	p := &Problem{
		N: 1, NPT: 3,
		Eval: func(x []float64) float64 { return math.Atan(x[0] + 100) },
		A:    [][]float64{{1}},
		B:    []float64{-99},
		Stop: Termination{RhoBeg: 1, RhoEnd: 1e-6, MaxFun: 2000},
	}
	opt, err := p.New(nil)
	require.NoError(t, err)
	w := opt.Init()
	res := opt.Solve([]float64{-99}, w)

	require.Less(t, res.NumEval, 2000, "must terminate before exhausting the function-evaluation budget")
	require.InDelta(t, -99.0, res.X[0], 1.0)
	require.LessOrEqual(t, res.Cstrv, 1e-4)
}

func TestOuterLoopMaxFunExhaustion(t *testing.T) {
	npt := 5
	p := &Problem{
		N: 2, NPT: npt,
		Eval: func(x []float64) float64 {
			return (x[0]-1)*(x[0]-1) + (x[1]-2)*(x[1]-2)
		},
		Stop: Termination{RhoBeg: 1, RhoEnd: 1e-6, MaxFun: npt + 1},
	}
	opt, err := p.New(nil)
	require.NoError(t, err)
	w := opt.Init()
	res := opt.Solve([]float64{0, 0}, w)

	require.Equal(t, MaxFunReached, res.Status)
	require.LessOrEqual(t, res.NumEval, npt+1)
}
