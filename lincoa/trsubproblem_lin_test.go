// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"math"
	"testing"
)

func TestActiveSetRebuildSpansFullSpace(t *testing.T) {
	as := newActiveSet(3)
	if len(as.null) != 3 {
		t.Fatalf("expected an empty active set to leave a full-rank null space, got %d vectors", len(as.null))
	}
	for i, v := range as.null {
		for j, w := range as.null {
			got := ddot(3, v, w)
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(got-want) > 1e-9 {
				t.Fatalf("null[%d]·null[%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestActiveSetAddShrinksNullSpace(t *testing.T) {
	a := [][]float64{{1, 0, 0}, {0, 1, 0}}
	as := newActiveSet(3)
	as.add(0, a)
	if as.nact() != 1 || len(as.null) != 2 {
		t.Fatalf("expected one active row and a 2-d null space, got nact=%d null=%d", as.nact(), len(as.null))
	}
	as.add(1, a)
	if as.nact() != 2 || len(as.null) != 1 {
		t.Fatalf("expected two active rows and a 1-d null space, got nact=%d null=%d", as.nact(), len(as.null))
	}
	as.drop(0, a)
	if as.nact() != 1 || len(as.null) != 2 {
		t.Fatalf("expected drop to restore a 2-d null space, got nact=%d null=%d", as.nact(), len(as.null))
	}
}

func TestTRSubproblemLinUnconstrainedMatchesSteepestDescentDirection(t *testing.T) {
	n := 2
	m := buildSimplexModel(t, n, 0.5, []float64{2, 0, 0, 2}, []float64{1, 1})
	as := newActiveSet(n)

	delta := 1.0
	res := trSubproblemLin(m, nil, nil, nil, delta, as)
	if res.Snorm <= 0 {
		t.Fatal("expected a nonzero step toward the minimizer")
	}
	if res.Snorm > delta+1e-9 {
		t.Fatalf("step norm %v exceeds trust radius %v", res.Snorm, delta)
	}
	// Descent direction: the model should predict a strict decrease.
	if red := -m.evalQuad(res.Step); red <= 0 {
		t.Fatalf("expected predicted reduction > 0, got %v", red)
	}
	// Steepest descent direction: with H = 2I the CG step is a positive
	// multiple of -gopt.
	if cos := -ddot(n, res.Step, m.gopt) / (res.Snorm * dnrm2(m.gopt)); !almostEqual(cos, 1, 1e-9) {
		t.Fatalf("expected step along -gopt, got cosine %v", cos)
	}
}

func TestGeomStepStaysWithinRadius(t *testing.T) {
	n := 2
	m := buildSimplexModel(t, n, 0.5, []float64{2, 0, 0, 2}, []float64{0, 0})
	rescon := []float64{-1, -1}
	gr := geomStep(m, nil, rescon, 1, 0.3)
	if nrm := dnrm2(gr.Step); nrm > 0.3+1e-9 {
		t.Fatalf("geometry step norm %v exceeds radius 0.3", nrm)
	}
}
