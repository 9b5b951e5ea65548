// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"math"
	"testing"
)

func TestChooseKnewMaximizesSigmaTau(t *testing.T) {
	n := 2
	m := buildSimplexModel(t, n, 0.5, []float64{2, 0, 0, 2}, []float64{0, 0})
	step := []float64{0.01, 0.01}
	knew, score := chooseKnew(m, step)
	if knew < 0 {
		t.Fatal("expected a candidate index")
	}
	if score <= 0 {
		t.Fatalf("expected positive score, got %v", score)
	}

	d := make([]float64, n)
	copy(d, m.xopt)
	daxpy(n, 1, step, d)
	beta, tau := m.augmentedBeta(d)
	wantScore := -1.0
	wantKnew := -1
	wantDist := -1.0
	for k := 0; k < m.npt; k++ {
		alpha := m.omega[k*m.npt+k]
		sigma := alpha*beta + tau[k]*tau[k]
		s := math.Abs(sigma * tau[k])
		dist := distSq(m.xpt[k], m.xopt)
		if s > wantScore || (s == wantScore && dist > wantDist) {
			wantScore, wantKnew, wantDist = s, k, dist
		}
	}
	if knew != wantKnew {
		t.Fatalf("expected knew=%d matching the alpha*beta+tau^2 denominator, got %d", wantKnew, knew)
	}
	if score != wantScore {
		t.Fatalf("expected score=%v, got %v", wantScore, score)
	}
}

func TestUpdateModelReplacesPointAndRefreshesOpt(t *testing.T) {
	n := 2
	m := buildSimplexModel(t, n, 0.5, []float64{2, 0, 0, 2}, []float64{1, -1})

	step := []float64{0.1, 0.0}
	fNew := m.evalQuad(step) + m.fval[m.kopt] // exact match: diff should be ~0
	knew, ok := updateModel(m, 2, step, fNew)
	if !ok {
		t.Fatal("expected updateModel to succeed")
	}
	if knew != 2 {
		t.Fatalf("expected knew=2 (explicit hint honored), got %d", knew)
	}
	if !isFinite(m.gopt) {
		t.Fatal("expected gopt to be refreshed to a finite value")
	}
	if m.fval[2] != fNew {
		t.Fatalf("expected fval[2]=%v, got %v", fNew, m.fval[2])
	}
}

func TestUpdateModelDegenerateDenominatorRejected(t *testing.T) {
	n := 2
	npt := 5
	m := newModel(n, npt)
	// All points coincide: any automatic selection should fail cleanly
	// rather than panic.
	_, ok := updateModel(m, -1, []float64{0.01, 0}, 1.0)
	if ok {
		t.Fatal("expected updateModel to reject a degenerate configuration")
	}
}
