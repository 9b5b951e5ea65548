// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// buildSimplexModel constructs the standard 2n+1-point coordinate simplex
// around the origin, with a purely quadratic objective f(x)=xᵀHx/2+g·x so
// the interpolation should reproduce H, g exactly.
func buildSimplexModel(t *testing.T, n int, rho float64, hq, g []float64) *Model {
	npt := 2*n + 1
	m := newModel(n, npt)
	for k := 1; k <= n; k++ {
		m.xpt[k][k-1] = rho
	}
	for k := n + 1; k <= 2*n; k++ {
		m.xpt[k][k-n-1] = -rho
	}
	f := func(x []float64) float64 {
		hv := make([]float64, n)
		matVecSym(n, hq, x, hv)
		return ddot(n, g, x) + 0.5*ddot(n, x, hv)
	}
	for k := 0; k < npt; k++ {
		m.fval[k] = f(m.xpt[k])
	}
	m.kopt = 0
	if !m.rebuildFactorization() {
		t.Fatal("expected well-poised factorization")
	}
	copy(m.hq, hq)
	copy(m.g0, g)
	m.refreshOpt()
	return m
}

func TestLagrangeFunctionsInterpolate(t *testing.T) {
	n := 2
	rho := 0.5
	m := buildSimplexModel(t, n, rho, []float64{2, 0, 0, 2}, []float64{1, -1})

	for k := 0; k < m.npt; k++ {
		for j := 0; j < m.npt; j++ {
			got := m.evalLagrange(k, m.xpt[j])
			want := 0.0
			if k == j {
				want = 1.0
			}
			if !almostEqual(got, want, 1e-6) {
				t.Fatalf("L_%d(xpt[%d]) = %v, want %v", k, j, got, want)
			}
		}
	}
}

func TestRebuildFactorizationSingular(t *testing.T) {
	n := 2
	npt := 5
	m := newModel(n, npt)
	// All points coincide at the origin: guaranteed singular.
	if m.rebuildFactorization() {
		t.Fatal("expected singular factorization to be detected")
	}
}

func TestEvalQuadMatchesHessian(t *testing.T) {
	n := 2
	npt := 5
	m := newModel(n, npt)
	hq := []float64{4, 1, 1, 3}
	g := []float64{0.5, -0.2}
	copy(m.hq, hq)
	copy(m.g0, g)
	m.refreshOpt() // xopt=0 here, so gopt=g0

	d := []float64{0.05, -0.07}
	hv := make([]float64, n)
	matVecSym(n, hq, d, hv)
	want := ddot(n, g, d) + 0.5*ddot(n, d, hv)
	got := m.evalQuad(d)
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("evalQuad mismatch: got %v want %v", got, want)
	}
}
