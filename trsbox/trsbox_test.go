// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trsbox

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolveInteriorNewton(t *testing.T) {
	// H = diag(2,4), g = (-2,-4) -> unconstrained minimizer d=(1,1), ‖d‖=√2
	n := 2
	h := []float64{2, 0, 0, 4}
	g := []float64{-2, -4}

	d, crvmin := Solve(n, g, h, 10, 1e-10)
	if !almostEqual(d[0], 1, 1e-8) || !almostEqual(d[1], 1, 1e-8) {
		t.Fatalf("unexpected interior step: %v", d)
	}
	if crvmin <= 0 {
		t.Fatalf("expected positive crvmin for interior Newton step, got %v", crvmin)
	}
}

func TestSolveBoundaryActive(t *testing.T) {
	// Same problem but delta smaller than the Newton step norm: boundary active.
	n := 2
	h := []float64{2, 0, 0, 4}
	g := []float64{-2, -4}
	delta := 0.5

	d, crvmin := Solve(n, g, h, delta, 1e-10)
	norm := math.Hypot(d[0], d[1])
	if !almostEqual(norm, delta, 1e-6) {
		t.Fatalf("expected ‖d‖≈delta, got %v (d=%v)", norm, d)
	}
	if crvmin != 0 {
		t.Fatalf("boundary step should report crvmin=0, got %v", crvmin)
	}
}

func TestSolveZeroHessian(t *testing.T) {
	n := 3
	h := make([]float64, n*n)
	g := []float64{1, -2, 2}
	delta := 3.0

	d, crvmin := Solve(n, g, h, delta, 1e-8)
	norm := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	if !almostEqual(norm, delta, 1e-9) {
		t.Fatalf("expected step at full radius for zero Hessian, got norm %v", norm)
	}
	if dot := d[0]*g[0] + d[1]*g[1] + d[2]*g[2]; dot > 0 {
		t.Fatalf("step should be a descent direction, got gᵀd=%v", dot)
	}
	if crvmin != 0 {
		t.Fatalf("expected crvmin=0 for zero Hessian, got %v", crvmin)
	}
}

func TestSolveOneDimensional(t *testing.T) {
	n := 1
	h := []float64{4}
	g := []float64{-2}

	d, crvmin := Solve(n, g, h, 10, 1e-10)
	if !almostEqual(d[0], 0.5, 1e-12) {
		t.Fatalf("expected Newton step 0.5, got %v", d[0])
	}
	if crvmin != 4 {
		t.Fatalf("expected crvmin=h=4, got %v", crvmin)
	}

	d2, crvmin2 := Solve(n, g, h, 0.1, 1e-10)
	if !almostEqual(d2[0], 0.1, 1e-12) {
		t.Fatalf("expected boundary step 0.1, got %v", d2[0])
	}
	if crvmin2 != 0 {
		t.Fatalf("expected crvmin=0 at the boundary, got %v", crvmin2)
	}
}

func TestSolveIndefiniteHardCase(t *testing.T) {
	// H = diag(-1, 3): indefinite, minimizer lies on the boundary regardless
	// of g; exercises the Cholesky-failure branch of the secular search.
	n := 2
	h := []float64{-1, 0, 0, 3}
	g := []float64{0, 0}
	delta := 1.0

	d, _ := Solve(n, g, h, delta, 1e-8)
	norm := math.Hypot(d[0], d[1])
	if !almostEqual(norm, delta, 1e-3) {
		t.Fatalf("expected boundary step for indefinite H, got norm %v (d=%v)", norm, d)
	}
}

func TestSolveNonFinitePropagation(t *testing.T) {
	n := 2
	h := []float64{1, 0, 0, math.NaN()}
	g := []float64{1, 1}

	d, crvmin := Solve(n, g, h, 1, 1e-8)
	if d[0] != 0 || d[1] != 0 || crvmin != 0 {
		t.Fatalf("expected zero step on non-finite Hessian, got d=%v crvmin=%v", d, crvmin)
	}
}
