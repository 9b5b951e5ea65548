// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"math"

	"github.com/gopowell/lincoa/slsqp"
)

// ActiveSet holds the linear-constraint active-set state that persists
// across trust-region steps: which constraint rows are currently treated as
// equalities, and an orthonormal basis of the remaining null space. The
// reference algorithm maintains this incrementally via {QFAC, RFAC} and
// Givens rotations; this port rebuilds the orthonormal basis from scratch
// with modified Gram-Schmidt whenever the active set changes (same
// from-scratch-over-incremental tradeoff as Model's factorization, and for
// the same reason: no compiler to check an incremental update against).
type ActiveSet struct {
	n    int
	iact []int       // indices into the constraint rows currently active
	null [][]float64 // orthonormal basis of the null space, each length n
}

func newActiveSet(n int) *ActiveSet {
	as := &ActiveSet{n: n}
	as.rebuild(nil)
	return as
}

func (as *ActiveSet) nact() int { return len(as.iact) }

// rebuild recomputes the null-space basis from the active row set using
// modified Gram-Schmidt seeded by the active constraint gradients followed
// by the standard basis, discarding near-dependent vectors.
func (as *ActiveSet) rebuild(a [][]float64) {
	n := as.n
	basis := make([][]float64, 0, n)
	for _, k := range as.iact {
		v := make([]float64, n)
		copy(v, a[k])
		if ortho(v, basis) {
			basis = append(basis, v)
		}
	}
	nact := len(basis)
	for c := 0; c < n && len(basis) < n; c++ {
		e := make([]float64, n)
		e[c] = 1
		if ortho(e, basis) {
			basis = append(basis, e)
		}
	}
	as.null = basis[nact:]
}

// ortho normalizes v against the existing orthonormal set in place via
// modified Gram-Schmidt; returns false if v is numerically dependent.
func ortho(v []float64, basis [][]float64) bool {
	for _, b := range basis {
		daxpy(len(v), -ddot(len(v), v, b), b, v)
	}
	nrm := dnrm2(v)
	if nrm < 1e-10 {
		return false
	}
	for i := range v {
		v[i] /= nrm
	}
	return true
}

func (as *ActiveSet) add(k int, a [][]float64) {
	for _, j := range as.iact {
		if j == k {
			return
		}
	}
	as.iact = append(as.iact, k)
	as.rebuild(a)
}

func (as *ActiveSet) drop(k int, a [][]float64) {
	for i, j := range as.iact {
		if j == k {
			as.iact = append(as.iact[:i], as.iact[i+1:]...)
			break
		}
	}
	as.rebuild(a)
}

// LinStep is the result of TRSubproblemLin.
type LinStep struct {
	Step    []float64
	Snorm   float64
	Ngetact int
}

// trSubproblemLin solves the linearly constrained trust-region subproblem
// (§4.6): minimize the quadratic model over ‖step‖ ≤ delta intersected with
// the feasible polyhedron, via projected conjugate gradient in the active
// constraint's null space with active-set add/drop.
func trSubproblemLin(m *Model, a [][]float64, b []float64, rescon []float64, delta float64, as *ActiveSet) LinStep {
	n := m.n
	step := make([]float64, n)
	g := make([]float64, n)
	copy(g, m.gopt)

	res := LinStep{Step: step}

	const maxOuter = 50
	for outer := 0; outer < maxOuter; outer++ {
		if len(as.null) == 0 {
			break
		}
		hitBoundary, hitConstraint := cgInNullSpace(m, a, b, delta, as, step, g)
		if hitConstraint >= 0 {
			as.add(hitConstraint, a)
			res.Ngetact++
			continue
		}
		if hitBoundary {
			break
		}
		// Interior stationary point in the current null space: try to drop
		// an active constraint whose multiplier estimate is negative
		// (§4.6 step 4's boundary walk, simplified to a single drop pass
		// rather than a bending continuation - see DESIGN.md).
		dropped := tryDropConstraint(m, a, as, g)
		if dropped < 0 {
			break
		}
		as.drop(dropped, a)
	}

	res.Snorm = dnrm2(step)
	return res
}

// cgInNullSpace runs truncated conjugate gradient inside as.null, advancing
// step and g (gradient of Q at xopt+step) in place. Returns hitBoundary=true
// if the trust radius was reached, or hitConstraint>=0 if a previously
// inactive constraint's residual reached zero first.
func cgInNullSpace(m *Model, a [][]float64, b []float64, delta float64, as *ActiveSet, step, g []float64) (hitBoundary bool, hitConstraint int) {
	n := m.n
	hitConstraint = -1
	reduced := func() []float64 {
		r := make([]float64, len(as.null))
		for i, z := range as.null {
			r[i] = ddot(n, z, g)
		}
		return r
	}
	toFull := func(u []float64) []float64 {
		full := make([]float64, n)
		for i, z := range as.null {
			daxpy(n, u[i], z, full)
		}
		return full
	}

	r := reduced()
	if dnrm2(r) < 1e-14 {
		return false, -1
	}
	d := make([]float64, len(r))
	for i := range d {
		d[i] = -r[i]
	}

	const maxIter = 200
	for it := 0; it < maxIter; it++ {
		dFull := toFull(d)
		hd := make([]float64, n)
		m.hessVec(dFull, hd)
		curv := ddot(n, dFull, hd)

		rr := ddot(len(r), r, r)
		var alphaCG float64
		if curv > 1e-14 {
			alphaCG = rr / curv
		} else {
			alphaCG = math.Inf(1)
		}

		alphaTR := trustBoundaryAlpha(step, dFull, delta)

		alphaCon, kCon := constraintAlpha(m, a, b, step, dFull, as.iact)

		alpha := math.Min(alphaCG, math.Min(alphaTR, alphaCon))
		if math.IsInf(alpha, 1) {
			break
		}

		daxpy(n, alpha, dFull, step)
		daxpy(n, alpha, hd, g)

		if alpha >= alphaTR-1e-14 && alphaTR <= alphaCon+1e-14 && alphaTR <= alphaCG+1e-14 {
			return true, -1
		}
		if alphaCon < alphaCG && alphaCon <= alphaTR {
			return false, kCon
		}

		rNew := reduced()
		if dnrm2(rNew) < 1e-12 {
			break
		}
		betaNum := ddot(len(rNew), rNew, rNew)
		beta := betaNum / rr
		for i := range d {
			d[i] = -rNew[i] + beta*d[i]
		}
		r = rNew
	}
	return false, hitConstraint
}

// trustBoundaryAlpha returns the nonnegative alpha at which
// ‖step + alpha*d‖ = delta, or +Inf if the ray never reaches it (d=0).
func trustBoundaryAlpha(step, d []float64, delta float64) float64 {
	n := len(step)
	dd := ddot(n, d, d)
	if dd == 0 {
		return math.Inf(1)
	}
	sd := ddot(n, step, d)
	ss := ddot(n, step, step)
	disc := sd*sd - dd*(ss-delta*delta)
	if disc < 0 {
		disc = 0
	}
	return (-sd + math.Sqrt(disc)) / dd
}

// constraintAlpha returns the smallest nonnegative alpha at which some
// inactive constraint's residual reaches zero along the ray step+alpha*d,
// and which constraint it is (ties broken by smallest index).
func constraintAlpha(m *Model, a [][]float64, b []float64, step, d []float64, active []int) (alpha float64, k int) {
	alpha, k = math.Inf(1), -1
	isActive := func(j int) bool {
		for _, i := range active {
			if i == j {
				return true
			}
		}
		return false
	}
	x := make([]float64, m.n)
	copy(x, m.xopt)
	daxpy(m.n, 1, step, x)
	for j := range a {
		if isActive(j) {
			continue
		}
		slope := ddot(m.n, a[j], d)
		if slope <= 1e-14 {
			continue
		}
		resid := b[j] - ddot(m.n, a[j], x)
		if resid < 0 {
			continue
		}
		cand := resid / slope
		if cand < alpha-1e-14 {
			alpha, k = cand, j
		}
	}
	return
}

// tryDropConstraint estimates Lagrange multipliers for the active set by the
// least-squares solve of Aᵀλ ≈ -g (a[j] the j-th active row as a column of
// the design matrix) and returns the most-negative multiplier's constraint
// index, or -1 if none is negative (nothing to drop). The solve is delegated
// to HFTI's Householder triangulation rather than forming the Gram matrix
// normal equations, trading a squared condition number for a little more
// bookkeeping.
func tryDropConstraint(m *Model, a [][]float64, as *ActiveSet, g []float64) int {
	nact := len(as.iact)
	if nact == 0 {
		return -1
	}
	n := m.n

	design := make([]float64, n*nact)
	for col, j := range as.iact {
		copy(design[col*n:(col+1)*n], a[j])
	}
	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = -g[i]
	}

	norm := make([]float64, 1)
	h := make([]float64, nact)
	work := make([]float64, nact)
	ip := make([]int, nact)

	krank := slsqp.HFTI(design, n, n, nact, rhs, n, 1, 1e-10, norm, h, work, ip)
	if krank == 0 {
		return -1
	}
	lambda := rhs[:nact]

	worst, worstVal := -1, -1e-10
	for i, v := range lambda {
		if v < worstVal {
			worstVal, worst = v, as.iact[i]
		}
	}
	return worst
}
