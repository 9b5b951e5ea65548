// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import "math"

// denomTiny is the threshold below which a candidate knew is judged to make
// the interpolation set numerically unisolvent (ModelUpdate's
// DegenerateDenominator failure).
const denomTiny = 1e-8

// chooseKnew selects the sample index to replace after a trust-region step,
// maximizing |sigma_k * tau_k| where tau_k = L_k(xopt+step) and sigma_k is the
// rank-one update denominator for the augmented system at the trial point:
//
//	sigma_k = alpha_k * beta + tau_k^2
//
// alpha_k = omega[k,k] and beta is the Schur-complement scalar the bordered
// system would pick up by admitting xopt+step as a new row/column; both come
// straight out of the dense inverse via Model.augmentedBeta, so sigma_k here
// is the actual NEWUOA-family denominator rather than a self-weight stand-in.
// Ties are broken by the larger distance ‖xpt[k]-xopt‖, as spec.md requires.
func chooseKnew(m *Model, step []float64) (knew int, score float64) {
	d := make([]float64, m.n)
	copy(d, m.xopt)
	daxpy(m.n, 1, step, d)

	beta, tau := m.augmentedBeta(d)

	knew = -1
	bestDist := -1.0
	for k := 0; k < m.npt; k++ {
		tk := tau[k]
		if math.IsNaN(tk) {
			continue
		}
		alpha := m.omega[k*m.npt+k]
		sigma := alpha*beta + tk*tk
		s := math.Abs(sigma * tk)
		dist := distSq(m.xpt[k], m.xopt)
		if s > score || (s == score && dist > bestDist) {
			score, knew, bestDist = s, k, dist
		}
	}
	return
}

// updateModel implements ModelUpdate.update (§4.3). knewHint is -1 to
// request automatic selection (after a trust-region step) or the geometry
// step's chosen 0-based replacement index (see outerloop.go). step is relative to
// xopt; fNew is f(xbase+xopt+step). xptOld is the pre-replacement copy of
// the point being evicted, used for the Broyden Hessian absorption.
//
// Returns the chosen knew and false if the denominator was judged too small
// (DegenerateDenominator) or the rebuilt factorization was singular.
func updateModel(m *Model, knewHint int, step []float64, fNew float64) (knew int, ok bool) {
	if knewHint >= 0 {
		knew = knewHint
	} else {
		var score float64
		knew, score = chooseKnew(m, step)
		if knew < 0 || score < denomTiny {
			return knew, false
		}
	}

	xptOld := make([]float64, m.n)
	copy(xptOld, m.xpt[knew])

	lambda, gLin, lok := m.lagrangeCoeff(knew)
	if !lok {
		return knew, false
	}

	diff := fNew - m.evalQuad(step) - m.fval[m.kopt]

	newPoint := make([]float64, m.n)
	copy(newPoint, m.xopt)
	daxpy(m.n, 1, step, newPoint)
	m.xpt[knew] = newPoint
	m.fval[knew] = fNew

	if !m.rebuildFactorization() {
		m.xpt[knew] = xptOld
		return knew, false
	}

	oldPQ := m.pq[knew]
	m.pq[knew] = 0
	for i := 0; i < m.npt; i++ {
		m.pq[i] += diff * lambda[i]
	}
	symRankOne(m.n, m.hq, oldPQ, xptOld)

	daxpy(m.n, diff, gLin, m.g0)

	m.refreshOpt()
	return knew, true
}
