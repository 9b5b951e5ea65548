// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

// needsOriginShift reports ‖xopt‖² ≥ 1e4·Δ², the condition OuterLoop checks
// at the top of every iteration (§4.8 step 1).
func needsOriginShift(m *Model, delta float64) bool {
	return ddot(m.n, m.xopt, m.xopt) >= 1e4*delta*delta
}

// originShift re-expresses the model relative to a new base point xbase+s
// (s = the current xopt) without changing the interpolant (§4.4). b holds
// the model-relative constraint bounds (A[j]·d ≤ b[j] for d relative to
// xbase) and is updated in place; rows of A are unaffected by a translation.
//
// Derivation of the Hessian/linear-coefficient update: writing H for the
// (coordinate-independent) model Hessian hq + Σ pq_k y_k y_k^T, shifting
// every sample y_k ← y_k - s must leave H unchanged, which forces
//
//	hq ← hq + v·sᵀ + s·vᵀ - P·s·sᵀ,   v = Σ_k pq_k y_k,   P = Σ_k pq_k
//
// and the gradient-at-xbase coefficient transforms as g0 ← g0 + H·s (the
// standard first-order Taylor shift). This is derived from the definition
// of H rather than transcribed from Powell's SHIFTBASE, since this port's
// dense, from-scratch factorization makes the equivalent ZMAT/BMAT
// re-expression unnecessary: rebuildFactorization() regenerates omega/bmat
// directly from the shifted xpt.
func originShift(m *Model, a [][]float64, b []float64) {
	n, npt := m.n, m.npt
	s := make([]float64, n)
	copy(s, m.xopt)

	v := make([]float64, n)
	p := zero
	for k := 0; k < npt; k++ {
		if m.pq[k] == 0 {
			continue
		}
		daxpy(n, m.pq[k], m.xpt[k], v)
		p += m.pq[k]
	}

	// H·s under the pre-shift Hessian, needed for the g0 shift; computed
	// before hq is touched.
	hv := make([]float64, n)
	m.hessVec(s, hv)
	daxpy(n, 1, hv, m.g0)

	// hq ← hq + v·sᵀ + s·vᵀ - P·s·sᵀ, via v·sᵀ+s·vᵀ = ½(v+s)(v+s)ᵀ - ½(v-s)(v-s)ᵀ.
	sum := make([]float64, n)
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		sum[i] = v[i] + s[i]
		diff[i] = v[i] - s[i]
	}
	symRankOne(n, m.hq, 0.5, sum)
	symRankOne(n, m.hq, -0.5, diff)
	symRankOne(n, m.hq, -p, s)

	for k := 0; k < npt; k++ {
		daxpy(n, -1, s, m.xpt[k])
	}
	daxpy(n, 1, s, m.xbase)

	for j := range b {
		b[j] -= ddot(n, a[j], s)
	}

	m.rebuildFactorization()
	m.refreshOpt()
}
