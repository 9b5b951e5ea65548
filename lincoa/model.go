// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import "math"

// Model is the interpolation data store: the moving sample set, function
// values, and the quadratic model coefficients built from them. All
// coordinates stored here are relative to xbase; xopt/gopt are kept as the
// model-relative position and gradient of the current best sample.
//
// The reference factorization {BMAT, ZMAT, IDZ} stores the inverse of the
// augmented interpolation matrix as a signed product ZMAT·D·ZMATᵀ so that
// incremental rank-two updates (ModelUpdate) stay O(npt²) per step. This
// port instead keeps the dense KKT inverse (kkt, size (npt+n)²) and rebuilds
// it from scratch with Gaussian elimination whenever the sample set changes.
// That trades Powell's cheap incremental update for an O((npt+n)³) rebuild;
// it is deliberate here because there is no way to cross-check an
// incremental update's numerical parity against the reference without
// compiling and running both - see DESIGN.md. bmat and omega are exposed as
// named views into kkt for fidelity with the data model in spec.md.
type Model struct {
	n, npt int

	xbase []float64   // origin, length n
	xpt   [][]float64 // npt points, each length n, relative to xbase
	fval  []float64   // npt function values
	kopt  int

	xopt []float64 // xpt[kopt], kept denormalized for convenience
	g0   []float64 // gradient of Q at xbase (the model's linear coefficient)
	gopt []float64 // gradient of Q at xopt, length n; gopt = g0 + H*xopt
	hq   []float64 // explicit Hessian, n*n row-major
	pq   []float64 // implicit Hessian weights, length npt

	kkt   []float64 // dense inverse of the augmented system, (npt+n)^2
	omega []float64 // npt x npt view: omega[k*npt+i] = kkt[k*(npt+n)+i]
	bmat  []float64 // n x (npt+n) view: bmat[c*(npt+n)+k] = kkt[(npt+c)*(npt+n)+k]
}

func newModel(n, npt int) *Model {
	m := &Model{n: n, npt: npt}
	m.xbase = make([]float64, n)
	m.xpt = make([][]float64, npt)
	for k := range m.xpt {
		m.xpt[k] = make([]float64, n)
	}
	m.fval = make([]float64, npt)
	m.xopt = make([]float64, n)
	m.g0 = make([]float64, n)
	m.gopt = make([]float64, n)
	m.hq = make([]float64, n*n)
	m.pq = make([]float64, npt)
	dim := npt + n
	m.kkt = make([]float64, dim*dim)
	m.omega = make([]float64, npt*npt)
	m.bmat = make([]float64, n*dim)
	return m
}

// hessVec returns y ← H*d for the current model Hessian H = hq + implicit.
func (m *Model) hessVec(d, y []float64) {
	matVecSym(m.n, m.hq, d, y)
	for k := 0; k < m.npt; k++ {
		pk := m.pq[k]
		if pk == 0 {
			continue
		}
		dp := ddot(m.n, m.xpt[k], d)
		daxpy(m.n, pk*dp, m.xpt[k], y)
	}
}

// evalQuad computes Q(d) = gopt·d + 1/2 d^T H d, the predicted change in the
// objective for a step d away from xopt (ModelStore.eval_quad).
func (m *Model) evalQuad(d []float64) float64 {
	hv := make([]float64, m.n)
	m.hessVec(d, hv)
	return ddot(m.n, m.gopt, d) + 0.5*ddot(m.n, d, hv)
}

// rebuildFactorization solves the augmented KKT system for the full dense
// inverse from scratch. The system, in xbase-relative coordinates y_k =
// xpt[k]:
//
//	for i,j in [0,npt):  A[i,j] = 1/2 (y_i . y_j)^2
//	for i in [0,npt), c in [0,n): A[i, npt+c] = A[npt+c, i] = y_i[c]
//	bottom-right n x n block is zero
//
// Column k of the inverse gives the implicit coefficients (omega row k) and
// linear coefficients (bmat column k) of the k-th Lagrange function L_k,
// which by construction satisfies L_k(y_j) = δ_kj for every sample j -
// including k itself, since y_k is in general nonzero relative to xbase
// (xbase only moves on an explicit OriginShift, not every update, so no row
// collapses to zero the way it would if coordinates were xopt-relative).
// Returns false if the augmented matrix is singular (degenerate sample set).
func (m *Model) rebuildFactorization() bool {
	n, npt := m.n, m.npt
	dim := npt + n
	a := make([]float64, dim*dim)
	for i := 0; i < npt; i++ {
		for j := i; j < npt; j++ {
			v := 0.5 * sq(ddot(n, m.xpt[i], m.xpt[j]))
			a[i*dim+j] = v
			a[j*dim+i] = v
		}
		for c := 0; c < n; c++ {
			v := m.xpt[i][c]
			a[i*dim+npt+c] = v
			a[(npt+c)*dim+i] = v
		}
	}
	inv, ok := invertMatrix(dim, a)
	if !ok {
		return false
	}
	copy(m.kkt, inv)
	for k := 0; k < npt; k++ {
		for i := 0; i < npt; i++ {
			m.omega[k*npt+i] = m.kkt[k*dim+i]
		}
		for c := 0; c < n; c++ {
			m.bmat[c*dim+k] = m.kkt[(npt+c)*dim+k]
		}
	}
	for c := 0; c < n; c++ {
		for k := npt; k < dim; k++ {
			m.bmat[c*dim+k] = m.kkt[(npt+c)*dim+k]
		}
	}
	return true
}

func sq(x float64) float64 { return x * x }

// lagrangeCoeff returns the implicit coefficient row (length npt) and the
// linear coefficient vector (length n) of the k-th Lagrange function, read
// out of the dense factorization (ModelStore.lagrange_coeff). Returns
// ok=false if any entry is not finite, signalling a corrupted model.
func (m *Model) lagrangeCoeff(k int) (lambda, g []float64, ok bool) {
	dim := m.npt + m.n
	lambda = make([]float64, m.npt)
	copy(lambda, m.omega[k*m.npt:(k+1)*m.npt])
	g = make([]float64, m.n)
	for c := 0; c < m.n; c++ {
		g[c] = m.bmat[c*dim+k]
	}
	ok = isFinite(lambda) && isFinite(g)
	return
}

// evalLagrange evaluates L_k(d) for d expressed relative to xbase, using
// the quadratic-in-projections representation
//
//	L_k(d) = g_k · d + 1/2 Σ_i λ_i^k (y_i · d)^2.
func (m *Model) evalLagrange(k int, d []float64) float64 {
	lambda, g, ok := m.lagrangeCoeff(k)
	if !ok {
		return math.NaN()
	}
	val := ddot(m.n, g, d)
	for i := 0; i < m.npt; i++ {
		if lambda[i] == 0 {
			continue
		}
		proj := ddot(m.n, m.xpt[i], d)
		val += 0.5 * lambda[i] * proj * proj
	}
	return val
}

// gradLagrange returns the gradient of L_k at the point d (relative to
// xbase): ∇L_k(d) = g_k + Σ_i λ_i^k (y_i · d) y_i.
func (m *Model) gradLagrange(k int, d []float64) []float64 {
	lambda, g, _ := m.lagrangeCoeff(k)
	grad := make([]float64, m.n)
	copy(grad, g)
	for i := 0; i < m.npt; i++ {
		if lambda[i] == 0 {
			continue
		}
		proj := ddot(m.n, m.xpt[i], d)
		daxpy(m.n, lambda[i]*proj, m.xpt[i], grad)
	}
	return grad
}

// augmentedBeta computes the two ingredients ModelUpdate needs to pick knew
// exactly (§4.3's "σ_k · τ_k" denominator): τ (length npt), the k-th Lagrange
// function evaluated at xbase+d for every sample k, and β, the scalar
// Schur-complement term that the bordered augmented system would pick up if
// a new row/column for the trial point were appended to it.
//
// d is treated as the column the trial point would contribute to the
// augmented matrix built by rebuildFactorization: w[i] = 1/2(y_i·d)^2 for
// i<npt, w[npt+c] = d[c]. Applying the already-computed dense inverse to w
// gives both ingredients directly:
//
//	τ   = (kkt·w)[:npt]
//	β   = 1/2‖d‖⁴ - wᵀ(kkt·w)
//
// This is the same β/τ pair the reference algorithm derives from BMAT/ZMAT;
// computing it from the dense inverse this port maintains instead avoids
// reintroducing the incremental ZMAT/IDZ bookkeeping (see DESIGN.md).
func (m *Model) augmentedBeta(d []float64) (beta float64, tau []float64) {
	n, npt := m.n, m.npt
	dim := npt + n

	w := make([]float64, dim)
	for i := 0; i < npt; i++ {
		w[i] = 0.5 * sq(ddot(n, m.xpt[i], d))
	}
	copy(w[npt:], d)

	hw := make([]float64, dim)
	for r := 0; r < dim; r++ {
		hw[r] = ddot(dim, m.kkt[r*dim:(r+1)*dim], w)
	}

	tau = make([]float64, npt)
	copy(tau, hw[:npt])

	dNormSq := ddot(n, d, d)
	beta = 0.5*dNormSq*dNormSq - ddot(dim, w, hw)
	return
}

// refreshOpt recomputes xopt and gopt = g0 + H*xopt after kopt, the sample
// set, or the Hessian/linear coefficients change. Called after every
// ModelUpdate (which only maintains g0, hq, pq) and after OriginShift.
func (m *Model) refreshOpt() {
	copy(m.xopt, m.xpt[m.kopt])
	hv := make([]float64, m.n)
	m.hessVec(m.xopt, hv)
	for i := 0; i < m.n; i++ {
		m.gopt[i] = m.g0[i] + hv[i]
	}
}

// isFinite reports whether the model's persistent state is still sane
// (OuterLoop step 2's "validate models for non-finiteness").
func (m *Model) isFinite() bool {
	if !isFinite(m.gopt) || !isFinite(m.g0) || !isFinite(m.hq) || !isFinite(m.pq) || !isFinite(m.xopt) {
		return false
	}
	for _, v := range m.xpt {
		if !isFinite(v) {
			return false
		}
	}
	return isFinite(m.fval) && isFinite(m.kkt)
}
