// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trsbox

import "math"

// Solve solves the unconstrained trust-region subproblem
//
//	minimize gᵀd + ½dᵀHd  subject to  ‖d‖ ≤ delta
//
// for an n-dimensional quadratic with symmetric Hessian h (flat, row-major,
// length n*n). tol∈(0,1) controls how tightly the secular equation is
// solved. crvmin is the least eigenvalue of H when the accepted step is an
// interior Newton point (λ=0); otherwise it is 0.
//
// Solve never panics. Non-finite g or h, or a non-positive delta, yields a
// zero step and crvmin=0; the iteration is capped at min(1000, 100n) Newton
// refinements, after which the last step computed is returned.
func Solve(n int, g, h []float64, delta, tol float64) (d []float64, crvmin float64) {
	d = make([]float64, n)
	if n <= 0 {
		return d, 0
	}
	if delta <= 0 || !isFinite(g[:n]) || !isFinite(h[:n*n]) {
		return d, 0
	}

	allZero := true
	for _, v := range h[:n*n] {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		gn := dnrm2(g[:n])
		if gn > 0 {
			scale := -delta / gn
			for i := 0; i < n; i++ {
				d[i] = scale * g[i]
			}
		}
		return d, 0
	}

	if n == 1 {
		gv, hv := g[0], h[0]
		if hv > 0 && math.Abs(gv/hv) <= delta {
			d[0] = -gv / hv
			return d, hv
		}
		if gv >= 0 {
			d[0] = -delta
		} else {
			d[0] = delta
		}
		return d, 0
	}

	diag, off, refs := tridiagonalize(n, h)
	gt := make([]float64, n)
	copy(gt, g[:n])
	applyForward(refs, gt)

	dt, cr := solveSecular(n, gt, diag, off, delta, tol)
	copy(d, dt)
	applyBackward(refs, d)
	return d, cr
}

// matrixInfNorm returns the infinity norm of the tridiagonal matrix, used to
// seed the initial lower bound on the trust-region multiplier λ.
func matrixInfNorm(n int, diag, off []float64) float64 {
	best := zero
	for i := 0; i < n; i++ {
		row := math.Abs(diag[i])
		if i > 0 {
			row += math.Abs(off[i-1])
		}
		if i < n-1 {
			row += math.Abs(off[i])
		}
		best = math.Max(best, row)
	}
	return best
}

// solveSecular performs the safeguarded Newton / bisection search for the
// multiplier λ≥0 such that (T+λI)d = -g with ‖d‖ = delta (the "parameter
// search" of TRSubproblemBox step 3-6). Cholesky failures (indefinite
// T+λI) raise the lower bracket and bisect λ toward the upper bracket.
// When g is zero, so that d(λ) = 0 for every λ, and λ > 0, the step is taken
// to the boundary along an inverse-iteration estimate of T's least
// eigenvector. For nonzero g no eigenvector component is added, so in the
// hard case the returned step can lie strictly inside the trust region.
func solveSecular(n int, g, diag, off []float64, delta, tol float64) (d []float64, crvmin float64) {
	minDiag := diag[0]
	for _, v := range diag {
		minDiag = math.Min(minDiag, v)
	}
	gnorm := dnrm2(g)
	hinf := matrixInfNorm(n, diag, off)

	parl := math.Max(0, math.Max(-minDiag, gnorm/delta-hinf))
	paru := gnorm/delta + hinf
	if paru <= parl {
		paru = parl + 1
	}
	lambda := parl

	negRhs := make([]float64, n)
	for i, v := range g {
		negRhs[i] = -v
	}

	maxIter := min(1000, 100*n)
	lastD := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		ld, lsub, failAt := cholTridiag(n, diag, off, lambda)
		if failAt < 0 {
			dCur := solveTridiagSystem(n, ld, lsub, negRhs)
			copy(lastD, dCur)
			dnorm := dnrm2(dCur)

			if lambda == 0 && dnorm <= delta {
				return dCur, leastEigenvalue(n, diag, off)
			}
			if dnorm == 0 {
				// g vanishes while λ > 0, so T is not positive definite: step to
				// the boundary along the least eigenvector by inverse iteration.
				z := make([]float64, n)
				for i := range z {
					z[i] = float64(i + 1)
				}
				for it := 0; it < 30; it++ {
					z = solveTridiagSystem(n, ld, lsub, z)
					scale := delta / dnrm2(z)
					for i := range z {
						z[i] *= scale
					}
				}
				return z, 0
			}

			wsq := dnorm * dnorm
			phi := one/dnorm - one/delta
			if tol*(1+lambda*delta*delta/wsq)-wsq*phi*phi >= 0 {
				return dCur, 0
			}

			if dnorm > delta {
				parl = math.Max(parl, lambda)
			} else {
				paru = math.Min(paru, lambda)
			}

			q := forwardSolve(n, ld, lsub, dCur)
			qnorm := dnrm2(q)
			if qnorm <= 0 {
				lambda = 0.5 * (parl + paru)
				continue
			}
			step := (dnorm/qnorm) * (dnorm/qnorm) * (dnorm - delta) / delta
			next := lambda + step
			if next <= parl || next >= paru {
				next = 0.5 * (parl + paru)
			}
			lambda = next
		} else {
			parl = math.Max(parl, lambda)
			lambda = 0.5 * (parl + paru)
		}

		if paru-parl < tol*paru {
			break
		}
	}

	return lastD, 0
}
