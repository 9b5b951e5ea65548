// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trsbox

import "math"

// cholTridiag attempts the Cholesky factorization (T+λI) = L Lᵀ of a
// tridiagonal matrix with diagonal diag and off-diagonal off, where L is
// lower bidiagonal with diagonal ld and sub-diagonal lsub. This is the
// "explicit pivot" Cholesky attempt of TRSubproblemBox step 4, specialized
// to tridiagonal storage (the general dpofa in the lbfgsb package performs
// the equivalent pivot walk for a dense matrix). failAt is -1 on success,
// otherwise the row index of the first nonpositive pivot.
func cholTridiag(n int, diag, off []float64, lambda float64) (ld, lsub []float64, failAt int) {
	ld = make([]float64, n)
	if n > 1 {
		lsub = make([]float64, n-1)
	}
	failAt = -1
	prevM := zero
	for i := 0; i < n; i++ {
		piv := diag[i] + lambda - prevM*prevM
		if piv <= 0 {
			failAt = i
			return ld, lsub, failAt
		}
		ld[i] = math.Sqrt(piv)
		if i < n-1 {
			lsub[i] = off[i] / ld[i]
			prevM = lsub[i]
		}
	}
	return ld, lsub, failAt
}

// solveTridiagSystem solves L Lᵀ d = rhs given a successful cholTridiag
// factorization, by forward substitution L y = rhs followed by backward
// substitution Lᵀ d = y.
func solveTridiagSystem(n int, ld, lsub, rhs []float64) []float64 {
	y := make([]float64, n)
	y[0] = rhs[0] / ld[0]
	for i := 1; i < n; i++ {
		y[i] = (rhs[i] - lsub[i-1]*y[i-1]) / ld[i]
	}
	d := make([]float64, n)
	d[n-1] = y[n-1] / ld[n-1]
	for i := n - 2; i >= 0; i-- {
		d[i] = (y[i] - lsub[i]*d[i+1]) / ld[i]
	}
	return d
}

// forwardSolve solves L q = rhs by forward substitution only; used for the
// Newton slope in the secular-equation iteration (Moré–Sorensen's φ'(λ)).
func forwardSolve(n int, ld, lsub, rhs []float64) []float64 {
	q := make([]float64, n)
	q[0] = rhs[0] / ld[0]
	for i := 1; i < n; i++ {
		q[i] = (rhs[i] - lsub[i-1]*q[i-1]) / ld[i]
	}
	return q
}

// countLess returns the number of eigenvalues of the tridiagonal matrix
// (diag, off) strictly less than x, via the Sturm-sequence pivot count of
// the LDLᵀ factorization of (T - xI).
func countLess(n int, diag, off []float64, x float64) int {
	count := 0
	d := diag[0] - x
	if d < 0 {
		count++
	}
	for i := 1; i < n; i++ {
		if d == 0 {
			d = -1e-300
		}
		e := off[i-1]
		d = diag[i] - x - e*e/d
		if d < 0 {
			count++
		}
	}
	return count
}

// leastEigenvalue bisects for the smallest eigenvalue of a tridiagonal
// matrix using countLess as the Sturm-sequence pivot count.
func leastEigenvalue(n int, diag, off []float64) float64 {
	lo, hi := diag[0], diag[0]
	for _, v := range diag {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, v := range off {
		lo -= math.Abs(v)
		hi += math.Abs(v)
	}
	for i := 0; i < 100 && hi-lo > 1e-14*(1+math.Abs(lo)+math.Abs(hi)); i++ {
		mid := 0.5 * (lo + hi)
		if countLess(n, diag, off, mid) >= 1 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0.5 * (lo + hi)
}
