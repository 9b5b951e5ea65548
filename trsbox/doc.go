// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trsbox solves the unconstrained trust-region subproblem
//
//	minimize gᵀd + ½dᵀHd  subject to  ‖d‖ ≤ Δ
//
// by the Moré–Sorensen method: the symmetric H is reduced to tridiagonal
// form by Householder similarity transforms, and the optimal multiplier λ
// in (H+λI)d = -g is bracketed and refined by safeguarded Newton iteration
// on the secular equation 1/‖d(λ)‖ = 1/Δ, with explicit handling of the
// hard case (H+λI singular at the optimal λ = -λ_min(H)).
//
// This is the trust-region engine described for UOBYQA; it has no
// dependency on the linearly-constrained LINCOA machinery in the sibling
// lincoa package and can be used standalone by any caller that needs an
// unconstrained quadratic trust-region step.
package trsbox
