// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lincoa implements LINCOA (linearly constrained optimization by
// approximation): a derivative-free trust-region method for
//
//	minimize f(x)  subject to  Aᵀx ≤ b
//
// where f is a scalar objective whose derivatives are unavailable and whose
// evaluations are assumed expensive. The solver maintains a quadratic
// interpolation model of f over a moving set of npt sample points and, each
// iteration, either takes a trust-region step (reducing the model inside
// the feasible polyhedron intersected with a ball of radius Δ) or a
// geometry step (replacing a poorly-placed sample to keep the interpolation
// set well conditioned).
//
// The unconstrained trust-region subproblem this method's sibling UOBYQA
// needs is implemented separately in the trsbox package; this package uses
// its own projected conjugate-gradient solver (TRSubproblemLin) for the
// linearly constrained case instead.
//
// See DESIGN.md in the module root for the grounding of each component and
// the handful of deliberate simplifications made where the reference
// Fortran's numerical bookkeeping could not be reproduced without a
// toolchain to verify it against.
package lincoa
