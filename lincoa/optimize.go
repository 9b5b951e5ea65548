// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"errors"
	"fmt"
	"math"
)

// Objective is the callback the solver queries; it must not mutate the
// solver's state and is invoked synchronously at exactly one point per
// iteration (§5).
type Objective func(x []float64) (f float64)

// Termination carries the numeric knobs that bound a solve.
type Termination struct {
	RhoBeg, RhoEnd     float64
	MaxFun             int
	FTarget            float64
	Eta1, Eta2         float64 // ratio thresholds, defaults 0.1 / 0.7
	Gamma1, Gamma2     float64 // shrink/grow factors, defaults 0.5 / 2
	CTol               float64 // feasibility tolerance for isBetterPoint
}

// Problem specifies a LINCOA problem: dimension, objective, and the linear
// constraints Aᵀx ≤ B in the caller's original units.
type Problem struct {
	N, NPT int
	Eval   Objective
	A      [][]float64 // m rows, each length N
	B      []float64   // length m
	Stop   Termination
}

// New validates the problem and returns an immutable *Optimizer. Errors are
// returned only here; the solve loop itself never returns a Go error,
// reporting failure through Result.Status instead (mirrors
// slsqp.Problem.New / lbfgsb.Problem.New).
func (p *Problem) New(logger *Logger) (*Optimizer, error) {
	n := p.N
	npt := p.NPT
	if npt == 0 {
		npt = 2*n + 1
	}

	switch {
	case n <= 0:
		return nil, errors.New("problem dimension must be greater than 0")
	case p.Eval == nil:
		return nil, errors.New("objective is required")
	case npt < n+2 || npt > (n+1)*(n+2)/2:
		return nil, fmt.Errorf("npt=%d out of range [%d, %d]", npt, n+2, (n+1)*(n+2)/2)
	case len(p.A) != len(p.B):
		return nil, errors.New("A and B must have the same number of rows")
	case p.Stop.RhoBeg <= p.Stop.RhoEnd || p.Stop.RhoEnd <= 0:
		return nil, errors.New("require RhoBeg > RhoEnd > 0")
	case p.Stop.MaxFun < npt+1:
		return nil, fmt.Errorf("MaxFun must be at least npt+1=%d", npt+1)
	}
	for _, row := range p.A {
		if len(row) != n {
			return nil, errors.New("every constraint row must have length N")
		}
	}

	stop := p.Stop
	if stop.Eta1 == 0 && stop.Eta2 == 0 {
		stop.Eta1, stop.Eta2 = 0.1, 0.7
	}
	if stop.Gamma1 == 0 && stop.Gamma2 == 0 {
		stop.Gamma1, stop.Gamma2 = 0.5, 2
	}
	if stop.FTarget == 0 {
		stop.FTarget = math.Inf(-1)
	}
	if stop.CTol == 0 {
		stop.CTol = 1e-8
	}

	aOrig := make([][]float64, len(p.A))
	bOrig := make([]float64, len(p.B))
	aUnit := make([][]float64, len(p.A))
	for j, row := range p.A {
		r := make([]float64, n)
		copy(r, row)
		aOrig[j] = r
		bOrig[j] = p.B[j]
		nrm := dnrm2(row)
		u := make([]float64, n)
		if nrm > 0 {
			for i, v := range row {
				u[i] = v / nrm
			}
		}
		aUnit[j] = u
	}

	if logger == nil {
		logger = &Logger{Level: LogNoop}
	}

	return &Optimizer{iterSpec{
		n: n, npt: npt,
		eval:  p.Eval,
		stop:  stop,
		a:     aUnit,
		aOrig: aOrig,
		bOrig: bOrig,
		log:   logger,
	}}, nil
}

// iterSpec is the immutable, shared-across-workspaces problem description.
type iterSpec struct {
	n, npt int
	eval   Objective
	stop   Termination
	a      [][]float64
	aOrig  [][]float64
	bOrig  []float64
	log    *Logger
}

// Optimizer is a validated, immutable LINCOA problem.
type Optimizer struct {
	iterSpec
}

// Workspace holds the per-solve mutable state. Separate workspaces must be
// created for each goroutine sharing an Optimizer (mirrors lbfgsb.Workspace).
type Workspace struct {
	model *Model
	as    *ActiveSet
}

// Init allocates a fresh Workspace sized from the Optimizer's n/npt.
func (o *Optimizer) Init() *Workspace {
	return &Workspace{
		model: newModel(o.n, o.npt),
		as:    newActiveSet(o.n),
	}
}

// Result is the outcome of a Solve call.
type Result struct {
	X       []float64
	F       float64
	Cstrv   float64
	NumEval int
	Status  Code
}

// Solve runs LINCOA to termination from x0, using w as scratch. x0 need not
// be feasible.
func (o *Optimizer) Solve(x0 []float64, w *Workspace) *Result {
	if len(x0) != o.n {
		panic("initial x dimension not match spec")
	}

	b := make([]float64, len(o.bOrig))
	for j := range b {
		nrm := dnrm2(o.aOrig[j])
		if nrm > 0 {
			b[j] = o.bOrig[j] / nrm
		}
	}

	m := w.model
	initModel(m, o, x0, b)

	ol := &outerLoop{
		spec:     &o.iterSpec,
		m:        m,
		as:       w.as,
		a:        o.a,
		bVec:     initBVec(o, m),
		aOrig:    o.aOrig,
		bOrigVec: o.bOrig,
		rescon:   make([]float64, len(o.a)),
		delta:    o.stop.RhoBeg,
		rho:      o.stop.RhoBeg,
		knew:     -1,
		xsav:     make([]float64, o.n),
		fopt:     math.Inf(1),
		cstrvOpt: math.Inf(1),
		log:      o.log,
	}
	copy(ol.xsav, x0)
	ol.fopt = m.fval[m.kopt]
	ol.cstrvOpt = worstViolation(o.aOrig, o.bOrig, x0)
	ol.refreshRescon()

	res := ol.run()
	if o.log.enable(LogLast) {
		o.log.log("LINCOA terminated: %v (nf=%d f=%.6e cstrv=%.3e)\n", res.Status, res.NumEval, res.F, res.Cstrv)
	}
	return res
}

// initBVec expresses B in model-relative coordinates (d = x - xbase, with
// xbase = x0 at the start of a solve): b[j] - a[j]·xbase.
func initBVec(o *Optimizer, m *Model) []float64 {
	out := make([]float64, len(o.a))
	for j := range o.a {
		nrm := dnrm2(o.aOrig[j])
		bj := zero
		if nrm > 0 {
			bj = o.bOrig[j] / nrm
		}
		out[j] = bj - ddot(o.n, o.a[j], m.xbase)
	}
	return out
}

// initModel builds the initial interpolation set (§4.8 Initialization): a
// coordinate simplex-style set of npt points around x0, each offset by
// rhoBeg along a coordinate direction (or a coordinate pair, for the
// npt > 2n+1 case), nudged away from any constraint it would violate by
// more than 0.2·rhoBeg.
func initModel(m *Model, o *Optimizer, x0 []float64, b []float64) {
	n, npt := o.n, o.npt
	copy(m.xbase, x0)
	for k := range m.xpt {
		dzero(m.xpt[k])
	}
	dzero(m.g0)
	dzero(m.gopt)
	dzero(m.hq)
	dzero(m.pq)

	rhoBeg := o.stop.RhoBeg
	for k := 1; k <= n && k < npt; k++ {
		m.xpt[k][k-1] = rhoBeg
	}
	for k := n + 1; k < npt && k <= 2*n; k++ {
		m.xpt[k][k-n-1] = -rhoBeg
	}
	for k := 2*n + 1; k < npt; k++ {
		i := (k - 2*n - 1) % n
		j := (i + 1 + (k-2*n-1)/n) % n
		m.xpt[k][i] = rhoBeg
		m.xpt[k][j] = rhoBeg
	}

	for k := 0; k < npt; k++ {
		for j := range o.a {
			nrm := dnrm2(o.aOrig[j])
			if nrm == 0 {
				continue
			}
			resid := b[j] - ddot(n, o.a[j], m.xpt[k])
			if resid < -0.2*rhoBeg {
				scale := (b[j] + 0.2*rhoBeg) / ddot(n, o.a[j], o.a[j])
				daxpy(n, scale, o.a[j], m.xpt[k])
			}
		}
	}

	for k := 0; k < npt; k++ {
		xk := make([]float64, n)
		copy(xk, x0)
		daxpy(n, 1, m.xpt[k], xk)
		m.fval[k] = o.eval(xk)
	}

	best := 0
	bestC := worstViolation(o.aOrig, o.bOrig, x0)
	for k := 1; k < npt; k++ {
		xk := make([]float64, n)
		copy(xk, x0)
		daxpy(n, 1, m.xpt[k], xk)
		ck := worstViolation(o.aOrig, o.bOrig, xk)
		if isBetterPoint(m.fval[k], ck, m.fval[best], bestC, o.stop.CTol) {
			best, bestC = k, ck
		}
	}
	m.kopt = best

	m.rebuildFactorization()
	m.refreshOpt()
}
