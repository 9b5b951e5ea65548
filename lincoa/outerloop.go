// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import "math"

// iterState is the explicit state enum for the LINCOA main cycle (§4.8,
// §9 "State machine expressed without jumps"): {ChooseStep, TrustStep,
// GeomStep, Evaluate, Update, MaybeShrinkDelta, MaybeReduceRho, Terminate}.
type iterState int

const (
	stateChooseStep iterState = iota
	stateTrustStep
	stateGeomStepKind
	stateEvaluate
	stateUpdate
	stateMaybeShrinkDelta
	stateMaybeReduceRho
	stateTerminate
)

// outerLoop drives the LINCOA state machine. The imprv flag and the
// nvala/nvalb/ksave triplet are carried as fields so they survive across
// full iterations, exactly as the design notes require.
type outerLoop struct {
	spec *iterSpec
	m    *Model
	as   *ActiveSet

	a    [][]float64 // m rows, unit-norm, model-relative (a[j]·d ≤ bVec[j] for d relative to xbase)
	bVec []float64

	aOrig    [][]float64 // original-units constraint rows, for cstrv reporting
	bOrigVec []float64

	rescon []float64
	delta  float64
	rho    float64

	knew    int // -1 means "trust-region step"; >=0 is the pending geometry target
	imprv   int
	itest   int
	ksave   int
	nvala   int
	nvalb   int
	ngetact int

	nf       int
	fopt     float64
	cstrvOpt float64
	xsav     []float64

	// scratch carried from Evaluate into Update within one iteration.
	pendStep  []float64
	pendF     float64
	pendCstrv float64
	pendIfeas int
	pendQred  float64
	pendSnorm float64

	log *Logger
}

func (o *outerLoop) run() *Result {
	state := stateChooseStep
	var code Code
	var step []float64
	var snorm float64
	var ifeas int

	for {
		switch state {

		case stateChooseStep:
			if needsOriginShift(o.m, o.delta) {
				originShift(o.m, o.a, o.bVec)
			}
			if !o.m.isFinite() {
				code, state = NaNModel, stateTerminate
				continue
			}
			if o.knew < 0 {
				state = stateTrustStep
			} else {
				state = stateGeomStepKind
			}

		case stateTrustStep:
			res := trSubproblemLin(o.m, o.a, o.bVec, o.rescon, o.delta, o.as)
			step, snorm = res.Step, res.Snorm
			o.ngetact = res.Ngetact
			ifeas = 1

			thresh := 0.5 * o.delta
			if o.ngetact > 1 {
				thresh = 0.1999 * o.delta
			}
			o.ksave = 0
			if snorm <= thresh {
				o.delta *= 0.5
				if o.delta <= 1.4*o.rho {
					o.delta = o.rho
				}
				ratio := snorm / o.rho
				if ratio <= 2 {
					o.nvala++
				} else {
					o.nvala = 0
				}
				if ratio <= 6 {
					o.nvalb++
				} else {
					o.nvalb = 0
				}
				if o.nvala < 5 && o.nvalb < 3 {
					if next := farthestSample(o.m, o.delta, o.rho); next >= 0 {
						o.knew = next
						state = stateGeomStepKind
						continue
					}
				}
				o.ksave = -1
			}
			state = stateEvaluate

		case stateGeomStepKind:
			radius := math.Max(0.1*o.delta, o.rho)
			gr := geomStep(o.m, o.a, o.rescon, o.knew, radius)
			step, snorm, ifeas = gr.Step, dnrm2(gr.Step), gr.Ifeas
			state = stateEvaluate

		case stateEvaluate:
			qred := -o.m.evalQuad(step)
			if o.knew < 0 && qred <= 0 {
				if o.imprv == 0 {
					o.imprv = 1
					if next := farthestSample(o.m, o.delta, o.rho); next >= 0 {
						o.knew = next
						state = stateGeomStepKind
						continue
					}
				} else {
					o.imprv = 0
					state = stateMaybeReduceRho
					continue
				}
			} else {
				o.imprv = 0
			}

			if o.nf >= o.spec.stop.MaxFun {
				code, state = MaxFunReached, stateTerminate
				continue
			}

			x := make([]float64, o.spec.n)
			copy(x, o.m.xbase)
			daxpy(o.spec.n, 1, o.m.xopt, x)
			daxpy(o.spec.n, 1, step, x)

			dist := math.Sqrt(distSq(x, o.xsav))
			if o.nf > 0 && !(0.1*o.rho < dist && dist < 2*o.delta) {
				code, state = DamagingRounding, stateTerminate
				continue
			}
			if !isFinite(x) {
				code, state = NaNInputX, stateTerminate
				continue
			}

			f := o.spec.eval(x)
			o.nf++

			cstrv := worstViolation(o.aOrig, o.bOrigVec, x)
			if cb, stop := checkBreak(o.spec.stop.MaxFun, o.nf, x, f, cstrv, o.spec.stop.FTarget, o.spec.stop.CTol); stop {
				o.maybePromote(f, cstrv, x, ifeas, -1)
				code, state = cb, stateTerminate
				continue
			}

			o.pendStep, o.pendF, o.pendCstrv, o.pendIfeas, o.pendQred, o.pendSnorm = step, f, cstrv, ifeas, qred, snorm
			state = stateUpdate

		case stateUpdate:
			step, f, cstrv, ifeas, qred, snorm := o.pendStep, o.pendF, o.pendCstrv, o.pendIfeas, o.pendQred, o.pendSnorm

			x := make([]float64, o.spec.n)
			copy(x, o.m.xbase)
			daxpy(o.spec.n, 1, o.m.xopt, x)
			daxpy(o.spec.n, 1, step, x)

			knewHint := -1
			if o.knew >= 0 {
				knewHint = o.knew
			}
			replaced, ok := updateModel(o.m, knewHint, step, f)
			if !ok {
				code, state = DamagingRounding, stateTerminate
				continue
			}

			diff := f - o.fopt + qred
			o.trackItest(diff, qred)

			wasTrustStep := o.knew < 0
			stop := o.spec.stop
			var ratio float64
			if wasTrustStep {
				if qred > 0 {
					ratio = (o.fopt - f) / qred
				}
				switch {
				case ratio <= stop.Eta1:
					o.delta *= stop.Gamma1
				case ratio <= stop.Eta2:
					o.delta = math.Max(stop.Gamma1*o.delta, snorm)
				default:
					o.delta = math.Min(math.Max(stop.Gamma1*o.delta, stop.Gamma2*snorm), math.Sqrt2*o.delta)
				}
				if o.delta <= 1.4*o.rho {
					o.delta = o.rho
				}
			}

			o.maybePromote(f, cstrv, x, ifeas, replaced)
			o.knew = -1

			if wasTrustStep && (o.ksave > 0 || ratio >= stop.Eta1) {
				state = stateChooseStep
				continue
			}
			state = stateMaybeShrinkDelta

		case stateMaybeShrinkDelta:
			distsq := math.Max(o.delta*o.delta, 4*o.rho*o.rho)
			worst, worstDist := farthestIndex(o.m)
			if worst >= 0 && worstDist > distsq {
				o.knew = worst
				state = stateChooseStep
				continue
			}
			state = stateMaybeReduceRho

		case stateMaybeReduceRho:
			if o.rho > o.spec.stop.RhoEnd {
				o.delta = 0.5 * o.rho
				switch {
				case o.rho > 250*o.spec.stop.RhoEnd:
					o.rho *= 0.1
				case o.rho <= 16*o.spec.stop.RhoEnd:
					o.rho = o.spec.stop.RhoEnd
				default:
					o.rho = math.Sqrt(o.rho * o.spec.stop.RhoEnd)
				}
				o.delta = math.Max(o.delta, o.rho)
				o.knew, o.nvala, o.nvalb = -1, 0, 0
				state = stateChooseStep
				continue
			}
			code, state = Normal, stateTerminate

		case stateTerminate:
			return o.finish(code)
		}
	}
}

func worstViolation(a [][]float64, b []float64, x []float64) float64 {
	worst := zero
	for j := range a {
		v := ddot(len(x), a[j], x) - b[j]
		worst = math.Max(worst, v)
	}
	return worst
}

func farthestIndex(m *Model) (idx int, distSquared float64) {
	idx, distSquared = -1, -1
	for k := 0; k < m.npt; k++ {
		if k == m.kopt {
			continue
		}
		d := distSq(m.xpt[k], m.xopt)
		if d > distSquared {
			distSquared, idx = d, k
		}
	}
	return
}

func farthestSample(m *Model, delta, rho float64) int {
	idx, d := farthestIndex(m)
	thresh := math.Max(delta*delta, 4*rho*rho)
	if idx >= 0 && d > thresh {
		return idx
	}
	return -1
}

// trackItest implements the simplified minimum-Frobenius-norm rebuild
// trigger (§4.8 step 7, §9 Open Questions): the original toggles itest via
// a counter involving |dffalt| ≥ 0.1|diff|; this port counts consecutive
// iterations where the actual reduction differs from qred by at least
// 0.1·qred (|diff| ≥ 0.1·qred), capturing the same "the Broyden model keeps
// mispredicting" signal without reproducing PRIMA's separate alternative-
// model coefficient bookkeeping.
func (o *outerLoop) trackItest(diff, qred float64) {
	if qred > 0 && math.Abs(diff) >= 0.1*qred {
		o.itest++
	} else {
		o.itest = 0
	}
	if o.itest >= 3 {
		o.rebuildMinNorm()
		o.itest = 0
	}
}

// rebuildMinNorm rebuilds the model as the minimum-Frobenius-norm
// interpolant: HQ is discarded (set to zero) and PQ, g0 are recomputed
// purely from FVAL via the dense factorization.
func (o *outerLoop) rebuildMinNorm() {
	m := o.m
	dzero(m.hq)
	if !m.rebuildFactorization() {
		return
	}
	dzero(m.g0)
	dzero(m.pq)
	base := m.fval[m.kopt]
	for k := 0; k < m.npt; k++ {
		diff := m.fval[k] - base
		if diff == 0 {
			continue
		}
		lambda, g, ok := m.lagrangeCoeff(k)
		if !ok {
			continue
		}
		for i := 0; i < m.npt; i++ {
			m.pq[i] += diff * lambda[i]
		}
		daxpy(m.n, diff, g, m.g0)
	}
	m.refreshOpt()
}

// maybePromote implements §4.8 step 9's promotion: if (f, cstrv-as-violation)
// is better than the incumbent, the just-replaced sample (replaced, or the
// current kopt if replaced<0 as on a terminal path) becomes kopt, fopt/xsav
// update, and RESCON is refreshed. Grounded on selectx.isbetter (select.go).
func (o *outerLoop) maybePromote(f, cstrv float64, x []float64, ifeas, replaced int) {
	c1 := zero
	if ifeas == 0 {
		c1 = cstrv
	}
	if !isBetterPoint(f, c1, o.fopt, o.cstrvOpt, o.spec.stop.CTol) {
		return
	}
	o.fopt = f
	o.cstrvOpt = c1
	copy(o.xsav, x)
	if replaced >= 0 {
		o.m.kopt = replaced
	}
	o.m.refreshOpt()
	o.refreshRescon()
}

func (o *outerLoop) refreshRescon() {
	n := o.spec.n
	for j := range o.a {
		resid := o.bVec[j] - ddot(n, o.a[j], o.m.xopt)
		switch {
		case resid >= 0 && resid <= o.delta:
			o.rescon[j] = resid
		case resid < 0:
			o.rescon[j] = math.Min(-resid, -o.delta)
		default:
			o.rescon[j] = -math.Max(resid, o.delta)
		}
	}
}

func (o *outerLoop) finish(code Code) *Result {
	f, x := o.fopt, o.xsav
	return &Result{
		X:       x,
		F:       f,
		Cstrv:   o.cstrvOpt,
		NumEval: o.nf,
		Status:  code,
	}
}
