// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

// Code is the termination reason reported in a Result. It is never returned
// as a Go error from the solve loop: only Problem.New validates eagerly and
// can fail with an error.
type Code int

const (
	// Normal means the trust radius reached RhoEnd without any other
	// terminal condition firing.
	Normal Code = iota
	// FTargetAchieved means the objective reached the caller's FTarget.
	FTargetAchieved
	// MaxFunReached means the evaluation budget was exhausted.
	MaxFunReached
	// NaNInputX means a non-finite x was about to be passed to the
	// objective callback.
	NaNInputX
	// NaNObjective means the objective callback returned NaN or +Inf, or
	// the constraint violation was not finite. It is reported even when a
	// finite fopt has already been recorded; Result then carries that fopt
	// and its x.
	NaNObjective
	// NaNModel means the interpolation model or its factorization became
	// non-finite.
	NaNModel
	// DamagingRounding means the displacement sanity check
	// 0.1ρ < ‖x-xsav‖ < 2Δ failed, or the model update was rejected
	// (degenerate denominator or singular interpolation system), signalling
	// loss of unisolvency.
	DamagingRounding
	// BadArgument is not produced by Solve; Problem.New reports invalid
	// arguments as a Go error instead.
	BadArgument
)

func (c Code) String() string {
	switch c {
	case Normal:
		return "Normal"
	case FTargetAchieved:
		return "FTargetAchieved"
	case MaxFunReached:
		return "MaxFunReached"
	case NaNInputX:
		return "NaNInputX"
	case NaNObjective:
		return "NaNObjective"
	case NaNModel:
		return "NaNModel"
	case DamagingRounding:
		return "DamagingRounding"
	case BadArgument:
		return "BadArgument"
	default:
		return "Unknown"
	}
}
