// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lincoa

import (
	"fmt"
	"io"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop: no output is generated.
	LogNoop LogLevel = -1
	// LogLast: print only the final summary.
	LogLast LogLevel = 0
	// LogEval: accepted; no per-step output is printed, only the final summary.
	LogEval LogLevel = 1
	// LogTrace: accepted; no per-iteration output is printed, only the final summary.
	LogTrace LogLevel = 99
	// LogVerbose: accepted; no per-iteration output is printed, only the final summary.
	LogVerbose LogLevel = 101
)

// Logger mirrors the L-BFGS-B port's Logger: two writers gated by a level.
// A nil *Logger disables all output.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
	Out   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if l == nil || l.Msg == nil {
		return
	}
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

func (l *Logger) out(format string, a ...any) {
	if l == nil || l.Out == nil {
		return
	}
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Out, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Out, format)
	}
}
