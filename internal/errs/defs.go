// SPDX-License-Identifier: BSD-3-Clause
//
// Authors: Alexander Jung <alex@unikraft.io>
//
// Copyright (c) 2022, Unikraft GmbH.  All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the names of its
//    contributors may be used to endorse or promote products derived from
//    this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package errs defines the error taxonomy returned by every evaluator
// component: bridge, registry, validator and satisfier. Every kind carries
// enough context to render an actionable diagnostic and maps to a distinct
// process exit code.
package errs

import "errors"

// Generic sentinels, kept for components that only need coarse
// classification (config loading, CLI argument handling).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrUnsupported  = errors.New("unsupported")
	ErrIncompatible = errors.New("incompatible")
)

func IsNotFoundError(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsInvalidError(err error) bool      { return errors.Is(err, ErrInvalid) }
func IsUnsupportedError(err error) bool  { return errors.Is(err, ErrUnsupported) }
func IsIncompatibleError(err error) bool { return errors.Is(err, ErrIncompatible) }

// Exit codes, referenced by cmd/autokernel to pick the process's final exit
// status. 0 is reserved for success.
const (
	ExitBridgeError             = 10
	ExitUnsupportedKernel       = 11
	ExitUnknownSymbol           = 12
	ExitInvalidValue            = 13
	ExitUnmetDirectDependencies = 14
	ExitAssignmentRejected      = 15
	ExitConflictingAssignment   = 16
	ExitAmbiguousChoice         = 17
	ExitCycleDetected           = 18
	ExitGeneric                 = 1
)

// Origin records where a value assignment came from: the script file, line
// and a short human-readable traceback (e.g. the chain of `load_kconfig`
// calls that led here), used to cite both sides of a conflict.
type Origin struct {
	File      string
	Line      int
	Traceback []string
	WasDirect bool
}

func (o Origin) String() string {
	if o.File == "" {
		return "<unknown>"
	}
	return o.File + ":" + itoa(o.Line)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// sentinel kinds, used with errors.Is against the typed errors below.
var (
	kindBridge                  = errors.New("bridge error")
	kindUnsupportedKernel       = errors.New("unsupported kernel")
	kindUnknownSymbol           = errors.New("unknown symbol")
	kindInvalidValue            = errors.New("invalid value")
	kindUnmetDirectDependencies = errors.New("unmet direct dependencies")
	kindAssignmentRejected      = errors.New("assignment rejected")
	kindConflictingAssignment   = errors.New("conflicting assignment")
	kindAmbiguousChoice         = errors.New("ambiguous choice")
	kindCycleDetected           = errors.New("cycle detected")
)

// BridgeError signals the native Kconfig bridge could not be built, loaded
// or invoked. Fatal, non-retryable per spec.
type BridgeError struct {
	Op  string
	Err error
}

func (e *BridgeError) Error() string {
	if e.Err != nil {
		return "bridge: " + e.Op + ": " + e.Err.Error()
	}
	return "bridge: " + e.Op
}
func (e *BridgeError) Unwrap() error { return kindBridge }
func (e *BridgeError) ExitCode() int { return ExitBridgeError }

// UnsupportedKernel signals the kernel tree's version predates the minimum
// supported release (4.2).
type UnsupportedKernel struct {
	Version string
	Minimum string
}

func (e *UnsupportedKernel) Error() string {
	return "unsupported kernel version " + e.Version + " (minimum " + e.Minimum + ")"
}
func (e *UnsupportedKernel) Unwrap() error { return kindUnsupportedKernel }
func (e *UnsupportedKernel) ExitCode() int { return ExitUnsupportedKernel }

// UnknownSymbol signals a name not present in the symbol registry.
type UnknownSymbol struct {
	Name string
}

func (e *UnknownSymbol) Error() string { return "unknown symbol: " + e.Name }
func (e *UnknownSymbol) Unwrap() error { return kindUnknownSymbol }
func (e *UnknownSymbol) ExitCode() int { return ExitUnknownSymbol }

// InvalidValue signals a type or range coercion failure for a raw
// assignment.
type InvalidValue struct {
	Symbol string
	Value  string
	Reason string
}

func (e *InvalidValue) Error() string {
	return "invalid value " + quote(e.Value) + " for " + e.Symbol + ": " + e.Reason
}
func (e *InvalidValue) Unwrap() error { return kindInvalidValue }
func (e *InvalidValue) ExitCode() int { return ExitInvalidValue }

// UnmetDirectDependencies signals a symbol's visibility is below the
// desired value; it carries the offending expression and the sub-clauses
// that currently evaluate false so the satisfier (or a human) can act.
type UnmetDirectDependencies struct {
	Symbol       string
	Desired      string
	Expr         string
	FalseClauses []string
}

func (e *UnmetDirectDependencies) Error() string {
	msg := "unmet direct dependencies for " + e.Symbol + "=" + e.Desired + ": " + e.Expr
	for _, c := range e.FalseClauses {
		msg += "\n  - " + c + " is currently false"
	}
	return msg
}
func (e *UnmetDirectDependencies) Unwrap() error { return kindUnmetDirectDependencies }
func (e *UnmetDirectDependencies) ExitCode() int { return ExitUnmetDirectDependencies }

// AssignmentRejected signals the bridge silently refused a value the
// validator otherwise accepted (typical cause: a reverse-dependency lower
// bound, or an unassignable choice member).
type AssignmentRejected struct {
	Symbol    string
	Requested string
	Observed  string
	Reason    string
}

func (e *AssignmentRejected) Error() string {
	msg := "assignment rejected: " + e.Symbol + " requested=" + e.Requested + " observed=" + e.Observed
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}
func (e *AssignmentRejected) Unwrap() error { return kindAssignmentRejected }
func (e *AssignmentRejected) ExitCode() int { return ExitAssignmentRejected }

// ConflictingAssignment signals two different explicit values were set for
// the same symbol; it cites both origins.
type ConflictingAssignment struct {
	Symbol string
	First  Origin
	Second Origin
}

func (e *ConflictingAssignment) Error() string {
	return "conflicting assignment for " + e.Symbol + ": first at " + e.First.String() +
		", conflicting at " + e.Second.String()
}
func (e *ConflictingAssignment) Unwrap() error { return kindConflictingAssignment }
func (e *ConflictingAssignment) ExitCode() int { return ExitConflictingAssignment }

// AmbiguousChoice signals the satisfier found multiple equally-costly
// branches for a disjunction and refuses to guess.
type AmbiguousChoice struct {
	Symbol       string
	Alternatives []string
}

func (e *AmbiguousChoice) Error() string {
	msg := "ambiguous choice while satisfying " + e.Symbol + ", alternatives:"
	for _, a := range e.Alternatives {
		msg += "\n  - " + a
	}
	return msg
}
func (e *AmbiguousChoice) Unwrap() error { return kindAmbiguousChoice }
func (e *AmbiguousChoice) ExitCode() int { return ExitAmbiguousChoice }

// CycleDetected signals the satisfier re-entered a symbol already on the
// current solve path.
type CycleDetected struct {
	Symbol string
	Path   []string
}

func (e *CycleDetected) Error() string {
	msg := "cycle detected while satisfying " + e.Symbol + ": "
	for i, p := range e.Path {
		if i > 0 {
			msg += " -> "
		}
		msg += p
	}
	return msg
}
func (e *CycleDetected) Unwrap() error { return kindCycleDetected }
func (e *CycleDetected) ExitCode() int { return ExitCycleDetected }

// Unsupported signals the satisfier was handed an expression shape it does
// not attempt to solve (general SAT is a declared non-goal).
type Unsupported struct {
	Symbol string
	Expr   string
}

func (e *Unsupported) Error() string {
	return "cannot satisfy " + e.Symbol + ": unsupported expression shape: " + e.Expr
}
func (e *Unsupported) Unwrap() error { return ErrUnsupported }
func (e *Unsupported) ExitCode() int { return ExitGeneric }

func quote(s string) string {
	return "\"" + s + "\""
}

// ExitCoder is implemented by every typed error above so the CLI can map an
// error to a process exit status without a type switch per call site.
type ExitCoder interface {
	error
	ExitCode() int
}

// CodeOf returns err's exit code if it implements ExitCoder, or ExitGeneric
// otherwise.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitGeneric
}
