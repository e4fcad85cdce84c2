// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package validator implements the assignment validator (spec section
// 4.4): the single entry point every user assignment is mediated through,
// enforcing type, range, visibility, direct-dependency and choice-group
// invariants before a value ever reaches the bridge.
package validator

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/log"
	"autokernel.sh/registry"
	"autokernel.sh/tristate"
)

// Mode distinguishes a user's explicit statement from a merge/unchecked
// load: merged assignments do not pin (spec 4.4 step 7).
type Mode int

const (
	Explicit Mode = iota
	Merge
)

// Validator mediates every (symbol, raw_value, origin) assignment.
type Validator struct {
	reg     *registry.Registry
	tracker *registry.Tracker
}

// New returns a Validator bound to reg and tracker.
func New(reg *registry.Registry, tracker *registry.Tracker) *Validator {
	return &Validator{reg: reg, tracker: tracker}
}

// Set runs the full 7-step pipeline for (symbolName, rawValue) with the
// given origin and mode.
func (v *Validator) Set(symbolName, rawValue string, origin errs.Origin, mode Mode) error {
	l := log.L

	// Step 1: existence and type.
	sym, err := v.reg.Lookup(symbolName)
	if err != nil {
		return err
	}

	// Step 2: type coercion and range check.
	coerced, err := coerce(sym, rawValue)
	if err != nil {
		return err
	}

	// Step 3: visibility.
	desired, isTristate := tristate.Parse(coerced)
	if isTristate {
		visibility := sym.Visibility(v.reg)
		if desired > visibility {
			return &errs.UnmetDirectDependencies{
				Symbol:       sym.Name,
				Desired:      coerced,
				Expr:         renderOrEmpty(sym.DirectDep, v.reg),
				FalseClauses: falseClausesOf(sym, v.reg),
			}
		}
	}

	// Step 4: choice-group transactional set.
	if sym.Choice != nil && coerced == "y" {
		for _, m := range sym.Choice.Members {
			if m == sym.Handle {
				continue
			}
			other := v.reg.Symbol(m)
			if other != nil && other.Value == "y" {
				if _, err := v.reg.SetString(m, "n"); err != nil {
					return err
				}
			}
		}
	}

	// Step 5: write through the bridge and recalc.
	accepted, err := v.reg.SetString(sym.Handle, coerced)
	if err != nil {
		return err
	}
	if err := v.reg.Recalc(); err != nil {
		return err
	}

	// Step 6: post-recalc verification.
	observed := v.reg.Symbol(sym.Handle).Value
	if !accepted || observed != coerced {
		return &errs.AssignmentRejected{
			Symbol:    sym.Name,
			Requested: coerced,
			Observed:  observed,
			Reason:    rejectionHint(sym, v.reg),
		}
	}

	// Step 7: record in the value tracker. Merged/unchecked assignments do
	// not pin.
	dup, err := v.tracker.Record(sym.Name, sym.Handle, coerced, origin, mode == Explicit)
	if err != nil {
		return err
	}
	if dup {
		l.WithFields(logrus.Fields{
			"symbol": sym.Name,
			"value":  coerced,
		}).Debug("duplicate assignment of identical value ignored")
	}

	return nil
}

// coerce implements spec 4.4 step 2.
func coerce(sym *registry.Symbol, raw string) (string, error) {
	switch sym.Type {
	case expr.Boolean:
		if raw != "y" && raw != "n" {
			return "", &errs.InvalidValue{Symbol: sym.Name, Value: raw, Reason: "boolean symbols accept only y or n"}
		}
		return raw, nil

	case expr.Tristate:
		if raw != "y" && raw != "n" && raw != "m" {
			return "", &errs.InvalidValue{Symbol: sym.Name, Value: raw, Reason: "tristate symbols accept only y, m or n"}
		}
		return raw, nil

	case expr.Int:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return "", &errs.InvalidValue{Symbol: sym.Name, Value: raw, Reason: "not a base-10 integer"}
		}
		if err := checkRange(sym, n); err != nil {
			return "", err
		}
		return raw, nil

	case expr.Hex:
		trimmed := strings.TrimSpace(raw)
		if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
			return "", &errs.InvalidValue{Symbol: sym.Name, Value: raw, Reason: "hex values must start with 0x"}
		}
		n, err := strconv.ParseInt(trimmed[2:], 16, 64)
		if err != nil {
			return "", &errs.InvalidValue{Symbol: sym.Name, Value: raw, Reason: "not a valid hex literal"}
		}
		if err := checkRange(sym, n); err != nil {
			return "", err
		}
		return trimmed, nil

	case expr.String:
		return raw, nil

	default:
		return "", &errs.UnknownSymbol{Name: sym.Name}
	}
}

func checkRange(sym *registry.Symbol, n int64) error {
	if sym.RangeLo != nil && n < *sym.RangeLo {
		return &errs.InvalidValue{
			Symbol: sym.Name,
			Value:  strconv.FormatInt(n, 10),
			Reason: "below declared range minimum " + strconv.FormatInt(*sym.RangeLo, 10),
		}
	}
	if sym.RangeHi != nil && n > *sym.RangeHi {
		return &errs.InvalidValue{
			Symbol: sym.Name,
			Value:  strconv.FormatInt(n, 10),
			Reason: "above declared range maximum " + strconv.FormatInt(*sym.RangeHi, 10),
		}
	}
	return nil
}

func renderOrEmpty(e expr.Expr, env expr.Env) string {
	if e == nil {
		return ""
	}
	return e.Render(env)
}

func falseClausesOf(sym *registry.Symbol, env expr.Env) []string {
	if sym.DirectDep == nil {
		return nil
	}
	return expr.FalseClauses(env, sym.DirectDep)
}

// rejectionHint guesses a human cause for a bridge-level rejection, used
// only to enrich AssignmentRejected.Reason — it does not affect control
// flow.
func rejectionHint(sym *registry.Symbol, env expr.Env) string {
	if sym.ReverseDep != nil && sym.ReverseDep.Eval(env) != tristate.No {
		return "value is lower-bounded by a reverse dependency (select)"
	}
	if sym.Choice != nil {
		return "symbol belongs to a choice group"
	}
	return ""
}
