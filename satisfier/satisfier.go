// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package satisfier implements the dependency satisfier (spec section
// 4.5): given a target (symbol, desired value) whose direct-dependency
// expression currently evaluates below the desired value, it produces an
// ordered list of prerequisite assignments that would make the target
// assignment legal, or reports why it cannot.
package satisfier

import (
	"sort"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/registry"
	"autokernel.sh/tristate"
)

// Assignment is one step of a satisfier plan: set Symbol to Value.
type Assignment struct {
	Symbol string
	Value  string
}

// Satisfier solves prerequisite chains against a registry's live symbol
// state.
type Satisfier struct {
	reg *registry.Registry
}

// New returns a Satisfier bound to reg.
func New(reg *registry.Registry) *Satisfier {
	return &Satisfier{reg: reg}
}

// solveState threads the in-progress set (cycle detection) and the
// accumulated plan through the recursive solve.
type solveState struct {
	inProgress map[expr.Handle]bool
	planned    map[expr.Handle]string // handle -> value already scheduled
	plan       []Assignment
}

// Satisfy computes the ordered prerequisite list for setting symbolName to
// desired ("y" or "m"). If recursive is false, only the target's direct
// leaves are emitted — callers still see what must change one level up,
// per spec 4.5 step 6.
func (s *Satisfier) Satisfy(symbolName, desired string, recursive bool) ([]Assignment, error) {
	sym, err := s.reg.Lookup(symbolName)
	if err != nil {
		return nil, err
	}

	desiredT, ok := tristate.Parse(desired)
	if !ok || desiredT == tristate.No {
		return nil, &errs.InvalidValue{Symbol: sym.Name, Value: desired, Reason: "satisfier targets must be m or y"}
	}

	st := &solveState{
		inProgress: map[expr.Handle]bool{},
		planned:    map[expr.Handle]string{},
	}

	if err := s.satisfy(sym, desiredT, recursive, st, []string{sym.Name}); err != nil {
		return nil, err
	}

	// A prompt-less target reached through its selector is not assigned
	// itself; the plan ends with the selector.
	if hasPrompt(sym) || sym.ReverseDep == nil {
		st.plan = append(st.plan, Assignment{Symbol: sym.Name, Value: desiredT.String()})
	}
	return st.plan, nil
}

// satisfy recurses on one symbol, per the algorithm in spec 4.5.
func (s *Satisfier) satisfy(sym *registry.Symbol, desired tristate.Value, recursive bool, st *solveState, path []string) error {
	if st.inProgress[sym.Handle] {
		return &errs.CycleDetected{Symbol: sym.Name, Path: path}
	}
	if v, planned := st.planned[sym.Handle]; planned {
		have, _ := tristate.Parse(v)
		if have >= desired {
			return nil
		}
	}

	if hasPrompt(sym) && sym.Visibility(s.reg) >= desired {
		return nil
	}

	st.inProgress[sym.Handle] = true
	defer delete(st.inProgress, sym.Handle)

	// Step 1: effective visibility expression. Symbols with no prompt
	// (DirectDep alone never grants visibility) fall back to their
	// reverse dependency, since they can only be reached via select.
	eff := sym.DirectDep
	if !hasPrompt(sym) && sym.ReverseDep != nil {
		return s.satisfyViaSelector(sym, desired, recursive, st, path)
	}
	if eff == nil {
		return nil
	}

	// Step 2/3: normalize and solve bottom-up.
	if !recursive {
		// Only direct leaves: resolve what's false one level up, without
		// descending further.
		for _, clause := range expr.Conjuncts(eff) {
			if clause.Eval(s.reg) >= desired {
				continue
			}
			if err := s.solveClause(clause, desired, false, st, path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := s.solveExpr(eff, desired, st, path); err != nil {
		return err
	}

	return nil
}

func hasPrompt(sym *registry.Symbol) bool {
	for _, p := range sym.Properties {
		if p.Kind == registry.PropPrompt {
			return true
		}
	}
	return false
}

// satisfyViaSelector handles spec 4.5 step 7: a symbol only reachable via
// select from elsewhere. The satisfier emits the selecting symbol, not the
// unreachable leaf.
func (s *Satisfier) satisfyViaSelector(sym *registry.Symbol, desired tristate.Value, recursive bool, st *solveState, path []string) error {
	selectors := expr.Symbols(sym.ReverseDep)
	if len(selectors) == 0 {
		return &errs.Unsupported{Symbol: sym.Name, Expr: expr.String(sym.ReverseDep)}
	}
	if len(selectors) > 1 {
		alts := make([]string, 0, len(selectors))
		for _, h := range selectors {
			alts = append(alts, s.reg.Name(h))
		}
		sort.Strings(alts)
		return &errs.AmbiguousChoice{Symbol: sym.Name, Alternatives: alts}
	}

	selector := s.reg.Symbol(selectors[0])
	if selector == nil {
		return &errs.Unsupported{Symbol: sym.Name, Expr: expr.String(sym.ReverseDep)}
	}

	if recursive {
		if err := s.satisfy(selector, tristate.Yes, recursive, st, append(path, selector.Name)); err != nil {
			return err
		}
	}
	schedule(st, selector.Handle, selector.Name, tristate.Yes)
	return nil
}

// solveExpr dispatches on the expression's top-level shape per spec 4.5
// step 3.
func (s *Satisfier) solveExpr(e expr.Expr, desired tristate.Value, st *solveState, path []string) error {
	switch v := e.(type) {
	case *expr.And:
		if err := s.solveExpr(v.L, desired, st, path); err != nil {
			return err
		}
		return s.solveExpr(v.R, desired, st, path)

	case *expr.Or:
		return s.solveDisjunction(expr.Disjuncts(v), desired, st, path)

	default:
		return s.solveClause(e, desired, true, st, path)
	}
}

// solveDisjunction picks a child deterministically by cost, per spec 4.5
// step 3/4: number of additional symbols enabled, tie-break by
// lexicographic name order. If multiple children tie for lowest cost, it's
// an AmbiguousChoice.
func (s *Satisfier) solveDisjunction(children []expr.Expr, desired tristate.Value, st *solveState, path []string) error {
	type candidate struct {
		e    expr.Expr
		cost int
		name string
	}

	var viable []candidate
	for _, c := range children {
		if c.Eval(s.reg) >= desired {
			return nil // already satisfied by this branch as-is
		}
		cost, name, ok := s.estimateCost(c)
		if !ok {
			continue
		}
		viable = append(viable, candidate{e: c, cost: cost, name: name})
	}

	if len(viable) == 0 {
		return &errs.Unsupported{Symbol: "", Expr: renderAll(children)}
	}

	sort.Slice(viable, func(i, j int) bool {
		if viable[i].cost != viable[j].cost {
			return viable[i].cost < viable[j].cost
		}
		return viable[i].name < viable[j].name
	})

	if len(viable) > 1 && viable[0].cost == viable[1].cost {
		alts := make([]string, 0, len(viable))
		for _, v := range viable {
			alts = append(alts, v.name)
		}
		return &errs.AmbiguousChoice{Symbol: "", Alternatives: alts}
	}

	return s.solveClause(viable[0].e, desired, true, st, path)
}

// estimateCost counts the symbols that would need to change to satisfy
// clause, used as the disjunction tie-break metric.
func (s *Satisfier) estimateCost(clause expr.Expr) (cost int, name string, ok bool) {
	handles := expr.Symbols(clause)
	if len(handles) == 0 {
		return 0, "", false
	}
	n := 0
	for _, h := range handles {
		sym := s.reg.Symbol(h)
		if sym == nil {
			continue
		}
		if sym.Value != "y" {
			n++
		}
	}
	sort.Slice(handles, func(i, j int) bool { return s.reg.Name(handles[i]) < s.reg.Name(handles[j]) })
	return n, s.reg.Name(handles[0]), true
}

func renderAll(es []expr.Expr) string {
	out := ""
	for i, e := range es {
		if i > 0 {
			out += " || "
		}
		out += expr.String(e)
	}
	return out
}

// solveClause handles one leaf-or-comparison clause: a bare Symbol, an Eq
// pinning a literal, or a Not/Compare this satisfier does not attempt to
// invert.
func (s *Satisfier) solveClause(clause expr.Expr, desired tristate.Value, recursive bool, st *solveState, path []string) error {
	switch v := clause.(type) {
	case *expr.Symbol:
		sym := s.reg.Symbol(v.H)
		if sym == nil {
			return &errs.Unsupported{Symbol: "", Expr: expr.String(clause)}
		}
		if recursive {
			if err := s.satisfy(sym, desired, recursive, st, append(path, sym.Name)); err != nil {
				return err
			}
		}
		schedule(st, sym.Handle, sym.Name, desired)
		return nil

	case *expr.Eq:
		if sv, ok := v.L.(*expr.Symbol); ok {
			if lit, ok2 := v.R.(*expr.Const); ok2 {
				sym := s.reg.Symbol(sv.H)
				if sym == nil {
					return &errs.Unsupported{Symbol: "", Expr: expr.String(clause)}
				}
				want, _ := tristate.Parse(lit.Value)
				if recursive {
					if err := s.satisfy(sym, want, recursive, st, append(path, sym.Name)); err != nil {
						return err
					}
				}
				schedule(st, sym.Handle, sym.Name, want)
				return nil
			}
		}
		return &errs.Unsupported{Symbol: "", Expr: expr.String(clause)}

	default:
		if clause.Eval(s.reg) >= desired {
			return nil
		}
		return &errs.Unsupported{Symbol: "", Expr: expr.String(clause)}
	}
}

// schedule records that h must end up at value v, appending it to the
// ordered plan the first time it's scheduled (dependencies are always
// scheduled before the symbol that needed them, since satisfy recurses
// into prerequisites before scheduling its own target — giving the
// topological order spec 4.5 step 6 requires) and raising the recorded
// value in place on subsequent calls instead of duplicating the entry.
func schedule(st *solveState, h expr.Handle, name string, v tristate.Value) {
	if have, ok := st.planned[h]; ok {
		haveT, _ := tristate.Parse(have)
		if haveT >= v {
			return
		}
		st.planned[h] = v.String()
		for i := range st.plan {
			if st.plan[i].Symbol == name {
				st.plan[i].Value = v.String()
				return
			}
		}
		return
	}
	st.planned[h] = v.String()
	st.plan = append(st.plan, Assignment{Symbol: name, Value: v.String()})
}

// Name exposes the registry's symbol-name lookup to callers that only
// have a satisfier, not a registry reference (e.g. diagnostics code).
func (s *Satisfier) Name(h expr.Handle) string { return s.reg.Name(h) }
