// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package registry implements the typed symbol table (spec section 4.3):
// built once by walking the symbol list the native bridge reports, indexed
// both by name and by native handle, carrying each symbol's type, prompts,
// choice membership, direct/reverse dependencies and numeric ranges.
package registry

import (
	"sort"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/tristate"
)

// PropertyKind enumerates the kinds of property a symbol may carry.
type PropertyKind int

const (
	PropPrompt PropertyKind = iota
	PropDefault
	PropSelect
	PropImply
	PropRange
	PropSymbol
)

// Property is one guarded property attached to a symbol, e.g. a `default`
// with its own `if` guard.
type Property struct {
	Kind       PropertyKind
	Text       string   // prompt text / help text, when applicable
	Value      string   // default value / range bound, when applicable
	RangeLo    string
	RangeHi    string
	Visibility expr.Expr // the `if <expr>` guard, or nil if unconditional
}

// Choice is a synthetic boolean/tristate symbol with a list of members, at
// most one of which may be "y" (spec section 3: Choice group).
type Choice struct {
	Handle    expr.Handle
	Tristate  bool
	Members   []expr.Handle
}

// Symbol is the registry's copy of one Kconfig symbol.
type Symbol struct {
	Handle     expr.Handle
	Name       string
	Type       expr.Kind
	Value      string
	DirectDep  expr.Expr // widened to include all prompt visibilities
	ReverseDep expr.Expr // OR of all `select` expressions pointing here
	Implied    expr.Expr // OR of all `imply` expressions pointing here
	Properties []Property
	Choice     *Choice // non-nil if this symbol is a choice member
	RangeLo    *int64
	RangeHi    *int64
}

// Visibility computes the symbol's current visibility by evaluating its
// direct dependency (tristate.Yes when it has none). Prompts are not
// consulted here, so a symbol with no prompt reports the same value; the
// satisfier checks for a prompt itself and falls back to ReverseDep for
// prompt-less symbols (spec 4.5 step 1).
func (s *Symbol) Visibility(env expr.Env) tristate.Value {
	if s.DirectDep == nil {
		return tristate.Yes
	}
	return s.DirectDep.Eval(env)
}

// Registry is the symbol table plus the live bridge bindings needed to
// implement expr.Env.
type Registry struct {
	bridge  Bridge
	symbols map[expr.Handle]*Symbol
	byName  map[string]*Symbol
	order   []expr.Handle // stable, bridge enumeration order
}

// Bridge is the minimal surface the registry needs from the native bridge.
// Kept as an interface so the registry, validator and satisfier can be
// tested without a real kernel tree (a fakeBridge implements this in
// tests).
type Bridge interface {
	AllSymbols() []NativeSymbol
	GetString(h expr.Handle) string
	SetString(h expr.Handle, value string) (accepted bool, err error)
	Recalc() error
}

// NativeSymbol is the bridge's flat description of one symbol, as reported
// across the FFI boundary (plain owned data, no shared structures — spec
// design notes, FFI boundary).
type NativeSymbol struct {
	Handle     expr.Handle
	Name       string
	Type       expr.Kind
	DirectDep  expr.Expr
	ReverseDep expr.Expr
	Implied    expr.Expr
	Properties []Property
	ChoiceOf   expr.Handle // 0 if not a choice member
	RangeLo    *int64
	RangeHi    *int64
}

// New builds a Registry by walking b's symbol list exactly once (spec
// section 3 lifecycle: "symbols are created exactly once when the bridge
// parses Kconfig").
func New(b Bridge) (*Registry, error) {
	r := &Registry{
		bridge:  b,
		symbols: map[expr.Handle]*Symbol{},
		byName:  map[string]*Symbol{},
	}

	natives := b.AllSymbols()
	choices := map[expr.Handle]*Choice{}

	for _, n := range natives {
		sym := &Symbol{
			Handle:     n.Handle,
			Name:       n.Name,
			Type:       n.Type,
			DirectDep:  n.DirectDep,
			ReverseDep: n.ReverseDep,
			Implied:    n.Implied,
			Properties: n.Properties,
			RangeLo:    n.RangeLo,
			RangeHi:    n.RangeHi,
		}
		r.symbols[n.Handle] = sym
		if n.Name != "" {
			r.byName[n.Name] = sym
		}
		r.order = append(r.order, n.Handle)

		if n.ChoiceOf != 0 {
			c, ok := choices[n.ChoiceOf]
			if !ok {
				c = &Choice{Handle: n.ChoiceOf, Tristate: n.Type == expr.Tristate}
				choices[n.ChoiceOf] = c
			}
			c.Members = append(c.Members, n.Handle)
		}
	}

	for _, c := range choices {
		for _, m := range c.Members {
			if sym, ok := r.symbols[m]; ok {
				sym.Choice = c
			}
		}
	}

	if err := r.refresh(); err != nil {
		return nil, err
	}

	return r, nil
}

// refresh pulls the current value of every symbol from the bridge. Called
// after New and after every recalc.
func (r *Registry) refresh() error {
	for h, sym := range r.symbols {
		sym.Value = r.bridge.GetString(h)
	}
	return nil
}

// Recalc triggers a bridge recalculation and refreshes cached values.
func (r *Registry) Recalc() error {
	if err := r.bridge.Recalc(); err != nil {
		return &errs.BridgeError{Op: "recalc", Err: err}
	}
	return r.refresh()
}

// SetString writes value through the bridge and refreshes the affected
// symbol's cached value. It does not perform validation — callers go
// through the validator package for that.
func (r *Registry) SetString(h expr.Handle, value string) (bool, error) {
	ok, err := r.bridge.SetString(h, value)
	if err != nil {
		return false, &errs.BridgeError{Op: "set " + r.nameOrHandle(h), Err: err}
	}
	if sym, exists := r.symbols[h]; exists {
		sym.Value = r.bridge.GetString(h)
	}
	return ok, nil
}

func (r *Registry) nameOrHandle(h expr.Handle) string {
	if sym, ok := r.symbols[h]; ok {
		return sym.Name
	}
	return "<unknown>"
}

// Lookup resolves a symbol by name, accepting both "FOO" and "CONFIG_FOO".
func (r *Registry) Lookup(name string) (*Symbol, error) {
	name = trimConfigPrefix(name)
	if sym, ok := r.byName[name]; ok {
		return sym, nil
	}
	return nil, &errs.UnknownSymbol{Name: name}
}

// Symbol returns the symbol for a handle, if known.
func (r *Registry) Symbol(h expr.Handle) *Symbol {
	return r.symbols[h]
}

// All returns every symbol in stable bridge-enumeration order.
func (r *Registry) All() []*Symbol {
	out := make([]*Symbol, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.symbols[h])
	}
	return out
}

// AllSorted returns every symbol ordered by name, for deterministic
// listing commands (e.g. `info`, dumps) independent of bridge enumeration
// order.
func (r *Registry) AllSorted() []*Symbol {
	out := r.All()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func trimConfigPrefix(name string) string {
	const prefix = "CONFIG_"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}

// --- expr.Env implementation, so expressions can evaluate directly
// against the registry's live symbol state. ---

func (r *Registry) RawValue(h expr.Handle) string {
	if sym, ok := r.symbols[h]; ok {
		return sym.Value
	}
	return ""
}

func (r *Registry) Kind(h expr.Handle) expr.Kind {
	if sym, ok := r.symbols[h]; ok {
		return sym.Type
	}
	return expr.Unknown
}

func (r *Registry) Name(h expr.Handle) string {
	return r.nameOrHandle(h)
}
