// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package expr is the language-neutral representation of Kconfig
// dependency and visibility expressions (spec section 4.2): a small tagged
// tree of Const/Symbol/Not/And/Or/Eq/Neq/Lt/Le/Gt/Ge/Range nodes whose
// leaves reference symbols by an opaque Handle rather than a live pointer,
// so expression trees never hold a language reference back to a mutable
// symbol object (design note: cyclic dependency graphs).
//
// This package has no Kconfig-grammar parsing responsibility: building
// Expr trees from Kconfig source text is the native bridge's job (it walks
// the kernel's own parsed expression trees across the FFI boundary).
// Reimplementing that parser in Go is an explicit non-goal.
package expr

import (
	"strconv"
	"strings"

	"autokernel.sh/tristate"
)

// Handle is an opaque reference to a symbol, assigned by the symbol
// registry when it walks the bridge's symbol list. Handle never embeds a
// name or pointer so expression trees remain decoupled from registry
// internals.
type Handle uint32

// Kind is a symbol's declared Kconfig type.
type Kind int

const (
	Unknown Kind = iota
	Boolean
	Tristate
	Int
	Hex
	String
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "bool"
	case Tristate:
		return "tristate"
	case Int:
		return "int"
	case Hex:
		return "hex"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Env is the read-only view over live symbol state that expressions
// evaluate against. The symbol registry implements Env; expr never mutates
// anything through it.
type Env interface {
	// RawValue returns the symbol's current value exactly as stored
	// (unparsed).
	RawValue(h Handle) string
	// Kind returns the symbol's declared type.
	Kind(h Handle) Kind
	// Name returns the symbol's display name, used for rendering.
	Name(h Handle) string
}

// Expr is satisfied by every node in an expression tree.
type Expr interface {
	// Eval evaluates the expression in boolean (tristate) context.
	Eval(env Env) tristate.Value
	// Render produces a human-readable form of the expression.
	Render(env Env) string
}

// Const is a literal value: a bare "y"/"m"/"n", a numeric literal, or a
// quoted string — Kconfig treats every literal as its own constant symbol,
// which this node mirrors without allocating a registry handle for it.
type Const struct {
	Value string
}

func (c *Const) Eval(_ Env) tristate.Value {
	if v, ok := tristate.Parse(c.Value); ok {
		return v
	}
	if isZeroish(c.Value) {
		return tristate.No
	}
	return tristate.Yes
}

func (c *Const) Render(_ Env) string { return c.Value }

// Symbol references a live symbol by handle.
type Symbol struct {
	H Handle
}

func (s *Symbol) Eval(env Env) tristate.Value {
	v := env.RawValue(s.H)
	switch env.Kind(s.H) {
	case Boolean, Tristate:
		if tv, ok := tristate.Parse(v); ok {
			return tv
		}
		return tristate.No
	default:
		if isZeroish(v) {
			return tristate.No
		}
		return tristate.Yes
	}
}

func (s *Symbol) Render(env Env) string { return env.Name(s.H) }

// Not negates a tristate expression: y-a on the n/m/y=0/1/2 lattice.
type Not struct {
	X Expr
}

func (n *Not) Eval(env Env) tristate.Value { return tristate.Not(n.X.Eval(env)) }
func (n *Not) Render(env Env) string       { return "!" + paren(n.X, env) }

// And is the tristate conjunction min(l,r).
type And struct {
	L, R Expr
}

func (a *And) Eval(env Env) tristate.Value {
	return tristate.And(a.L.Eval(env), a.R.Eval(env))
}
func (a *And) Render(env Env) string {
	return paren(a.L, env) + " && " + paren(a.R, env)
}

// Or is the tristate disjunction max(l,r).
type Or struct {
	L, R Expr
}

func (o *Or) Eval(env Env) tristate.Value {
	return tristate.Or(o.L.Eval(env), o.R.Eval(env))
}
func (o *Or) Render(env Env) string {
	return paren(o.L, env) + " || " + paren(o.R, env)
}

// Eq is equality between two leaf-valued expressions (a symbol or a
// constant on either side).
type Eq struct {
	L, R Expr
}

func (e *Eq) Eval(env Env) tristate.Value { return boolTristate(compare(env, e.L, e.R) == 0) }
func (e *Eq) Render(env Env) string       { return paren(e.L, env) + " = " + paren(e.R, env) }

// Neq is inequality.
type Neq struct {
	L, R Expr
}

func (e *Neq) Eval(env Env) tristate.Value { return boolTristate(compare(env, e.L, e.R) != 0) }
func (e *Neq) Render(env Env) string       { return paren(e.L, env) + " != " + paren(e.R, env) }

// CompareOp distinguishes the four ordering comparisons.
type CompareOp int

const (
	OpLt CompareOp = iota
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) String() string {
	switch op {
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Compare implements Lt/Le/Gt/Ge: ordering comparisons following Kconfig
// semantics — tristate values use n<m<y, int/hex parse and compare
// numerically, strings compare lexicographically.
type Compare struct {
	Op   CompareOp
	L, R Expr
}

// Lt, Le, Gt, Ge are smart constructors mirroring the four named variants
// from spec section 4.2.
func Lt(l, r Expr) *Compare { return &Compare{Op: OpLt, L: l, R: r} }
func Le(l, r Expr) *Compare { return &Compare{Op: OpLe, L: l, R: r} }
func Gt(l, r Expr) *Compare { return &Compare{Op: OpGt, L: l, R: r} }
func Ge(l, r Expr) *Compare { return &Compare{Op: OpGe, L: l, R: r} }

func (c *Compare) Eval(env Env) tristate.Value {
	d := compare(env, c.L, c.R)
	var ok bool
	switch c.Op {
	case OpLt:
		ok = d < 0
	case OpLe:
		ok = d <= 0
	case OpGt:
		ok = d > 0
	case OpGe:
		ok = d >= 0
	}
	return boolTristate(ok)
}

func (c *Compare) Render(env Env) string {
	return paren(c.L, env) + " " + c.Op.String() + " " + paren(c.R, env)
}

// Range tests whether Sym's numeric value falls within [Lo, Hi] inclusive.
// Spec section 4.2 lists `Range(l,r)` alongside the other binary variants;
// in practice a Kconfig `range` property gates a symbol between two
// literal bounds, so this node is the natural ternary generalization
// (symbol, lo, hi) of that binary notation.
type Range struct {
	Sym    Expr
	Lo, Hi Expr
}

func (r *Range) Eval(env Env) tristate.Value {
	v, _ := numericValue(env, r.Sym)
	lo, _ := numericValue(env, r.Lo)
	hi, _ := numericValue(env, r.Hi)
	return boolTristate(v >= lo && v <= hi)
}

func (r *Range) Render(env Env) string {
	return paren(r.Sym, env) + " in [" + paren(r.Lo, env) + ", " + paren(r.Hi, env) + "]"
}

// --- helpers ---

func boolTristate(b bool) tristate.Value {
	if b {
		return tristate.Yes
	}
	return tristate.No
}

func isZeroish(s string) bool {
	if s == "" {
		return true
	}
	if n, err := parseNumeric(s); err == nil {
		return n == 0
	}
	return false
}

func paren(e Expr, env Env) string {
	switch e.(type) {
	case *Symbol, *Const:
		return e.Render(env)
	default:
		return "(" + e.Render(env) + ")"
	}
}

// leafValue resolves an expression used in a value-comparison position
// (the operand of Eq/Neq/Compare/Range) to its raw string and declared
// kind, without projecting through tristate Eval.
func leafValue(env Env, e Expr) (string, Kind) {
	switch v := e.(type) {
	case *Symbol:
		return env.RawValue(v.H), env.Kind(v.H)
	case *Const:
		return v.Value, Unknown
	default:
		// Composite expressions used as a comparison operand are evaluated
		// in boolean context and stringified.
		return e.Eval(env).String(), Tristate
	}
}

func parseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

func numericValue(env Env, e Expr) (int64, bool) {
	s, _ := leafValue(env, e)
	n, err := parseNumeric(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// compare orders two operands following Kconfig semantics: tristate
// ordering if either side is a bare tristate spelling, numeric ordering if
// both parse as int/hex, else lexicographic string ordering.
func compare(env Env, l, r Expr) int {
	lv, lk := leafValue(env, l)
	rv, rk := leafValue(env, r)

	if ltv, ok := tristate.Parse(lv); ok {
		if rtv, ok2 := tristate.Parse(rv); ok2 {
			return tristate.Compare(ltv, rtv)
		}
	}

	if lk == Int || lk == Hex || rk == Int || rk == Hex {
		if ln, err1 := parseNumeric(lv); err1 == nil {
			if rn, err2 := parseNumeric(rv); err2 == nil {
				switch {
				case ln < rn:
					return -1
				case ln > rn:
					return 1
				default:
					return 0
				}
			}
		}
	}

	return strings.Compare(lv, rv)
}

// Walk visits e and every descendant in pre-order.
func Walk(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *Not:
		Walk(v.X, visit)
	case *And:
		Walk(v.L, visit)
		Walk(v.R, visit)
	case *Or:
		Walk(v.L, visit)
		Walk(v.R, visit)
	case *Eq:
		Walk(v.L, visit)
		Walk(v.R, visit)
	case *Neq:
		Walk(v.L, visit)
		Walk(v.R, visit)
	case *Compare:
		Walk(v.L, visit)
		Walk(v.R, visit)
	case *Range:
		Walk(v.Sym, visit)
		Walk(v.Lo, visit)
		Walk(v.Hi, visit)
	}
}

// Symbols returns every distinct symbol handle referenced anywhere in e,
// used by the registry to index reverse lookups and by the satisfier to
// seed its solve frontier.
func Symbols(e Expr) []Handle {
	seen := make(map[Handle]bool)
	var out []Handle
	Walk(e, func(n Expr) {
		if s, ok := n.(*Symbol); ok {
			if !seen[s.H] {
				seen[s.H] = true
				out = append(out, s.H)
			}
		}
	})
	return out
}

// Conjuncts flattens a (possibly nested) And-tree into its leaf operands.
// A non-And expression is returned as a single-element slice. Used by the
// validator and satisfier to enumerate the sub-clauses of a direct-dep
// expression independently (spec 4.4 step 3: "sub-clauses that are
// currently false").
func Conjuncts(e Expr) []Expr {
	if a, ok := e.(*And); ok {
		return append(Conjuncts(a.L), Conjuncts(a.R)...)
	}
	return []Expr{e}
}

// Disjuncts flattens a (possibly nested) Or-tree into its leaf operands.
func Disjuncts(e Expr) []Expr {
	if o, ok := e.(*Or); ok {
		return append(Disjuncts(o.L), Disjuncts(o.R)...)
	}
	return []Expr{e}
}

// FalseClauses renders every conjunct of e that does not currently
// evaluate to tristate.Yes, used to populate
// errs.UnmetDirectDependencies.FalseClauses.
func FalseClauses(env Env, e Expr) []string {
	var out []string
	for _, c := range Conjuncts(e) {
		if c.Eval(env) != tristate.Yes {
			out = append(out, c.Render(env))
		}
	}
	return out
}

// String renders e without an Env, falling back to handle numbers for any
// Symbol leaf; useful in contexts (e.g. error wrapping) where no registry
// is at hand.
func String(e Expr) string {
	return e.Render(nullEnv{})
}

type nullEnv struct{}

func (nullEnv) RawValue(Handle) string { return "" }
func (nullEnv) Kind(Handle) Kind       { return Unknown }
func (nullEnv) Name(h Handle) string   { return "#" + strconv.Itoa(int(h)) }
