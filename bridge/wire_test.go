// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package bridge

import (
	"testing"

	"autokernel.sh/expr"
)

func names(resolve handleResolver, wants ...string) map[string]expr.Handle {
	out := map[string]expr.Handle{}
	for _, w := range wants {
		out[w] = resolve(w)
	}
	return out
}

func TestParseExprSimple(t *testing.T) {
	next := expr.Handle(0)
	table := map[string]expr.Handle{}
	resolve := func(name string) expr.Handle {
		if h, ok := table[name]; ok {
			return h
		}
		next++
		table[name] = next
		return next
	}

	e, err := parseExpr(`AND(SYM(NET),NOT(SYM(EMBEDDED)))`, resolve)
	if err != nil {
		t.Fatalf("parseExpr failed: %v", err)
	}

	and, ok := e.(*expr.And)
	if !ok {
		t.Fatalf("expected *expr.And, got %T", e)
	}
	if _, ok := and.L.(*expr.Symbol); !ok {
		t.Errorf("expected left operand to be a symbol")
	}
	not, ok := and.R.(*expr.Not)
	if !ok {
		t.Fatalf("expected right operand to be Not, got %T", and.R)
	}
	if _, ok := not.X.(*expr.Symbol); !ok {
		t.Errorf("expected Not operand to be a symbol")
	}
}

func TestParseExprComparisonsAndRange(t *testing.T) {
	resolve := func(name string) expr.Handle { return 1 }

	cases := map[string]string{
		`EQ(SYM(ARCH),CONST("x86"))`:          "*expr.Eq",
		`NEQ(SYM(ARCH),CONST("arm"))`:         "*expr.Neq",
		`GT(SYM(LOGLEVEL),CONST(3))`:          "*expr.Compare",
		`RANGE(SYM(LOGLEVEL),CONST(0),CONST(7))`: "*expr.Range",
		`NIL`:                                "<nil>",
	}

	for input, wantType := range cases {
		e, err := parseExpr(input, resolve)
		if err != nil {
			t.Fatalf("parseExpr(%q) failed: %v", input, err)
		}
		got := "<nil>"
		if e != nil {
			got = typeName(e)
		}
		if got != wantType {
			t.Errorf("parseExpr(%q) = %s, want %s", input, got, wantType)
		}
	}
}

func typeName(e expr.Expr) string {
	switch e.(type) {
	case *expr.Eq:
		return "*expr.Eq"
	case *expr.Neq:
		return "*expr.Neq"
	case *expr.Compare:
		return "*expr.Compare"
	case *expr.Range:
		return "*expr.Range"
	case *expr.And:
		return "*expr.And"
	case *expr.Or:
		return "*expr.Or"
	case *expr.Not:
		return "*expr.Not"
	case *expr.Symbol:
		return "*expr.Symbol"
	case *expr.Const:
		return "*expr.Const"
	default:
		return "unknown"
	}
}

func TestParseExprRejectsGarbage(t *testing.T) {
	resolve := func(name string) expr.Handle { return 1 }
	if _, err := parseExpr(`AND(SYM(A)`, resolve); err == nil {
		t.Fatal("expected error for unbalanced parens")
	}
	if _, err := parseExpr(`BOGUS(SYM(A))`, resolve); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}
