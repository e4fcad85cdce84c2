// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package expr

import (
	"testing"

	"autokernel.sh/tristate"
)

type testEnv struct {
	values map[Handle]string
	kinds  map[Handle]Kind
	names  map[Handle]string
}

func (e testEnv) RawValue(h Handle) string { return e.values[h] }
func (e testEnv) Kind(h Handle) Kind       { return e.kinds[h] }
func (e testEnv) Name(h Handle) string     { return e.names[h] }

func newEnv() (testEnv, func(name string, kind Kind, value string) Handle) {
	env := testEnv{
		values: map[Handle]string{},
		kinds:  map[Handle]Kind{},
		names:  map[Handle]string{},
	}
	var next Handle
	add := func(name string, kind Kind, value string) Handle {
		next++
		env.values[next] = value
		env.kinds[next] = kind
		env.names[next] = name
		return next
	}
	return env, add
}

func TestAndOrSymbols(t *testing.T) {
	env, add := newEnv()
	a := add("A", Boolean, "y")
	b := add("B", Boolean, "n")

	and := &And{L: &Symbol{H: a}, R: &Symbol{H: b}}
	if and.Eval(env) != tristate.No {
		t.Fatalf("y && n should be n")
	}

	or := &Or{L: &Symbol{H: a}, R: &Symbol{H: b}}
	if or.Eval(env) != tristate.Yes {
		t.Fatalf("y || n should be y")
	}
}

func TestRangeAndCompare(t *testing.T) {
	env, add := newEnv()
	loglevel := add("CONSOLE_LOGLEVEL_DEFAULT", Int, "9")

	r := &Range{Sym: &Symbol{H: loglevel}, Lo: &Const{Value: "0"}, Hi: &Const{Value: "7"}}
	if r.Eval(env) != tristate.No {
		t.Fatalf("9 should be outside [0,7]")
	}

	gt := Gt(&Symbol{H: loglevel}, &Const{Value: "7"})
	if gt.Eval(env) != tristate.Yes {
		t.Fatalf("9 > 7 should be y")
	}
}

func TestFalseClauses(t *testing.T) {
	env, add := newEnv()
	netA := add("NET", Boolean, "n")
	netDev := add("NETDEVICES", Boolean, "y")

	dep := &And{L: &Symbol{H: netA}, R: &Symbol{H: netDev}}
	clauses := FalseClauses(env, dep)
	if len(clauses) != 1 || clauses[0] != "NET" {
		t.Fatalf("expected exactly [NET] false, got %v", clauses)
	}
}

func TestHexEquality(t *testing.T) {
	env, add := newEnv()
	h := add("SOME_HEX", Hex, "0x10")

	eq := &Eq{L: &Symbol{H: h}, R: &Const{Value: "0x10"}}
	if eq.Eval(env) != tristate.Yes {
		t.Fatalf("hex equality should hold for identical hex literals")
	}
}
