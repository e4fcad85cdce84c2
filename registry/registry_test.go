// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package registry

import (
	"testing"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
)

// fakeBridge is a minimal in-memory Bridge, mirroring the one defined in
// script/interp_test.go but kept local here so this package's tests don't
// need to depend on script.
type fakeBridge struct {
	natives []NativeSymbol
	values  map[expr.Handle]string
	setErr  error
}

func (f *fakeBridge) AllSymbols() []NativeSymbol { return f.natives }
func (f *fakeBridge) GetString(h expr.Handle) string { return f.values[h] }
func (f *fakeBridge) SetString(h expr.Handle, v string) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	f.values[h] = v
	return true, nil
}
func (f *fakeBridge) Recalc() error { return nil }

func newFixture() (*Registry, *fakeBridge) {
	const (
		hNet = expr.Handle(iota + 1)
		hWlan
	)
	fb := &fakeBridge{values: map[expr.Handle]string{}}
	fb.natives = []NativeSymbol{
		{Handle: hNet, Name: "NET", Type: expr.Boolean, Properties: []Property{{Kind: PropPrompt}}},
		{Handle: hWlan, Name: "WLAN", Type: expr.Boolean, Properties: []Property{{Kind: PropPrompt}},
			DirectDep: &expr.Symbol{H: hNet}},
	}
	fb.values[hNet] = "n"
	fb.values[hWlan] = "n"
	reg, err := New(fb)
	if err != nil {
		panic(err)
	}
	return reg, fb
}

func TestLookupAcceptsConfigPrefix(t *testing.T) {
	reg, _ := newFixture()

	sym, err := reg.Lookup("CONFIG_NET")
	if err != nil {
		t.Fatalf("Lookup(CONFIG_NET): %v", err)
	}
	if sym.Name != "NET" {
		t.Fatalf("got %q, want NET", sym.Name)
	}

	sym2, err := reg.Lookup("NET")
	if err != nil || sym2 != sym {
		t.Fatalf("Lookup(NET) should return the same symbol pointer")
	}
}

func TestLookupUnknown(t *testing.T) {
	reg, _ := newFixture()
	_, err := reg.Lookup("NONEXISTENT")
	if _, ok := err.(*errs.UnknownSymbol); !ok {
		t.Fatalf("got %T, want *errs.UnknownSymbol", err)
	}
}

func TestVisibilityFollowsDirectDep(t *testing.T) {
	reg, fb := newFixture()

	wlan, _ := reg.Lookup("WLAN")
	if v := wlan.Visibility(reg); v.String() != "n" {
		t.Fatalf("WLAN visibility = %s, want n (NET is off)", v.String())
	}

	fb.values[expr.Handle(1)] = "y"
	if err := reg.refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if v := wlan.Visibility(reg); v.String() != "y" {
		t.Fatalf("WLAN visibility = %s, want y once NET is on", v.String())
	}
}

func TestAllSortedIsDeterministic(t *testing.T) {
	reg, _ := newFixture()
	out := reg.AllSorted()
	if len(out) != 2 || out[0].Name != "NET" || out[1].Name != "WLAN" {
		t.Fatalf("AllSorted order = %v, want [NET WLAN]", namesOf(out))
	}
}

func namesOf(syms []*Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

func TestSetStringRefreshesCache(t *testing.T) {
	reg, _ := newFixture()
	net, _ := reg.Lookup("NET")

	if _, err := reg.SetString(net.Handle, "y"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if net.Value != "y" {
		t.Fatalf("Symbol.Value = %q after SetString, want y", net.Value)
	}
}

func TestSetStringWrapsBridgeError(t *testing.T) {
	reg, fb := newFixture()
	net, _ := reg.Lookup("NET")
	fb.setErr = errBoom

	_, err := reg.SetString(net.Handle, "y")
	if _, ok := err.(*errs.BridgeError); !ok {
		t.Fatalf("got %T, want *errs.BridgeError", err)
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
