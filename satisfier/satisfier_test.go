// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package satisfier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/registry"
)

type fakeBridge struct {
	natives []registry.NativeSymbol
	values  map[expr.Handle]string
}

func (f *fakeBridge) AllSymbols() []registry.NativeSymbol { return f.natives }
func (f *fakeBridge) GetString(h expr.Handle) string       { return f.values[h] }
func (f *fakeBridge) SetString(h expr.Handle, v string) (bool, error) {
	f.values[h] = v
	return true, nil
}
func (f *fakeBridge) Recalc() error { return nil }

func prompted() []registry.Property {
	return []registry.Property{{Kind: registry.PropPrompt}}
}

// chain builds NET <- NETDEVICES <- WLAN <- WLAN_VENDOR_REALTEK, the same
// shape spec 4.5's worked examples walk through.
func chain(t *testing.T) *Satisfier {
	t.Helper()

	const (
		hNet = expr.Handle(iota + 1)
		hNetdevices
		hWlan
		hWlanRealtek
	)

	fb := &fakeBridge{values: map[expr.Handle]string{}}
	fb.natives = []registry.NativeSymbol{
		{Handle: hNet, Name: "NET", Type: expr.Boolean, Properties: prompted()},
		{Handle: hNetdevices, Name: "NETDEVICES", Type: expr.Boolean, Properties: prompted(),
			DirectDep: &expr.Symbol{H: hNet}},
		{Handle: hWlan, Name: "WLAN", Type: expr.Boolean, Properties: prompted(),
			DirectDep: &expr.Symbol{H: hNetdevices}},
		{Handle: hWlanRealtek, Name: "WLAN_VENDOR_REALTEK", Type: expr.Boolean, Properties: prompted(),
			DirectDep: &expr.Symbol{H: hWlan}},
	}
	for _, n := range fb.natives {
		fb.values[n.Handle] = "n"
	}

	reg, err := registry.New(fb)
	require.NoError(t, err)
	return New(reg)
}

func TestSatisfyRecursiveOrdersPrerequisitesBeforeTarget(t *testing.T) {
	s := chain(t)

	plan, err := s.Satisfy("WLAN_VENDOR_REALTEK", "y", true)
	require.NoError(t, err)

	want := []string{"NET", "NETDEVICES", "WLAN", "WLAN_VENDOR_REALTEK"}
	require.Len(t, plan, len(want))
	for i, name := range want {
		assert.Equal(t, name, plan[i].Symbol, "full plan: %+v", plan)
		assert.Equal(t, "y", plan[i].Value)
	}
}

func TestSatisfyNonRecursiveOnlyEmitsOneLevelUp(t *testing.T) {
	s := chain(t)

	plan, err := s.Satisfy("WLAN", "y", false)
	require.NoError(t, err)

	// Only NETDEVICES (the direct dependency) plus the target itself; NET
	// is two levels up and must not appear without recursion.
	want := []string{"NETDEVICES", "WLAN"}
	require.Len(t, plan, len(want))
	for i, name := range want {
		assert.Equal(t, name, plan[i].Symbol)
	}
}

func TestSatisfyAlreadyVisibleProducesNoPrerequisites(t *testing.T) {
	s := chain(t)
	s.reg.SetString(expr.Handle(1), "y") // NET
	s.reg.SetString(expr.Handle(2), "y") // NETDEVICES
	s.reg.Recalc()

	plan, err := s.Satisfy("WLAN", "y", true)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "WLAN", plan[0].Symbol)
}

func TestSatisfyRejectsNoTarget(t *testing.T) {
	s := chain(t)
	_, err := s.Satisfy("NET", "n", true)
	assert.IsType(t, &errs.InvalidValue{}, err, "n is not a satisfiable target")
}

func TestSatisfyUnknownSymbol(t *testing.T) {
	s := chain(t)
	_, err := s.Satisfy("NOPE", "y", true)
	assert.IsType(t, &errs.UnknownSymbol{}, err)
}

func TestSatisfyDetectsCycles(t *testing.T) {
	const (
		hA = expr.Handle(iota + 1)
		hB
	)
	fb := &fakeBridge{values: map[expr.Handle]string{hA: "n", hB: "n"}}
	fb.natives = []registry.NativeSymbol{
		{Handle: hA, Name: "A", Type: expr.Boolean, Properties: prompted(), DirectDep: &expr.Symbol{H: hB}},
		{Handle: hB, Name: "B", Type: expr.Boolean, Properties: prompted(), DirectDep: &expr.Symbol{H: hA}},
	}
	reg, err := registry.New(fb)
	require.NoError(t, err)
	s := New(reg)

	_, err = s.Satisfy("A", "y", true)
	assert.IsType(t, &errs.CycleDetected{}, err)
}

func TestSatisfyDisjunctionPicksCheapestBranch(t *testing.T) {
	// TARGET depends on (CHEAP || (EXPENSIVE && EXTRA)): the right branch
	// touches two off symbols, the left branch touches one, so the
	// satisfier must prefer the left.
	const (
		hTarget = expr.Handle(iota + 1)
		hCheap
		hExpensive
		hExtra
	)
	fb := &fakeBridge{values: map[expr.Handle]string{
		hTarget: "n", hCheap: "n", hExpensive: "n", hExtra: "n",
	}}
	fb.natives = []registry.NativeSymbol{
		{Handle: hTarget, Name: "TARGET", Type: expr.Boolean, Properties: prompted(),
			DirectDep: &expr.Or{
				L: &expr.Symbol{H: hCheap},
				R: &expr.And{L: &expr.Symbol{H: hExpensive}, R: &expr.Symbol{H: hExtra}},
			}},
		{Handle: hCheap, Name: "CHEAP", Type: expr.Boolean, Properties: prompted()},
		{Handle: hExpensive, Name: "EXPENSIVE", Type: expr.Boolean, Properties: prompted()},
		{Handle: hExtra, Name: "EXTRA", Type: expr.Boolean, Properties: prompted()},
	}
	reg, err := registry.New(fb)
	require.NoError(t, err)
	s := New(reg)

	plan, err := s.Satisfy("TARGET", "y", true)
	require.NoError(t, err)

	for _, a := range plan {
		assert.NotContains(t, []string{"EXPENSIVE", "EXTRA"}, a.Symbol, "should have picked the cheaper CHEAP branch")
	}
	require.Len(t, plan, 2)
	assert.Equal(t, "CHEAP", plan[0].Symbol)
	assert.Equal(t, "TARGET", plan[1].Symbol)
}
