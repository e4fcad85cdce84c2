// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package tristate implements the Kconfig tristate lattice (n < m < y) used
// throughout symbol visibility, value and expression evaluation.
package tristate

import "fmt"

// Value is one point on the n/m/y lattice, ordered n < m < y.
type Value int

const (
	No Value = iota
	Mod
	Yes
)

// String renders the canonical Kconfig spelling of v.
func (v Value) String() string {
	switch v {
	case No:
		return "n"
	case Mod:
		return "m"
	case Yes:
		return "y"
	default:
		return fmt.Sprintf("tristate(%d)", int(v))
	}
}

// Parse reads the canonical spelling of a tristate value. Callers that only
// accept a subset (e.g. Boolean symbols reject "m") must check the result
// themselves; Parse accepts all three spellings.
func Parse(s string) (Value, bool) {
	switch s {
	case "n":
		return No, true
	case "m":
		return Mod, true
	case "y":
		return Yes, true
	default:
		return No, false
	}
}

// And implements Kconfig's `a && b` on the tristate lattice: min(a, b).
func And(a, b Value) Value {
	if a < b {
		return a
	}
	return b
}

// Or implements Kconfig's `a || b` on the tristate lattice: max(a, b).
func Or(a, b Value) Value {
	if a > b {
		return a
	}
	return b
}

// Not implements Kconfig's `!a`: y - a on the 0/1/2 lattice.
func Not(a Value) Value {
	return Yes - a
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// following the n < m < y ordering.
func Compare(a, b Value) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Min returns the lesser of a and b.
func Min(a, b Value) Value {
	return And(a, b)
}

// Max returns the greater of a and b.
func Max(a, b Value) Value {
	return Or(a, b)
}
