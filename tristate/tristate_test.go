// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package tristate

import "testing"

func TestOrdering(t *testing.T) {
	if !(No < Mod && Mod < Yes) {
		t.Fatalf("expected n < m < y, got n=%d m=%d y=%d", No, Mod, Yes)
	}
}

func TestAndOr(t *testing.T) {
	cases := []struct {
		a, b     Value
		wantAnd  Value
		wantOr   Value
	}{
		{No, Yes, No, Yes},
		{Mod, Yes, Mod, Yes},
		{No, No, No, No},
		{Yes, Yes, Yes, Yes},
	}

	for _, c := range cases {
		if got := And(c.a, c.b); got != c.wantAnd {
			t.Errorf("And(%v,%v) = %v, want %v", c.a, c.b, got, c.wantAnd)
		}
		if got := Or(c.a, c.b); got != c.wantOr {
			t.Errorf("Or(%v,%v) = %v, want %v", c.a, c.b, got, c.wantOr)
		}
	}
}

func TestNot(t *testing.T) {
	if Not(No) != Yes {
		t.Fatalf("Not(n) should be y")
	}
	if Not(Yes) != No {
		t.Fatalf("Not(y) should be n")
	}
	if Not(Mod) != Mod {
		t.Fatalf("Not(m) should be m")
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"n", "m", "y"} {
		v, ok := Parse(s)
		if !ok {
			t.Fatalf("Parse(%q) failed", s)
		}
		if v.String() != s {
			t.Fatalf("round-trip mismatch for %q: got %q", s, v.String())
		}
	}

	if _, ok := Parse("maybe"); ok {
		t.Fatalf("Parse should reject invalid spellings")
	}
}
