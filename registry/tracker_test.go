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

func TestTrackerUnsetToImplicitToExplicit(t *testing.T) {
	tr := NewTracker()
	h := expr.Handle(1)

	if tr.State(h) != Unset {
		t.Fatalf("fresh tracker state = %s, want unset", tr.State(h))
	}

	if _, err := tr.Record("NET", h, "y", errs.Origin{File: "a.akc"}, false); err != nil {
		t.Fatalf("implicit Record: %v", err)
	}
	if tr.State(h) != Implicit {
		t.Fatalf("state after implicit write = %s, want implicit", tr.State(h))
	}

	if _, err := tr.Record("NET", h, "y", errs.Origin{File: "a.akc"}, true); err != nil {
		t.Fatalf("explicit Record: %v", err)
	}
	if tr.State(h) != Explicit {
		t.Fatalf("state after explicit write = %s, want explicit", tr.State(h))
	}
}

func TestTrackerDuplicateExplicitSameValueIsAccepted(t *testing.T) {
	tr := NewTracker()
	h := expr.Handle(1)
	origin := errs.Origin{File: "a.akc", Line: 3}

	if _, err := tr.Record("NET", h, "y", origin, true); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	dup, err := tr.Record("NET", h, "y", origin, true)
	if err != nil {
		t.Fatalf("duplicate same-value Record should not error: %v", err)
	}
	if !dup {
		t.Fatalf("Record should report duplicate=true for a repeated identical explicit value")
	}
}

func TestTrackerConflictingExplicitValues(t *testing.T) {
	tr := NewTracker()
	h := expr.Handle(1)

	if _, err := tr.Record("NET", h, "y", errs.Origin{File: "a.akc", Line: 1}, true); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	_, err := tr.Record("NET", h, "n", errs.Origin{File: "b.akc", Line: 2}, true)
	ca, ok := err.(*errs.ConflictingAssignment)
	if !ok {
		t.Fatalf("got %T, want *errs.ConflictingAssignment", err)
	}
	if ca.First.File != "a.akc" || ca.Second.File != "b.akc" {
		t.Fatalf("ConflictingAssignment origins = %+v / %+v", ca.First, ca.Second)
	}
}

func TestTrackerHistoryOrdersOldestFirst(t *testing.T) {
	tr := NewTracker()
	h := expr.Handle(1)

	tr.Record("NET", h, "n", errs.Origin{}, false)
	tr.Record("NET", h, "y", errs.Origin{}, false)

	hist := tr.History(h)
	if len(hist) != 2 || hist[0].Value != "n" || hist[1].Value != "y" {
		t.Fatalf("History = %+v, want [n y]", hist)
	}
}
