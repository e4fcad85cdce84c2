// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package registry

import (
	"github.com/google/uuid"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
)

// State is a symbol's position in the value-tracker state machine (spec
// 4.4): Unset -> Implicit -> Explicit.
type State int

const (
	Unset State = iota
	Implicit
	Explicit
)

func (s State) String() string {
	switch s {
	case Implicit:
		return "implicit"
	case Explicit:
		return "explicit"
	default:
		return "unset"
	}
}

// Event is one append-only entry in a symbol's assignment history.
type Event struct {
	ID       string
	Symbol   expr.Handle
	Value    string
	Origin   errs.Origin
	Explicit bool
}

// Tracker is the append-only per-symbol assignment log (spec section 3,
// "Value record"). Only the validator writes to it; readers (satisfier,
// script introspection, diagnostics) only ever read.
type Tracker struct {
	events map[expr.Handle][]Event
	state  map[expr.Handle]State
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		events: map[expr.Handle][]Event{},
		state:  map[expr.Handle]State{},
	}
}

// State returns h's current tracker state (Unset if never recorded).
func (t *Tracker) State(h expr.Handle) State {
	return t.state[h]
}

// History returns every recorded event for h, oldest first.
func (t *Tracker) History(h expr.Handle) []Event {
	return t.events[h]
}

// LastExplicit returns the most recent explicit event for h, if any.
func (t *Tracker) LastExplicit(h expr.Handle) (Event, bool) {
	events := t.events[h]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Explicit {
			return events[i], true
		}
	}
	return Event{}, false
}

// Record applies the state-machine transitions from spec 4.4:
//
//	Unset     -> Implicit  on any implicit write
//	Implicit  -> Implicit  on any further implicit write
//	Implicit  -> Explicit  on an explicit set
//	Explicit  -> Explicit  only if the new value equals the recorded one,
//	                       otherwise ConflictingAssignment.
//
// A duplicate explicit assignment of the *same* value is accepted (the
// caller may still want to surface it as a warning; Record reports this
// via the returned bool).
func (t *Tracker) Record(symbolName string, h expr.Handle, value string, origin errs.Origin, explicit bool) (duplicate bool, err error) {
	cur := t.state[h]

	if cur == Explicit && explicit {
		last, ok := t.LastExplicit(h)
		if ok && last.Value != value {
			return false, &errs.ConflictingAssignment{
				Symbol: symbolName,
				First:  last.Origin,
				Second: origin,
			}
		}
		duplicate = ok && last.Value == value
	}

	ev := Event{
		ID:       uuid.NewString(),
		Symbol:   h,
		Value:    value,
		Origin:   origin,
		Explicit: explicit,
	}
	t.events[h] = append(t.events[h], ev)

	switch {
	case explicit:
		t.state[h] = Explicit
	case cur == Unset:
		t.state[h] = Implicit
	default:
		// Implicit -> Implicit, or Explicit stays Explicit for an implicit
		// write that doesn't pin (e.g. unchecked merge/defconfig load, spec
		// 4.4 step 7): leave state untouched.
		if cur == Unset {
			t.state[h] = Implicit
		}
	}

	return duplicate, nil
}
