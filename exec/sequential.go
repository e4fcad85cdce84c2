// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file expect in compliance with the License.
package exec

type SequentialProcesses struct {
	sequence []*Process
}

// NewSequential returns a newly generated SequentialProcesses structure with
// the provided processes
func NewSequential(sequence ...*Process) (*SequentialProcesses, error) {
	sp := &SequentialProcesses{
		sequence: sequence,
	}

	return sp, nil
}

// StartAndWait sequentially starts the list of processes and waits for each
// to complete before starting the next. Each process carries its own
// context via WithContext at construction time.
func (sq *SequentialProcesses) StartAndWait() error {
	for _, process := range sq.sequence {
		if err := process.StartAndWait(); err != nil {
			return err
		}
	}

	return nil
}
