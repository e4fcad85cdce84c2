// SPDX-License-Identifier: BSD-3-Clause
//
// Authors: Alexander Jung <alex@unikraft.io>
//
// Copyright (c) 2022, Unikraft UG.  All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the names of its
//    contributors may be used to endorse or promote products derived from
//    this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package config

import (
	"fmt"
)

// Manager holds the configuration feeders and the resulting Config. There
// should be at least one instance of it per process.
type Manager struct {
	Config     *Config
	ConfigFile string
	Feeders    []Feeder
}

type ManagerOption func(cm *Manager) error

func WithFeeder(feeder Feeder) ManagerOption {
	return func(cm *Manager) error {
		cm.AddFeeder(feeder)
		return nil
	}
}

func WithFile(file string) ManagerOption {
	return func(cm *Manager) error {
		cm.ConfigFile = file
		return WithFeeder(TomlFeeder{File: file})(cm)
	}
}

func WithDefaultConfigFile() ManagerOption {
	return func(cm *Manager) error {
		return WithFile(DefaultConfigFile())(cm)
	}
}

// NewManager seeds a Config from its struct-tag defaults, then applies
// opts (typically a file feeder) on top.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	cm := &Manager{}

	c, err := NewDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("could not seed default values for config: %s", err)
	}

	cm.Config = c

	for _, o := range opts {
		if err := o(cm); err != nil {
			return nil, err
		}
	}

	// Feed the config; pass the manager back anyway if this fails, since
	// its defaults are still usable.
	if err := cm.Feed(); err != nil {
		return cm, err
	}

	return cm, nil
}

// AddFeeder adds a feeder that provides configuration data.
func (cm *Manager) AddFeeder(f Feeder) *Manager {
	cm.Feeders = append(cm.Feeders, f)
	return cm
}

// Feed binds configuration data from added feeders onto Config, in order,
// later feeders overriding earlier ones.
func (cm *Manager) Feed() error {
	for _, f := range cm.Feeders {
		if err := f.Feed(cm.Config); err != nil {
			return fmt.Errorf("config: failed to feed struct; err %v", err)
		}
	}

	return nil
}

// Write persists Config back out through every feeder.
func (cm *Manager) Write() error {
	for _, f := range cm.Feeders {
		if err := f.Write(cm.Config); err != nil {
			return err
		}
	}

	return nil
}
