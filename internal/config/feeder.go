// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Feeder binds configuration data from some source (a file, the process
// environment, ...) onto a Config.
type Feeder interface {
	Feed(structure interface{}) error
	Write(structure interface{}) error
}

// TomlFeeder feeds and writes a Config using a TOML file, the format
// SPEC_FULL.md's ambient stack section designates for autokernel's config
// (in place of the teacher's YamlFeeder).
type TomlFeeder struct {
	File string
}

func (f TomlFeeder) Feed(structure interface{}) error {
	stat, err := os.Stat(f.File)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return pathError(err)
	}
	if stat.Size() == 0 {
		return nil
	}

	if _, err := toml.DecodeFile(f.File, structure); err != nil {
		return fmt.Errorf("cannot feed config file: %v", err)
	}

	return nil
}

func (f TomlFeeder) Write(structure interface{}) error {
	if len(f.File) == 0 {
		return fmt.Errorf("filename for TOML config cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(f.File), 0o771); err != nil {
		return pathError(err)
	}

	out, err := os.OpenFile(f.File, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not open file: %v", err)
	}
	defer out.Close()

	enc := toml.NewEncoder(out)
	return enc.Encode(structure)
}
