// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	c, err := NewDefaultConfig()
	if err != nil {
		t.Fatalf("NewDefaultConfig failed: %v", err)
	}

	if c.CC != "cc" {
		t.Errorf("expected default cc = cc, got %q", c.CC)
	}
	if c.Log.Level != "info" {
		t.Errorf("expected default log.level = info, got %q", c.Log.Level)
	}
	if !c.Satisfier.Recursive {
		t.Errorf("expected default satisfier.recursive = true")
	}
	if c.Script.Extensions["txt"] != "flat" {
		t.Errorf("expected txt -> flat dialect mapping")
	}
}

func TestManagerFeedsFromTomlFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")

	data := "cc = \"clang\"\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	m, err := NewManager(WithFile(file))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if m.Config.CC != "clang" {
		t.Errorf("expected cc = clang, got %q", m.Config.CC)
	}
	if m.Config.Log.Level != "debug" {
		t.Errorf("expected log.level = debug, got %q", m.Config.Log.Level)
	}
	// Fields not present in the file keep their struct-tag default.
	if m.Config.Log.Type != "fancy" {
		t.Errorf("expected log.type to retain default fancy, got %q", m.Config.Log.Type)
	}
}

func TestFindConfigDefault(t *testing.T) {
	if got := Default("log.level"); got != "info" {
		t.Errorf("Default(log.level) = %q, want info", got)
	}
}

func TestAllowedValues(t *testing.T) {
	vals := AllowedValues("log.type")
	if len(vals) == 0 {
		t.Fatal("expected allowed values for log.type")
	}
}
