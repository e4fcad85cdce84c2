// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autokernel.sh/internal/errs"
	"autokernel.sh/registry"
	"autokernel.sh/satisfier"
	"autokernel.sh/validator"
	"autokernel.sh/version"
)

// bridgeLoader is the slice of the native bridge the host needs for
// load_kconfig_unchecked: a raw, unvalidated `.config` merge (spec 4.6).
type bridgeLoader interface {
	LoadConfig(path string, strict bool) error
}

// Host ties the registry, validator and satisfier to one running script,
// plus the globals the scripted dialect exposes (spec 4.6: kernel_dir,
// kernel_version, kernel_env).
type Host struct {
	Reg       *registry.Registry
	Validator *validator.Validator
	Satisfier *satisfier.Satisfier
	Bridge    bridgeLoader

	KernelDir     string
	KernelVersion version.Version
	KernelEnv     map[string]string

	// Extensions maps a file extension (without the dot) to a dialect name
	// ("flat" or "scripted"), mirroring internal/config.Config.Script.
	Extensions map[string]string
}

// NewHost builds a Host from its already-constructed evaluator components.
func NewHost(reg *registry.Registry, v *validator.Validator, s *satisfier.Satisfier, b bridgeLoader, kernelDir string, kv version.Version, env map[string]string, extensions map[string]string) *Host {
	return &Host{
		Reg:           reg,
		Validator:     v,
		Satisfier:     s,
		Bridge:        b,
		KernelDir:     kernelDir,
		KernelVersion: kv,
		KernelEnv:     env,
		Extensions:    extensions,
	}
}

// DialectFor resolves path's extension against Extensions.
func (h *Host) DialectFor(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	dialect, ok := h.Extensions[ext]
	if !ok {
		return "", fmt.Errorf("no script dialect configured for extension %q", ext)
	}
	return dialect, nil
}

// RunFile reads path, resolves its dialect from its extension, and
// executes it.
func (h *Host) RunFile(path string) error {
	dialect, err := h.DialectFor(path)
	if err != nil {
		return err
	}
	return h.RunFileAs(path, dialect)
}

// RunFileAs executes path under an explicitly chosen dialect, bypassing
// extension dispatch (used by RunFile once it has resolved the dialect, and
// by callers that want to force a dialect regardless of the file's name).
func (h *Host) RunFileAs(path, dialect string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}

	switch dialect {
	case "flat":
		return h.runFlat(path, data)
	case "scripted":
		return h.runScripted(path, data)
	default:
		return fmt.Errorf("%s: unknown script dialect %q", path, dialect)
	}
}

func (h *Host) runScripted(path string, data []byte) error {
	stmts, err := parseProgram(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	in := &interp{host: h, file: path}
	return in.Run(stmts)
}

// loadKconfigChecked implements load_kconfig(path): every line of path is
// routed through the validator, exactly like running path as a top-level
// flat-dialect script.
func (h *Host) loadKconfigChecked(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load_kconfig: %w", err)
	}
	return h.runFlat(path, data)
}

// loadKconfigUnchecked implements load_kconfig_unchecked(path): delegates
// straight to the bridge's own loader, with no pinning and no validation —
// used for merging a defconfig wholesale (spec 4.6).
func (h *Host) loadKconfigUnchecked(path string) error {
	if h.Bridge == nil {
		return &errs.BridgeError{Op: "load_kconfig_unchecked", Err: fmt.Errorf("no bridge attached to host")}
	}
	if err := h.Bridge.LoadConfig(path, false); err != nil {
		return &errs.BridgeError{Op: "load_kconfig_unchecked " + path, Err: err}
	}
	return h.Reg.Recalc()
}

// satisfyAndApply computes a satisfier plan for (symbolName, desired) and
// applies every step through the validator in order, so each prerequisite
// is itself checked and pinned (spec testable property 5: the satisfier's
// ordered assignments are legal one at a time).
func (h *Host) satisfyAndApply(symbolName, desired string, recursive bool, origin errs.Origin) error {
	plan, err := h.Satisfier.Satisfy(symbolName, desired, recursive)
	if err != nil {
		return err
	}
	for _, a := range plan {
		if err := h.Validator.Set(a.Symbol, a.Value, origin, validator.Explicit); err != nil {
			return err
		}
	}
	return nil
}
