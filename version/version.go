// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package version wraps Masterminds/semver to give the scripted dialect a
// `ver("5.6")` constructor and `kernel_version >= ver(...)` comparisons
// (spec section 4.6), and to gate the native bridge's minimum supported
// kernel release (spec section 4.1: kernel version >= 4.2).
package version

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"autokernel.sh/internal/errs"
)

// Minimum is the oldest kernel release the bridge supports.
var Minimum = semver.MustParse("4.2.0")

// Version wraps a parsed kernel release, exposing ordering operators to
// the scripted dialect.
type Version struct {
	v *semver.Version
}

// kernelVersionRe extracts a dotted x.y[.z] prefix from strings like
// "5.19.0-generic" as reported by `uname -r` or the kernel Makefile's
// VERSION/PATCHLEVEL/SUBLEVEL variables.
var kernelVersionRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// Parse parses a version string, tolerating a bare "5.6" or a kernel
// release string like "5.19.0-91-generic" (only the leading dotted triple
// is significant).
func Parse(s string) (Version, error) {
	m := kernelVersionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("cannot parse kernel version from %q", s)
	}
	norm := m[1]
	if m[2] != "" {
		norm += "." + m[2]
	} else {
		norm += ".0"
	}
	if m[3] != "" {
		norm += "." + m[3]
	} else {
		norm += ".0"
	}
	v, err := semver.NewVersion(norm)
	if err != nil {
		return Version{}, err
	}
	return Version{v: v}, nil
}

// MustParse is Parse, panicking on error; for version literals fixed in the
// Go source. The scripted dialect's `ver("5.6")` builtin calls Parse.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	if v.v == nil {
		return "0.0.0"
	}
	return v.v.String()
}

func (v Version) Compare(o Version) int {
	if v.v == nil || o.v == nil {
		return 0
	}
	return v.v.Compare(o.v)
}

func (v Version) LessThan(o Version) bool         { return v.Compare(o) < 0 }
func (v Version) LessOrEqual(o Version) bool      { return v.Compare(o) <= 0 }
func (v Version) GreaterThan(o Version) bool      { return v.Compare(o) > 0 }
func (v Version) GreaterOrEqual(o Version) bool   { return v.Compare(o) >= 0 }
func (v Version) Equal(o Version) bool            { return v.Compare(o) == 0 }

// makefileVersionVar matches the top-level kernel Makefile's leading
// `VERSION = 5`, `PATCHLEVEL = 19`, `SUBLEVEL = 0` assignments.
var makefileVersionVar = regexp.MustCompile(`^(VERSION|PATCHLEVEL|SUBLEVEL)\s*=\s*(\d+)\s*$`)

// DetectKernelDir reads the VERSION/PATCHLEVEL/SUBLEVEL assignments from
// kernelDir's top-level Makefile, the same fields the kernel's own build
// system uses to stamp `uname -r`.
func DetectKernelDir(kernelDir string) (Version, error) {
	f, err := os.Open(filepath.Join(kernelDir, "Makefile"))
	if err != nil {
		return Version{}, err
	}
	defer f.Close()

	parts := map[string]string{"VERSION": "0", "PATCHLEVEL": "0", "SUBLEVEL": "0"}

	sc := bufio.NewScanner(f)
	for sc.Scan() && (parts["VERSION"] == "0" || parts["PATCHLEVEL"] == "0" || parts["SUBLEVEL"] == "0") {
		line := strings.TrimSpace(sc.Text())
		if m := makefileVersionVar.FindStringSubmatch(line); m != nil {
			parts[m[1]] = m[2]
		}
	}

	return Parse(fmt.Sprintf("%s.%s.%s", parts["VERSION"], parts["PATCHLEVEL"], parts["SUBLEVEL"]))
}

// CheckSupported returns an *errs.UnsupportedKernel if kernelVersion
// predates Minimum.
func CheckSupported(kernelVersion string) error {
	kv, err := Parse(kernelVersion)
	if err != nil {
		return &errs.BridgeError{Op: "parse kernel version", Err: err}
	}
	min := Version{v: Minimum}
	if kv.LessThan(min) {
		return &errs.UnsupportedKernel{Version: kv.String(), Minimum: min.String()}
	}
	return nil
}
