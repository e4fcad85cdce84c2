// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package script

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"autokernel.sh/internal/errs"
	"autokernel.sh/validator"
)

// Flat-dialect line grammar (spec 4.6): CONFIG_<NAME>=<value> or the
// kernel's own "not set" spelling. Mirrors kconfig package's .config
// grammar, but kept line-addressed here (rather than collapsed into a
// map) since every statement needs its own source line for diagnostics.
var (
	flatSet    = regexp.MustCompile(`^CONFIG_([A-Za-z0-9_]+)=(.*)$`)
	flatUnset  = regexp.MustCompile(`^# CONFIG_([A-Za-z0-9_]+) is not set$`)
)

// runFlat executes path as a flat-dialect script: one statement per line,
// `#` starts a comment (except for the "is not set" spelling, which is
// itself a statement), blank lines ignored, every assignment routed
// through the validator.
func (h *Host) runFlat(path string, data []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		if m := flatUnset.FindStringSubmatch(text); m != nil {
			if err := h.setFlat(path, line, m[1], "n"); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(text, "#") {
			continue
		}

		if m := flatSet.FindStringSubmatch(text); m != nil {
			if err := h.setFlat(path, line, m[1], unquote(m[2])); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("%s:%d: not a valid flat-dialect statement: %q", path, line, text)
	}
	return sc.Err()
}

func (h *Host) setFlat(path string, line int, name, rawValue string) error {
	origin := errs.Origin{File: path, Line: line, WasDirect: true}
	return h.Validator.Set(name, rawValue, origin, validator.Explicit)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
