// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseTolerantOfReleaseSuffix(t *testing.T) {
	v, err := Parse("5.19.0-91-generic")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.String() != "5.19.0" {
		t.Fatalf("String() = %q, want 5.19.0", v.String())
	}
}

func TestParseFillsMissingComponents(t *testing.T) {
	v, err := Parse("5.6")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.String() != "5.6.0" {
		t.Fatalf("String() = %q, want 5.6.0", v.String())
	}
}

func TestCompareOperators(t *testing.T) {
	older := MustParse("4.19")
	newer := MustParse("5.6")

	if !older.LessThan(newer) {
		t.Fatalf("4.19 should be LessThan 5.6")
	}
	if !newer.GreaterThan(older) {
		t.Fatalf("5.6 should be GreaterThan 4.19")
	}
	if !older.Equal(MustParse("4.19.0")) {
		t.Fatalf("4.19 should Equal 4.19.0")
	}
	if !older.LessOrEqual(older) {
		t.Fatalf("4.19 should be LessOrEqual itself")
	}
}

func TestCheckSupportedRejectsOldKernels(t *testing.T) {
	if err := CheckSupported("3.16.0"); err == nil {
		t.Fatalf("CheckSupported(3.16.0) should reject, minimum is 4.2.0")
	}
	if err := CheckSupported("5.4.0"); err != nil {
		t.Fatalf("CheckSupported(5.4.0): %v", err)
	}
	if err := CheckSupported("4.2.0"); err != nil {
		t.Fatalf("CheckSupported(4.2.0) is exactly the minimum: %v", err)
	}
}

func TestDetectKernelDirReadsMakefile(t *testing.T) {
	dir := t.TempDir()
	makefile := "# SPDX\nVERSION = 6\nPATCHLEVEL = 1\nSUBLEVEL = 0\nNAME = Curry Ramen\n"
	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte(makefile), 0o644); err != nil {
		t.Fatalf("write Makefile: %v", err)
	}

	v, err := DetectKernelDir(dir)
	if err != nil {
		t.Fatalf("DetectKernelDir: %v", err)
	}
	if v.String() != "6.1.0" {
		t.Fatalf("DetectKernelDir version = %q, want 6.1.0", v.String())
	}
}
