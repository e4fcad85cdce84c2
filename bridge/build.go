// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build linux

package bridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"autokernel.sh/exec"
	"autokernel.sh/version"
)

// BuildOptions configures Build.
type BuildOptions struct {
	KernelDir string // root of the kernel tree, containing scripts/kconfig
	CacheDir  string // where compiled .so files are cached, keyed by content hash
	CC        string // C compiler, defaults to "cc"
	Logger    *logrus.Logger
	Ctx       context.Context
}

// kconfigSources lists the kernel's own scripts/kconfig translation units
// that get compiled alongside bridge.c, relative to KernelDir. Build
// compiles whichever of these files exist on disk and skips the missing
// ones; no alternate file names are tried.
var kconfigSources = []string{
	"scripts/kconfig/zconf.tab.c",
	"scripts/kconfig/symbol.c",
	"scripts/kconfig/menu.c",
	"scripts/kconfig/expr.c",
	"scripts/kconfig/confdata.c",
	"scripts/kconfig/preprocess.c",
}

// Build compiles bridge.c together with the kernel tree's own Kconfig
// sources into a shared library, caching the result by a sha256 over the
// compiler name plus the path and contents of bridge.c and every input
// source file, so that repeated runs against an unchanged kernel tree never
// recompile. The other compiler arguments are not part of the cache key.
func Build(opts BuildOptions) (string, error) {
	if opts.CC == "" {
		opts.CC = "cc"
	}
	if opts.CacheDir == "" {
		return "", errors.New("bridge.Build: CacheDir is required")
	}

	objs, err := discoverSources(opts.KernelDir)
	if err != nil {
		return "", err
	}

	digest, err := hashInputs(opts.CC, objs)
	if err != nil {
		return "", err
	}

	soPath := filepath.Join(opts.CacheDir, "bridge-"+digest+".so")
	if fi, err := os.Stat(soPath); err == nil {
		if opts.Logger != nil {
			opts.Logger.Debugf("bridge: reusing cached %s (%s)", soPath, humanize.Bytes(uint64(fi.Size())))
		}
		return soPath, nil
	}

	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating bridge cache directory")
	}

	std := cStandardFor(opts.KernelDir)

	args := []string{
		"-shared", "-fPIC",
		"-std=" + std,
		"-w", // the copied kernel sources emit warnings this tool does not own
		"-I", filepath.Join(opts.KernelDir, "scripts/kconfig"),
		// Every translation unit, including the kernel's own, resolves
		// getenv through bridge_getenv instead of libc's, so the loaded
		// Kconfig sources only ever see the isolated snapshot bridge_init
		// installs.
		"-Dgetenv=bridge_getenv",
		"-o", soPath,
		bridgeSourcePath(),
	}
	args = append(args, objs...)

	executable, err := exec.NewExecutable(opts.CC, nil, args...)
	if err != nil {
		return "", errors.Wrap(err, "preparing compiler invocation")
	}

	eopts := []exec.ExecOption{exec.WithContext(opts.Ctx)}
	if opts.Logger != nil {
		eopts = append(eopts, exec.WithLogger(opts.Logger))
	}

	process, err := exec.NewProcessFromExecutable(executable, eopts...)
	if err != nil {
		return "", errors.Wrap(err, "preparing compiler process")
	}

	start := time.Now()
	if err := process.StartAndWait(); err != nil {
		os.Remove(soPath)
		return "", &bridgeBuildError{cc: opts.CC, cause: err}
	}

	if opts.Logger != nil {
		if fi, statErr := os.Stat(soPath); statErr == nil {
			opts.Logger.Infof("bridge: built %s (%s) in %s", soPath,
				humanize.Bytes(uint64(fi.Size())), time.Since(start).Round(time.Millisecond))
		}
	}

	return soPath, nil
}

type bridgeBuildError struct {
	cc    string
	cause error
}

func (e *bridgeBuildError) Error() string {
	return fmt.Sprintf("compiling native bridge with %s: %v", e.cc, e.cause)
}
func (e *bridgeBuildError) Unwrap() error { return e.cause }

// discoverSources resolves kconfigSources against kernelDir, skipping any
// that don't exist on disk (older or newer kernel releases reshuffle this
// file list) and failing only if none at all are found — the bridge needs
// at least the symbol table and expression evaluator to do anything.
func discoverSources(kernelDir string) ([]string, error) {
	var found []string
	for _, rel := range kconfigSources {
		p := filepath.Join(kernelDir, rel)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil, errors.Errorf("no scripts/kconfig sources found under %s", kernelDir)
	}
	return found, nil
}

// cStandardFor picks gnu89 for kernel trees old enough to rely on
// pre-C99 Kconfig sources (anything below 4.0), and gnu11 otherwise. The
// kernel's own top-level Makefile historically pinned -std=gnu89 for the
// same reason; this mirrors that choice rather than always building with
// the newest standard and risking a sources that predate it.
func cStandardFor(kernelDir string) string {
	v, err := version.DetectKernelDir(kernelDir)
	if err != nil {
		return "gnu11"
	}
	if v.LessThan(version.MustParse("4.0.0")) {
		return "gnu89"
	}
	return "gnu11"
}

// hashInputs computes a stable digest over the compiler binary name, the
// bridge.c source, and the content of every discovered kernel source, so
// Build's cache key changes whenever anything that affects the compiled
// output changes.
func hashInputs(cc string, sources []string) (string, error) {
	h := sha256.New()
	fmt.Fprintln(h, cc)

	all := append([]string{bridgeSourcePath()}, sources...)
	sort.Strings(all)

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", p)
		}
		h.Write([]byte(p))
		h.Write(data)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func bridgeSourcePath() string {
	// Resolved relative to this package's own source directory at build
	// time via runtime caller information would be fragile under a
	// vendored GOPATH; instead the caller is expected to run Build with a
	// working directory inside the module checkout, where bridge.c sits
	// alongside this file.
	return filepath.Join("bridge", "bridge.c")
}

// InterceptorScript renders the shell script this package installs in
// place of the kernel tree's scripts/kconfig/conf, so that any kernel
// Makefile target that shells out to `conf` (e.g. `make olddefconfig`)
// transparently goes through autokernel's own recalculation path instead
// of spawning a second, divergent Kconfig evaluator process.
func InterceptorScript(realBridgeBin string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# Installed by autokernel; forwards to the native bridge instead of\n")
	b.WriteString("# invoking the kernel's own scripts/kconfig/conf binary, so that both\n")
	b.WriteString("# tools observe the same symbol state.\n")
	fmt.Fprintf(&b, "exec %q \"$@\"\n", realBridgeBin)
	return b.String()
}

// InstallInterceptor writes InterceptorScript over kernelDir's own
// scripts/kconfig/conf, after renaming the original aside so a caller can
// restore it later (spec section 3: the bridge must not leave the kernel
// tree unusable for direct `make menuconfig` use outside autokernel).
func InstallInterceptor(kernelDir, realBridgeBin string) error {
	confPath := filepath.Join(kernelDir, "scripts/kconfig/conf")
	origPath := confPath + ".autokernel-orig"

	if _, err := os.Stat(origPath); os.IsNotExist(err) {
		if _, err := os.Stat(confPath); err == nil {
			if err := os.Rename(confPath, origPath); err != nil {
				return errors.Wrap(err, "preserving original conf binary")
			}
		}
	}

	script := InterceptorScript(realBridgeBin)
	if err := os.WriteFile(confPath, []byte(script), 0o755); err != nil {
		return errors.Wrap(err, "installing conf interceptor")
	}
	return nil
}

// RestoreInterceptor undoes InstallInterceptor.
func RestoreInterceptor(kernelDir string) error {
	confPath := filepath.Join(kernelDir, "scripts/kconfig/conf")
	origPath := confPath + ".autokernel-orig"

	if _, err := os.Stat(origPath); err != nil {
		return nil
	}
	return os.Rename(origPath, confPath)
}
