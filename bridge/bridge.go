// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build linux

// Package bridge is the native bridge (spec section 3 / 4.1): it compiles
// the target kernel tree's own scripts/kconfig sources into a throwaway
// shared library, loads it with dlopen, parses the tree's root Kconfig
// file through the kernel's own grammar, and exposes the resulting symbol
// table as a registry.Bridge. No Kconfig semantics are reimplemented here;
// this package is glue between a loaded .so and the rest of autokernel.
package bridge

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

struct bridge_kv {
	char *key;
	char *value;
};

typedef const char *(*fn_get_string)(unsigned int);
typedef int         (*fn_set_string)(unsigned int, const char *);
typedef int         (*fn_recalc)(void);
typedef int         (*fn_parse_kconfig)(const char *);
typedef int         (*fn_load_config)(const char *, int);
typedef char       *(*fn_dump_symbols)(void);
typedef void        (*fn_free_dump)(char *);
typedef void        (*fn_init)(struct bridge_kv *, int);

static void call_init(void *fn, struct bridge_kv *kvs, int n) {
	((fn_init)fn)(kvs, n);
}

static void *bridge_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void *bridge_dlsym(void *handle, const char *name) {
	return dlsym(handle, name);
}

static const char *call_get_string(void *fn, unsigned int h) {
	return ((fn_get_string)fn)(h);
}

static int call_set_string(void *fn, unsigned int h, const char *v) {
	return ((fn_set_string)fn)(h, v);
}

static int call_recalc(void *fn) {
	return ((fn_recalc)fn)();
}

static int call_parse_kconfig(void *fn, const char *root) {
	return ((fn_parse_kconfig)fn)(root);
}

static int call_load_config(void *fn, const char *path, int strict) {
	return ((fn_load_config)fn)(path, strict);
}

static char *call_dump_symbols(void *fn) {
	return ((fn_dump_symbols)fn)();
}

static void call_free_dump(void *fn, char *p) {
	((fn_free_dump)fn)(p);
}
*/
import "C"

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/registry"
)

// requiredSymbols names every entry point build.go must confirm exists in
// the compiled shared library before Open hands it back to a caller.
var requiredSymbols = []string{
	"bridge_init",
	"bridge_parse_kconfig",
	"bridge_load_config",
	"bridge_recalc",
	"bridge_get_string",
	"bridge_set_string",
	"bridge_dump_symbols",
	"bridge_free_dump",
}

// Bridge loads one compiled kernel Kconfig shared library and exposes it as
// a registry.Bridge. The zero value is not usable; construct with Open.
type Bridge struct {
	handle unsafe.Pointer

	fnInit        unsafe.Pointer
	fnParse       unsafe.Pointer
	fnLoadConfig  unsafe.Pointer
	fnRecalc      unsafe.Pointer
	fnGetString   unsafe.Pointer
	fnSetString   unsafe.Pointer
	fnDumpSymbols unsafe.Pointer
	fnFreeDump    unsafe.Pointer

	nameToHandle map[string]expr.Handle
	nextHandle   expr.Handle
}

// Open dlopen(3)s a shared library built by Build (or pre-built by a caller
// following the same ABI) and resolves every entry point the bridge needs.
func Open(sharedLibPath string, env map[string]string) (*Bridge, error) {
	cpath := C.CString(sharedLibPath)
	defer C.free(unsafe.Pointer(cpath))

	h := C.bridge_dlopen(cpath)
	if h == nil {
		return nil, &errs.BridgeError{Op: "dlopen " + sharedLibPath, Err: errors.New("dlopen failed")}
	}

	b := &Bridge{handle: unsafe.Pointer(h), nameToHandle: map[string]expr.Handle{}}

	resolved := map[string]unsafe.Pointer{}
	for _, name := range requiredSymbols {
		cname := C.CString(name)
		sym := C.bridge_dlsym(h, cname)
		C.free(unsafe.Pointer(cname))
		if sym == nil {
			return nil, &errs.BridgeError{Op: "dlsym " + name, Err: errors.Errorf("symbol not found in %s", sharedLibPath)}
		}
		resolved[name] = unsafe.Pointer(sym)
	}

	b.fnInit = resolved["bridge_init"]
	b.fnParse = resolved["bridge_parse_kconfig"]
	b.fnLoadConfig = resolved["bridge_load_config"]
	b.fnRecalc = resolved["bridge_recalc"]
	b.fnGetString = resolved["bridge_get_string"]
	b.fnSetString = resolved["bridge_set_string"]
	b.fnDumpSymbols = resolved["bridge_dump_symbols"]
	b.fnFreeDump = resolved["bridge_free_dump"]

	b.initEnv(env)

	return b, nil
}

// initEnv snapshots env into the isolated getenv table bridge.c reads
// through, so the loaded Kconfig sources never see the host process's real
// environment (spec design notes: isolated getenv redirection). The
// backing array is allocated with C.malloc, not as Go-managed memory,
// because bridge_init retains the pointer for the lifetime of the bridge
// (cgo forbids handing C a pointer into Go memory that outlives the call).
func (b *Bridge) initEnv(env map[string]string) {
	n := len(env)
	if n == 0 {
		C.call_init(b.fnInit, nil, 0)
		return
	}

	arr := (*C.struct_bridge_kv)(C.malloc(C.size_t(n) * C.sizeof_struct_bridge_kv))
	slice := unsafe.Slice(arr, n)

	i := 0
	for k, v := range env {
		slice[i].key = C.CString(k)
		slice[i].value = C.CString(v)
		i++
	}

	C.call_init(b.fnInit, arr, C.int(n))
}

// ParseKconfig parses rootKconfig (a path to a tree's top-level Kconfig
// file) through the kernel's own grammar, populating the shared library's
// in-memory symbol table.
func (b *Bridge) ParseKconfig(rootKconfig string) error {
	cpath := C.CString(rootKconfig)
	defer C.free(unsafe.Pointer(cpath))

	if rc := C.call_parse_kconfig(b.fnParse, cpath); rc != 0 {
		return &errs.BridgeError{Op: "parse " + rootKconfig, Err: errors.Errorf("exit code %d", int(rc))}
	}
	return nil
}

// LoadConfig seeds the symbol table's explicit values from an existing
// `.config`-format file, optionally rejecting unknown symbols (strict).
func (b *Bridge) LoadConfig(path string, strict bool) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	strictFlag := C.int(0)
	if strict {
		strictFlag = 1
	}

	if rc := C.call_load_config(b.fnLoadConfig, cpath, strictFlag); rc != 0 {
		return &errs.BridgeError{Op: "load " + path, Err: errors.Errorf("exit code %d", int(rc))}
	}
	return nil
}

// Recalc implements registry.Bridge.
func (b *Bridge) Recalc() error {
	if rc := C.call_recalc(b.fnRecalc); rc != 0 {
		return errors.Errorf("recalc failed with code %d", int(rc))
	}
	return nil
}

// GetString implements registry.Bridge.
func (b *Bridge) GetString(h expr.Handle) string {
	cstr := C.call_get_string(b.fnGetString, C.uint(h))
	if cstr == nil {
		return ""
	}
	return C.GoString(cstr)
}

// SetString implements registry.Bridge.
func (b *Bridge) SetString(h expr.Handle, value string) (bool, error) {
	cval := C.CString(value)
	defer C.free(unsafe.Pointer(cval))

	rc := C.call_set_string(b.fnSetString, C.uint(h), cval)
	if rc < 0 {
		return false, errors.Errorf("set_string failed with code %d", int(rc))
	}
	return rc != 0, nil
}

// AllSymbols implements registry.Bridge. It asks the shared library for a
// full wire-format dump (see wire.go) and decodes it into NativeSymbols,
// assigning each distinct symbol name a stable Handle the first time it's
// seen.
func (b *Bridge) AllSymbols() []registry.NativeSymbol {
	cstr := C.call_dump_symbols(b.fnDumpSymbols)
	if cstr == nil {
		return nil
	}
	defer C.call_free_dump(b.fnFreeDump, cstr)

	data := C.GoString(cstr)
	return b.decodeDump(data)
}

func (b *Bridge) handleFor(name string) expr.Handle {
	if h, ok := b.nameToHandle[name]; ok {
		return h
	}
	b.nextHandle++
	b.nameToHandle[name] = b.nextHandle
	return b.nextHandle
}

// decodeDump parses the bridge's symbol dump. Each line holds
// tab-separated fields:
//
//	name \t type \t choice_of \t direct_dep \t reverse_dep \t implied \t range_lo \t range_hi \t has_prompt
func (b *Bridge) decodeDump(data string) []registry.NativeSymbol {
	var out []registry.NativeSymbol

	// Hand out handles in dump line order first, matching bridge.c's
	// handle table, before any expression field can claim one for a
	// name whose own line comes later.
	pre := bufio.NewScanner(bytes.NewReader([]byte(data)))
	for pre.Scan() {
		if line := pre.Text(); line != "" {
			b.handleFor(strings.SplitN(line, "\t", 2)[0])
		}
	}

	sc := bufio.NewScanner(bytes.NewReader([]byte(data)))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for len(fields) < 9 {
			fields = append(fields, "")
		}

		name := fields[0]
		h := b.handleFor(name)

		directDep, _ := parseExpr(fields[3], b.handleFor)
		reverseDep, _ := parseExpr(fields[4], b.handleFor)
		implied, _ := parseExpr(fields[5], b.handleFor)

		var choiceOf expr.Handle
		if fields[2] != "" {
			choiceOf = b.handleFor(fields[2])
		}

		var props []registry.Property
		if fields[8] == "1" {
			props = append(props, registry.Property{Kind: registry.PropPrompt, Text: name})
		}

		ns := registry.NativeSymbol{
			Handle:     h,
			Name:       name,
			Type:       kindFromString(fields[1]),
			DirectDep:  directDep,
			ReverseDep: reverseDep,
			Implied:    implied,
			Properties: props,
			ChoiceOf:   choiceOf,
			RangeLo:    parseOptionalInt(fields[6]),
			RangeHi:    parseOptionalInt(fields[7]),
		}
		out = append(out, ns)
	}

	return out
}

func kindFromString(s string) expr.Kind {
	switch s {
	case "bool":
		return expr.Boolean
	case "tristate":
		return expr.Tristate
	case "int":
		return expr.Int
	case "hex":
		return expr.Hex
	case "string":
		return expr.String
	default:
		return expr.Unknown
	}
}

func parseOptionalInt(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// String satisfies fmt.Stringer for debugging/logging.
func (b *Bridge) String() string {
	return fmt.Sprintf("bridge{symbols=%d}", len(b.nameToHandle))
}
