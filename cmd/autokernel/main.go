// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Command autokernel authors and validates Linux kernel .config files
// against a live Kconfig symbol tree, through a script file written in
// either the flat CONFIG_X=Y dialect or the scripted expression dialect.
package main

import (
	"fmt"
	"os"

	"autokernel.sh/internal/errs"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "autokernel: "+err.Error())
		os.Exit(errs.CodeOf(err))
	}
}
