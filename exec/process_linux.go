// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file expect in compliance with the License.
package exec

import (
	"syscall"
)

func hostAttributes() *syscall.SysProcAttr {
	// Setpgid keeps the kernel build's child process tree alive if the host
	// process (e.g. a signal-interrupted CLI invocation) exits first.
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
