// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"autokernel.sh/cmdfactory"
	"autokernel.sh/log"
)

// newRootCmd assembles the autokernel command tree, following the
// teacher's convention of heredoc'd Short/Long/Example text and
// SilenceErrors/SilenceUsage so main can own error rendering and exit
// codes.
func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:           "autokernel",
		Short:         "Author and validate Linux kernel .config files",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: heredoc.Doc(`
			autokernel drives a kernel's Kconfig tree through a native bridge,
			validating every symbol assignment against its type, range,
			visibility and dependencies before it reaches a .config file.
		`),
	}

	root.PersistentFlags().StringVar(&gf.kernelDir, "kernel-dir", "", "kernel source tree (default: config kernel_dir)")
	root.PersistentFlags().BoolVar(&gf.noColor, "no-color", false, "disable ANSI color in diagnostic output")
	root.PersistentFlags().BoolVar(&gf.noPrompt, "no-prompt", false, "disable interactive confirmation prompts")

	gf.logType = cmdfactory.NewEnumFlag([]log.LoggerType{log.QUIET, log.BASIC, log.FANCY, log.JSON}, log.FANCY)
	root.PersistentFlags().Var(gf.logType, "log-type", "logging output formatter: quiet, basic, fancy, json")

	root.AddCommand(newGenerateConfigCmd(gf))
	root.AddCommand(newSatisfyCmd(gf))
	root.AddCommand(newInfoCmd(gf))
	root.AddCommand(newCheckCmd(gf))

	return root
}
