// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"autokernel.sh/cmdfactory"
	"autokernel.sh/internal/errs"
	"autokernel.sh/validator"
)

func newSatisfyCmd(gf *globalFlags) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "satisfy <SYMBOL>[=<value>]",
		Short: "Compute and print the ordered prerequisite assignments for a symbol",
		Long: heredoc.Doc(`
			satisfy runs the project's script file, then asks the dependency
			satisfier for the ordered sequence of prerequisite assignments
			that bring SYMBOL to the requested value (default "y"), applying
			each one through the validator in turn.
		`),
		Example: heredoc.Doc(`
			$ autokernel satisfy --recursive WLAN_VENDOR_REALTEK=y
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, desired := splitSymbolArg(args[0])

			scriptPath, err := resolveScript(gf.script)
			if err != nil {
				return err
			}

			a, err := bootstrap(*gf)
			if err != nil {
				return err
			}

			if err := a.host.RunFile(scriptPath); err != nil {
				return err
			}

			plan, err := a.host.Satisfier.Satisfy(name, desired, recursive)
			if err != nil {
				return err
			}

			origin := errs.Origin{File: "<cli>", WasDirect: true}
			for _, asn := range plan {
				if err := a.host.Validator.Set(asn.Symbol, asn.Value, origin, validator.Explicit); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "CONFIG_%s=%s\n", asn.Symbol, asn.Value)
			}
			return nil
		},
	}

	cmd.Flags().AddFlag(cmdfactory.BoolVar(&recursive, "recursive", true, "satisfy prerequisites transitively, not just the one direct dependency"))
	cmd.Flags().StringVar(&gf.script, "script", "", "path to the project script (default: [config].script in autokernel.toml)")

	return cmd
}

// splitSymbolArg splits "SYMBOL=value" into its parts, defaulting value to
// "y" when absent (spec 6: "value defaults to y").
func splitSymbolArg(arg string) (name, value string) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, "y"
}
