// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"autokernel.sh/diag"
	"autokernel.sh/registry"
)

func newInfoCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <SYMBOL>",
		Short: "Render a symbol's type, value, visibility and properties",
		Long: heredoc.Doc(`
			info looks SYMBOL up in the live registry and prints its declared
			type, current value, computed visibility and every prompt/default/
			select/imply/range property the bridge reported for it.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*gf)
			if err != nil {
				return err
			}

			sym, err := a.host.Reg.Lookup(args[0])
			if err != nil {
				return err
			}

			renderSymbolInfo(cmd.OutOrStdout(), a, sym)
			return nil
		},
	}
	return cmd
}

func renderSymbolInfo(w interface{ Write([]byte) (int, error) }, a *app, sym *registry.Symbol) {
	c := a.scheme
	fmt.Fprintf(w, "%s\n", c.Bold(sym.Name))
	fmt.Fprintf(w, "  type:       %s\n", sym.Type.String())
	fmt.Fprintf(w, "  value:      %s\n", sym.Value)
	fmt.Fprintf(w, "  visibility: %s\n", sym.Visibility(a.host.Reg).String())

	if sym.Choice != nil {
		fmt.Fprintf(w, "  choice:     member, tristate=%v, %d siblings\n", sym.Choice.Tristate, len(sym.Choice.Members))
	}
	if sym.RangeLo != nil && sym.RangeHi != nil {
		fmt.Fprintf(w, "  range:      [%d, %d]\n", *sym.RangeLo, *sym.RangeHi)
	}
	if sym.DirectDep != nil {
		fmt.Fprintf(w, "  depends on: %s\n", diag.RenderFalseClauses(c, a.host.Reg, sym.Name, sym.DirectDep))
	}
	if sym.ReverseDep != nil {
		fmt.Fprintln(w, "  selected by at least one other symbol")
	}

	for _, p := range sym.Properties {
		switch p.Kind {
		case registry.PropPrompt:
			fmt.Fprintf(w, "  prompt:     %q\n", p.Text)
		case registry.PropDefault:
			fmt.Fprintf(w, "  default:    %s\n", p.Value)
		case registry.PropSelect:
			fmt.Fprintf(w, "  selects:    %s\n", p.Text)
		case registry.PropImply:
			fmt.Fprintf(w, "  implies:    %s\n", p.Text)
		case registry.PropRange:
			fmt.Fprintf(w, "  range:      [%s, %s]\n", p.RangeLo, p.RangeHi)
		}
	}
}
