// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"autokernel.sh/cmdfactory"
	"autokernel.sh/diag"
	"autokernel.sh/kconfig"
)

// checkCommand compares a generated .config against an existing one. Its
// flags are declared as struct tags and bound by cmdfactory.AttributeFlags,
// the same struct-to-flag wiring the rest of the tree's command builder
// uses for larger, option-heavy commands.
type checkCommand struct {
	Config string `long:"config" short:"c" usage:"existing .config to compare against (default: empty baseline)"`
	Script string `long:"script" usage:"path to the project script (default: [config].script in autokernel.toml)"`

	gf *globalFlags
}

func (c *checkCommand) Run(cmd *cobra.Command, args []string) error {
	c.gf.script = c.Script

	scriptPath, err := resolveScript(c.gf.script)
	if err != nil {
		return err
	}

	a, err := bootstrap(*c.gf)
	if err != nil {
		return err
	}

	if err := a.host.RunFile(scriptPath); err != nil {
		return err
	}

	generated := a.dotConfigFromRegistry()

	other := kconfig.NewDotConfigFile()
	if c.Config != "" {
		other, err = kconfig.ParseConfig(c.Config)
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.Config, err)
		}
	}

	diff := kconfig.DiffConfigs(other, generated)
	if diff.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), a.scheme.Green("no differences"))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), diag.RenderDiff(a.scheme, diff))
	return nil
}

func newCheckCmd(gf *globalFlags) *cobra.Command {
	cmd, err := cmdfactory.New(&checkCommand{gf: gf}, cobra.Command{
		Use:   "check",
		Short: "Compare the generated config against another .config",
		Long: heredoc.Doc(`
			check runs the project's script file, then diffs the resulting
			symbol assignments against an existing .config file, reporting
			what would be added, removed or changed.
		`),
		Example: heredoc.Doc(`
			$ autokernel check -c .config
		`),
		Args: cobra.NoArgs,
	})
	if err != nil {
		panic(err) // static struct tags; only a programmer error can trigger this
	}
	return cmd
}
