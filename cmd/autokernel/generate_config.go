// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"autokernel.sh/cmdfactory"
)

func newGenerateConfigCmd(gf *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Run the project script and write a .config",
		Long: heredoc.Doc(`
			generate-config runs the project's script file against a live
			kernel tree, then serializes every assigned symbol into the
			kernel's canonical .config format.
		`),
		Example: heredoc.Doc(`
			$ autokernel generate-config -o .config
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			data := serializeRegistry(a)

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if !a.cfg.NoPrompt {
				if _, statErr := os.Stat(out); statErr == nil {
					overwrite := false
					prompt := &survey.Confirm{Message: fmt.Sprintf("%s already exists, overwrite?", out), Default: false}
					if err := survey.AskOne(prompt, &overwrite); err != nil {
						return err
					}
					if !overwrite {
						return fmt.Errorf("not overwriting %s", out)
					}
				}
			}

			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().AddFlag(cmdfactory.StringVarP(&out, "output", "o", "", "write the generated .config here (default: stdout)"))
	cmd.Flags().StringVar(&gf.script, "script", "", "path to the project script (default: [config].script in autokernel.toml)")

	return cmd
}

// serializeRegistry renders every registry symbol in kernel .config form,
// reusing kconfig's DotConfigFile writer so the output matches whatever a
// native `make *config` would have produced.
func serializeRegistry(a *app) []byte {
	cf := a.dotConfigFromRegistry()
	return cf.Serialize()
}
