// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"autokernel.sh/bridge"
	"autokernel.sh/cmdfactory"
	"autokernel.sh/diag"
	"autokernel.sh/internal/config"
	"autokernel.sh/kconfig"
	"autokernel.sh/log"
	"autokernel.sh/registry"
	"autokernel.sh/satisfier"
	"autokernel.sh/script"
	"autokernel.sh/validator"
	"autokernel.sh/version"
)

// globalFlags holds the persistent flags every subcommand reads from, set
// up once on the root command.
type globalFlags struct {
	kernelDir string
	script    string
	noColor   bool
	noPrompt  bool
	logType   *cmdfactory.EnumFlag[log.LoggerType]
}

// app bundles everything a subcommand needs: the live Host (registry,
// validator, satisfier, script dispatch) plus a color scheme for rendering.
// ctx carries the bootstrapped logger (see log.WithLogger/log.FromContext)
// so subcommands and anything they call down into can recover the same
// logger without needing it threaded through every signature.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	host   *script.Host
	reg    *registry.Registry
	scheme *diag.Scheme
	log    *logrus.Logger
}

// newLogger builds a logrus.Logger using the teacher's TextFormatter,
// honoring the configured level and TTY-detected color.
func newLogger(cfg *config.Config, noColor bool) *logrus.Logger {
	l := logrus.New()
	lvl, ok := log.Levels()[strings.ToLower(cfg.Log.Level)]
	if !ok {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	switch log.LoggerTypeFromString(cfg.Log.Type) {
	case log.JSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	case log.QUIET:
		l.SetOutput(os.Stderr)
	default:
		l.SetFormatter(&log.TextFormatter{
			ForceColors:      diag.EnvColorForced() && !noColor,
			DisableColors:    noColor || diag.EnvColorDisabled(),
			FullTimestamp:    cfg.Log.Timestamps,
			DisableTimestamp: !cfg.Log.Timestamps,
		})
	}
	return l
}

// loadConfig seeds defaults, then overlays the discovered TOML file (if
// any). The env struct tags on config.Config are not read here.
func loadConfig() (*config.Config, error) {
	cm, err := config.NewManager(config.WithDefaultConfigFile())
	if err != nil && cm == nil {
		return nil, err
	}
	return cm.Config, nil
}

// bootstrap resolves the kernel tree, builds (or reuses a cached) native
// bridge shared library, opens it, and assembles the registry/validator/
// satisfier/script-host stack a subcommand drives.
func bootstrap(gf globalFlags) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if env := os.Getenv("AUTOKERNEL_KERNEL_DIR"); env != "" {
		cfg.KernelDir = env
	}
	if gf.kernelDir != "" {
		cfg.KernelDir = gf.kernelDir
	}
	if gf.noColor {
		cfg.NoColor = true
	}
	if gf.noPrompt {
		cfg.NoPrompt = true
	}
	if gf.logType != nil {
		cfg.Log.Type = gf.logType.Value.String()
	}
	if cfg.KernelDir == "" {
		return nil, fmt.Errorf("no kernel directory given (set --kernel-dir, $AUTOKERNEL_KERNEL_DIR, or kernel_dir in config.toml)")
	}

	logger := newLogger(cfg, cfg.NoColor)
	ctx := log.WithLogger(context.Background(), logger)

	kv, err := version.DetectKernelDir(cfg.KernelDir)
	if err != nil {
		return nil, err
	}
	if err := version.CheckSupported(kv.String()); err != nil {
		return nil, err
	}

	soPath, err := bridge.Build(bridge.BuildOptions{
		KernelDir: cfg.KernelDir,
		CacheDir:  cfg.CacheDir,
		CC:        cfg.CC,
		Logger:    log.FromContext(ctx),
		Ctx:       ctx,
	})
	if err != nil {
		return nil, err
	}

	kernelEnv := map[string]string{
		"KERNELVERSION": kv.String(),
	}
	b, err := bridge.Open(soPath, kernelEnv)
	if err != nil {
		return nil, err
	}
	if err := b.ParseKconfig(filepath.Join(cfg.KernelDir, "Kconfig")); err != nil {
		return nil, err
	}

	reg, err := registry.New(b)
	if err != nil {
		return nil, err
	}
	tracker := registry.NewTracker()
	val := validator.New(reg, tracker)
	sat := satisfier.New(reg)

	host := script.NewHost(reg, val, sat, b, cfg.KernelDir, kv, kernelEnv, cfg.Script.Extensions)

	return &app{
		ctx:    ctx,
		cfg:    cfg,
		host:   host,
		reg:    reg,
		scheme: diag.NewScheme(!cfg.NoColor && !diag.EnvColorDisabled()),
		log:    log.FromContext(ctx),
	}, nil
}

// dotConfigFromRegistry snapshots every registry symbol into a
// kconfig.DotConfigFile, the shape generate-config and check both need.
func (a *app) dotConfigFromRegistry() *kconfig.DotConfigFile {
	cf := kconfig.NewDotConfigFile()
	for _, sym := range a.reg.AllSorted() {
		cf.Set(sym.Name, sym.Value)
	}
	return cf
}

// projectFile is the small per-project TOML document spec section 6 calls
// the "top-level configuration": only [config].script is required.
type projectFile struct {
	Config struct {
		Script string `toml:"script"`
	} `toml:"config"`
}

// resolveScript returns explicit (a --script flag value) if set, otherwise
// reads ./autokernel.toml's [config].script.
func resolveScript(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	const projectFileName = "autokernel.toml"
	var pf projectFile
	if _, err := toml.DecodeFile(projectFileName, &pf); err != nil {
		return "", fmt.Errorf("no --script given and %s could not be read: %w", projectFileName, err)
	}
	if pf.Config.Script == "" {
		return "", fmt.Errorf("%s has no [config].script entry", projectFileName)
	}
	return pf.Config.Script, nil
}
