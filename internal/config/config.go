// SPDX-License-Identifier: BSD-3-Clause
//
// Authors: Alexander Jung <alex@unikraft.io>
//
// Copyright (c) 2022, Unikraft GmbH.  All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the names of its
//    contributors may be used to endorse or promote products derived from
//    this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package config holds autokernel's persistent, user-editable settings: the
// default kernel tree, the native bridge's compiler cache, logging
// preferences and script-dialect dispatch rules (SPEC_FULL.md "config via
// BurntSushi/toml").
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
)

// Config is autokernel's on-disk configuration file, loaded from
// $AUTOKERNEL_CONFIG_DIR/config.toml (or platform equivalent) and
// overridable per-invocation by CLI flags.
type Config struct {
	NoPrompt bool   `toml:"no_prompt"           env:"AUTOKERNEL_NO_PROMPT" default:"false"`
	NoColor  bool   `toml:"no_color"            env:"AUTOKERNEL_NO_COLOR"  default:"false"`
	CC       string `toml:"cc"                  env:"AUTOKERNEL_CC"        default:"cc"`

	KernelDir string `toml:"kernel_dir,omitempty" env:"AUTOKERNEL_KERNEL_DIR"`
	CacheDir  string `toml:"cache_dir,omitempty"  env:"AUTOKERNEL_CACHE_DIR"`

	Log struct {
		Level      string `toml:"level"      env:"AUTOKERNEL_LOG_LEVEL" default:"info"`
		Type       string `toml:"type"       env:"AUTOKERNEL_LOG_TYPE"  default:"fancy"`
		Timestamps bool   `toml:"timestamps" env:"AUTOKERNEL_LOG_TIMESTAMPS" default:"false"`
	} `toml:"log"`

	Satisfier struct {
		Recursive bool `toml:"recursive" env:"AUTOKERNEL_SATISFIER_RECURSIVE" default:"true"`
	} `toml:"satisfier"`

	// Script maps a file extension (without the dot) to the dialect used to
	// interpret it: "flat" for CONFIG_X=Y listings, "scripted" for the
	// expression-capable dialect (spec section 4.6).
	Script struct {
		Extensions map[string]string `toml:"extensions,omitempty"`
	} `toml:"script"`
}

// ConfigDetail documents one configuration key for the `config` CLI
// subcommand's listing.
type ConfigDetail struct {
	Key           string
	Description   string
	AllowedValues []string
}

var configDetails = []ConfigDetail{
	{Key: "no_prompt", Description: "disable interactive confirmation prompts"},
	{Key: "no_color", Description: "disable ANSI color in diagnostic output"},
	{Key: "cc", Description: "C compiler used to build the native bridge"},
	{Key: "kernel_dir", Description: "default kernel tree to operate against"},
	{Key: "cache_dir", Description: "directory for cached compiled bridge shared libraries"},
	{
		Key:         "log.level",
		Description: "logging verbosity",
		AllowedValues: []string{
			"fatal", "error", "warn", "info", "debug", "trace",
		},
	},
	{
		Key:         "log.type",
		Description: "logging output formatter",
		AllowedValues: []string{
			"quiet", "basic", "fancy", "json",
		},
	},
	{Key: "log.timestamps", Description: "show timestamps with log output"},
	{Key: "satisfier.recursive", Description: "satisfy prerequisites transitively by default"},
}

// ConfigDetails returns the documented set of configuration keys.
func ConfigDetails() []ConfigDetail {
	return configDetails
}

// NewDefaultConfig returns a Config populated entirely from its `default`
// struct tags, before any feeder has run.
func NewDefaultConfig() (*Config, error) {
	c := &Config{}
	if err := setDefaults(c); err != nil {
		return nil, fmt.Errorf("could not set defaults for config: %s", err)
	}

	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(DataDir(), "bridge-cache")
	}
	if c.Script.Extensions == nil {
		c.Script.Extensions = map[string]string{
			"akc":    "scripted",
			"lua":    "scripted",
			"txt":    "flat",
			"config": "flat",
		}
	}

	return c, nil
}

func setDefaults(s interface{}) error {
	return setDefaultValue(reflect.ValueOf(s), "")
}

func setDefaultValue(v reflect.Value, def string) error {
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("not a pointer value")
	}

	v = reflect.Indirect(v)

	switch v.Kind() {
	case reflect.Int:
		if len(def) > 0 {
			i, err := strconv.ParseInt(def, 10, 64)
			if err != nil {
				return fmt.Errorf("could not parse default integer value: %s", err)
			}
			v.SetInt(i)
		}

	case reflect.String:
		if len(def) > 0 {
			v.SetString(def)
		}

	case reflect.Bool:
		if len(def) > 0 {
			b, err := strconv.ParseBool(def)
			if err != nil {
				return fmt.Errorf("could not parse default boolean value: %s", err)
			}
			v.SetBool(b)
		}

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			fieldDef := v.Type().Field(i).Tag.Get("default")
			if err := setDefaultValue(v.Field(i).Addr(), fieldDef); err != nil {
				return fmt.Errorf("field %s: %w", v.Type().Field(i).Name, err)
			}
		}
	}

	return nil
}

// Default returns the statically declared default for a dotted config key
// (e.g. "log.level"), or "" if the key has none.
func Default(key string) string {
	found, _, def, _, err := findConfigDefault(key, "", "", reflect.ValueOf(&Config{}))
	if err != nil || found != key {
		return ""
	}

	return def
}
