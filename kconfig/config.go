// SPDX-License-Identifier: Apache-2.0
// Copyright 2020 syzkaller project authors. All rights reserved.
// Copyright 2020 The Compose Specification Authors.
// Copyright 2022 Unikraft GmbH. All rights reserved.

// Package kconfig provides the `.config` canonical-format serializer (spec
// section 6: "`.config` uses the kernel's canonical format") used for
// round-tripping a generated configuration and for the `check` command's
// diffing. It holds no Kconfig-grammar parsing logic — building symbols
// from `Kconfig` sources is the native bridge's job — so this package only
// ever reads and writes flat `CONFIG_<NAME>=value` lines.
package kconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

const DotConfigFileName = ".config"

// KConfigValues is a map of KConfigValue, used by callers that want a bare
// key/value view without the ordered-serialization bookkeeping
// DotConfigFile carries.
type KConfigValues map[string]*KConfigValue

// NewKConfigValues builds a new mapping from a set of KEY=VALUE strings.
func NewKConfigValues(values ...string) KConfigValues {
	mapping := KConfigValues{}

	for _, env := range values {
		tokens := strings.SplitN(env, "=", 2)
		if len(tokens) > 1 {
			mapping[tokens[0]] = &KConfigValue{
				Name:  tokens[0],
				Value: tokens[1],
			}
		} else {
			mapping[env] = nil
		}
	}

	return mapping
}

// OverrideBy updates kco with values from other.
func (kco KConfigValues) OverrideBy(other KConfigValues) KConfigValues {
	for k, v := range other {
		kco[k] = v
	}
	return kco
}

// Set assigns a new key with the specified value.
func (kco KConfigValues) Set(key, value string) KConfigValues {
	kco[key] = &KConfigValue{
		Name:  key,
		Value: value,
	}

	return kco
}

// Unset removes a specific key.
func (kco KConfigValues) Unset(key string) KConfigValues {
	delete(kco, key)

	return kco
}

// RemoveEmpty excludes keys that are not associated with a value.
func (kco KConfigValues) RemoveEmpty() KConfigValues {
	for k, v := range kco {
		if v == nil || v.Value == "" {
			delete(kco, k)
		}
	}

	return kco
}

// DotConfigFile represents a parsed `.config` file. It should not be
// modified directly outside of its methods. Config names never include the
// CONFIG_ prefix here or in any other public interface; use Yes/Mod/No to
// check for or set a config to a particular tristate value.
type DotConfigFile struct {
	Configs  []*KConfigValue
	Map      map[string]*KConfigValue // duplicates Configs for convenience
	comments []string
}

type KConfigValue struct {
	Name     string
	Value    string
	comments []string
}

const (
	Yes    = "y"
	Mod    = "m"
	No     = "n"
	prefix = "CONFIG_"
)

// NewDotConfigFile returns an empty DotConfigFile ready for Set calls.
func NewDotConfigFile() *DotConfigFile {
	return &DotConfigFile{Map: make(map[string]*KConfigValue)}
}

// Value returns a config's value, or No if it's not present at all.
func (cf *DotConfigFile) Value(name string) string {
	cfg := cf.Map[name]
	if cfg == nil {
		return No
	}

	return cfg.Value
}

// Set changes a config's value, or adds it if it's not yet present.
func (cf *DotConfigFile) Set(name, val string) {
	cfg := cf.Map[name]
	if cfg == nil {
		cfg = &KConfigValue{
			Name: name,
		}

		cf.Map[name] = cfg
		cf.Configs = append(cf.Configs, cfg)
	}

	cfg.Value = val
	cfg.comments = append(cfg.comments, cf.comments...)
	cf.comments = nil
}

// Unset sets a config's value to No, if it's present in the config.
func (cf *DotConfigFile) Unset(name string) {
	cfg := cf.Map[name]
	if cfg == nil {
		return
	}

	cfg.Value = No
}

func (cf *DotConfigFile) ModToYes() {
	for _, cfg := range cf.Configs {
		if cfg.Value == Mod {
			cfg.Value = Yes
		}
	}
}

func (cf *DotConfigFile) ModToNo() {
	for _, cfg := range cf.Configs {
		if cfg.Value == Mod {
			cfg.Value = No
		}
	}
}

// Serialize renders cf in the kernel's canonical `.config` format: one
// `CONFIG_<NAME>=value` or `# CONFIG_<NAME> is not set` line per symbol,
// each terminated with `\n`.
func (cf *DotConfigFile) Serialize() []byte {
	buf := new(bytes.Buffer)
	for _, cfg := range cf.Configs {
		for _, comment := range cfg.comments {
			fmt.Fprintf(buf, "%v\n", comment)
		}

		writeLine(buf, cfg.Name, cfg.Value)
	}

	for _, comment := range cf.comments {
		fmt.Fprintf(buf, "%v\n", comment)
	}

	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, name, value string) {
	if value == No || value == "" {
		fmt.Fprintf(buf, "# %v%v is not set\n", prefix, name)
	} else {
		fmt.Fprintf(buf, "%v%v=%v\n", prefix, name, value)
	}
}

// SatisfierModuleHeader is prefixed onto the output of a satisfier plan
// rendered as a standalone `.config`-like module (spec section 6: "the
// output groups assignments into dependency-ordered sections and includes
// a generated-on header comment").
func SatisfierModuleHeader(generatedOn string) string {
	return "# Generated by autokernel on " + generatedOn + "\n" +
		"# Do not edit by hand; re-run `autokernel satisfy` instead.\n"
}

// WriteSections serializes a satisfier plan grouped into named,
// dependency-ordered sections, each preceded by a `# --- <title> ---`
// comment.
func WriteSections(generatedOn string, sections []Section) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(SatisfierModuleHeader(generatedOn))

	for _, sec := range sections {
		fmt.Fprintf(buf, "\n# --- %s ---\n", sec.Title)
		for _, a := range sec.Assignments {
			writeLine(buf, a.Name, a.Value)
		}
	}

	return buf.Bytes()
}

// Section groups a contiguous run of assignments under a title, used by
// WriteSections.
type Section struct {
	Title       string
	Assignments []KConfigValue
}

func ParseConfig(file string) (*DotConfigFile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open .config file %v: %v", file, err)
	}

	return ParseConfigData(data, file)
}

func ParseConfigData(data []byte, file string) (*DotConfigFile, error) {
	cf := &DotConfigFile{
		Map: make(map[string]*KConfigValue),
	}

	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		cf.parseLine(s.Text())
	}

	return cf, nil
}

func (cf *DotConfigFile) clone() *DotConfigFile {
	cf1 := &DotConfigFile{
		Map:      make(map[string]*KConfigValue),
		comments: cf.comments,
	}

	for _, cfg := range cf.Configs {
		cfg1 := new(KConfigValue)
		*cfg1 = *cfg
		cf1.Configs = append(cf1.Configs, cfg1)
		cf1.Map[cfg1.Name] = cfg1
	}

	return cf1
}

func (cf *DotConfigFile) parseLine(text string) {
	if match := reConfigY.FindStringSubmatch(text); match != nil {
		cf.Set(match[1], match[2])
	} else if match := reConfigN.FindStringSubmatch(text); match != nil {
		cf.Set(match[1], No)
	} else {
		cf.comments = append(cf.comments, text)
	}
}

var (
	reConfigY = regexp.MustCompile(`^` + prefix + `([A-Za-z0-9_]+)=(y|m|(?:-?[0-9]+)|(?:0x[0-9a-fA-F]+)|(?:".*?"))$`)
	reConfigN = regexp.MustCompile(`^# ` + prefix + `([A-Za-z0-9_]+) is not set$`)
)

// Diff describes the difference between two `.config`s for the `check`
// command (SPEC_FULL.md "check diff rendering").
type Diff struct {
	Added   []KConfigValue // present in b, absent in a
	Removed []KConfigValue // present in a, absent in b
	Changed []ChangedValue
}

type ChangedValue struct {
	Name     string
	Old, New string
}

// DiffConfigs compares a against b and reports every addition, removal and
// value change, sorted by symbol name for deterministic output. This
// implements testable property 8 (round-trip is order-independent): two
// configs with the same set of CONFIG_*=value lines diff as empty
// regardless of line order.
func DiffConfigs(a, b *DotConfigFile) Diff {
	var d Diff

	names := map[string]bool{}
	for n := range a.Map {
		names[n] = true
	}
	for n := range b.Map {
		names[n] = true
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	for _, n := range sorted {
		av, aok := a.Map[n]
		bv, bok := b.Map[n]
		switch {
		case aok && !bok:
			d.Removed = append(d.Removed, *av)
		case !aok && bok:
			d.Added = append(d.Added, *bv)
		case av.Value != bv.Value:
			d.Changed = append(d.Changed, ChangedValue{Name: n, Old: av.Value, New: bv.Value})
		}
	}

	return d
}

// Empty reports whether the diff contains no differences.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
