// SPDX-License-Identifier: MIT
// Copyright (c) 2019 GitHub Inc.
package diag

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"autokernel.sh/expr"
)

func TestEnvColorDisabled(t *testing.T) {
	origNoColor := os.Getenv("NO_COLOR")
	origCliColor := os.Getenv("CLICOLOR")
	t.Cleanup(func() {
		os.Setenv("NO_COLOR", origNoColor)
		os.Setenv("CLICOLOR", origCliColor)
	})

	tests := []struct {
		name     string
		noColor  string
		cliColor string
		want     bool
	}{
		{"pristine env", "", "", false},
		{"NO_COLOR enabled", "1", "", true},
		{"CLICOLOR disabled", "", "0", true},
		{"CLICOLOR enabled", "", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("NO_COLOR", tt.noColor)
			os.Setenv("CLICOLOR", tt.cliColor)
			assert.Equal(t, tt.want, EnvColorDisabled())
		})
	}
}

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    string
	}{
		{"color enabled", true, "\033[38;2;252;3;3mred\033[0m"},
		{"color disabled", false, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewScheme(tt.enabled)
			assert.Equal(t, tt.want, cs.HexToRGB("fc0303", "red"))
		})
	}
}

type fakeEnv struct{ values map[expr.Handle]string }

func (f fakeEnv) RawValue(h expr.Handle) string { return f.values[h] }
func (f fakeEnv) Kind(expr.Handle) expr.Kind     { return expr.Boolean }
func (f fakeEnv) Name(h expr.Handle) string      { return "SYM" }

func TestRenderFalseClauses(t *testing.T) {
	env := fakeEnv{values: map[expr.Handle]string{1: "n", 2: "y"}}
	dep := &expr.And{
		L: &expr.Symbol{H: 1},
		R: &expr.Symbol{H: 2},
	}

	cs := NewScheme(false)
	out := RenderFalseClauses(cs, env, "FOO", dep)
	assert.Contains(t, out, "FOO is blocked by:")
	assert.Contains(t, out, "SYM")
}

func TestRenderFalseClausesNoneFalse(t *testing.T) {
	env := fakeEnv{values: map[expr.Handle]string{1: "y"}}
	dep := &expr.Symbol{H: 1}

	out := RenderFalseClauses(NewScheme(false), env, "FOO", dep)
	assert.Empty(t, out)
}
