// SPDX-License-Identifier: MIT
//
// Copyright (c) 2019 GitHub Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package diag renders colorized diagnostics for the `info` and `check`
// commands: offending-subexpression highlighting for a rejected
// assignment, and added/removed/changed lines for a config diff.
package diag

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mgutz/ansi"

	"autokernel.sh/expr"
	"autokernel.sh/kconfig"
)

var (
	Magenta  = ansi.ColorFunc("magenta")
	Cyan     = ansi.ColorFunc("cyan")
	Red      = ansi.ColorFunc("red")
	Yellow   = ansi.ColorFunc("yellow")
	Green    = ansi.ColorFunc("green")
	Gray     = ansi.ColorFunc("black+h")
	Bold     = ansi.ColorFunc("default+b")
	CyanBold = ansi.ColorFunc("cyan+b")
)

func EnvColorDisabled() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("CLICOLOR") == "0"
}

func EnvColorForced() bool {
	return os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0"
}

// Scheme gates every color method on whether output actually wants color,
// so callers can construct one Scheme per invocation (TTY-detected or
// forced via --no-color) and use it unconditionally.
type Scheme struct {
	enabled bool
}

func NewScheme(enabled bool) *Scheme {
	return &Scheme{enabled: enabled}
}

func (c *Scheme) apply(fn func(string) string, t string) string {
	if !c.enabled {
		return t
	}
	return fn(t)
}

func (c *Scheme) Bold(t string) string  { return c.apply(Bold, t) }
func (c *Scheme) Red(t string) string   { return c.apply(Red, t) }
func (c *Scheme) Yellow(t string) string { return c.apply(Yellow, t) }
func (c *Scheme) Green(t string) string { return c.apply(Green, t) }
func (c *Scheme) Gray(t string) string  { return c.apply(Gray, t) }
func (c *Scheme) Cyan(t string) string  { return c.apply(Cyan, t) }

func (c *Scheme) SuccessIcon() string { return c.Green("✓") }
func (c *Scheme) FailureIcon() string { return c.Red("✗") }
func (c *Scheme) WarningIcon() string { return c.Yellow("!") }

func (c *Scheme) HexToRGB(hex string, x string) string {
	if !c.enabled {
		return x
	}
	r, _ := strconv.ParseInt(hex[0:2], 16, 64)
	g, _ := strconv.ParseInt(hex[2:4], 16, 64)
	b, _ := strconv.ParseInt(hex[4:6], 16, 64)
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s\033[0m", r, g, b, x)
}

// Highlight wraps every line of clauses in the failure color, indented
// under a header, for a report of unmet dependencies (spec section 4.4:
// UnmetDirectDependencies carries the false sub-clauses).
func (c *Scheme) Highlight(header string, clauses []string) string {
	var b strings.Builder
	b.WriteString(c.Bold(header))
	b.WriteString("\n")
	for _, cl := range clauses {
		b.WriteString("  ")
		b.WriteString(c.Red(cl))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFalseClauses reports which sub-clauses of a symbol's
// direct-dependency expression are currently unsatisfied, one per line and
// highlighted in the failure color, or "" when none are. Used by the `info`
// command for its "depends on" line.
func RenderFalseClauses(c *Scheme, env expr.Env, name string, dep expr.Expr) string {
	clauses := expr.FalseClauses(env, dep)
	if len(clauses) == 0 {
		return ""
	}
	return c.Highlight(fmt.Sprintf("%s is blocked by:", name), clauses)
}

// RenderDiff formats a kconfig.Diff for the `check` command: a line per
// added, removed or changed symbol, colored green/red/yellow respectively.
func RenderDiff(c *Scheme, d kconfig.Diff) string {
	if d.Empty() {
		return c.Green("no differences\n")
	}

	var b strings.Builder
	for _, v := range d.Added {
		fmt.Fprintf(&b, "%s %s=%s\n", c.Green("+"), v.Name, v.Value)
	}
	for _, v := range d.Removed {
		fmt.Fprintf(&b, "%s %s=%s\n", c.Red("-"), v.Name, v.Value)
	}
	for _, v := range d.Changed {
		fmt.Fprintf(&b, "%s %s: %s -> %s\n", c.Yellow("~"), v.Name, v.Old, v.New)
	}
	return b.String()
}
