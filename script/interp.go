// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package script

import (
	"fmt"
	"strconv"

	"autokernel.sh/expr"
	"autokernel.sh/internal/errs"
	"autokernel.sh/registry"
	"autokernel.sh/tristate"
	"autokernel.sh/validator"
	"autokernel.sh/version"
)

// interp walks one scripted-dialect program against a Host. Every
// validator call it makes is stamped with the file and line of the script
// statement that triggered it (spec 4.6: "the host must capture source
// location for every validator call made from user code").
type interp struct {
	host *Host
	file string
}

// Run executes stmts in order. Errors are returned as-is to the caller
// (which is Host.runScripted); no statement-level recovery happens here,
// matching spec 7's "no statement-level recovery" rule.
func (in *interp) Run(stmts []Stmt) error {
	for _, s := range stmts {
		if err := in.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (in *interp) execStmt(s Stmt) error {
	switch n := s.(type) {
	case *ExprStmt:
		_, err := in.eval(n.X)
		return err

	case *IfStmt:
		cond, err := in.eval(n.Cond)
		if err != nil {
			return err
		}
		if cond.truthy() {
			return in.Run(n.Then)
		}
		return in.Run(n.Else)

	case *WhileStmt:
		for {
			cond, err := in.eval(n.Cond)
			if err != nil {
				return err
			}
			if !cond.truthy() {
				return nil
			}
			if err := in.Run(n.Body); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("line %d: unsupported statement", s.Pos())
	}
}

func (in *interp) origin(line int) errs.Origin {
	return errs.Origin{File: in.file, Line: line, WasDirect: true}
}

func (in *interp) eval(e Expr) (value, error) {
	switch n := e.(type) {
	case *StringLit:
		return stringValue(n.Value), nil

	case *NumberLit:
		if len(n.Text) > 1 && n.Text[0] == '0' && (n.Text[1] == 'x' || n.Text[1] == 'X') {
			return stringValue(n.Text), nil // preserve hex spelling for coerce()
		}
		return numberValue(n.Value), nil

	case *Ident:
		return in.evalIdent(n)

	case *UnaryExpr:
		x, err := in.eval(n.X)
		if err != nil {
			return nilValue, err
		}
		if n.Op != tokNot {
			return nilValue, fmt.Errorf("line %d: unsupported unary operator", n.Pos())
		}
		return boolValue(!x.truthy()), nil

	case *BinaryExpr:
		return in.evalBinary(n)

	case *Call:
		return in.evalCall(n)

	case *MethodCall:
		return in.evalMethodCall(n)

	default:
		return nilValue, fmt.Errorf("line %d: unsupported expression", e.Pos())
	}
}

func (in *interp) evalBinary(n *BinaryExpr) (value, error) {
	switch n.Op {
	case tokAnd:
		l, err := in.eval(n.L)
		if err != nil {
			return nilValue, err
		}
		if !l.truthy() {
			return l, nil // short-circuit, spec 9
		}
		return in.eval(n.R)

	case tokOr:
		l, err := in.eval(n.L)
		if err != nil {
			return nilValue, err
		}
		if l.truthy() {
			return l, nil // short-circuit, spec 9
		}
		return in.eval(n.R)

	default:
		l, err := in.eval(n.L)
		if err != nil {
			return nilValue, err
		}
		r, err := in.eval(n.R)
		if err != nil {
			return nilValue, err
		}
		return compareValues(n.Op, l, r)
	}
}

// evalIdent resolves a bare name: the y/m/n constants, the kernel_dir and
// kernel_version globals, or (falling through) a live kernel symbol
// resolved against the registry (spec 9: "intercepts unknown global
// lookups, returning a handle bound to that name").
func (in *interp) evalIdent(n *Ident) (value, error) {
	switch n.Name {
	case "y":
		return tristateValue(tristate.Yes), nil
	case "m":
		return tristateValue(tristate.Mod), nil
	case "n":
		return tristateValue(tristate.No), nil
	case "true":
		return boolValue(true), nil
	case "false":
		return boolValue(false), nil
	case "kernel_dir":
		return stringValue(in.host.KernelDir), nil
	case "kernel_version":
		return versionValue(in.host.KernelVersion), nil
	case "ver", "kernel_env", "load_kconfig", "load_kconfig_unchecked":
		return nilValue, fmt.Errorf("line %d: %s is a function, call it with (...)", n.Pos(), n.Name)
	}

	sym, err := in.host.Reg.Lookup(n.Name)
	if err != nil {
		return nilValue, err
	}
	return symbolCurrentValue(sym), nil
}

func symbolCurrentValue(sym *registry.Symbol) value {
	switch sym.Type {
	case expr.Boolean, expr.Tristate:
		t, _ := tristate.Parse(sym.Value)
		return tristateValue(t)
	case expr.Int, expr.Hex:
		n, _ := strconv.ParseInt(sym.Value, 0, 64)
		return numberValue(n)
	default:
		return stringValue(sym.Value)
	}
}

func (in *interp) evalCall(c *Call) (value, error) {
	ident, ok := c.Callee.(*Ident)
	if !ok {
		return nilValue, fmt.Errorf("line %d: call target must be a name", c.Pos())
	}

	switch ident.Name {
	case "ver":
		s, err := in.argString(c.Args, 0, "ver")
		if err != nil {
			return nilValue, err
		}
		v, err := version.Parse(s)
		if err != nil {
			return nilValue, fmt.Errorf("line %d: ver(%q): %w", c.Pos(), s, err)
		}
		return versionValue(v), nil

	case "kernel_env":
		name, err := in.argString(c.Args, 0, "kernel_env")
		if err != nil {
			return nilValue, err
		}
		return stringValue(in.host.KernelEnv[name]), nil

	case "load_kconfig":
		path, err := in.argString(c.Args, 0, "load_kconfig")
		if err != nil {
			return nilValue, err
		}
		return nilValue, in.host.loadKconfigChecked(path)

	case "load_kconfig_unchecked":
		path, err := in.argString(c.Args, 0, "load_kconfig_unchecked")
		if err != nil {
			return nilValue, err
		}
		return nilValue, in.host.loadKconfigUnchecked(path)

	default:
		// SYM(value): shorthand for SYM:set(value).
		raw, err := in.argRaw(c.Args, 0, ident.Name)
		if err != nil {
			return nilValue, err
		}
		return nilValue, in.host.Validator.Set(ident.Name, raw, in.origin(c.Pos()), validator.Explicit)
	}
}

func (in *interp) evalMethodCall(mc *MethodCall) (value, error) {
	ident, ok := mc.Recv.(*Ident)
	if !ok {
		return nilValue, fmt.Errorf("line %d: method receiver must be a symbol name", mc.Pos())
	}

	switch mc.Method {
	case "set":
		raw, err := in.argRaw(mc.Args, 0, ident.Name)
		if err != nil {
			return nilValue, err
		}
		return nilValue, in.host.Validator.Set(ident.Name, raw, in.origin(mc.Pos()), validator.Explicit)

	case "satisfy":
		raw, err := in.argRaw(mc.Args, 0, ident.Name)
		if err != nil {
			return nilValue, err
		}
		recursive := true
		if v, ok := namedArg(mc.Args, "recursive"); ok {
			rv, err := in.eval(v)
			if err != nil {
				return nilValue, err
			}
			recursive = rv.truthy()
		}
		return nilValue, in.host.satisfyAndApply(ident.Name, raw, recursive, in.origin(mc.Pos()))

	case "value":
		sym, err := in.host.Reg.Lookup(ident.Name)
		if err != nil {
			return nilValue, err
		}
		return symbolCurrentValue(sym), nil

	case "is":
		want, err := in.argRaw(mc.Args, 0, ident.Name)
		if err != nil {
			return nilValue, err
		}
		sym, err := in.host.Reg.Lookup(ident.Name)
		if err != nil {
			return nilValue, err
		}
		return boolValue(sym.Value == want), nil

	case "type":
		sym, err := in.host.Reg.Lookup(ident.Name)
		if err != nil {
			return nilValue, err
		}
		return stringValue(sym.Type.String()), nil

	default:
		return nilValue, fmt.Errorf("line %d: unknown method %s:%s", mc.Pos(), ident.Name, mc.Method)
	}
}

func (in *interp) argRaw(args []Arg, idx int, symName string) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("%s: expected at least %d argument(s)", symName, idx+1)
	}
	v, err := in.eval(args[idx].Value)
	if err != nil {
		return "", err
	}
	return v.rawString(), nil
}

func (in *interp) argString(args []Arg, idx int, fn string) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("%s(): expected at least %d argument(s)", fn, idx+1)
	}
	v, err := in.eval(args[idx].Value)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func namedArg(args []Arg, name string) (Expr, bool) {
	for _, a := range args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}
