// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// wire.go decodes the small s-expression wire format the bridge uses to
// report symbols and their expression trees across the FFI boundary. The
// bridge hands over plain owned byte buffers (never complex structures,
// per spec design notes); this is the Go-side reader for those buffers.
//
// Symbol records are tab-separated lines split by bridge.go's decodeDump;
// this file parses their expression fields (direct_dep, reverse_dep,
// implied), each a parenthesized s-expression over:
//
//	AND(a,b) OR(a,b) NOT(a) EQ(a,b) NEQ(a,b) LT(a,b) LE(a,b) GT(a,b) GE(a,b)
//	RANGE(sym,lo,hi) SYM(name) CONST(value) NIL
package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"autokernel.sh/expr"
)

// handleResolver maps a symbol name (as reported by the bridge) to the
// stable handle the Go side assigned it while walking the symbol dump.
type handleResolver func(name string) expr.Handle

// exprScanner is a small hand-rolled recursive-descent scanner over the
// wire s-expression grammar, in the same char-by-char style the rest of
// this codebase uses for its own small grammars (the scripted dialect
// lexer, the flat-dialect line format).
type exprScanner struct {
	s    string
	pos  int
	nameToHandle handleResolver
}

func parseExpr(s string, resolve handleResolver) (expr.Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NIL" {
		return nil, nil
	}
	sc := &exprScanner{s: s, nameToHandle: resolve}
	e, err := sc.parseNode()
	if err != nil {
		return nil, err
	}
	sc.skipSpace()
	if sc.pos != len(sc.s) {
		return nil, fmt.Errorf("trailing input at %d in %q", sc.pos, s)
	}
	return e, nil
}

func (sc *exprScanner) skipSpace() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *exprScanner) peekIdent() string {
	start := sc.pos
	for sc.pos < len(sc.s) && isIdentByte(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

func isIdentByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

func (sc *exprScanner) expect(b byte) error {
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != b {
		return fmt.Errorf("expected %q at %d in %q", b, sc.pos, sc.s)
	}
	sc.pos++
	return nil
}

func (sc *exprScanner) parseNode() (expr.Expr, error) {
	sc.skipSpace()
	tag := sc.peekIdent()
	if tag == "" {
		return nil, fmt.Errorf("expected node tag at %d in %q", sc.pos, sc.s)
	}

	if tag == "NIL" {
		return nil, nil
	}

	if err := sc.expect('('); err != nil {
		return nil, err
	}

	switch tag {
	case "SYM":
		name, err := sc.parseIdentOrString()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		return &expr.Symbol{H: sc.nameToHandle(name)}, nil

	case "CONST":
		val, err := sc.parseIdentOrString()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		return &expr.Const{Value: val}, nil

	case "NOT":
		x, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		return &expr.Not{X: x}, nil

	case "AND", "OR", "EQ", "NEQ", "LT", "LE", "GT", "GE":
		l, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		sc.skipSpace()
		if err := sc.expect(','); err != nil {
			return nil, err
		}
		r, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		return combine(tag, l, r), nil

	case "RANGE":
		sym, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		sc.skipSpace()
		if err := sc.expect(','); err != nil {
			return nil, err
		}
		lo, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		sc.skipSpace()
		if err := sc.expect(','); err != nil {
			return nil, err
		}
		hi, err := sc.parseNode()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		return &expr.Range{Sym: sym, Lo: lo, Hi: hi}, nil

	default:
		return nil, fmt.Errorf("unknown wire node tag %q", tag)
	}
}

func combine(tag string, l, r expr.Expr) expr.Expr {
	switch tag {
	case "AND":
		return &expr.And{L: l, R: r}
	case "OR":
		return &expr.Or{L: l, R: r}
	case "EQ":
		return &expr.Eq{L: l, R: r}
	case "NEQ":
		return &expr.Neq{L: l, R: r}
	case "LT":
		return expr.Lt(l, r)
	case "LE":
		return expr.Le(l, r)
	case "GT":
		return expr.Gt(l, r)
	case "GE":
		return expr.Ge(l, r)
	default:
		return nil
	}
}

// parseIdentOrString reads either a bare identifier or a double-quoted
// string (for CONST string literals and symbol names alike).
func (sc *exprScanner) parseIdentOrString() (string, error) {
	sc.skipSpace()
	if sc.pos < len(sc.s) && sc.s[sc.pos] == '"' {
		return sc.parseQuoted()
	}
	id := sc.peekIdent()
	if id == "" {
		return "", fmt.Errorf("expected identifier at %d in %q", sc.pos, sc.s)
	}
	return id, nil
}

func (sc *exprScanner) parseQuoted() (string, error) {
	if err := sc.expect('"'); err != nil {
		return "", err
	}
	start := sc.pos
	for sc.pos < len(sc.s) && sc.s[sc.pos] != '"' {
		if sc.s[sc.pos] == '\\' {
			sc.pos++
		}
		sc.pos++
	}
	if sc.pos >= len(sc.s) {
		return "", fmt.Errorf("unterminated quoted string in %q", sc.s)
	}
	val := sc.s[start:sc.pos]
	sc.pos++ // closing quote
	return strconv.Unquote(`"` + val + `"`)
}
