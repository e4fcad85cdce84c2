// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package script

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	toks, err := newLexer(`NET("y") # comment`).tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKinds := []tokenKind{tokIdent, tokLParen, tokString, tokRParen, tokEOF}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].kind != k {
			t.Errorf("token %d: got kind %v, want %v", i, toks[i].kind, k)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"\x41"`, "A"},
		{`"A"`, "A"},
		{`"\101"`, "A"},
		{`"\\"`, `\`},
	}
	for _, tt := range tests {
		toks, err := newLexer(tt.src).tokens()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.src, err)
		}
		if toks[0].kind != tokString || toks[0].text != tt.want {
			t.Errorf("%s: got %q, want %q", tt.src, toks[0].text, tt.want)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	toks, err := newLexer("9 0x1F").tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].num != 9 {
		t.Errorf("got %d, want 9", toks[0].num)
	}
	if toks[1].num != 0x1F {
		t.Errorf("got %d, want 31", toks[1].num)
	}
}

func TestLexerKeywords(t *testing.T) {
	toks, err := newLexer("if a then b else c end and or not").tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []tokenKind{tokIf, tokIdent, tokThen, tokIdent, tokElse, tokIdent, tokEnd, tokAnd, tokOr, tokNot, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].kind, k)
		}
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	if _, err := newLexer(`"unterminated`).tokens(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}
