package lang

import (
	"errors"
	"testing"
)

func kinds(tokens []Token) []Symbol {
	out := make([]Symbol, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}

	return out
}

func TestLex_Kinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Symbol
	}{
		{
			name: "assignment",
			src:  "x = 1.5;",
			want: []Symbol{KindIdentifier, KindEqualsSign, KindLiteralNumber, KindSemicolon},
		},
		{
			name: "keywords beat identifiers of equal length",
			src:  "if iffy while_ for else true false",
			want: []Symbol{
				KindKeywordIf, KindIdentifier, KindIdentifier, KindKeywordFor,
				KindKeywordElse, KindKeywordTrue, KindKeywordFalse,
			},
		},
		{
			name: "longest operator wins",
			src:  "a<=b>=c!=d==e||f&&g<h>i",
			want: []Symbol{
				KindIdentifier, KindLessOrEqual, KindIdentifier, KindMoreOrEqual,
				KindIdentifier, KindNotEqual, KindIdentifier, KindDoubleEqual,
				KindIdentifier, KindOr, KindIdentifier, KindAnd, KindIdentifier,
				KindLessThan, KindIdentifier, KindMoreThan, KindIdentifier,
			},
		},
		{
			name: "punctuation",
			src:  "{ ( [ ] ) } , + - * /",
			want: []Symbol{
				KindOpenBrace, KindOpenParenthesis, KindOpenBracket,
				KindCloseBracket, KindCloseParenthesis, KindCloseBrace,
				KindComma, KindPlus, KindMinusSign, KindAsterisk, KindForwardSlash,
			},
		},
		{
			name: "comments are dropped",
			src:  "# leading\nx; // trailing\r\n",
			want: []Symbol{KindIdentifier, KindSemicolon},
		},
		{
			name: "negative number is two tokens",
			src:  "-.5",
			want: []Symbol{KindMinusSign, KindLiteralNumber},
		},
		{
			name: "empty",
			src:  " \t\n",
			want: []Symbol{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.src, err)
			}

			got := kinds(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("Lex(%q) = %v, want %v", tt.src, got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLex_StringText(t *testing.T) {
	tokens, err := Lex(`s = "a \"quoted\" word";`)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}

	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %v", tokens)
	}

	if got, want := tokens[2].Text, `"a \"quoted\" word"`; got != want {
		t.Errorf("string text = %s, want %s", got, want)
	}
}

func TestLex_NonASCIIIdentifier(t *testing.T) {
	// é is outside [a-zA-Z0-9_], so "bé" stops lexing after "b".
	tokens, err := Lex("a\n  bé = c")
	if !errors.Is(err, ErrLex) {
		t.Fatalf("expected ErrLex, got %v", err)
	}

	if tokens != nil {
		t.Errorf("expected no tokens on failure, got %v", tokens)
	}
}

func TestLex_PositionTracking(t *testing.T) {
	tokens, err := Lex("a\n  b = c")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}

	want := []Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 4, Line: 2, Column: 3},
		{Offset: 6, Line: 2, Column: 5},
		{Offset: 8, Line: 2, Column: 7},
	}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}

	for i, tok := range tokens {
		if tok.Pos != want[i] {
			t.Errorf("token %d (%s) at %+v, want %+v", i, tok, tok.Pos, want[i])
		}
	}
}

func TestLex_Error(t *testing.T) {
	_, err := Lex("x = 1;\ny = @;")
	if !errors.Is(err, ErrLex) {
		t.Fatalf("expected ErrLex, got %v", err)
	}

	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *Error, got %T", err)
	}

	found := false

	for _, a := range le.Attrs() {
		if a.Key == "near" && a.Value.String() == "@" {
			found = true
		}
	}

	if !found {
		t.Errorf("expected near=@ attribute, got %v", le.Attrs())
	}
}

func TestToken_String(t *testing.T) {
	tok := Token{Kind: KindIdentifier, Text: "x"}
	if got, want := tok.String(), `identifier("x")`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
