package lang

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var engines = []EngineKind{EngineStack, EngineBacktrack}

func mustLex(t *testing.T, src string) []Token {
	t.Helper()

	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}

	return tokens
}

func toks(kinds ...Symbol) []Token {
	out := make([]Token, len(kinds))
	for i, k := range kinds {
		out[i] = Token{Kind: k, Text: string(k)}
	}

	return out
}

var programs = []string{
	``,
	`x;`,
	`x = 1;`,
	`x = y = 2 + 3 * 4;`,
	`s = "a" + 1 + [1, 2, 3][0];`,
	`{ a = 1; { b = 2; } }`,
	`while (i < 10) { i = i + 1; }`,
	`if (a == 1) { b = 2; } else if (a == 2) { b = 3; } else { b = 4; }`,
	`for (i = 0; i < 3; i = i + 1) { x = x + i; }`,
	`for (;;) {}`,
	`xs = push([], len("abc"))[0];`,
	`n = -1 - -2 * (3 - 4) / 5;`,
	`b = true && false || 1 <= 2 && 3 >= 4 || 5 != 6;`,
	`arr = [[1, 2], [3,], []];`,
}

func TestParseProgram_EnginesAgree(t *testing.T) {
	for _, src := range programs {
		t.Run(src, func(t *testing.T) {
			tokens := mustLex(t, src)

			stack, err := ParseProgram(t.Context(), tokens, WithEngine(EngineStack))
			if err != nil {
				t.Fatalf("stack engine: %v", err)
			}

			back, err := ParseProgram(t.Context(), tokens, WithEngine(EngineBacktrack))
			if err != nil {
				t.Fatalf("backtrack engine: %v", err)
			}

			if diff := cmp.Diff(back, stack); diff != "" {
				t.Errorf("engines disagree (-backtrack +stack):\n%s", diff)
			}

			if stack.Consumed != len(tokens) {
				t.Errorf("consumed %d of %d tokens", stack.Consumed, len(tokens))
			}

			if !stack.valid() {
				t.Error("tree violates the consumed-count invariant")
			}
		})
	}
}

func TestParseProgram_RandomTokensAgree(t *testing.T) {
	alphabet := []Symbol{
		KindIdentifier, KindLiteralNumber, KindLiteralString, KindEqualsSign,
		KindSemicolon, KindPlus, KindAsterisk, KindMinusSign, KindOpenParenthesis,
		KindCloseParenthesis, KindOpenBracket, KindCloseBracket, KindOpenBrace,
		KindCloseBrace, KindComma, KindKeywordIf, KindKeywordElse, KindKeywordTrue,
	}

	rng := rand.New(rand.NewPCG(1, 2))

	for range 300 {
		kinds := make([]Symbol, rng.IntN(10))
		for i := range kinds {
			kinds[i] = alphabet[rng.IntN(len(alphabet))]
		}

		tokens := toks(kinds...)

		stack, serr := ParseProgram(t.Context(), tokens, WithEngine(EngineStack))
		back, berr := ParseProgram(t.Context(), tokens, WithEngine(EngineBacktrack))

		if (serr == nil) != (berr == nil) ||
			(serr != nil && serr.Error() != berr.Error()) {
			t.Fatalf("%v: errors differ: stack=%v backtrack=%v", kinds, serr, berr)
		}

		if diff := cmp.Diff(back, stack); diff != "" {
			t.Fatalf("%v: trees differ (-backtrack +stack):\n%s", kinds, diff)
		}
	}
}

func TestEngines_LongestMatch(t *testing.T) {
	g, err := NewGrammar("s",
		Rule{Name: "s", Productions: []Production{
			prod("short", "a"),
			prod("long", "a", "b"),
			prod("shorter", "a"),
		}},
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, kind := range engines {
		t.Run(kind.String(), func(t *testing.T) {
			n, err := kind.New(0).Parse(t.Context(), g, toks("a", "b"), 0, "s")
			if err != nil {
				t.Fatal(err)
			}

			if n == nil || n.Production != "long" || n.Consumed != 2 {
				t.Fatalf("expected long match, got %+v", n)
			}

			n, err = kind.New(0).Parse(t.Context(), g, toks("a", "c"), 0, "s")
			if err != nil {
				t.Fatal(err)
			}

			if n == nil || n.Production != "short" || n.Consumed != 1 {
				t.Fatalf("expected tie to go to the first production, got %+v", n)
			}

			n, err = kind.New(0).Parse(t.Context(), g, toks("c"), 0, "s")
			if err != nil || n != nil {
				t.Fatalf("expected no match, got %+v, %v", n, err)
			}
		})
	}
}

func TestEngines_EmptyProductionHasNoChildren(t *testing.T) {
	for _, kind := range engines {
		n, err := kind.New(0).Parse(t.Context(), DefaultGrammar(), nil, 0, RuleStatementSequence)
		if err != nil {
			t.Fatal(err)
		}

		want := &Node{Rule: RuleStatementSequence, Production: "empty"}
		if diff := cmp.Diff(want, n); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", kind, diff)
		}
	}
}

func TestParseProgram_Unterminated(t *testing.T) {
	for _, kind := range engines {
		t.Run(kind.String(), func(t *testing.T) {
			tree, err := ParseProgram(t.Context(), mustLex(t, "if (true) {"), WithEngine(kind))
			if tree != nil {
				t.Fatalf("expected no tree, got %+v", tree)
			}

			if !errors.Is(err, ErrTrailingTokens) && !errors.Is(err, ErrNoMatch) {
				t.Fatalf("expected NoMatch or TrailingTokens, got %v", err)
			}
		})
	}
}

func TestParseProgram_TrailingTokens(t *testing.T) {
	_, err := ParseProgram(t.Context(), mustLex(t, "x = 1; y = ;"))
	if !errors.Is(err, ErrTrailingTokens) {
		t.Fatalf("expected ErrTrailingTokens, got %v", err)
	}

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %T", err)
	}

	for _, a := range pe.Attrs() {
		if a.Key == "consumed" && a.Value.Int64() != 4 {
			t.Errorf("consumed = %d, want 4", a.Value.Int64())
		}
	}
}

func TestParseProgram_NoMatch(t *testing.T) {
	g, err := NewGrammar("s", Rule{Name: "s", Productions: []Production{prod("one", "a")}})
	if err != nil {
		t.Fatal(err)
	}

	for _, kind := range engines {
		_, err := ParseProgram(t.Context(), toks("b"), WithGrammar(g), WithEngine(kind))
		if !errors.Is(err, ErrNoMatch) {
			t.Errorf("%s: expected ErrNoMatch, got %v", kind, err)
		}
	}
}

func TestParseProgram_MaxDepth(t *testing.T) {
	tokens := mustLex(t, "x = ((((1))));")

	for _, kind := range engines {
		t.Run(kind.String(), func(t *testing.T) {
			if _, err := ParseProgram(t.Context(), tokens, WithEngine(kind), WithMaxDepth(3)); !errors.Is(err, ErrMaxDepthExceeded) {
				t.Errorf("expected ErrMaxDepthExceeded, got %v", err)
			}

			if _, err := ParseProgram(t.Context(), tokens, WithEngine(kind), WithMaxDepth(0)); err != nil {
				t.Errorf("unlimited depth: %v", err)
			}

			if _, err := ParseProgram(t.Context(), tokens, WithEngine(kind), WithMaxDepth(100)); err != nil {
				t.Errorf("generous depth: %v", err)
			}
		})
	}
}

func TestParseProgram_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	for _, kind := range engines {
		_, err := ParseProgram(ctx, mustLex(t, "x = 1;"), WithEngine(kind))
		if !errors.Is(err, ErrCanceled) {
			t.Errorf("%s: expected ErrCanceled, got %v", kind, err)
		}

		if !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected cause context.Canceled, got %v", kind, err)
		}
	}
}

func TestStackEngine_LongInput(t *testing.T) {
	src := strings.Repeat("x = x + 1;\n", 2000)

	tree, err := ParseProgram(t.Context(), mustLex(t, src), WithEngine(EngineStack))
	if err != nil {
		t.Fatal(err)
	}

	if tree.Consumed != 2000*6 {
		t.Errorf("consumed %d tokens, want %d", tree.Consumed, 2000*6)
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in   string
		want EngineKind
		err  bool
	}{
		{"stack", EngineStack, false},
		{"STACK", EngineStack, false},
		{"", EngineStack, false},
		{"backtrack", EngineBacktrack, false},
		{"recursive", EngineBacktrack, false},
		{"earley", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseEngine(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownEngine) {
				t.Errorf("ParseEngine(%q): expected ErrUnknownEngine, got %v", tt.in, err)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("ParseEngine(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestNode_Source(t *testing.T) {
	tree, err := ParseString(t.Context(), "x   =  [1,2];")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := tree.Source(), "x = [ 1 , 2 ] ;"; got != want {
		t.Errorf("Source() = %q, want %q", got, want)
	}
}
