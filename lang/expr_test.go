package lang

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/expr-lang/expr"
)

// randomArith returns an unparenthesized chain of n+1 nonzero literals
// joined by arithmetic operators.
func randomArith(rng *rand.Rand, n int) string {
	var sb strings.Builder

	lit := func() {
		d := rng.IntN(9) + 1
		if rng.IntN(4) == 0 {
			d = -d
		}

		fmt.Fprint(&sb, d)
	}

	lit()

	for range n {
		sb.WriteString([]string{" + ", " - ", " * ", " / "}[rng.IntN(4)])
		lit()
	}

	return sb.String()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func TestReduce_ArithmeticMatchesExpr(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for range 500 {
		src := randomArith(rng, rng.IntN(7))

		want, err := expr.Eval(src, nil)
		if err != nil {
			t.Fatalf("expr.Eval(%q): %v", src, err)
		}

		wf, ok := toFloat(want)
		if !ok {
			t.Fatalf("expr.Eval(%q) returned %T", src, want)
		}

		scope, err := Run(t.Context(), "x = "+src+";")
		if err != nil {
			t.Fatalf("Run(%q): %v", src, err)
		}

		got, _ := scope.Get("x")

		gf, ok := got.AsNumber()
		if !ok {
			t.Fatalf("%s: got %s, want a number", src, got)
		}

		if math.Abs(gf-wf) > 1e-9*math.Max(1, math.Abs(wf)) {
			t.Errorf("%s = %v, want %v", src, gf, wf)
		}
	}
}

func TestReduce_LogicMatchesExpr(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	comparisons := []string{" < ", " > ", " <= ", " >= ", " == ", " != "}

	for range 300 {
		var sb strings.Builder

		for i := range rng.IntN(5) + 1 {
			if i > 0 {
				sb.WriteString([]string{" && ", " || "}[rng.IntN(2)])
			}

			sb.WriteString(randomArith(rng, rng.IntN(3)))
			sb.WriteString(comparisons[rng.IntN(len(comparisons))])
			sb.WriteString(randomArith(rng, rng.IntN(3)))
		}

		src := sb.String()

		want, err := expr.Eval(src, nil)
		if err != nil {
			t.Fatalf("expr.Eval(%q): %v", src, err)
		}

		scope, err := Run(t.Context(), "x = "+src+";")
		if err != nil {
			t.Fatalf("Run(%q): %v", src, err)
		}

		got, _ := scope.Get("x")
		if b, ok := got.AsBool(); !ok || b != want {
			t.Errorf("%s = %s, want %v", src, got, want)
		}
	}
}

func TestFlatten_CalleeMarking(t *testing.T) {
	tree, err := ParseString(t.Context(), "len(xs) + f[0](1);")
	if err != nil {
		t.Fatal(err)
	}

	n := tree.Child(0).Child(0)

	terms, ops, err := flatten(n)
	if err != nil {
		t.Fatal(err)
	}

	wantOps := []op{opCall, opAdd, opIndex, opCall}
	if len(ops) != len(wantOps) {
		t.Fatalf("ops = %v, want %v", ops, wantOps)
	}

	for i := range ops {
		if ops[i] != wantOps[i] {
			t.Errorf("op %d = %s, want %s", i, ops[i], wantOps[i])
		}
	}

	if len(terms) != len(ops)+1 {
		t.Fatalf("got %d terms for %d ops", len(terms), len(ops))
	}

	// Only a bare identifier directly before a call names a builtin.
	wantCallee := []bool{true, false, false, false, false}
	for i, tm := range terms {
		if tm.callee != wantCallee[i] {
			t.Errorf("term %d callee = %v, want %v", i, tm.callee, wantCallee[i])
		}
	}
}
