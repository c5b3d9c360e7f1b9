package lang

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const formatInput = `x=1;if(x==1){y=[1,2,];}else{y=2;}`

func TestNode_Format(t *testing.T) {
	tree, err := ParseString(t.Context(), formatInput)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		indent int
		want   string
	}{
		{
			name:   "indented",
			indent: 2,
			want:   "x = 1;\nif (x == 1) {\n  y = [1, 2];\n} else {\n  y = 2;\n}\n",
		},
		{
			name:   "single line",
			indent: 0,
			want:   "x = 1; if (x == 1) { y = [1, 2]; } else { y = 2; }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tree.Format(t.Context(), &buf, tt.indent); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("Format (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNode_FormatRoundTrip(t *testing.T) {
	for _, src := range programs {
		t.Run(src, func(t *testing.T) {
			tree, err := ParseString(t.Context(), src)
			if err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			if err := tree.Format(t.Context(), &buf, 4); err != nil {
				t.Fatal(err)
			}

			again, err := ParseString(t.Context(), buf.String())
			if err != nil {
				t.Fatalf("reparse of\n%s\nfailed: %v", buf.String(), err)
			}

			// Trailing commas are dropped, so compare the canonical forms.
			var second bytes.Buffer
			if err := again.Format(t.Context(), &second, 4); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(buf.String(), second.String()); diff != "" {
				t.Errorf("format is not stable (-first +second):\n%s", diff)
			}
		})
	}
}

func TestNode_FormatElseIf(t *testing.T) {
	tree, err := ParseString(t.Context(), "if(a){}else if(b){c;}for(;;){}while(d){}")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := tree.Format(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	want := "if (a) {} else if (b) {\n  c;\n}\nfor (; ; ) {}\nwhile (d) {}\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Format (-want +got):\n%s", diff)
	}
}

func TestNode_FormatInvalid(t *testing.T) {
	var buf bytes.Buffer

	n := &Node{Rule: RuleStatement, Production: "expression"}
	if err := n.Format(t.Context(), &buf, 2); !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("expected ErrInvalidTree, got %v", err)
	}
}

func TestNode_Print(t *testing.T) {
	tree, err := ParseString(t.Context(), "x;")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := tree.Print(&buf); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		`statement_sequence/with_statement [2]`,
		`  statement/expression [2]`,
		`    expression/atom_with_op_suffix [1]`,
		`      atom/ident [1]`,
		`        identifier "x"`,
		`      operator_suffix/empty [0]`,
		`    semicolon ";"`,
		`  statement_sequence/empty [0]`,
	}, "\n") + "\n"

	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Print (-want +got):\n%s", diff)
	}
}

func TestNode_FormatJSON(t *testing.T) {
	tree, err := ParseString(t.Context(), "x;")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := tree.FormatJSON(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var decoded Node
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if diff := cmp.Diff(tree, &decoded); diff != "" {
		t.Errorf("JSON round trip (-want +got):\n%s", diff)
	}
}

func TestNode_FormatYAML(t *testing.T) {
	tree, err := ParseString(t.Context(), "x;")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := tree.FormatYAML(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"rule: statement_sequence", "production: with_statement", "text: x"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestScope_Format(t *testing.T) {
	scope := mustRun(t, `c = [true, 1.5, "s"]; a = 1; b = "hi";`)

	var buf bytes.Buffer
	if err := scope.Format(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}

	want := "a = 1;\nb = \"hi\";\nc = [true, 1.5, \"s\"];\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Format (-want +got):\n%s", diff)
	}

	again := mustRun(t, buf.String())
	for name, v := range scope.All() {
		expectBinding(t, again, name, v)
	}
}

func TestScope_FormatJSONAndYAML(t *testing.T) {
	scope := mustRun(t, `n = 1 / 0; s = []; b = false;`)

	var buf bytes.Buffer
	if err := scope.FormatJSON(t.Context(), &buf, 0); err != nil {
		t.Fatal(err)
	}

	if got, want := buf.String(), `{"b":false,"n":"Infinity","s":[]}`+"\n"; got != want {
		t.Errorf("FormatJSON = %q, want %q", got, want)
	}

	buf.Reset()

	if err := scope.FormatYAML(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "b: false") {
		t.Errorf("YAML output missing binding:\n%s", buf.String())
	}
}
