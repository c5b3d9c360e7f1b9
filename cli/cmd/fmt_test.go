package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenebo/layer-lang/lang"
)

func TestFmt_Native(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		indent int
		want   string
	}{
		{
			name:   "indented",
			input:  "x=1;while(x<3){x=x+1;}",
			indent: 2,
			want:   "x = 1;\nwhile (x < 3) {\n  x = x + 1;\n}\n",
		},
		{
			name:   "single line",
			input:  "a=[1,2,];b=a[0];",
			indent: 0,
			want:   "a = [1, 2]; b = a[0];\n",
		},
		{
			name:   "comments dropped",
			input:  "# header\nc = \"s\"; // trailing\n",
			indent: 4,
			want:   "c = \"s\";\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setStdin(t, tt.input)
			out := captureStdout(t)

			require.NoError(t, (&Native{Indent: tt.indent, Source: "-"}).Run(t.Context()))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestFmt_InvalidSyntax(t *testing.T) {
	for _, input := range []string{"x = ", "while (x) {", "@"} {
		setStdin(t, input)
		captureStdout(t)

		assert.Error(t, (&Native{Source: "-"}).Run(t.Context()), input)
	}
}

func TestFmt_JSON(t *testing.T) {
	setStdin(t, "x;")
	out := captureStdout(t)

	require.NoError(t, (&JSON{Indent: 2, Source: "-"}).Run(t.Context()))

	var tree lang.Node
	require.NoError(t, json.Unmarshal(out.Bytes(), &tree))
	assert.Equal(t, lang.RuleStatementSequence, tree.Rule)
	assert.Equal(t, 2, tree.Consumed)
}

func TestFmt_YAMLAndTree(t *testing.T) {
	setStdin(t, "x;")
	out := captureStdout(t)

	require.NoError(t, (&YAML{Indent: 2, Source: "-"}).Run(t.Context()))
	assert.Contains(t, out.String(), "rule: statement_sequence")

	setStdin(t, "x;")
	out = captureStdout(t)

	require.NoError(t, (&Tree{Source: "-"}).Run(t.Context()))
	assert.Contains(t, out.String(), `identifier "x"`)
}
