package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenebo/layer-lang/lang"
)

const sample = "for (i = 0; i < 3; i = i + 1) { s = push(s, i); }"

func TestParse_Outline(t *testing.T) {
	setStdin(t, "x;")
	out := captureStdout(t)

	require.NoError(t, (&Parse{Source: "-", Verify: true}).Run(t.Context()))

	want := `statement_sequence/with_statement [2]
  statement/expression [2]
    expression/atom_with_op_suffix [1]
      atom/ident [1]
        identifier "x"
      operator_suffix/empty [0]
    semicolon ";"
  statement_sequence/empty [0]
`
	assert.Equal(t, want, out.String())
}

func TestParse_ColorlessPaletteMatchesPrint(t *testing.T) {
	old := color.NoColor
	color.NoColor = true

	t.Cleanup(func() { color.NoColor = old })

	tree, err := lang.ParseString(t.Context(), sample)
	require.NoError(t, err)

	var plain, colored bytes.Buffer

	require.NoError(t, tree.Print(&plain))
	require.NoError(t, newPalette().tree(&colored, tree))
	assert.Equal(t, plain.String(), colored.String())
}

func TestParse_Errors(t *testing.T) {
	setStdin(t, "if (true) {")
	captureStdout(t)

	err := (&Parse{Source: "-"}).Run(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, lang.ErrTrailingTokens)
}

func TestVerifyEngines(t *testing.T) {
	for _, src := range []string{sample, "x = ;", "", "if (a) {} else if (b) {} else {}"} {
		assert.NoError(t, verifyEngines(t.Context(), src), src)
	}
}

func TestTokens(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		setStdin(t, "a = \"b\";")
		out := captureStdout(t)

		require.NoError(t, (&Tokens{Source: "-"}).Run(t.Context()))

		want := "1:1  identifier      \"a\"\n" +
			"1:3  equals_sign     \"=\"\n" +
			"1:5  literal_string  \"\\\"b\\\"\"\n" +
			"1:8  semicolon       \";\"\n"
		assert.Equal(t, want, out.String())
	})

	t.Run("json", func(t *testing.T) {
		setStdin(t, "a;")
		out := captureStdout(t)

		require.NoError(t, (&Tokens{Source: "-", Format: formatJSON}).Run(t.Context()))

		var tokens []lang.Token
		require.NoError(t, json.Unmarshal(out.Bytes(), &tokens))
		require.Len(t, tokens, 2)
		assert.Equal(t, lang.KindIdentifier, tokens[0].Kind)
		assert.Equal(t, 2, tokens[1].Pos.Column)
	})

	t.Run("lex error", func(t *testing.T) {
		setStdin(t, "a = $;")
		captureStdout(t)

		assert.ErrorIs(t, (&Tokens{Source: "-"}).Run(t.Context()), lang.ErrLex)
	})
}
