package repl

import (
	"testing"

	"github.com/sahilm/fuzzy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenebo/layer-lang/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "len(fo", 6, "fo", 4, 6},
		{"after_comma", "push(a, fo", 10, "fo", 8, 10},
		{"after_bracket", "xs[id", 5, "id", 3, 5},
		{"after_brace", "{fo", 3, "fo", 1, 3},
		{"after_equals", "x=fo", 4, "fo", 2, 4},
		{"after_comparison", "a >= fo", 7, "fo", 5, 7},
		{"after_semicolon", "a = 1;fo", 8, "fo", 6, 8},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "my_var", 6, "my_var", 0, 6},
		{"cursor_past_end", "ab", 10, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)

			assert.Equal(t, tt.wantWord, word)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestInsideString(t *testing.T) {
	assert.False(t, insideString(`x = ab`, 6))
	assert.True(t, insideString(`x = "ab`, 7))
	assert.False(t, insideString(`x = "ab" + c`, 12))
	assert.True(t, insideString(`x = "a\"b`, 9))
}

func TestEvalCandidates(t *testing.T) {
	s := NewSession(lang.NewScope(map[string]lang.Value{
		"length": lang.NewNumber(1),
		"len":    lang.NewNumber(2),
	}), testLogger())

	got := evalCandidates(s)

	assert.IsIncreasing(t, got)
	assert.Contains(t, got, "length")
	assert.Contains(t, got, "while")

	for _, b := range lang.Builtins() {
		assert.Contains(t, got, b.Name)
	}

	count := 0

	for _, name := range got {
		if name == "len" {
			count++
		}
	}

	assert.Equal(t, 1, count, "a binding named like a builtin appears once")
}

func TestComputeMatches(t *testing.T) {
	s := NewSession(lang.NewScope(map[string]lang.Value{
		"counter": lang.NewNumber(1),
	}), testLogger())

	m := newModel(t.Context(), s, NewHistory(t.TempDir()+"/h"), testLogger())

	m.input.SetValue("x = cou")
	m.input.SetCursor(7)

	matches, _, start, end := m.computeMatches()
	require.NotEmpty(t, matches)
	assert.Equal(t, "counter", matches[0].Str)
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)

	m.input.SetValue(`x = "cou`)
	m.input.SetCursor(8)

	matches, _, _, _ = m.computeMatches()
	assert.Empty(t, matches, "no completion inside string literals")

	m = m.switchToMode(modeCtrl)
	m.input.SetValue("ed")
	m.input.SetCursor(2)

	matches, _, _, _ = m.computeMatches()
	require.NotEmpty(t, matches)
	assert.Equal(t, "edit", matches[0].Str)
}

func TestRenderCandidateBar(t *testing.T) {
	matches := fuzzy.Find("a", []string{"alpha", "beta", "gamma", "delta"})
	require.Len(t, matches, 4)

	assert.Empty(t, renderCandidateBar(nil, -1, false, 80))
	assert.Empty(t, renderCandidateBar(matches, -1, false, 0))

	wide := renderCandidateBar(matches, -1, false, 80)
	assert.NotContains(t, wide, "...")

	narrow := renderCandidateBar(matches, -1, false, 12)
	assert.Contains(t, narrow, "...")
}

func TestFormatPreview(t *testing.T) {
	assert.Equal(t, `"hi"`, formatPreview(lang.NewString("hi")))

	long := formatPreview(lang.NewString(string(make([]byte, 100))))
	assert.Len(t, []rune(long), previewWidth)
	assert.Contains(t, long, "...")
}
