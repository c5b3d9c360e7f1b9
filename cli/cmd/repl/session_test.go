package repl

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

func testLogger() log.Logger { return log.Make(io.Discard) }

func get(t *testing.T, s *Session, name string) lang.Value {
	t.Helper()

	v, ok := s.Scope().Get(name)
	require.True(t, ok, "%s is unbound", name)

	return v
}

func TestSession_Eval(t *testing.T) {
	ctx := t.Context()
	s := NewSession(nil, testLogger())

	tests := []struct {
		input  string
		want   string
		result bool
	}{
		{"x = 2", "", false},
		{"x = x * 3;", "", false},
		{"x + 1", "7", true},
		{"x + 1;", "7", true},
		{`"n=" + x`, `"n=6"`, true},
		{"[x, _]", `[6, "n=6"]`, true},
		{"len(_)", "2", true},
		{"y = 0", "", false},
		{"if (x > 5) { y = 1; }", "", false},
		{"for (i = 0; i < 3; i = i + 1) { y = y + i; }", "", false},
		{"  ", "", false},
	}

	for _, tt := range tests {
		v, ok, err := s.Eval(ctx, tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.result, ok, tt.input)

		if ok {
			assert.Equal(t, tt.want, v.String(), tt.input)
		}
	}

	assert.Equal(t, lang.NewNumber(6), get(t, s, "x"))
	assert.Equal(t, lang.NewNumber(4), get(t, s, "y"))
	assert.Equal(t, lang.NewNumber(2), get(t, s, lastValue))
}

func TestSession_FailedInputIsDiscarded(t *testing.T) {
	ctx := t.Context()
	s := NewSession(lang.NewScope(map[string]lang.Value{
		"a": lang.NewNumber(1),
	}), testLogger())

	_, _, err := s.Eval(ctx, "a = 5; b = 2; c = missing;")
	require.ErrorIs(t, err, lang.ErrUnboundIdentifier)

	assert.Equal(t, lang.NewNumber(1), get(t, s, "a"))
	assert.Equal(t, []string{"a"}, s.Names())

	_, _, err = s.Eval(ctx, "a = ;")
	require.Error(t, err)

	_, _, err = s.Eval(ctx, "a = (1")
	require.Error(t, err)

	assert.Equal(t, []string{"a"}, s.Names())
}

func TestSession_Options(t *testing.T) {
	s := NewSession(nil, testLogger(), lang.WithMaxSteps(50))

	_, _, err := s.Eval(t.Context(), "while (true) { }")
	require.ErrorIs(t, err, lang.ErrStepLimit)
}

func TestSession_Timeout(t *testing.T) {
	s := NewSession(nil, testLogger())
	s.Timeout = 20 * time.Millisecond

	_, _, err := s.Eval(t.Context(), "while (true) { }")
	require.ErrorIs(t, err, lang.ErrCanceled)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok, err := s.Eval(t.Context(), "1 + 1")
	require.NoError(t, err, "each input gets its own deadline")
	assert.True(t, ok)
}

func TestSession_Rebuild(t *testing.T) {
	ctx := t.Context()
	s := NewSession(nil, testLogger())

	_, _, err := s.Eval(ctx, "old = 1;")
	require.NoError(t, err)

	scope, err := s.Rebuild(ctx, strings.NewReader("new = old_value = 2;"))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, s.Names(), "rebuild leaves the session unchanged")

	s.Reset(scope)
	assert.Equal(t, []string{"new", "old_value"}, s.Names())

	_, err = s.Rebuild(ctx, strings.NewReader("x = old;"))
	require.ErrorIs(t, err, lang.ErrUnboundIdentifier, "rebuild starts from an empty scope")
}

func TestLoneExpression(t *testing.T) {
	ctx := t.Context()

	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2;", "1 + 2"},
		{`len("a b");`, `len ( "a b" )`},
		{"x = 1;", ""},
		{"1; 2;", ""},
		{"{ 1; }", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tree, err := lang.ParseString(ctx, tt.src)
		require.NoError(t, err, tt.src)

		got := ""
		if n := loneExpression(tree); n != nil {
			got = n.Source()
		}

		assert.Equal(t, tt.want, got, tt.src)
	}
}
