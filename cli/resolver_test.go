package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, src string) config {
	t.Helper()

	r, err := resolve(context.Background())(strings.NewReader(src))
	require.NoError(t, err)

	c, ok := r.(config)
	require.True(t, ok, "resolver type %T", r)

	return c
}

func TestResolve_Bindings(t *testing.T) {
	c := loadConfig(t, `
		# computed values are allowed
		log_level = "de" + "bug";
		max_steps = 250 * 4;
		pretty = 1 < 2;
		path = ["lib", "vendor"];
		ratio = 0.5;
	`)

	assert.Equal(t, config{
		"log_level": "debug",
		"max_steps": "1000",
		"pretty":    true,
		"path":      []any{"lib", "vendor"},
		"ratio":     "0.5",
	}, c)
}

func TestResolve_InvalidProgramIgnored(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":  `log_level = ;`,
		"runtime": `x = missing;`,
		"steps":   `while (true) { }`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, loadConfig(t, src))
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	c := config{
		"max_steps": "10",
		"engine":    "backtrack",
	}

	tests := []struct {
		flag string
		want any
	}{
		{"max-steps", "10"},
		{"engine", "backtrack"},
		{"max-depth", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := c.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_AppliesToFlags(t *testing.T) {
	var cli struct {
		Engine   string   `default:"stack"`
		MaxSteps int      `default:"0"`
		Pretty   bool     `default:"false"`
		Path     []string ``
		Other    string   `default:"unset"`
	}

	parser, err := kong.New(&cli, kong.Resolvers(loadConfig(t, `
		engine = "backtrack";
		max_steps = 42;
		pretty = true;
		path = ["a", "b"];
	`)))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--engine=stack"})
	require.NoError(t, err)

	assert.Equal(t, "stack", cli.Engine, "command line wins over configuration")
	assert.Equal(t, 42, cli.MaxSteps)
	assert.True(t, cli.Pretty)
	assert.Equal(t, []string{"a", "b"}, cli.Path)
	assert.Equal(t, "unset", cli.Other)
}
