package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenebo/layer-lang/lang"
)

func TestMain(m *testing.M) {
	// The configuration and cache directories are resolved once per process.
	home, err := os.MkdirTemp("", "layer-cli-test-")
	if err != nil {
		panic(err)
	}

	for _, v := range []string{"HOME", "XDG_CONFIG_HOME", "XDG_CACHE_HOME"} {
		_ = os.Setenv(v, home)
	}

	_ = os.Setenv(searchPathVar, "")

	code := m.Run()

	_ = os.RemoveAll(home)

	os.Exit(code)
}

func run(t *testing.T, args ...string) error {
	t.Helper()

	exited := -1

	err := Run(context.Background(), func(code int) { exited = code }, args...)
	assert.Equal(t, -1, exited, "unexpected exit")

	return err
}

func TestRun_InitThenConfigApplies(t *testing.T) {
	conf := configPath(baseConfig)

	t.Cleanup(func() { _ = os.Remove(conf) })

	require.NoError(t, run(t, "--log-level=warn", "init", "--force"))

	data, err := os.ReadFile(conf)
	require.NoError(t, err)
	assert.Contains(t, string(data), `engine = "stack";`)
	assert.Contains(t, string(data), `log_level = "warn";`)

	require.NoError(t, os.WriteFile(conf, []byte("max_steps = 5;\n"), 0o600))

	prog := filepath.Join(t.TempDir(), "loop.layer")
	require.NoError(t, os.WriteFile(prog, []byte("while (true) { }"), 0o600))

	err = run(t, "run", "--no-cache", prog)
	require.ErrorIs(t, err, lang.ErrStepLimit)

	err = run(t, "run", "--no-cache", "--max-steps=0", "--timeout=50ms", prog)
	require.ErrorIs(t, err, lang.ErrCanceled, "command line overrides configuration")
}

func TestRun_SearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.layer"), []byte("x = 1;"), 0o600))

	require.NoError(t, run(t, "--path", dir, "run", "--no-cache", "lib"))

	t.Setenv(searchPathVar, dir)
	require.NoError(t, run(t, "run", "--no-cache", "lib"))

	require.Error(t, run(t, "run", "--no-cache", "missing"))
}
