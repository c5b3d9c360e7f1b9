package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/frenebo/layer-lang/lang"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-run-retry loop. It
// writes the session bindings as a program to a temp file, opens the user's
// editor, and runs the result in a fresh scope. On error the user is
// prompted to re-edit; declining leaves the session unchanged.
type editCommand struct {
	session *Session
	ctxFunc func() context.Context
	scope   *lang.Scope
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. A successful edit leaves the new scope in
// c.scope; an emptied file leaves it nil.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	var buf bytes.Buffer
	if err := c.session.Scope().Format(ctx, &buf); err != nil {
		return fmt.Errorf("format bindings: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "layer-repl-*.layer")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := buf.Bytes()

	for {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		if content, err = os.ReadFile(path); err != nil {
			return err
		}

		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}

		scope, runErr := c.session.Rebuild(ctx, bytes.NewReader(content))

		c.session.logger.TraceContext(ctx, "editor run attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", runErr == nil),
		)

		if runErr == nil {
			c.scope = scope

			return nil
		}

		fmt.Fprintf(c.stderr, "\nerror: %s\n", runErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		if !confirm(c.stdin) {
			return ErrEditDeclined
		}
	}
}

// confirm reads a yes/no answer that defaults to yes.
func confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// runEditor runs $EDITOR, or vi, on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
