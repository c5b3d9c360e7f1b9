package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// Parse prints the parse tree of a program.
type Parse struct {
	Limits `embed:""`

	Verify bool   `                        help:"Parse with every engine and fail if their trees differ."`
	Color  bool   `default:"true"          help:"Colorize the outline."                                   negatable:""`
	Source string `arg:"" default:"-"      help:"Program file, or '-' for stdin."                         name:"source"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := p.options()
	if err != nil {
		return err
	}

	ctx, stop := p.withTimeout(ctx)
	defer stop()

	src, path, err := readSource(ctx, p.Source)
	if err != nil {
		return err
	}

	if p.Verify {
		if err := verifyEngines(ctx, src, opts...); err != nil {
			return lang.WrapError(err).With(slog.String("file", path))
		}
	}

	tree, err := lang.ParseString(ctx, src, opts...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("file", path))
	}

	if !p.Color {
		return tree.Print(stdout)
	}

	return newPalette().tree(stdout, tree)
}

// verifyEngines parses src with every engine and reports the first one whose
// result differs from the default engine's.
func verifyEngines(ctx context.Context, src string, opts ...lang.Option) error {
	type result struct {
		tree *lang.Node
		err  string
	}

	var (
		want     result
		wantName string
	)

	for i, name := range lang.Engines() {
		kind, err := lang.ParseEngine(name)
		if err != nil {
			return err
		}

		tree, err := lang.ParseString(ctx, src, append(opts, lang.WithEngine(kind))...)

		got := result{tree: tree}
		if err != nil {
			got.err = err.Error()
		}

		if i == 0 {
			want, wantName = got, name

			continue
		}

		diff := cmp.Diff(want.tree, got.tree)
		if diff == "" && want.err == got.err {
			continue
		}

		if diff == "" {
			diff = fmt.Sprintf("- %s\n+ %s", want.err, got.err)
		}

		return ErrEngineMismatch.With(
			slog.String("want", wantName),
			slog.String("got", name),
			slog.String("diff", diff),
		)
	}

	log.DebugContext(ctx, "engines agree", slog.Any("engines", lang.Engines()))

	return nil
}

// palette colorizes outlines and token listings. Colors are disabled
// automatically when output is not a terminal.
type palette struct {
	rule, production, kind, text, pos func(a ...any) string
}

func newPalette() palette {
	return palette{
		rule:       color.New(color.FgBlue, color.Bold).SprintFunc(),
		production: color.New(color.FgCyan).SprintFunc(),
		kind:       color.New(color.FgMagenta).SprintFunc(),
		text:       color.New(color.FgGreen).SprintFunc(),
		pos:        color.New(color.Faint).SprintFunc(),
	}
}

// tree writes the same outline as [lang.Node.Print] with colors.
func (p palette) tree(w io.Writer, n *lang.Node) error {
	var sb strings.Builder

	p.node(&sb, n, 0)

	_, err := io.WriteString(w, sb.String())

	return err
}

func (p palette) node(sb *strings.Builder, n *lang.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))

	if n.IsTerminal() {
		fmt.Fprintf(sb, "%s %s\n", p.kind(n.Rule), p.text(strconv.Quote(n.Text)))

		return
	}

	fmt.Fprintf(sb, "%s/%s [%d]\n", p.rule(n.Rule), p.production(n.Production), n.Consumed)

	for _, c := range n.Children {
		p.node(sb, c, depth+1)
	}
}
