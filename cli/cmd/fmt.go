package cmd

import (
	"context"
	"log/slog"

	"github.com/frenebo/layer-lang/lang"
)

// Fmt parses a program and writes it back in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical layer syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format the parse tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the parse tree as YAML."`
	Tree   Tree   `cmd:""                    help:"Format the parse tree as an outline."`
}

// fmtSource parses the program named by source for the given format.
func fmtSource(ctx context.Context, source, format string) (*lang.Node, error) {
	src, path, err := readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	tree, err := lang.ParseCached(ctx, src)
	if err != nil {
		return nil, lang.WrapError(err).With(
			slog.String("format", format),
			slog.String("file", path),
		)
	}

	return tree, nil
}

// Native formats input as canonical layer syntax.
type Native struct {
	Indent int `default:"2" help:"Indent width for nested blocks, 0 for a single line." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the fmt command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := fmtSource(ctx, f.Source, "native")
	if err != nil {
		return err
	}

	return tree.Format(ctx, stdout, f.Indent)
}

// JSON reads input, parses it, and outputs the tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := fmtSource(ctx, j.Source, formatJSON)
	if err != nil {
		return err
	}

	return tree.FormatJSON(ctx, stdout, j.Indent)
}

// YAML reads input, parses it, and outputs the tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := fmtSource(ctx, y.Source, formatYAML)
	if err != nil {
		return err
	}

	return tree.FormatYAML(ctx, stdout, y.Indent)
}

// Tree prints the parse tree as an indented outline.
type Tree struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the tree command.
func (a *Tree) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := fmtSource(ctx, a.Source, "tree")
	if err != nil {
		return err
	}

	return tree.Print(stdout)
}
