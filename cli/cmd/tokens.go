package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/frenebo/layer-lang/lang"
)

// Tokens prints the token stream of a program.
type Tokens struct {
	Format string `default:"text" enum:"text,json" help:"Output format (${enum})." short:"o"`
	Color  bool   `default:"true"                 help:"Colorize the listing."   negatable:""`
	Source string `arg:"" default:"-"             help:"Program file, or '-' for stdin." name:"source"`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, path, err := readSource(ctx, t.Source)
	if err != nil {
		return err
	}

	tokens, err := lang.Lex(src)
	if err != nil {
		return lang.WrapError(err).With(slog.String("file", path))
	}

	if t.Format == formatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(tokens); err != nil {
			return ErrWriteOutput.With(slog.String("format", t.Format)).Wrap(err)
		}

		return nil
	}

	p := newPalette()
	if !t.Color {
		p = plainPalette()
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)

	for _, tok := range tokens {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.pos(tok.Pos.String()), p.kind(tok.Kind), p.text(strconv.Quote(tok.Text)))
	}

	if err := tw.Flush(); err != nil {
		return ErrWriteOutput.With(slog.String("format", t.Format)).Wrap(err)
	}

	return nil
}

func plainPalette() palette {
	plain := func(a ...any) string {
		var sb strings.Builder

		for _, v := range a {
			fmt.Fprint(&sb, v)
		}

		return sb.String()
	}

	return palette{rule: plain, production: plain, kind: plain, text: plain, pos: plain}
}
