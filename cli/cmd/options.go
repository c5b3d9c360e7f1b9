package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// Limits holds the parse and evaluation settings shared by the commands that
// run programs.
type Limits struct {
	Engine   string        `default:"${engineDefault}" enum:"${engineEnum}" help:"Parse engine (${enum})." short:"e"`
	MaxDepth int           `default:"0"                                    help:"Maximum nesting of rule attempts while parsing, 0 for no limit."`
	MaxSteps int           `default:"0"                                    help:"Maximum statements and loop iterations executed, 0 for no limit."`
	Timeout  time.Duration `default:"0s"                                   help:"Abort a run after this long, 0 for no limit."`
}

// LimitVars returns the kong variables referenced by [Limits] tags.
func LimitVars() kong.Vars {
	return kong.Vars{
		"engineEnum":    strings.Join(lang.Engines(), ","),
		"engineDefault": lang.DefaultEngine.String(),
	}
}

// options converts the limits to language options. The process-wide logger
// is attached so that trace records follow --log-level.
func (l Limits) options() ([]lang.Option, error) {
	engine, err := lang.ParseEngine(l.Engine)
	if err != nil {
		return nil, err
	}

	return []lang.Option{
		lang.WithEngine(engine),
		lang.WithMaxDepth(l.MaxDepth),
		lang.WithMaxSteps(l.MaxSteps),
		lang.WithLogger(log.Default()),
	}, nil
}

// withTimeout bounds ctx by the configured timeout. The cancel cause is
// [ErrTimeout] so that evaluation errors report it.
func (l Limits) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeoutCause(ctx, l.Timeout,
		ErrTimeout.With(slog.Duration("timeout", l.Timeout)))
}
