package cmd

import (
	"context"

	"github.com/frenebo/layer-lang/cli/cmd/repl"
	"github.com/frenebo/layer-lang/log"
)

// Repl starts an interactive session. The prelude bindings are in scope from
// the start, and --timeout bounds each input instead of the whole session.
type Repl struct {
	Limits `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := r.options()
	if err != nil {
		return err
	}

	scope, err := prelude(ctx, opts...)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	session := repl.NewSession(scope, log.Default(), opts...)
	session.Timeout = r.Timeout

	return repl.Run(ctx, session, cacheDir, log.Default())
}
