//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"
)

// Without the pprof tag there are no profiling flags to declare.
type pprofConfig struct{}

func (pprofConfig) vars() kong.Vars   { return kong.Vars{} }
func (pprofConfig) group() kong.Group { return kong.Group{} }

func (pprofConfig) start(context.Context) (stop func()) { return func() {} }
