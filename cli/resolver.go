package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// configMaxSteps bounds the evaluation of a configuration program.
const configMaxSteps = 10000

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in the layer language.
//
// The file is an ordinary program. After it runs, each top-level binding sets
// the flag of the same name, with hyphens in flag names written as
// underscores:
//
//	log_level = "debug";
//	engine = "backtrack";
//	max_steps = 5000;
//	path = ["lib", "vendor/lib"];
//
// Numbers are passed to kong in their shortest decimal form, sequences as
// lists. Command-line flags override configuration values. A file that fails
// to parse or run is ignored with a warning.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		opts := []lang.Option{
			lang.WithMaxSteps(configMaxSteps),
			lang.WithLogger(log.Default()),
		}

		tree, err := lang.ParseReader(ctx, r, opts...)
		if err == nil {
			var scope *lang.Scope
			if scope, err = lang.Execute(ctx, tree, opts...); err == nil {
				return scopeConfig(scope), nil
			}
		}

		log.WarnContext(ctx, "ignoring configuration file", slog.Any("error", err))

		return config{}, nil
	}
}

// config implements [kong.Resolver] over configuration bindings.
type config map[string]any

// scopeConfig converts the bindings of scope to flag values.
func scopeConfig(scope *lang.Scope) config {
	c := make(config, scope.Len())

	for name, v := range scope.All() {
		c[name] = flagValue(v)
	}

	return c
}

// flagValue converts v to a value kong can decode into a flag.
func flagValue(v lang.Value) any {
	switch v.Type() {
	case lang.TypeNumber:
		f, _ := v.AsNumber()

		return strconv.FormatFloat(f, 'f', -1, 64)

	case lang.TypeSequence:
		elems, _ := v.AsSequence()

		list := make([]any, len(elems))
		for i, e := range elems {
			list[i] = flagValue(e)
		}

		return list

	default:
		return v.ToNative()
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	for _, name := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
		if v, ok := c[name]; ok {
			return v, nil
		}
	}

	return nil, nil
}
