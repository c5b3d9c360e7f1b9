package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
	"github.com/frenebo/layer-lang/profile"
)

// limitFlags are the command flags of [Limits] written by init. Other
// command flags are left out because their meaning differs per command.
var limitFlags = []string{"engine", "max-depth", "max-steps", "timeout"}

// Init generates a configuration file from the current flag values. The file
// is a layer program; each top-level binding sets the flag of the same name
// with hyphens written as underscores.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	if err := i.buildScope(ktx).Format(ctx, file); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildScope collects the application flags and the [Limits] flags of the
// default command into a scope of configuration bindings.
func (i *Init) buildScope(ktx *kong.Context) *lang.Scope {
	scope := lang.NewScope(nil)

	prefixIgnore := []string{"help", "version", profile.Tag}

	flags := slices.Clone(ktx.Model.Flags)

	for _, child := range ktx.Model.Children {
		if child != ktx.Model.DefaultCmd {
			continue
		}

		for _, flag := range child.Flags {
			if slices.Contains(limitFlags, flag.Name) {
				flags = append(flags, flag)
			}
		}
	}

	for _, flag := range flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val, ok := configValue(ktx.FlagValue(flag)); ok {
			scope.Set(strings.ReplaceAll(flag.Name, "-", "_"), val)
		}
	}

	return scope
}

// configValue converts a flag value to a layer value. Empty values are
// omitted.
func configValue(v any) (lang.Value, bool) {
	switch v := v.(type) {
	case nil:
		return lang.Value{}, false

	case bool:
		return lang.NewBool(v), true

	case string:
		return lang.NewString(v), v != ""

	case time.Duration:
		return lang.NewString(v.String()), true

	case int:
		return lang.NewNumber(float64(v)), true

	case int64:
		return lang.NewNumber(float64(v)), true

	case float64:
		return lang.NewNumber(v), true

	case []string:
		if len(v) == 0 {
			return lang.Value{}, false
		}

		elems := make([]lang.Value, len(v))
		for i, s := range v {
			elems[i] = lang.NewString(s)
		}

		return lang.NewSequence(elems...), true

	default:
		s := fmt.Sprint(v)

		return lang.NewString(s), s != ""
	}
}
