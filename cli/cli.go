package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/frenebo/layer-lang/cli/cmd"
	"github.com/frenebo/layer-lang/pkg"
)

// CLI is the top-level command-line interface for layer.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Source []string `help:"Prelude program file(s) run before the command, or '-' for stdin." name:"source" short:"s" type:"existingfile"`
	Path   []string `help:"Directories searched for program files, before $${searchPathVar}."                  name:"path"   short:"I" type:"path"`

	Run    cmd.Run    `cmd:"" default:"withargs" help:"Run programs and print their bindings."`
	Parse  cmd.Parse  `cmd:""                    help:"Print the parse tree of a program."`
	Tokens cmd.Tokens `cmd:""                    help:"Print the token stream of a program."`
	Fmt    cmd.Fmt    `cmd:""                    help:"Format a program or its parse tree."`
	Repl   cmd.Repl   `cmd:""                    help:"Start an interactive session."`
	Serve  cmd.Serve  `cmd:""                    help:"Serve the HTTP playground."`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file."`
}

// Run executes the layer CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"searchPathVar":      searchPathVar,
		"version":            pkg.Version(),
	}.
		CloneWith(cmd.LimitVars()).
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before parsing so that parse errors are
	// reported in the requested format.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithSearchPath(ctx, searchPath(cli.Path))

	defer cli.Log.start(ctx)()

	// No-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
