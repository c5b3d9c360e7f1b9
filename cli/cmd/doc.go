// Package cmd implements the layer subcommands: run, parse, tokens, fmt,
// repl, serve and init.
//
// Commands receive a context carrying the [kong.Context], the prelude
// sources given with --source and the directories searched for program
// files. Programs named on the command line are resolved against that search
// path, trying the ".layer" extension when the bare name does not exist.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)

// Extension is appended to program names that do not exist as given.
const Extension = ".layer"
