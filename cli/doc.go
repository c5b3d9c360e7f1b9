// Package cli contains the command line interface for layer.
//
// # Commands
//
//	layer [run] [flags] [file ...]   run programs and print their bindings
//	layer parse [flags] [file]       print the parse tree
//	layer tokens [flags] [file]      print the token stream
//	layer fmt [native|json|yaml|tree] [file]
//	layer repl                       interactive session
//	layer serve                      HTTP playground
//	layer init                       write the configuration file
//
// Program files named on the command line are looked up in the working
// directory, then in each --path directory, then in each directory of
// $LAYER_PATH. The ".layer" extension may be omitted.
//
// # Configuration
//
// The configuration file is itself a layer program, stored in the user
// configuration directory (for example ~/.config/layer/config). Its
// top-level bindings set the flags of the same name:
//
//	engine = "backtrack";
//	max_steps = 100000;
//	log_level = "debug";
//
// A JSON file of the same name with extension ".json" is also read.
// Command-line flags take precedence over both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o layer .
//
// Then --pprof-mode selects a profile and --pprof-dir the output directory,
// by default a pprof directory under the user cache directory.
package cli
