// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is a small value type. Its zero value discards every record, so
// library code (the parser, the evaluator) can accept a Logger through a
// functional option and log unconditionally.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON))
//	logger.TraceContext(ctx, "parse complete", slog.Int("consumed", 12))
//
// # Levels
//
// In addition to the four slog levels the package defines [LevelTrace], used
// for per-statement and per-production diagnostics that are far too chatty
// for Debug.
//
// # Output
//
// Two formats are supported, [FormatText] and [FormatJSON]. Either may be
// rendered "pretty" with ANSI colors ([WithPretty]), which is the default for
// interactive use. Timestamps use [WithTimeLayout]; "none" disables them.
//
// # Default logger
//
// The package-level functions ([Info], [DebugContext], ...) write through a
// process-wide logger that the CLI reconfigures with [Config] as flags are
// parsed.
package log
