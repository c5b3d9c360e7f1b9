package cmd

import "github.com/frenebo/layer-lang/lang"

// Command errors share the [lang.Error] type, so wrapped program errors and
// command failures log with the same attribute layout.
var (
	// Sources.
	ErrSourceNotFound = lang.NewError("source not found")
	ErrOpenSource     = lang.NewError("open source")
	ErrPrelude        = lang.NewError("prelude failed")
	ErrWatch          = lang.NewError("watch sources")
	ErrWatchStdin     = lang.NewError("cannot watch stdin")

	// Execution.
	ErrTimeout        = lang.NewError("time limit exceeded")
	ErrEngineMismatch = lang.NewError("parse engines disagree")

	// Output.
	ErrWriteOutput = lang.NewError("write output")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")

	// Playground.
	ErrServe           = lang.NewError("playground server")
	ErrInvalidRequest  = lang.NewError("invalid request")
	ErrRequestSchema   = lang.NewError("compile request schema")
	ErrUnknownEndpoint = lang.NewError("unknown endpoint")
)
