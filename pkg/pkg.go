// Package pkg holds build metadata shared by the command and the server.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the semantic version embedded at build time. It is printed
// by the version flag and reported by the playground server.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command identifier. It appears in help text, the
	// default config and cache directory names, and the environment prefix.
	Name = "layer"
	// Description is a short, human-readable summary used in help output.
	Description = "Grammar-driven parser and tree-walking interpreter"
	// EnvPrefix prefixes every environment variable the CLI consults.
	EnvPrefix = "LAYER_"
)
