package profile

import (
	"fmt"
	"slices"
)

// Config selects a profile and the directory its data is written to.
type Config struct {
	Mode  string
	Dir   string
	Quiet bool
}

// Profiler is a running profile.
type Profiler interface{ Stop() }

// Validate reports a mode that is neither empty nor one of [Modes].
func (c Config) Validate() error {
	if c.Mode == "" || slices.Contains(Modes(), c.Mode) {
		return nil
	}

	if len(Modes()) == 0 {
		return fmt.Errorf("profile mode %q requires building with -tags %s", c.Mode, Tag)
	}

	return fmt.Errorf("unsupported profile mode %q", c.Mode)
}

// Start starts the profile selected by c. Without the pprof build tag, with
// an empty mode or with an unsupported mode it returns a no-op Profiler.
// Start and Stop are always safe to call.
func (c Config) Start() Profiler {
	if c.Validate() != nil || c.Mode == "" {
		return ignore{}
	}

	return start(c)
}

type ignore struct{}

func (ignore) Stop() {}
