package repl

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for a history index outside the loaded
	// entries.
	ErrOutOfBounds = errors.New("history index out of range")

	// ErrEditDeclined ends an edit session after a failed rebuild that the
	// user chose not to re-edit. The session scope is left unchanged.
	ErrEditDeclined = errors.New("edit declined")
)

func outOfBounds(i, n int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfBounds, i, n)
}
