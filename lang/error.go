package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Sentinel errors. Errors returned by this package are derived from these
// with [Error.Wrap] and [Error.With] and still match them under [errors.Is].
var (
	// Lexing.
	ErrLex = NewError("no token matches input")

	// Grammar and parsing.
	ErrInvalidGrammar   = NewError("invalid grammar")
	ErrLeftRecursion    = NewError("left-recursive rule")
	ErrUnknownEngine    = NewError("unknown parse engine")
	ErrNoMatch          = NewError("no match for start rule")
	ErrTrailingTokens   = NewError("unconsumed trailing tokens")
	ErrMaxDepthExceeded = NewError("maximum parse depth exceeded")

	// Evaluation.
	ErrInvalidTree       = NewError("invalid parse tree")
	ErrUnboundIdentifier = NewError("unbound identifier")
	ErrNotABoolean       = NewError("condition is not a boolean")
	ErrTypeMismatch      = NewError("operand type mismatch")
	ErrIndexOutOfRange   = NewError("index out of range")
	ErrNotCallable       = NewError("value is not callable")
	ErrArgumentCount     = NewError("wrong number of arguments")

	// Host.
	ErrStepLimit  = NewError("step limit exceeded")
	ErrCanceled   = NewError("evaluation canceled")
	ErrReadInput  = NewError("failed to read input")
	ErrCacheStore = NewError("parse tree store")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError converts err to an *Error. If err already is one (or wraps one),
// that error is returned unchanged.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// "<msg>: <err>", "<msg>", or "<err>" depending on which are set.
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message. Derived errors
// created by Wrap and With share their sentinel's message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	return e.msg != "" && e.msg == t.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns a copy of the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}
