package lang

import (
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"
)

// Builtin describes a host function callable from programs. Builtins are
// not values: they are resolved by name at the call site and cannot be
// rebound or shadowed.
type Builtin struct {
	fn     func(args []Value) (Value, error)
	Name   string
	Doc    string
	Params []string
}

// Signature returns the builtin rendered as name(param, ...).
func (b Builtin) Signature() string {
	return b.Name + "(" + strings.Join(b.Params, ", ") + ")"
}

var builtins = map[string]Builtin{
	"len": {
		Name:   "len",
		Params: []string{"value"},
		Doc:    "number of elements of a sequence or characters of a string",
		fn:     builtinLen,
	},
	"str": {
		Name:   "str",
		Params: []string{"value"},
		Doc:    "value converted to a string",
		fn:     func(args []Value) (Value, error) { return NewString(args[0].Text()), nil },
	},
	"num": {
		Name:   "num",
		Params: []string{"value"},
		Doc:    "string or number converted to a number",
		fn:     builtinNum,
	},
	"push": {
		Name:   "push",
		Params: []string{"sequence", "value"},
		Doc:    "copy of sequence with value appended",
		fn:     builtinPush,
	},
}

// Builtins returns all builtins sorted by name.
func Builtins() []Builtin {
	out := make([]Builtin, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}

	slices.SortFunc(out, func(a, b Builtin) int { return strings.Compare(a.Name, b.Name) })

	return out
}

// LookupBuiltin returns the builtin with the given name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]

	return b, ok
}

func callBuiltin(name string, args []Value) (Value, error) {
	b, ok := builtins[name]
	if !ok {
		return Value{}, ErrNotCallable.With(slog.String("name", name))
	}

	if len(args) != len(b.Params) {
		return Value{}, ErrArgumentCount.With(
			slog.String("name", name),
			slog.Int("want", len(b.Params)),
			slog.Int("got", len(args)),
		)
	}

	return b.fn(args)
}

func builtinLen(args []Value) (Value, error) {
	switch v := args[0]; v.typ {
	case TypeSequence:
		return NewNumber(float64(len(v.seq))), nil
	case TypeString:
		return NewNumber(float64(utf8.RuneCountInString(v.str))), nil
	default:
		return Value{}, ErrTypeMismatch.With(
			slog.String("builtin", "len"),
			slog.String("type", v.Type().String()),
		)
	}
}

func builtinNum(args []Value) (Value, error) {
	switch v := args[0]; v.typ {
	case TypeNumber:
		return v, nil
	case TypeString:
		f, err := parseNumber(v.str)
		if err != nil {
			return Value{}, ErrTypeMismatch.Wrap(err).With(
				slog.String("builtin", "num"),
				slog.String("value", v.str),
			)
		}

		return NewNumber(f), nil
	default:
		return Value{}, ErrTypeMismatch.With(
			slog.String("builtin", "num"),
			slog.String("type", v.Type().String()),
		)
	}
}

func builtinPush(args []Value) (Value, error) {
	seq, v := args[0], args[1]
	if seq.typ != TypeSequence {
		return Value{}, ErrTypeMismatch.With(
			slog.String("builtin", "push"),
			slog.String("type", seq.Type().String()),
		)
	}

	elems := make([]Value, len(seq.seq), len(seq.seq)+1)
	copy(elems, seq.seq)

	return Value{typ: TypeSequence, seq: append(elems, v)}, nil
}
