package lang

import (
	"context"
	"log/slog"
	"strings"
)

// Engine matches a target symbol against a token stream starting at a given
// index. A successful match returns the longest-matching tree; no match
// returns (nil, nil). Errors are reserved for aborted attempts: a cancelled
// context or an exceeded depth limit.
type Engine interface {
	Parse(
		ctx context.Context,
		g *Grammar,
		tokens []Token,
		start int,
		target Symbol,
	) (*Node, error)
}

// EngineKind selects one of the built-in parse engines.
type EngineKind int

const (
	// EngineStack is the explicit-stack engine. Its native call depth does
	// not grow with the input.
	EngineStack EngineKind = iota
	// EngineBacktrack is the recursive backtracking engine.
	EngineBacktrack
)

// DefaultEngine is used when no engine is selected.
const DefaultEngine = EngineStack

// String returns the name accepted by [ParseEngine].
func (k EngineKind) String() string {
	switch k {
	case EngineStack:
		return "stack"
	case EngineBacktrack:
		return "backtrack"
	default:
		return "unknown"
	}
}

// Engines returns the names of all engines.
func Engines() []string {
	return []string{EngineStack.String(), EngineBacktrack.String()}
}

// ParseEngine maps an engine name to its kind.
func ParseEngine(name string) (EngineKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineStack.String(), "trampoline":
		return EngineStack, nil
	case EngineBacktrack.String(), "recursive":
		return EngineBacktrack, nil
	default:
		return 0, ErrUnknownEngine.With(slog.String("engine", name))
	}
}

// New returns an engine of kind k that refuses to nest nonterminal attempts
// deeper than maxDepth. A maxDepth of 0 or less means no limit.
func (k EngineKind) New(maxDepth int) Engine {
	if k == EngineBacktrack {
		return backtracker{maxDepth: maxDepth}
	}

	return trampoline{maxDepth: maxDepth}
}

// ParseProgram parses the entire token stream as the grammar's start symbol.
//
// It returns [ErrNoMatch] if the start symbol does not match at all and
// [ErrTrailingTokens] if it matches only a prefix of tokens. No tree is
// returned alongside an error.
func ParseProgram(
	ctx context.Context,
	tokens []Token,
	opts ...Option,
) (*Node, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "parse start",
		slog.String("engine", o.engine.String()),
		slog.Int("tokens", len(tokens)),
		slog.Int("max_depth", o.maxDepth),
	)

	tree, err := o.engine.New(o.maxDepth).
		Parse(ctx, o.grammar, tokens, 0, o.grammar.Start())
	if err != nil {
		return nil, WrapError(err).With(slog.String("engine", o.engine.String()))
	}

	if tree == nil {
		return nil, ErrNoMatch.With(
			slog.String("rule", string(o.grammar.Start())),
			slog.Int("total", len(tokens)),
		)
	}

	if tree.Consumed < len(tokens) {
		next := tokens[tree.Consumed]

		return nil, ErrTrailingTokens.With(
			slog.Int("consumed", tree.Consumed),
			slog.Int("total", len(tokens)),
			slog.Any("token", next),
		)
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("engine", o.engine.String()),
		slog.Int("consumed", tree.Consumed),
	)

	return tree, nil
}

// ParseString lexes and parses source.
func ParseString(
	ctx context.Context,
	source string,
	opts ...Option,
) (*Node, error) {
	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}

	return ParseProgram(ctx, tokens, opts...)
}

// enter is called by both engines on every nonterminal attempt.
func enter(ctx context.Context, rule Symbol, start, depth, maxDepth int) error {
	if err := ctx.Err(); err != nil {
		return ErrCanceled.Wrap(context.Cause(ctx)).
			With(slog.String("rule", string(rule)), slog.Int("index", start))
	}

	if maxDepth > 0 && depth > maxDepth {
		return ErrMaxDepthExceeded.With(
			slog.String("rule", string(rule)),
			slog.Int("index", start),
			slog.Int("max_depth", maxDepth),
		)
	}

	return nil
}

// matchTerminal returns the terminal node for tokens[idx] if it has the
// given kind.
func matchTerminal(tokens []Token, idx int, kind Symbol) *Node {
	if idx >= len(tokens) || tokens[idx].Kind != kind {
		return nil
	}

	return &Node{Rule: kind, Text: tokens[idx].Text, Consumed: 1}
}
