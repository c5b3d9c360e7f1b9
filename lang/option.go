package lang

import "github.com/frenebo/layer-lang/log"

// DefaultMaxDepth is the default limit on nested nonterminal attempts.
// Zero means no limit. Users may modify this before parsing.
var DefaultMaxDepth = 0

// DefaultMaxSteps is the default limit on executed statements and loop
// iterations. Zero means no limit.
var DefaultMaxSteps = 0

// options holds the settings applied by [Option]. Parse functions ignore
// the evaluation settings and vice versa.
type options struct {
	grammar  *Grammar
	scope    *Scope
	logger   log.Logger
	engine   EngineKind
	maxDepth int
	maxSteps int
}

// optionsKey is the part of options that determines a parse result.
// This type is gob-encodable for cache key hashing.
type optionsKey struct {
	Grammar  uint64
	Engine   EngineKind
	MaxDepth int
}

func (o options) key() optionsKey {
	return optionsKey{
		Grammar:  o.grammar.Fingerprint(),
		Engine:   o.engine,
		MaxDepth: o.maxDepth,
	}
}

// Option configures parsing or evaluation behavior.
type Option func(*options)

// WithEngine selects the parse engine.
func WithEngine(kind EngineKind) Option {
	return func(o *options) { o.engine = kind }
}

// WithGrammar parses with g instead of [DefaultGrammar]. A nil grammar is
// ignored.
func WithGrammar(g *Grammar) Option {
	return func(o *options) {
		if g != nil {
			o.grammar = g
		}
	}
}

// WithMaxDepth limits how deeply nonterminal attempts may nest.
// Both engines count depth identically, so a limit rejects the same inputs
// regardless of engine.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithScope evaluates in scope instead of a fresh root scope. Bindings made
// at the top level of the program are written to it.
func WithScope(scope *Scope) Option {
	return func(o *options) { o.scope = scope }
}

// WithMaxSteps aborts evaluation with [ErrStepLimit] after n statements and
// loop iterations.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func makeOptions(opts ...Option) options {
	o := options{
		grammar:  DefaultGrammar(),
		engine:   DefaultEngine,
		maxDepth: DefaultMaxDepth,
		maxSteps: DefaultMaxSteps,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
