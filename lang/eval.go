package lang

import (
	"context"
	"log/slog"

	"github.com/frenebo/layer-lang/log"
)

// evaluator executes one parse tree.
type evaluator struct {
	ctx      context.Context
	arena    *scopeArena
	logger   log.Logger
	maxSteps int
	steps    int
	trace    bool
}

// Execute runs a program tree produced by [ParseProgram] and returns its
// top-level scope.
//
// Blocks and loop bodies run in child scopes that are discarded when they
// finish. A for loop's initializer, condition and increment share one scope
// that lives for the whole loop. Assignment overwrites the nearest enclosing
// binding of a name, or creates one in the innermost scope.
//
// Any runtime error aborts the program. The scope is returned alongside a
// runtime error and holds the bindings made before it.
func Execute(ctx context.Context, tree *Node, opts ...Option) (*Scope, error) {
	o := makeOptions(opts...)

	if tree == nil || tree.Rule != RuleStatementSequence || !tree.valid() {
		return nil, ErrInvalidTree.With(slog.String("rule", string(tree.ruleOrEmpty())))
	}

	root := o.scope
	if root == nil {
		root = NewScope(nil)
	}

	e := &evaluator{
		ctx:      ctx,
		arena:    newScopeArena(root),
		logger:   o.logger,
		maxSteps: o.maxSteps,
		trace:    o.logger.LevelEnabled(ctx, log.LevelTrace),
	}

	e.logger.TraceContext(ctx, "exec start",
		slog.Int("bindings", root.Len()),
		slog.Int("max_steps", e.maxSteps),
	)

	if err := e.sequence(tree, 0); err != nil {
		return root, err
	}

	e.logger.TraceContext(ctx, "exec complete",
		slog.Int("steps", e.steps),
		slog.Int("bindings", root.Len()),
	)

	return root, nil
}

// Run lexes, parses and executes source.
func Run(ctx context.Context, source string, opts ...Option) (*Scope, error) {
	tree, err := ParseString(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	return Execute(ctx, tree, opts...)
}

func (n *Node) productionOrEmpty() string {
	if n == nil {
		return ""
	}

	return n.Production
}

func (n *Node) ruleOrEmpty() Symbol {
	if n == nil {
		return ""
	}

	return n.Rule
}

// step counts one unit of work against the step limit and polls the
// context.
func (e *evaluator) step() error {
	if err := e.ctx.Err(); err != nil {
		return ErrCanceled.Wrap(context.Cause(e.ctx)).With(slog.Int("steps", e.steps))
	}

	e.steps++

	if e.maxSteps > 0 && e.steps > e.maxSteps {
		return ErrStepLimit.With(slog.Int("max_steps", e.maxSteps))
	}

	return nil
}

func invalidTree(n *Node, want Symbol) *Error {
	return ErrInvalidTree.With(
		slog.String("want", string(want)),
		slog.String("rule", string(n.ruleOrEmpty())),
		slog.String("production", n.productionOrEmpty()),
	)
}

func (e *evaluator) sequence(n *Node, scope int) error {
	for n.Is(RuleStatementSequence, "with_statement") {
		if err := e.statement(n.Child(0), scope); err != nil {
			return err
		}

		n = n.Child(1)
	}

	if !n.Is(RuleStatementSequence, "empty") {
		return invalidTree(n, RuleStatementSequence)
	}

	return nil
}

func (e *evaluator) statement(n *Node, scope int) error {
	if n == nil || n.Rule != RuleStatement {
		return invalidTree(n, RuleStatement)
	}

	if err := e.step(); err != nil {
		return err
	}

	if e.trace {
		e.logger.TraceContext(e.ctx, "exec statement",
			slog.String("kind", n.Production),
			slog.Int("scope_depth", e.arena.depth()),
		)
	}

	switch n.Production {
	case "while":
		return e.whileLoop(n.Child(0), scope)

	case "if":
		return e.ifBlock(n.Child(0), scope)

	case "for":
		return e.forLoop(n.Child(0), scope)

	case "block":
		return e.block(n.Child(0), scope)

	case "expression":
		_, err := e.expression(n.Child(0), scope)

		return err

	default:
		return invalidTree(n, RuleStatement)
	}
}

// block runs n in a fresh child of scope.
func (e *evaluator) block(n *Node, scope int) error {
	if !n.Is(RuleBlock, "default_block") {
		return invalidTree(n, RuleBlock)
	}

	child := e.arena.push(scope)
	defer e.arena.discard(child)

	return e.sequence(n.Child(1), child)
}

func (e *evaluator) condition(n *Node, scope int) (bool, error) {
	v, err := e.expression(n, scope)
	if err != nil {
		return false, err
	}

	b, ok := v.AsBool()
	if !ok {
		return false, ErrNotABoolean.With(
			slog.String("type", v.Type().String()),
			slog.String("near", n.Source()),
		)
	}

	return b, nil
}

func (e *evaluator) whileLoop(n *Node, scope int) error {
	if !n.Is(RuleWhileLoop, "default_while") {
		return invalidTree(n, RuleWhileLoop)
	}

	cond, body := n.Child(2), n.Child(4)

	for {
		if err := e.step(); err != nil {
			return err
		}

		ok, err := e.condition(cond, scope)
		if err != nil || !ok {
			return err
		}

		if err := e.block(body, scope); err != nil {
			return err
		}
	}
}

func (e *evaluator) ifBlock(n *Node, scope int) error {
	if !n.Is(RuleIfBlock, "default_if") {
		return invalidTree(n, RuleIfBlock)
	}

	ok, err := e.condition(n.Child(2), scope)
	if err != nil {
		return err
	}

	if ok {
		return e.block(n.Child(4), scope)
	}

	alt := n.Child(5)

	switch {
	case alt.Is(RuleElseBlock, "with_else"):
		return e.block(alt.Child(1), scope)

	case alt.Is(RuleElseBlock, "with_else_if"):
		return e.ifBlock(alt.Child(1), scope)

	case alt.Is(RuleElseBlock, "empty"):
		return nil

	default:
		return invalidTree(alt, RuleElseBlock)
	}
}

func (e *evaluator) forLoop(n *Node, scope int) error {
	if !n.Is(RuleForBlock, "default_for") {
		return invalidTree(n, RuleForBlock)
	}

	init, cond, incr, body := n.Child(2), n.Child(4), n.Child(6), n.Child(8)

	loop := e.arena.push(scope)
	defer e.arena.discard(loop)

	if _, _, err := e.optional(init, loop); err != nil {
		return err
	}

	for {
		if err := e.step(); err != nil {
			return err
		}

		v, present, err := e.optional(cond, loop)
		if err != nil {
			return err
		}

		if present {
			b, ok := v.AsBool()
			if !ok {
				return ErrNotABoolean.With(
					slog.String("type", v.Type().String()),
					slog.String("near", cond.Source()),
				)
			}

			if !b {
				return nil
			}
		}

		if err := e.block(body, loop); err != nil {
			return err
		}

		if _, _, err := e.optional(incr, loop); err != nil {
			return err
		}
	}
}

// optional evaluates an optional_expression. present is false for the
// empty production.
func (e *evaluator) optional(n *Node, scope int) (v Value, present bool, err error) {
	switch {
	case n.Is(RuleOptionalExpression, "empty"):
		return Value{}, false, nil

	case n.Is(RuleOptionalExpression, "exp"):
		v, err = e.expression(n.Child(0), scope)

		return v, true, err

	default:
		return Value{}, false, invalidTree(n, RuleOptionalExpression)
	}
}
