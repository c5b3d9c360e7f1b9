package repl

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// lastValue is bound to the value of the most recent expression statement.
const lastValue = "_"

// Session holds the root scope shared by every input of a REPL. An input is
// one or more statements; the semicolon ending a lone expression may be
// omitted. Inputs are atomic: when one fails, the bindings it made are
// discarded.
type Session struct {
	// Timeout bounds each input; 0 for no limit.
	Timeout time.Duration

	scope  *lang.Scope
	opts   []lang.Option
	logger log.Logger
}

// NewSession returns a session over scope. A nil scope starts empty. The
// options apply to every parse and evaluation.
func NewSession(scope *lang.Scope, logger log.Logger, opts ...lang.Option) *Session {
	if scope == nil {
		scope = lang.NewScope(nil)
	}

	return &Session{
		scope:  scope,
		opts:   slices.Concat(opts, []lang.Option{lang.WithLogger(logger)}),
		logger: logger,
	}
}

// Scope returns the current root scope.
func (s *Session) Scope() *lang.Scope { return s.scope }

// Names returns the bound names in sorted order.
func (s *Session) Names() []string { return s.scope.Names() }

// Eval runs input against the session scope.
//
// When input is a single non-assignment expression, its value is bound to
// "_" and returned with ok set. Otherwise ok is false.
func (s *Session) Eval(ctx context.Context, input string) (result lang.Value, ok bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return lang.Value{}, false, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	tree, err := s.parse(ctx, input)
	if err != nil {
		return lang.Value{}, false, err
	}

	if expr := loneExpression(tree); expr != nil {
		if tree, err = lang.ParseCached(ctx,
			lastValue+" = ("+expr.Source()+");", s.opts...); err != nil {
			return lang.Value{}, false, err
		}

		ok = true
	}

	scope, err := lang.Execute(ctx, tree, append(s.opts, lang.WithScope(s.scope.Clone()))...)
	if err != nil {
		s.logger.DebugContext(ctx, "repl input discarded", slog.Any("error", err))

		return lang.Value{}, false, err
	}

	s.scope = scope

	if ok {
		result, _ = scope.Get(lastValue)
	}

	return result, ok, nil
}

// parse parses input as a program, retrying with a terminating semicolon.
func (s *Session) parse(ctx context.Context, input string) (*lang.Node, error) {
	tree, err := lang.ParseCached(ctx, input, s.opts...)
	if err == nil || strings.HasSuffix(input, ";") || strings.HasSuffix(input, "}") {
		return tree, err
	}

	if retry, rerr := lang.ParseCached(ctx, input+";", s.opts...); rerr == nil {
		return retry, nil
	}

	return nil, err
}

// Rebuild runs the program read from r in a fresh scope and returns that
// scope. The session is not changed; pass the result to [Session.Reset].
func (s *Session) Rebuild(ctx context.Context, r io.Reader) (*lang.Scope, error) {
	tree, err := lang.ParseReader(ctx, r, s.opts...)
	if err != nil {
		return nil, err
	}

	scope, err := lang.Execute(ctx, tree, s.opts...)
	if err != nil {
		return nil, err
	}

	return scope, nil
}

// Reset replaces the session scope.
func (s *Session) Reset(scope *lang.Scope) { s.scope = scope }

// loneExpression returns the expression of a program consisting of exactly
// one expression statement that is not an assignment, or nil.
func loneExpression(tree *lang.Node) *lang.Node {
	if tree == nil || tree.Production != "with_statement" || len(tree.Children) != 2 {
		return nil
	}

	stmt, rest := tree.Children[0], tree.Children[1]
	if rest.Production != "empty" || stmt.Production != "expression" || len(stmt.Children) == 0 {
		return nil
	}

	expr := stmt.Children[0]
	if expr.Production == "assignment" {
		return nil
	}

	return expr
}
