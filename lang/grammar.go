package lang

import (
	"log/slog"

	"github.com/segmentio/fasthash/fnv1a"
)

// Rules of [DefaultGrammar]. The evaluator dispatches on these together with
// production names.
const (
	RuleStatementSequence     Symbol = "statement_sequence"
	RuleStatement             Symbol = "statement"
	RuleBlock                 Symbol = "block"
	RuleExpression            Symbol = "expression"
	RuleAssignment            Symbol = "assignment"
	RuleOperatorSuffix        Symbol = "operator_suffix"
	RuleAtom                  Symbol = "atom"
	RuleArray                 Symbol = "array"
	RuleArrayBody             Symbol = "array_body"
	RuleOptionalCommaAndArray Symbol = "optional_comma_and_array"
	RuleWhileLoop             Symbol = "while_loop"
	RuleIfBlock               Symbol = "if_block"
	RuleElseBlock             Symbol = "else_block"
	RuleForBlock              Symbol = "for_block"
	RuleOptionalExpression    Symbol = "optional_expression"
	RuleOperator              Symbol = "operator"
)

// Production is one named alternative of a rule. A production with no
// symbols matches zero tokens.
type Production struct {
	Name    string   `json:"name"    yaml:"name"`
	Symbols []Symbol `json:"symbols" yaml:"symbols"`
}

// Rule is a nonterminal with its alternatives in declaration order.
type Rule struct {
	Name        Symbol       `json:"name"        yaml:"name"`
	Productions []Production `json:"productions" yaml:"productions"`
}

// Grammar is a validated, immutable rule table.
type Grammar struct {
	rules       map[Symbol][]Production
	start       Symbol
	order       []Symbol
	fingerprint uint64
}

// NewGrammar validates rules and returns the grammar they define.
//
// Symbols referenced by a production but never declared (or declared with
// no productions) are terminals and match a single token of that kind.
// NewGrammar rejects duplicate rule names, empty or duplicate production
// names within a rule, a start symbol without productions, and left
// recursion, which no backtracking engine can terminate on.
func NewGrammar(start Symbol, rules ...Rule) (*Grammar, error) {
	g := &Grammar{
		rules: make(map[Symbol][]Production, len(rules)),
		start: start,
		order: make([]Symbol, 0, len(rules)),
	}

	for _, r := range rules {
		if _, dup := g.rules[r.Name]; dup {
			return nil, ErrInvalidGrammar.With(
				slog.String("rule", string(r.Name)),
				slog.String("issue", "duplicate rule"),
			)
		}

		seen := make(map[string]bool, len(r.Productions))

		prods := make([]Production, len(r.Productions))
		for i, p := range r.Productions {
			if p.Name == "" || seen[p.Name] {
				return nil, ErrInvalidGrammar.With(
					slog.String("rule", string(r.Name)),
					slog.String("production", p.Name),
					slog.String("issue", "empty or duplicate production name"),
				)
			}

			seen[p.Name] = true
			prods[i] = Production{
				Name:    p.Name,
				Symbols: append([]Symbol(nil), p.Symbols...),
			}
		}

		g.rules[r.Name] = prods
		g.order = append(g.order, r.Name)
	}

	if g.IsTerminal(start) {
		return nil, ErrInvalidGrammar.With(
			slog.String("rule", string(start)),
			slog.String("issue", "start symbol has no productions"),
		)
	}

	if err := g.checkLeftRecursion(); err != nil {
		return nil, err
	}

	g.fingerprint = g.hash()

	return g, nil
}

// Start returns the symbol a program is parsed as.
func (g *Grammar) Start() Symbol { return g.start }

// Productions returns the alternatives of sym in declaration order, or nil
// if sym is a terminal. The result must not be modified.
func (g *Grammar) Productions(sym Symbol) []Production { return g.rules[sym] }

// IsTerminal reports whether sym has no productions.
func (g *Grammar) IsTerminal(sym Symbol) bool { return len(g.rules[sym]) == 0 }

// Rules returns a copy of the rule table in declaration order.
func (g *Grammar) Rules() []Rule {
	out := make([]Rule, 0, len(g.order))

	for _, name := range g.order {
		prods := make([]Production, len(g.rules[name]))
		for i, p := range g.rules[name] {
			prods[i] = Production{
				Name:    p.Name,
				Symbols: append([]Symbol(nil), p.Symbols...),
			}
		}

		out = append(out, Rule{Name: name, Productions: prods})
	}

	return out
}

// Fingerprint identifies the grammar's content. Two grammars with the same
// start symbol and rule table share a fingerprint.
func (g *Grammar) Fingerprint() uint64 { return g.fingerprint }

func (g *Grammar) hash() uint64 {
	h := fnv1a.AddString64(fnv1a.Init64, string(g.start))

	for _, name := range g.order {
		h = fnv1a.AddString64(h, "\x00rule\x00"+string(name))

		for _, p := range g.rules[name] {
			h = fnv1a.AddString64(h, "\x00prod\x00"+p.Name)

			for _, sym := range p.Symbols {
				h = fnv1a.AddString64(h, "\x00"+string(sym))
			}
		}
	}

	return h
}

// nullable returns the set of rules that can match zero tokens.
func (g *Grammar) nullable() map[Symbol]bool {
	null := make(map[Symbol]bool)

	for changed := true; changed; {
		changed = false

		for _, name := range g.order {
			if null[name] {
				continue
			}

			for _, p := range g.rules[name] {
				all := true

				for _, sym := range p.Symbols {
					if !null[sym] {
						all = false

						break
					}
				}

				if all {
					null[name] = true
					changed = true

					break
				}
			}
		}
	}

	return null
}

// checkLeftRecursion fails if some rule can reach itself without consuming
// a token.
func (g *Grammar) checkLeftRecursion() error {
	null := g.nullable()

	// left[r] holds the rules r may try at its own start offset.
	left := make(map[Symbol][]Symbol, len(g.order))

	for _, name := range g.order {
		for _, p := range g.rules[name] {
			for _, sym := range p.Symbols {
				if !g.IsTerminal(sym) {
					left[name] = append(left[name], sym)
				}

				if !null[sym] {
					break
				}
			}
		}
	}

	const (
		unvisited = iota
		active
		done
	)

	state := make(map[Symbol]int, len(g.order))

	var visit func(Symbol) error

	visit = func(sym Symbol) error {
		switch state[sym] {
		case active:
			return ErrLeftRecursion.With(slog.String("rule", string(sym)))
		case done:
			return nil
		}

		state[sym] = active

		for _, next := range left[sym] {
			if err := visit(next); err != nil {
				return err
			}
		}

		state[sym] = done

		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return err
		}
	}

	return nil
}

func prod(name string, symbols ...Symbol) Production {
	return Production{Name: name, Symbols: symbols}
}

// defaultGrammar is built once. Grammars are immutable so it can be shared.
var defaultGrammar = func() *Grammar {
	g, err := NewGrammar(RuleStatementSequence, defaultRules()...)
	if err != nil {
		panic(err)
	}

	return g
}()

// DefaultGrammar returns the grammar of the layer language.
func DefaultGrammar() *Grammar { return defaultGrammar }

func defaultRules() []Rule {
	return []Rule{
		{RuleStatementSequence, []Production{
			prod("empty"),
			prod("with_statement", RuleStatement, RuleStatementSequence),
		}},
		{RuleStatement, []Production{
			prod("while", RuleWhileLoop),
			prod("if", RuleIfBlock),
			prod("for", RuleForBlock),
			prod("block", RuleBlock),
			prod("expression", RuleExpression, KindSemicolon),
		}},
		{RuleBlock, []Production{
			prod("default_block", KindOpenBrace, RuleStatementSequence, KindCloseBrace),
		}},
		{RuleExpression, []Production{
			prod("assignment", RuleAssignment),
			prod("atom_with_op_suffix", RuleAtom, RuleOperatorSuffix),
		}},
		{RuleAssignment, []Production{
			prod("default_assignment", KindIdentifier, KindEqualsSign, RuleExpression),
		}},
		{RuleOperatorSuffix, []Production{
			prod("with_suff", RuleOperator, RuleAtom, RuleOperatorSuffix),
			prod("index",
				KindOpenBracket, RuleExpression, KindCloseBracket, RuleOperatorSuffix),
			prod("call",
				KindOpenParenthesis, RuleArrayBody, KindCloseParenthesis, RuleOperatorSuffix),
			prod("empty"),
		}},
		{RuleAtom, []Production{
			prod("num", KindLiteralNumber),
			prod("true", KindKeywordTrue),
			prod("false", KindKeywordFalse),
			prod("neg_num", KindMinusSign, KindLiteralNumber),
			prod("string", KindLiteralString),
			prod("ident", KindIdentifier),
			prod("arr", RuleArray),
			prod("paren_expression",
				KindOpenParenthesis, RuleExpression, KindCloseParenthesis),
		}},
		{RuleArray, []Production{
			prod("default_array", KindOpenBracket, RuleArrayBody, KindCloseBracket),
		}},
		{RuleArrayBody, []Production{
			prod("empty"),
			prod("with_exp", RuleExpression, RuleOptionalCommaAndArray),
		}},
		{RuleOptionalCommaAndArray, []Production{
			prod("empty"),
			prod("with_comma_and_array", KindComma, RuleArrayBody),
		}},
		{RuleWhileLoop, []Production{
			prod("default_while",
				KindKeywordWhile, KindOpenParenthesis, RuleExpression,
				KindCloseParenthesis, RuleBlock),
		}},
		{RuleIfBlock, []Production{
			prod("default_if",
				KindKeywordIf, KindOpenParenthesis, RuleExpression,
				KindCloseParenthesis, RuleBlock, RuleElseBlock),
		}},
		{RuleElseBlock, []Production{
			prod("with_else", KindKeywordElse, RuleBlock),
			prod("with_else_if", KindKeywordElse, RuleIfBlock),
			prod("empty"),
		}},
		{RuleForBlock, []Production{
			prod("default_for",
				KindKeywordFor, KindOpenParenthesis,
				RuleOptionalExpression, KindSemicolon,
				RuleOptionalExpression, KindSemicolon,
				RuleOptionalExpression, KindCloseParenthesis,
				RuleBlock),
		}},
		{RuleOptionalExpression, []Production{
			prod("empty"),
			prod("exp", RuleExpression),
		}},
		{RuleOperator, []Production{
			prod("plus", KindPlus),
			prod("minus", KindMinusSign),
			prod("asterisk", KindAsterisk),
			prod("forward_slash", KindForwardSlash),
			prod("double_equal", KindDoubleEqual),
			prod("not_equal", KindNotEqual),
			prod("or", KindOr),
			prod("and", KindAnd),
			prod("less_or_equal", KindLessOrEqual),
			prod("more_or_equal", KindMoreOrEqual),
			prod("less_than", KindLessThan),
			prod("more_than", KindMoreThan),
		}},
	}
}
