package lang

import (
	"log/slog"
	"strconv"
)

// Symbol names either a token kind or a grammar rule. Which one it denotes is
// decided by the grammar: a symbol with no productions is a terminal.
type Symbol string

// Token kinds produced by [Lex]. Each is also a terminal of [DefaultGrammar].
const (
	KindKeywordWhile Symbol = "keyword_while"
	KindKeywordIf    Symbol = "keyword_if"
	KindKeywordElse  Symbol = "keyword_else"
	KindKeywordFor   Symbol = "keyword_for"
	KindKeywordTrue  Symbol = "keyword_true"
	KindKeywordFalse Symbol = "keyword_false"

	KindLiteralNumber Symbol = "literal_number"
	KindLiteralString Symbol = "literal_string"
	KindIdentifier    Symbol = "identifier"

	KindOpenBrace        Symbol = "open_brace"
	KindCloseBrace       Symbol = "close_brace"
	KindOpenParenthesis  Symbol = "open_parenthesis"
	KindCloseParenthesis Symbol = "close_parenthesis"
	KindOpenBracket      Symbol = "open_bracket"
	KindCloseBracket     Symbol = "close_bracket"
	KindSemicolon        Symbol = "semicolon"
	KindComma            Symbol = "comma"
	KindEqualsSign       Symbol = "equals_sign"

	KindPlus         Symbol = "plus"
	KindMinusSign    Symbol = "minus_sign"
	KindAsterisk     Symbol = "asterisk"
	KindForwardSlash Symbol = "forward_slash"
	KindDoubleEqual  Symbol = "double_equal"
	KindNotEqual     Symbol = "not_equal"
	KindOr           Symbol = "or"
	KindAnd          Symbol = "and"
	KindLessOrEqual  Symbol = "less_or_equal"
	KindMoreOrEqual  Symbol = "more_or_equal"
	KindLessThan     Symbol = "less_than"
	KindMoreThan     Symbol = "more_than"
)

// Position locates a token in its source text. Line and Column are 1-based;
// Column counts runes.
type Position struct {
	Offset int `json:"offset" yaml:"offset" cbor:"1,keyasint"`
	Line   int `json:"line"   yaml:"line"   cbor:"2,keyasint"`
	Column int `json:"column" yaml:"column" cbor:"3,keyasint"`
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// LogValue implements slog.LogValuer.
func (p Position) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("line", p.Line),
		slog.Int("column", p.Column),
	)
}

// Token is a lexed unit of source. Tokens are immutable once produced.
type Token struct {
	Kind Symbol   `json:"kind"`
	Text string   `json:"text"`
	Pos  Position `json:"pos"`
}

// String renders the token as kind("text").
func (t Token) String() string {
	return string(t.Kind) + "(" + strconv.Quote(t.Text) + ")"
}

// LogValue implements slog.LogValuer.
func (t Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(t.Kind)),
		slog.String("text", t.Text),
		slog.Any("pos", t.Pos),
	)
}
