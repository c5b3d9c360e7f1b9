package lang

import (
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// skip marks patterns whose matches are consumed but never emitted.
const skip Symbol = ""

type pattern struct {
	kind Symbol
	re   *regexp.Regexp
}

// patterns are tried at every offset. The longest match wins; among matches
// of equal length the one declared first wins, which is how keywords beat
// identifiers of the same spelling.
var patterns = func() []pattern {
	table := []struct {
		kind Symbol
		expr string
	}{
		{KindKeywordWhile, `while`},
		{KindKeywordIf, `if`},
		{KindKeywordElse, `else`},
		{KindKeywordFor, `for`},
		{KindKeywordTrue, `true`},
		{KindKeywordFalse, `false`},

		{skip, `[ \t\r\n]+`},
		{skip, `(?:#|//)[^\n]*`},

		{KindEqualsSign, `=`},
		{KindSemicolon, `;`},
		{KindOpenParenthesis, `\(`},
		{KindCloseParenthesis, `\)`},
		{KindOpenBrace, `\{`},
		{KindCloseBrace, `\}`},
		{KindOpenBracket, `\[`},
		{KindCloseBracket, `\]`},
		{KindPlus, `\+`},
		{KindMinusSign, `-`},
		{KindForwardSlash, `/`},
		{KindAsterisk, `\*`},
		{KindComma, `,`},
		{KindDoubleEqual, `==`},
		{KindMoreThan, `>`},
		{KindLessThan, `<`},
		{KindMoreOrEqual, `>=`},
		{KindLessOrEqual, `<=`},
		{KindNotEqual, `!=`},
		{KindOr, `\|\|`},
		{KindAnd, `&&`},

		{KindIdentifier, `[a-zA-Z_][a-zA-Z0-9_]*`},
		{KindLiteralNumber, `[0-9]*\.?[0-9]+`},
		{KindLiteralString, `"(?:\\.|[^"\\])*"`},
	}

	p := make([]pattern, len(table))
	for i, t := range table {
		p[i] = pattern{kind: t.kind, re: regexp.MustCompile(`^(?:` + t.expr + `)`)}
	}

	return p
}()

// Lex splits src into tokens. Whitespace and comments (from "#" or "//" to
// the end of the line) separate tokens and are discarded.
//
// Lex returns [ErrLex] at the first offset no token kind matches.
func Lex(src string) ([]Token, error) {
	var (
		tokens []Token
		pos    = Position{Line: 1, Column: 1}
	)

	for pos.Offset < len(src) {
		rest := src[pos.Offset:]

		best, kind := 0, skip

		for _, p := range patterns {
			if n := len(p.re.FindString(rest)); n > best {
				best, kind = n, p.kind
			}
		}

		if best == 0 {
			r, _ := utf8.DecodeRuneInString(rest)

			return nil, ErrLex.With(
				slog.Any("pos", pos),
				slog.String("near", string(r)),
			)
		}

		text := rest[:best]

		if kind != skip {
			tokens = append(tokens, Token{Kind: kind, Text: text, Pos: pos})
		}

		pos = advance(pos, text)
	}

	return tokens, nil
}

// advance moves pos past text, tracking line breaks.
func advance(pos Position, text string) Position {
	pos.Offset += len(text)

	for _, r := range text {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}
