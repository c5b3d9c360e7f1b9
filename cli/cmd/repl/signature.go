package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frenebo/layer-lang/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureDocStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)
)

// functionCall is the innermost call enclosing the cursor.
type functionCall struct {
	name     string // callee identifier, empty when the paren is not a call
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool
}

// group is an open bracket seen while scanning input.
type group struct {
	open   byte
	callee string
	commas int
}

// detectFunctionCall scans input up to cursor and reports the innermost open
// parenthesis preceded by an identifier. String literals and comments are
// skipped; commas nested in brackets do not advance the argument index.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	var stack []group

	for i := 0; i < cursor; i++ {
		switch c := input[i]; c {
		case '"':
			for i++; i < cursor && input[i] != '"'; i++ {
				if input[i] == '\\' {
					i++
				}
			}

		case '#':
			i = skipLine(input, i, cursor)

		case '/':
			if i+1 < cursor && input[i+1] == '/' {
				i = skipLine(input, i, cursor)
			}

		case '(', '[':
			g := group{open: c}
			if c == '(' {
				g.callee = identBefore(input[:i])
			}

			stack = append(stack, g)

		case ')', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].commas++
			}
		}
	}

	if len(stack) == 0 {
		return functionCall{}
	}

	top := stack[len(stack)-1]
	if top.open != '(' || top.callee == "" {
		return functionCall{}
	}

	return functionCall{name: top.callee, argIndex: top.commas, inCall: true}
}

// skipLine returns the index of the newline ending the comment at i, or the
// last index before limit.
func skipLine(input string, i, limit int) int {
	if n := strings.IndexByte(input[i:limit], '\n'); n >= 0 {
		return i + n
	}

	return limit - 1
}

// identBefore returns the identifier ending at the end of s, ignoring
// trailing blanks.
func identBefore(s string) string {
	s = strings.TrimRight(s, " \t")

	start := len(s)
	for start > 0 && isIdentByte(s[start-1]) {
		start--
	}

	ident := s[start:]
	if ident == "" || (ident[0] >= '0' && ident[0] <= '9') {
		return ""
	}

	return ident
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// renderSignatureHint renders the builtin as name(p0, p1, ...) with the
// parameter at idx highlighted, followed by its documentation.
func renderSignatureHint(fn lang.Builtin, idx int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(fn.Name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == idx {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	if fn.Doc != "" {
		b.WriteString(signatureStyle.Render("  "))
		b.WriteString(signatureDocStyle.Render(fn.Doc))
	}

	return b.String()
}
