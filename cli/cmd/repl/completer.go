package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/frenebo/layer-lang/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// keywords complete in eval mode alongside bindings and builtins.
var keywords = []string{"else", "false", "for", "if", "true", "while"}

// isWordBoundary reports whether r ends a completion word: whitespace,
// punctuation and operator characters of the language.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/',
		'<', '>', '=', '!',
		'&', '|', ',', ';', '"', '#':
		return true
	}

	return false
}

// wordBounds returns the word under the cursor and its byte boundaries in
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// evalCandidates returns the sorted, deduplicated names that complete in eval
// mode: bindings of the session, builtins and keywords.
func evalCandidates(s *Session) []string {
	names := s.Names()

	for _, b := range lang.Builtins() {
		names = append(names, b.Name)
	}

	names = append(names, keywords...)

	slices.Sort(names)

	return slices.Compact(names)
}

// computeMatches returns the fuzzy matches for the word under the cursor,
// ranked best-first, along with the candidates and the word boundaries. An
// empty word has no matches so that the hint line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	word, wordStart, wordEnd := wordBounds(m.input.Value(), m.input.Position())

	if word == "" || insideString(m.input.Value(), wordStart) {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		candidates = evalCandidates(m.session)
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// insideString reports whether offset lies within an unterminated string
// literal of input.
func insideString(input string, offset int) bool {
	open := false

	for i := 0; i < offset && i < len(input); i++ {
		switch input[i] {
		case '\\':
			if open {
				i++
			}

		case '"':
			open = !open
		}
	}

	return open
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width. The selected candidate (when tabbing) uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)
		w := lipgloss.Width(rendered)

		if i > 0 {
			w += lipgloss.Width(sep)

			last := i == len(matches)-1
			if used+w > width || (!last && used+w+reserve > width) {
				b.WriteString(sep + ellipsis)

				break
			}

			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Builtins are shown with a "()" suffix that is not inserted on
// completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base := suggestionStyle
	highlight := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)

	if selected {
		base = selectedStyle
		highlight = highlight.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if _, ok := lang.LookupBuiltin(match.Str); ok {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// previewWidth bounds the value preview shown by the list command.
const previewWidth = 60

// formatPreview renders v in source form, truncated to previewWidth runes.
func formatPreview(v lang.Value) string {
	s := v.String()

	if utf8.RuneCountInString(s) <= previewWidth {
		return s
	}

	r := []rune(s)

	return string(r[:previewWidth-3]) + "..."
}
