package lang

import "strings"

// Node is a parse tree node.
//
// A terminal node has an empty Production, no Children, the matched token's
// Text, and Consumed == 1. A nonterminal node records the production that
// matched; its Consumed is the sum of its children's. A nonterminal matched
// by an empty production has nil Children.
//
// Trees are built bottom-up by the parse engines and never modified after.
type Node struct {
	Rule       Symbol  `json:"rule"                 yaml:"rule"                 cbor:"1,keyasint"`
	Production string  `json:"production,omitempty" yaml:"production,omitempty" cbor:"2,keyasint,omitempty"`
	Text       string  `json:"text,omitempty"       yaml:"text,omitempty"       cbor:"3,keyasint,omitempty"`
	Children   []*Node `json:"children,omitempty"   yaml:"children,omitempty"   cbor:"4,keyasint,omitempty"`
	Consumed   int     `json:"consumed"             yaml:"consumed"             cbor:"5,keyasint"`
}

// IsTerminal reports whether n stands for a single token.
func (n *Node) IsTerminal() bool { return n.Production == "" }

// Is reports whether n was produced by the given rule and production.
func (n *Node) Is(rule Symbol, production string) bool {
	return n != nil && n.Rule == rule && n.Production == production
}

// Child returns the i'th child of n, or nil if there is none.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// Tokens calls yield with each terminal below n, left to right.
func (n *Node) Tokens(yield func(*Node) bool) {
	n.tokens(yield)
}

func (n *Node) tokens(yield func(*Node) bool) bool {
	if n == nil {
		return true
	}

	if n.IsTerminal() {
		return yield(n)
	}

	for _, c := range n.Children {
		if !c.tokens(yield) {
			return false
		}
	}

	return true
}

// Source reconstructs the text n matched, with tokens separated by single
// spaces.
func (n *Node) Source() string {
	var sb strings.Builder

	for t := range n.Tokens {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(t.Text)
	}

	return sb.String()
}

// ToMap converts n to nested maps suitable for generic encoders. Terminal
// nodes become {"rule", "text"}; others {"rule", "production", "children"}.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	if n.IsTerminal() {
		return map[string]any{
			"rule": string(n.Rule),
			"text": n.Text,
		}
	}

	children := make([]any, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.ToMap()
	}

	return map[string]any{
		"rule":       string(n.Rule),
		"production": n.Production,
		"consumed":   n.Consumed,
		"children":   children,
	}
}

// valid reports whether every node in the tree satisfies the consumed-count
// invariant.
func (n *Node) valid() bool {
	if n == nil {
		return false
	}

	if n.IsTerminal() {
		return n.Consumed == 1 && len(n.Children) == 0
	}

	sum := 0

	for _, c := range n.Children {
		if !c.valid() {
			return false
		}

		sum += c.Consumed
	}

	return sum == n.Consumed
}
