package lang

import "context"

// backtracker is the recursive engine. Every production of a rule is tried
// in full and the longest match kept. Native stack depth grows with the
// nesting of the input.
type backtracker struct {
	maxDepth int
}

// Parse implements [Engine].
func (b backtracker) Parse(
	ctx context.Context,
	g *Grammar,
	tokens []Token,
	start int,
	target Symbol,
) (*Node, error) {
	r := recursion{ctx: ctx, g: g, tokens: tokens, maxDepth: b.maxDepth}

	return r.parse(start, target, 1)
}

type recursion struct {
	ctx      context.Context
	g        *Grammar
	tokens   []Token
	maxDepth int
}

func (r *recursion) parse(idx int, target Symbol, depth int) (*Node, error) {
	if r.g.IsTerminal(target) {
		return matchTerminal(r.tokens, idx, target), nil
	}

	if err := enter(r.ctx, target, idx, depth, r.maxDepth); err != nil {
		return nil, err
	}

	var best *Node

productions:
	for _, p := range r.g.Productions(target) {
		var children []*Node

		consumed := 0

		for _, sym := range p.Symbols {
			child, err := r.parse(idx+consumed, sym, depth+1)
			if err != nil {
				return nil, err
			}

			if child == nil {
				continue productions
			}

			children = append(children, child)
			consumed += child.Consumed
		}

		// Strictly longer only: ties keep the earlier production.
		if best == nil || consumed > best.Consumed {
			best = &Node{
				Rule:       target,
				Production: p.Name,
				Children:   children,
				Consumed:   consumed,
			}
		}
	}

	return best, nil
}
