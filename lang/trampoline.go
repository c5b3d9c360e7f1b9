package lang

import (
	"context"

	"github.com/edwingeng/deque"
)

// trampoline is the explicit-stack engine. It explores productions in the
// same order as [backtracker] and yields identical trees, but keeps one
// heap-allocated frame per rule attempt instead of a native call.
type trampoline struct {
	maxDepth int
}

type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingTerminal
	pendingSubRule
)

// pending is the symbol an option is currently matching.
type pending struct {
	frame    *frame // pendingSubRule
	terminal Symbol // pendingTerminal
	kind     pendingKind
}

// option is one production in progress within a frame.
type option struct {
	production string
	children   []*Node
	remaining  []Symbol
	pending    pending
	consumed   int
}

// frame is one rule attempt. Options are tried in declaration order; cursor
// indexes the one in progress, and every option before it is either folded
// into best or discarded.
type frame struct {
	best    *Node
	rule    Symbol
	options []option
	start   int
	cursor  int
	depth   int
}

func newFrame(g *Grammar, rule Symbol, start, depth int) *frame {
	prods := g.Productions(rule)

	f := &frame{
		rule:    rule,
		options: make([]option, len(prods)),
		start:   start,
		depth:   depth,
	}

	for i, p := range prods {
		f.options[i] = option{production: p.Name, remaining: p.Symbols}
	}

	return f
}

// Parse implements [Engine].
func (t trampoline) Parse(
	ctx context.Context,
	g *Grammar,
	tokens []Token,
	start int,
	target Symbol,
) (*Node, error) {
	if g.IsTerminal(target) {
		return matchTerminal(tokens, start, target), nil
	}

	if err := enter(ctx, target, start, 1, t.maxDepth); err != nil {
		return nil, err
	}

	stack := deque.NewDeque()
	stack.PushBack(newFrame(g, target, start, 1))

	for {
		f := stack.Back().(*frame)

		// Exhausted: hand the best option to the enclosing frame, which
		// resolves it on its next step.
		if f.cursor >= len(f.options) {
			stack.PopBack()

			if stack.Empty() {
				return f.best, nil
			}

			continue
		}

		opt := &f.options[f.cursor]
		at := f.start + opt.consumed

		switch opt.pending.kind {
		case pendingSubRule:
			child := opt.pending.frame.best
			if child == nil {
				f.cursor++

				continue
			}

			opt.accept(child)

			continue

		case pendingTerminal:
			child := matchTerminal(tokens, at, opt.pending.terminal)
			if child == nil {
				f.cursor++

				continue
			}

			opt.accept(child)

			continue

		case pendingNone:
		}

		if len(opt.remaining) > 0 {
			sym := opt.remaining[0]
			opt.remaining = opt.remaining[1:]

			if g.IsTerminal(sym) {
				opt.pending = pending{kind: pendingTerminal, terminal: sym}

				continue
			}

			if err := enter(ctx, sym, at, f.depth+1, t.maxDepth); err != nil {
				return nil, err
			}

			sub := newFrame(g, sym, at, f.depth+1)
			opt.pending = pending{kind: pendingSubRule, frame: sub}
			stack.PushBack(sub)

			continue
		}

		// Strictly longer only: ties keep the earlier production.
		if f.best == nil || opt.consumed > f.best.Consumed {
			f.best = &Node{
				Rule:       f.rule,
				Production: opt.production,
				Children:   opt.children,
				Consumed:   opt.consumed,
			}
		}

		f.cursor++
	}
}

// accept appends a matched child and clears the pending step.
func (o *option) accept(child *Node) {
	o.children = append(o.children, child)
	o.consumed += child.Consumed
	o.pending = pending{}
}
