package lang

import (
	"log/slog"
	"math"
	"slices"
)

// op is a binary operator in a flattened expression.
type op int

const (
	opCall op = iota
	opIndex
	opMul
	opDiv
	opAdd
	opSub
	opLessOrEqual
	opMoreOrEqual
	opLessThan
	opMoreThan
	opEqual
	opNotEqual
	opAnd
	opOr
)

var opNames = [...]string{
	opCall:        "call",
	opIndex:       "index",
	opMul:         "*",
	opDiv:         "/",
	opAdd:         "+",
	opSub:         "-",
	opLessOrEqual: "<=",
	opMoreOrEqual: ">=",
	opLessThan:    "<",
	opMoreThan:    ">",
	opEqual:       "==",
	opNotEqual:    "!=",
	opAnd:         "&&",
	opOr:          "||",
}

func (o op) String() string { return opNames[o] }

// operatorOf maps the productions of the operator rule.
var operatorOf = map[string]op{
	"asterisk":      opMul,
	"forward_slash": opDiv,
	"plus":          opAdd,
	"minus":         opSub,
	"less_or_equal": opLessOrEqual,
	"more_or_equal": opMoreOrEqual,
	"less_than":     opLessThan,
	"more_than":     opMoreThan,
	"double_equal":  opEqual,
	"not_equal":     opNotEqual,
	"and":           opAnd,
	"or":            opOr,
}

// tiers lists operators from tightest to loosest binding.
var tiers = [...][]op{
	{opCall, opIndex},
	{opMul, opDiv},
	{opAdd, opSub},
	{opLessOrEqual, opMoreOrEqual, opLessThan, opMoreThan},
	{opEqual, opNotEqual},
	{opAnd},
	{opOr},
}

// operand is a reduced or not-yet-reduced expression term. A callee names a
// builtin and holds no value; call arguments hold args.
type operand struct {
	val    Value
	callee string
	args   []Value
}

// term is an unevaluated operand in a flattened expression.
type term struct {
	node   *Node // atom, expression, or array_body
	callee bool  // bare identifier immediately followed by a call
}

func (e *evaluator) expression(n *Node, scope int) (Value, error) {
	switch {
	case n.Is(RuleExpression, "assignment"):
		return e.assignment(n.Child(0), scope)

	case n.Is(RuleExpression, "atom_with_op_suffix"):
		return e.reduce(n, scope)

	default:
		return Value{}, invalidTree(n, RuleExpression)
	}
}

func (e *evaluator) assignment(n *Node, scope int) (Value, error) {
	if !n.Is(RuleAssignment, "default_assignment") {
		return Value{}, invalidTree(n, RuleAssignment)
	}

	v, err := e.expression(n.Child(2), scope)
	if err != nil {
		return Value{}, err
	}

	e.arena.assign(scope, n.Child(0).Text, v)

	return v, nil
}

// flatten walks the right-recursive operator_suffix chain of n into
// alternating terms and operators: len(terms) == len(ops)+1.
func flatten(n *Node) (terms []term, ops []op, err error) {
	terms = []term{{node: n.Child(0)}}

	for suffix := n.Child(1); !suffix.Is(RuleOperatorSuffix, "empty"); {
		switch {
		case suffix.Is(RuleOperatorSuffix, "with_suff"):
			o, ok := operatorOf[suffix.Child(0).productionOrEmpty()]
			if !ok {
				return nil, nil, invalidTree(suffix.Child(0), RuleOperator)
			}

			ops = append(ops, o)
			terms = append(terms, term{node: suffix.Child(1)})
			suffix = suffix.Child(2)

		case suffix.Is(RuleOperatorSuffix, "index"):
			ops = append(ops, opIndex)
			terms = append(terms, term{node: suffix.Child(1)})
			suffix = suffix.Child(3)

		case suffix.Is(RuleOperatorSuffix, "call"):
			if left := &terms[len(terms)-1]; left.node.Is(RuleAtom, "ident") {
				left.callee = true
			}

			ops = append(ops, opCall)
			terms = append(terms, term{node: suffix.Child(1)})
			suffix = suffix.Child(3)

		default:
			return nil, nil, invalidTree(suffix, RuleOperatorSuffix)
		}
	}

	return terms, ops, nil
}

// reduce evaluates every operand left to right, then folds operators tier
// by tier. Within a tier the leftmost operator is applied first, so equal
// precedence associates to the left. Logical operators evaluate both sides.
func (e *evaluator) reduce(n *Node, scope int) (Value, error) {
	terms, ops, err := flatten(n)
	if err != nil {
		return Value{}, err
	}

	operands := make([]operand, len(terms))

	for i, t := range terms {
		switch {
		case t.callee:
			operands[i] = operand{callee: t.node.Child(0).Text}

		case i > 0 && ops[i-1] == opCall:
			args, err := e.arrayBody(t.node, scope)
			if err != nil {
				return Value{}, err
			}

			operands[i] = operand{args: args}

		case i > 0 && ops[i-1] == opIndex:
			v, err := e.expression(t.node, scope)
			if err != nil {
				return Value{}, err
			}

			operands[i] = operand{val: v}

		default:
			v, err := e.atom(t.node, scope)
			if err != nil {
				return Value{}, err
			}

			operands[i] = operand{val: v}
		}
	}

	for _, tier := range tiers {
		for i := 0; i < len(ops); {
			if !slices.Contains(tier, ops[i]) {
				i++

				continue
			}

			v, err := apply(ops[i], operands[i], operands[i+1])
			if err != nil {
				return Value{}, err
			}

			operands[i] = operand{val: v}
			operands = slices.Delete(operands, i+1, i+2)
			ops = slices.Delete(ops, i, i+1)
		}
	}

	if operands[0].callee != "" {
		return Value{}, ErrUnboundIdentifier.With(slog.String("name", operands[0].callee))
	}

	return operands[0].val, nil
}

func (e *evaluator) atom(n *Node, scope int) (Value, error) {
	if n == nil || n.Rule != RuleAtom {
		return Value{}, invalidTree(n, RuleAtom)
	}

	switch n.Production {
	case "num":
		return numberLiteral(n.Child(0).Text)

	case "neg_num":
		return numberLiteral("-" + n.Child(1).Text)

	case "true":
		return NewBool(true), nil

	case "false":
		return NewBool(false), nil

	case "string":
		text := n.Child(0).Text
		if len(text) < 2 {
			return Value{}, invalidTree(n, RuleAtom)
		}

		return NewString(text[1 : len(text)-1]), nil

	case "ident":
		name := n.Child(0).Text

		v, ok := e.arena.lookup(scope, name)
		if !ok {
			return Value{}, ErrUnboundIdentifier.With(slog.String("name", name))
		}

		return v, nil

	case "arr":
		arr := n.Child(0)
		if !arr.Is(RuleArray, "default_array") {
			return Value{}, invalidTree(arr, RuleArray)
		}

		elems, err := e.arrayBody(arr.Child(1), scope)
		if err != nil {
			return Value{}, err
		}

		return Value{typ: TypeSequence, seq: elems}, nil

	case "paren_expression":
		return e.expression(n.Child(1), scope)

	default:
		return Value{}, invalidTree(n, RuleAtom)
	}
}

// arrayBody evaluates a comma-separated expression list. A trailing comma
// is allowed.
func (e *evaluator) arrayBody(n *Node, scope int) ([]Value, error) {
	var elems []Value

	for n.Is(RuleArrayBody, "with_exp") {
		v, err := e.expression(n.Child(0), scope)
		if err != nil {
			return nil, err
		}

		elems = append(elems, v)

		rest := n.Child(1)
		if !rest.Is(RuleOptionalCommaAndArray, "with_comma_and_array") {
			break
		}

		n = rest.Child(1)
	}

	return elems, nil
}

func numberLiteral(text string) (Value, error) {
	f, err := parseNumber(text)
	if err != nil {
		return Value{}, ErrInvalidTree.Wrap(err).With(slog.String("literal", text))
	}

	return NewNumber(f), nil
}

func mismatch(o op, l, r Value) *Error {
	return ErrTypeMismatch.With(
		slog.String("op", o.String()),
		slog.String("left", l.Type().String()),
		slog.String("right", r.Type().String()),
	)
}

func scalar(v Value) bool {
	switch v.typ {
	case TypeNumber, TypeString, TypeBool:
		return true
	default:
		return false
	}
}

// apply evaluates a single binary operation.
func apply(o op, lhs, rhs operand) (Value, error) {
	if o == opCall {
		if lhs.callee == "" {
			return Value{}, ErrNotCallable.With(slog.String("type", lhs.val.Type().String()))
		}

		return callBuiltin(lhs.callee, rhs.args)
	}

	if lhs.callee != "" {
		return Value{}, ErrUnboundIdentifier.With(slog.String("name", lhs.callee))
	}

	l, r := lhs.val, rhs.val

	switch o {
	case opIndex:
		return index(l, r)

	case opAdd:
		switch {
		case l.typ == TypeNumber && r.typ == TypeNumber:
			return NewNumber(l.num + r.num), nil

		case (l.typ == TypeString || r.typ == TypeString) &&
			(l.typ == TypeString || l.typ == TypeNumber) &&
			(r.typ == TypeString || r.typ == TypeNumber):
			return NewString(l.Text() + r.Text()), nil

		default:
			return Value{}, mismatch(o, l, r)
		}

	case opEqual, opNotEqual:
		if !scalar(l) || !scalar(r) {
			return Value{}, mismatch(o, l, r)
		}

		return NewBool(l.Equal(r) == (o == opEqual)), nil

	case opAnd, opOr:
		if l.typ != TypeBool || r.typ != TypeBool {
			return Value{}, mismatch(o, l, r)
		}

		if o == opAnd {
			return NewBool(l.b && r.b), nil
		}

		return NewBool(l.b || r.b), nil
	}

	if l.typ != TypeNumber || r.typ != TypeNumber {
		return Value{}, mismatch(o, l, r)
	}

	switch o {
	case opMul:
		return NewNumber(l.num * r.num), nil
	case opDiv:
		return NewNumber(l.num / r.num), nil
	case opSub:
		return NewNumber(l.num - r.num), nil
	case opLessOrEqual:
		return NewBool(l.num <= r.num), nil
	case opMoreOrEqual:
		return NewBool(l.num >= r.num), nil
	case opLessThan:
		return NewBool(l.num < r.num), nil
	case opMoreThan:
		return NewBool(l.num > r.num), nil
	default:
		return Value{}, mismatch(o, l, r)
	}
}

func index(seq, idx Value) (Value, error) {
	if seq.typ != TypeSequence || idx.typ != TypeNumber {
		return Value{}, mismatch(opIndex, seq, idx)
	}

	i := idx.num
	if i != math.Trunc(i) || i < 0 || i >= float64(len(seq.seq)) {
		return Value{}, ErrIndexOutOfRange.With(
			slog.Float64("index", i),
			slog.Int("len", len(seq.seq)),
		)
	}

	return seq.seq[int(i)], nil
}
