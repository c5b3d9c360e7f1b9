package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Print writes n as an indented outline, one node per line. Nonterminals
// show rule/production and the tokens consumed; terminals show their kind
// and text.
func (n *Node) Print(w io.Writer) error {
	var buf bytes.Buffer

	n.print(&buf, 0)

	_, err := w.Write(buf.Bytes())

	return err
}

func (n *Node) print(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))

	if n.IsTerminal() {
		fmt.Fprintf(buf, "%s %s\n", n.Rule, strconv.Quote(n.Text))

		return
	}

	fmt.Fprintf(buf, "%s/%s [%d]\n", n.Rule, n.Production, n.Consumed)

	for _, c := range n.Children {
		c.print(buf, depth+1)
	}
}

// FormatJSON writes the tree as JSON to the writer.
func (n *Node) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	return writeJSON(w, n, indent)
}

// FormatYAML writes the tree as YAML to the writer.
func (n *Node) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	return writeYAML(ctx, w, n.ToMap(), indent)
}

// Format writes the program n in canonical layer syntax: one statement per
// line and blocks indented by indent spaces. An indent of 0 writes the
// program on a single line. Comments are not part of the tree and are lost.
func (n *Node) Format(_ context.Context, w io.Writer, indent int) error {
	if n == nil || n.Rule != RuleStatementSequence {
		return invalidTree(n, RuleStatementSequence)
	}

	f := &formatter{indent: indent}
	f.sequence(n, 0)

	if f.err != nil {
		return f.err
	}

	if f.buf.Len() > 0 {
		f.buf.WriteByte('\n')
	}

	_, err := w.Write(f.buf.Bytes())

	return err
}

// Format writes the bindings of s as layer assignments in name order.
// Feeding the output back through [Run] reproduces the bindings of
// strings, finite numbers, bools and sequences of them.
func (s *Scope) Format(_ context.Context, w io.Writer) error {
	var buf bytes.Buffer

	for name, v := range s.All() {
		fmt.Fprintf(&buf, "%s = %s;\n", name, v)
	}

	_, err := w.Write(buf.Bytes())

	return err
}

// FormatJSON writes the bindings of s as a JSON object.
func (s *Scope) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	return writeJSON(w, s, indent)
}

// FormatYAML writes the bindings of s as a YAML mapping.
func (s *Scope) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	return writeYAML(ctx, w, s.ToMap(), indent)
}

func writeJSON(w io.Writer, v any, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func writeYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// formatter renders a program tree as source text.
type formatter struct {
	err    error
	buf    bytes.Buffer
	indent int
}

func (f *formatter) fail(n *Node, want Symbol) {
	if f.err == nil {
		f.err = invalidTree(n, want)
	}
}

func (f *formatter) write(s ...string) {
	for _, p := range s {
		f.buf.WriteString(p)
	}
}

// line starts a new statement at depth.
func (f *formatter) line(depth int) {
	if f.indent == 0 {
		if f.buf.Len() > 0 {
			f.buf.WriteByte(' ')
		}

		return
	}

	if f.buf.Len() > 0 {
		f.buf.WriteByte('\n')
	}

	f.buf.WriteString(strings.Repeat(" ", depth*f.indent))
}

func (f *formatter) sequence(n *Node, depth int) {
	for n.Is(RuleStatementSequence, "with_statement") {
		f.line(depth)
		f.statement(n.Child(0), depth)

		n = n.Child(1)
	}

	if !n.Is(RuleStatementSequence, "empty") {
		f.fail(n, RuleStatementSequence)
	}
}

func (f *formatter) statement(n *Node, depth int) {
	switch {
	case n.Is(RuleStatement, "while"):
		w := n.Child(0)
		f.write("while (")
		f.expression(w.Child(2))
		f.write(") ")
		f.block(w.Child(4), depth)

	case n.Is(RuleStatement, "if"):
		f.ifBlock(n.Child(0), depth)

	case n.Is(RuleStatement, "for"):
		loop := n.Child(0)
		f.write("for (")
		f.optional(loop.Child(2))
		f.write("; ")
		f.optional(loop.Child(4))
		f.write("; ")
		f.optional(loop.Child(6))
		f.write(") ")
		f.block(loop.Child(8), depth)

	case n.Is(RuleStatement, "block"):
		f.block(n.Child(0), depth)

	case n.Is(RuleStatement, "expression"):
		f.expression(n.Child(0))
		f.write(";")

	default:
		f.fail(n, RuleStatement)
	}
}

func (f *formatter) block(n *Node, depth int) {
	body := n.Child(1)
	if body.Is(RuleStatementSequence, "empty") {
		f.write("{}")

		return
	}

	f.write("{")
	f.sequence(body, depth+1)
	f.line(depth)
	f.write("}")
}

func (f *formatter) ifBlock(n *Node, depth int) {
	f.write("if (")
	f.expression(n.Child(2))
	f.write(") ")
	f.block(n.Child(4), depth)

	switch alt := n.Child(5); {
	case alt.Is(RuleElseBlock, "with_else"):
		f.write(" else ")
		f.block(alt.Child(1), depth)

	case alt.Is(RuleElseBlock, "with_else_if"):
		f.write(" else ")
		f.ifBlock(alt.Child(1), depth)
	}
}

func (f *formatter) optional(n *Node) {
	if n.Is(RuleOptionalExpression, "exp") {
		f.expression(n.Child(0))
	}
}

func (f *formatter) expression(n *Node) {
	switch {
	case n.Is(RuleExpression, "assignment"):
		a := n.Child(0)
		f.write(a.Child(0).Text, " = ")
		f.expression(a.Child(2))

	case n.Is(RuleExpression, "atom_with_op_suffix"):
		f.atom(n.Child(0))

		for suffix := n.Child(1); suffix != nil; {
			switch suffix.Production {
			case "with_suff":
				f.write(" ", suffix.Child(0).Child(0).Text, " ")
				f.atom(suffix.Child(1))
				suffix = suffix.Child(2)

			case "index":
				f.write("[")
				f.expression(suffix.Child(1))
				f.write("]")
				suffix = suffix.Child(3)

			case "call":
				f.write("(")
				f.list(suffix.Child(1))
				f.write(")")
				suffix = suffix.Child(3)

			default:
				suffix = nil
			}
		}

	default:
		f.fail(n, RuleExpression)
	}
}

func (f *formatter) atom(n *Node) {
	switch {
	case n.Is(RuleAtom, "neg_num"):
		f.write("-", n.Child(1).Text)

	case n.Is(RuleAtom, "arr"):
		f.write("[")
		f.list(n.Child(0).Child(1))
		f.write("]")

	case n.Is(RuleAtom, "paren_expression"):
		f.write("(")
		f.expression(n.Child(1))
		f.write(")")

	case n != nil && n.Rule == RuleAtom && len(n.Children) == 1:
		f.write(n.Child(0).Text)

	default:
		f.fail(n, RuleAtom)
	}
}

func (f *formatter) list(n *Node) {
	for first := true; n.Is(RuleArrayBody, "with_exp"); first = false {
		if !first {
			f.write(", ")
		}

		f.expression(n.Child(0))

		rest := n.Child(1)
		if !rest.Is(RuleOptionalCommaAndArray, "with_comma_and_array") {
			break
		}

		n = rest.Child(1)
	}
}
