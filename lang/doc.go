// Package lang implements the layer language: a lexer, a grammar table, two
// interchangeable parse engines, and a tree-walking evaluator.
//
// # Pipeline
//
//	source ─[Lex]→ []Token ─[ParseProgram]→ *Node ─[Execute]→ *Scope
//
// [Run] performs all three steps. [ParseCached] and [ParseReader] memoize
// parse trees in memory; a [TreeStore] persists them on disk.
//
// # Grammar
//
// A [Grammar] maps rule names to ordered, named productions. Symbols with no
// productions are terminals and match one token of that kind. The grammar is
// ambiguous by construction and resolved by longest match: among the
// productions of a rule that match, the one consuming the most tokens wins,
// and ties go to the production declared first.
//
// Informal EBNF of [DefaultGrammar]:
//
//	Program    → Statement*
//	Statement  → While | If | For | Block | Expression ';'
//	Block      → '{' Statement* '}'
//	While      → 'while' '(' Expression ')' Block
//	If         → 'if' '(' Expression ')' Block ('else' (Block | If))?
//	For        → 'for' '(' Expression? ';' Expression? ';' Expression? ')' Block
//	Expression → Identifier '=' Expression | Atom Suffix*
//	Suffix     → Operator Atom | '[' Expression ']' | '(' List ')'
//	Atom       → Number | '-' Number | String | 'true' | 'false'
//	           | Identifier | '[' List ']' | '(' Expression ')'
//	List       → (Expression (',' List)?)?
//
// # Engines
//
// [EngineBacktrack] recurses once per nonterminal attempt. [EngineStack]
// performs the same search with an explicit stack of frames so its native
// call depth stays constant. Both return identical trees for every grammar
// and input.
//
// # Evaluation
//
// Values are strings, numbers (float64), bools and sequences. Operators bind,
// from tightest to loosest:
//
//	call, index
//	*  /
//	+  -
//	<=  >=  <  >
//	==  !=
//	&&
//	||
//
// Operators of equal precedence associate left. Both operands of && and ||
// are always evaluated. Adding a string and a number concatenates their
// text. Conditions must be bools.
//
// Example:
//
//	total = 0;
//	for (i = 1; i <= 4; i = i + 1) {
//	  total = total + i;   # mutates the outer binding
//	}
//	label = "sum=" + total; # "sum=10"; i is no longer bound
package lang
