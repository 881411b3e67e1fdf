// Package axiom is a declarative rules evaluation engine.
//
// A caller builds a Rule tree out of boolean combinators (And, Or, Not) and
// leaf predicates (String, Number, Date, Set, Exists, Null, Constant), each
// leaf referring to a named fact. An Evaluator walks the tree against a
// caller-supplied input, resolving facts on demand through a facts.Registry, and
// produces a Result tree that mirrors the shape of the rule tree actually
// evaluated.
//
// Evaluation uses a three-valued boolean algebra (see Outcome) so that
// indeterminate facts, ignored rules and fetch failures can all be
// represented and composed without the engine ever blocking longer than it
// has to: AND short-circuits on the first INVALID child, OR short-circuits
// on the first VALID child, and every remaining sibling subtree is
// abandoned (its result recorded as MAYBE) rather than awaited.
package axiom
