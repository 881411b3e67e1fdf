package axiom

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Kind discriminates the variant of a Rule node. It is the "type" field
// used by the JSON codec (package codec) to decode a rule tree.
type Kind string

const (
	KindAnd      Kind = "AND"
	KindOr       Kind = "OR"
	KindNot      Kind = "NOT"
	KindString   Kind = "STRING"
	KindNumber   Kind = "NUMBER"
	KindDate     Kind = "DATE"
	KindSet      Kind = "SET"
	KindExists   Kind = "EXISTS"
	KindNull     Kind = "NULL"
	KindConstant Kind = "CONSTANT"
)

// Operator identifies the comparison a leaf rule performs against a fact.
// Not every operator is valid for every leaf Kind; see ValidOperators.
type Operator string

const (
	OpEquals       Operator = "EQUALS"
	OpNotEquals    Operator = "NOT_EQUALS"
	OpContains     Operator = "CONTAINS"
	OpStartsWith   Operator = "STARTS_WITH"
	OpEndsWith     Operator = "ENDS_WITH"
	OpRegex        Operator = "REGEX"
	OpGreaterThan  Operator = "GREATER_THAN"
	OpGreaterEqual Operator = "GREATER_THAN_EQUAL"
	OpLessThan     Operator = "LESS_THAN"
	OpLessEqual    Operator = "LESS_THAN_EQUAL"
	OpIntersects   Operator = "INTERSECTS"
	OpIsSubsetOf   Operator = "IS_SUBSET_OF"
	OpIsSupersetOf Operator = "IS_SUPERSET_OF"
)

// ValidOperators returns the set of operators a leaf of Kind k accepts.
// The codec rejects any other combination at decode time (spec.md 4.1).
func ValidOperators(k Kind) []Operator {
	switch k {
	case KindString:
		return []Operator{OpEquals, OpNotEquals, OpContains, OpStartsWith, OpEndsWith, OpRegex}
	case KindNumber, KindDate:
		return []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual}
	case KindSet:
		return []Operator{OpContains, OpIntersects, OpIsSubsetOf, OpIsSupersetOf, OpEquals}
	default:
		return nil
	}
}

func operatorSupported(k Kind, op Operator) bool {
	for _, v := range ValidOperators(k) {
		if v == op {
			return true
		}
	}
	return false
}

// Rule is a node in a predicate tree. It is a closed tagged union: Kind
// selects which of the fields below are meaningful, mirroring the set of
// variants in spec.md section 3. Rule trees are built once by the caller
// (typically via the codec package, deserializing JSON) and are treated as
// immutable values from that point on; the Evaluator never mutates a Rule.
type Rule struct {
	// Kind selects the variant (combinator or leaf).
	Kind Kind

	// ID is an optional, human-assigned identifier. Unlike the teacher's
	// map-keyed children, Rule children here are an ordered slice (AND/OR
	// must preserve declared order per spec.md section 5), so ID is purely
	// informational/diagnostic, not a lookup key.
	ID string

	// Description is an optional human-readable note, carried through to
	// the mirrored Result node unchanged.
	Description string

	// Ignore marks a rule (leaf or combinator) as neutral: it always
	// evaluates to Ignored, the boolean identity under AND and OR.
	Ignore bool

	// Action, if set, is invoked exactly once after this node's Outcome is
	// final (see action.go).
	Action *Action

	// Children holds the ordered child rules of AND/OR. Exactly one child
	// is used for NOT (Children[0]); leaves have no children.
	Children []*Rule

	// Key is the fact name a leaf predicate reads. Unused by combinators
	// and CONSTANT.
	Key string

	// Operator is the leaf comparison to apply. Unused by EXISTS, NULL and
	// CONSTANT.
	Operator Operator

	// Expected is the leaf's comparison operand. Its concrete Go type must
	// match the leaf Kind (string for STRING, a numeric type for NUMBER, a
	// time.Time or RFC3339 string for DATE, a []any for SET). Unused
	// by EXISTS and NULL.
	Expected any

	// ConstantOutcome is the fixed result of a CONSTANT rule.
	ConstantOutcome Outcome
}

// And builds an AND combinator over the given children. The children are
// evaluated concurrently, and the AND short-circuits on the first INVALID
// child to report.
func And(id string, children ...*Rule) *Rule {
	return &Rule{Kind: KindAnd, ID: id, Children: children}
}

// Or builds an OR combinator over the given children. The children are
// evaluated concurrently, and the OR short-circuits on the first VALID
// child to report.
func Or(id string, children ...*Rule) *Rule {
	return &Rule{Kind: KindOr, ID: id, Children: children}
}

// Not builds a unary negation of child.
func Not(id string, child *Rule) *Rule {
	return &Rule{Kind: KindNot, ID: id, Children: []*Rule{child}}
}

// StringRule builds a STRING leaf predicate over fact key.
func StringRule(id, key string, op Operator, expected string) *Rule {
	return &Rule{Kind: KindString, ID: id, Key: key, Operator: op, Expected: expected}
}

// NumberRule builds a NUMBER leaf predicate over fact key.
func NumberRule(id, key string, op Operator, expected float64) *Rule {
	return &Rule{Kind: KindNumber, ID: id, Key: key, Operator: op, Expected: expected}
}

// DateRule builds a DATE leaf predicate over fact key. expected is an
// RFC3339 timestamp or date string.
func DateRule(id, key string, op Operator, expected string) *Rule {
	return &Rule{Kind: KindDate, ID: id, Key: key, Operator: op, Expected: expected}
}

// SetRule builds a SET leaf predicate over fact key.
func SetRule(id, key string, op Operator, expected []any) *Rule {
	return &Rule{Kind: KindSet, ID: id, Key: key, Operator: op, Expected: expected}
}

// ExistsRule builds an EXISTS leaf predicate: VALID iff the fact resolves
// to a non-nil value.
func ExistsRule(id, key string) *Rule {
	return &Rule{Kind: KindExists, ID: id, Key: key}
}

// NullRule builds a NULL leaf predicate: VALID iff the fact resolves to nil.
func NullRule(id, key string) *Rule {
	return &Rule{Kind: KindNull, ID: id, Key: key}
}

// ConstantRule builds a placeholder rule carrying a fixed outcome,
// typically used for tests and staged rollout placeholders.
func ConstantRule(id string, outcome Outcome) *Rule {
	return &Rule{Kind: KindConstant, ID: id, ConstantOutcome: outcome}
}

// IsLeaf reports whether r is a leaf predicate (as opposed to a
// combinator).
func (r *Rule) IsLeaf() bool {
	switch r.Kind {
	case KindAnd, KindOr, KindNot:
		return false
	default:
		return true
	}
}

// Equal reports whether r and other describe the same rule tree,
// structurally. Action callbacks are compared by presence, not identity,
// since Go functions are not comparable.
func (r *Rule) Equal(other *Rule) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Kind != other.Kind || r.ID != other.ID || r.Description != other.Description ||
		r.Ignore != other.Ignore || r.Key != other.Key || r.Operator != other.Operator {
		return false
	}
	if (r.Action == nil) != (other.Action == nil) {
		return false
	}
	if r.Kind == KindConstant && r.ConstantOutcome != other.ConstantOutcome {
		return false
	}
	if !equalAny(r.Expected, other.Expected) {
		return false
	}
	if len(r.Children) != len(other.Children) {
		return false
	}
	for i := range r.Children {
		if !r.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// String renders the rule tree as a table, in the style of indigo's
// Rule.String(): one row per node, indented by depth, in declared
// (evaluation) order.
func (r *Rule) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nAXIOM RULES\n")
	tw.AppendHeader(table.Row{"\nRule", "\nKind", "\nKey", "\nOperator", "\nExpected"})

	for _, row := range r.rows(0) {
		tw.AppendRow(row)
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func (r *Rule) rows(depth int) []table.Row {
	indent := strings.Repeat("  ", depth)
	rows := []table.Row{{
		indent + r.ID,
		string(r.Kind),
		r.Key,
		string(r.Operator),
		fmt.Sprintf("%v", r.Expected),
	}}
	for _, c := range r.Children {
		rows = append(rows, c.rows(depth+1)...)
	}
	return rows
}

// Tree renders the rule hierarchy's IDs only, using box-drawing
// characters, mirroring indigo's Rule.Tree().
func (r *Rule) Tree() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(r.ID)
	sb.WriteString("\n")
	r.buildTree(&sb, "", 0)
	return sb.String()
}

func (r *Rule) buildTree(sb *strings.Builder, prefix string, depth int) {
	if depth >= 20 {
		return
	}
	for i, child := range r.Children {
		isLast := i == len(r.Children)-1
		connector, childPrefix := "├── ", "│   "
		if isLast {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(child.ID)
		sb.WriteString("\n")
		child.buildTree(sb, prefix+childPrefix, depth+1)
	}
}

// ApplyToRule applies f to r and, recursively, to every descendant.
// Traversal stops and returns the first error encountered.
func ApplyToRule(r *Rule, f func(*Rule) error) error {
	if r == nil {
		return nil
	}
	if err := f(r); err != nil {
		return err
	}
	for _, c := range r.Children {
		if err := ApplyToRule(c, f); err != nil {
			return err
		}
	}
	return nil
}

func equalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok || bok {
		if !aok || !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalAny(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
