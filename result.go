package axiom

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Result is a node in the evaluation result tree, mirroring the Rule tree
// that produced it (spec.md section 3). Every rule node that was not
// short-circuited away has exactly one corresponding Result node.
type Result struct {
	// Rule is the node that produced this result.
	Rule *Rule

	// Outcome is the node's evaluated truth value.
	Outcome Outcome

	// Message carries error detail for a leaf (or malformed NOT) whose
	// Outcome is FAILED or OPERATION_NOT_SUPPORTED, and a NOT node copies
	// its child's Message. AND/OR nodes leave it empty, whatever their
	// Outcome.
	Message string

	// Ignored mirrors Rule.Ignore for convenience in result-only code.
	Ignored bool

	// Children holds the results of evaluated child rules, in declared
	// order. For a combinator child that was short-circuited away, the
	// corresponding entry still exists with Outcome == Maybe (spec.md
	// section 3's "consistent policy" invariant: this engine always
	// includes short-circuited children, never omits them).
	Children []*Result

	// Key/Operator/Expected/Actual are populated for every leaf that
	// resolves a fact (all leaves except CONSTANT); for EXISTS and NULL
	// Operator and Expected stay empty.
	Key      string
	Operator Operator
	Expected any
	Actual   any
}

// newMaybe builds a placeholder Result for a child that was never
// evaluated because a sibling already decided the parent's outcome.
func newMaybe(r *Rule) *Result {
	return &Result{Rule: r, Outcome: Maybe}
}

// Flat returns every result in the tree (including r itself) as a flat,
// pre-order slice, in the style of indigo's Result.Flat() iterator.
func (res *Result) Flat() []*Result {
	var out []*Result
	var walk func(*Result)
	walk = func(n *Result) {
		if n == nil {
			return
		}
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(res)
	return out
}

// String renders the result tree as a table, in the style of indigo's
// Result.String().
func (res *Result) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nAXIOM RESULTS\n")
	tw.AppendHeader(table.Row{"\nRule", "\nOutcome", "\nMessage", "\nActual"})
	for _, row := range res.rows(0) {
		tw.AppendRow(row)
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func (res *Result) rows(depth int) []table.Row {
	indent := strings.Repeat("  ", depth)
	id := ""
	if res.Rule != nil {
		id = res.Rule.ID
	}
	rows := []table.Row{{
		indent + id,
		res.Outcome.String(),
		res.Message,
		fmt.Sprintf("%v", res.Actual),
	}}
	for _, c := range res.Children {
		rows = append(rows, c.rows(depth+1)...)
	}
	return rows
}

// Summary renders a condensed one-line-per-node view, dropping the
// message/actual-value columns, mirroring indigo's Result.Summary().
func (res *Result) Summary() string {
	tw := table.NewWriter()
	tw.SetTitle("\nAXIOM RESULT SUMMARY\n")
	tw.AppendHeader(table.Row{"\nRule", "\nOutcome"})
	var rows func(*Result, int) []table.Row
	rows = func(n *Result, depth int) []table.Row {
		id := ""
		if n.Rule != nil {
			id = n.Rule.ID
		}
		out := []table.Row{{strings.Repeat("  ", depth) + id, n.Outcome.String()}}
		for _, c := range n.Children {
			out = append(out, rows(c, depth+1)...)
		}
		return out
	}
	for _, row := range rows(res, 0) {
		tw.AppendRow(row)
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}
