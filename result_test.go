package axiom_test

import (
	"strings"
	"testing"

	"github.com/axiomrules/axiom"
)

func sampleResultTree() *axiom.Result {
	leaf1 := &axiom.Result{
		Rule:    axiom.StringRule("leaf1", "name", axiom.OpEquals, "x"),
		Outcome: axiom.Valid,
		Key:     "name",
		Actual:  "x",
	}
	leaf2 := &axiom.Result{
		Rule:    axiom.NumberRule("leaf2", "age", axiom.OpGreaterThan, 1),
		Outcome: axiom.Maybe,
	}
	return &axiom.Result{
		Rule:     axiom.And("root", leaf1.Rule, leaf2.Rule),
		Outcome:  axiom.Valid,
		Children: []*axiom.Result{leaf1, leaf2},
	}
}

func TestResultFlatVisitsEveryNode(t *testing.T) {
	root := sampleResultTree()
	flat := root.Flat()
	if len(flat) != 3 {
		t.Fatalf("len(Flat()) = %d, want 3", len(flat))
	}
	if flat[0] != root {
		t.Error("Flat()[0] should be the root itself")
	}
}

func TestResultStringRenders(t *testing.T) {
	root := sampleResultTree()
	out := root.String()
	if !strings.Contains(out, "root") || !strings.Contains(out, "leaf1") {
		t.Errorf("String() missing node IDs: %s", out)
	}
	if !strings.Contains(out, "VALID") {
		t.Errorf("String() missing outcome: %s", out)
	}
}

func TestResultSummaryOmitsMessageAndActual(t *testing.T) {
	root := sampleResultTree()
	root.Children[0].Message = "should not appear in summary"
	summary := root.Summary()
	if strings.Contains(summary, "should not appear in summary") {
		t.Errorf("Summary() leaked message detail: %s", summary)
	}
	if !strings.Contains(summary, "leaf2") {
		t.Errorf("Summary() missing node IDs: %s", summary)
	}
}

// Structural congruence: when every node is evaluated (none ignored or
// short-circuited away), each result node has exactly as many children as
// the rule that produced it.
func TestResultTreeStructurallyCongruentToRule(t *testing.T) {
	reg := newFakeRegistry(map[string]any{"a": "x", "b": "y"})
	ev := axiom.NewEvaluator(reg)
	rule := axiom.And("root",
		axiom.Or("or1", axiom.StringRule("l1", "a", axiom.OpEquals, "x"), axiom.StringRule("l2", "b", axiom.OpEquals, "y")),
		axiom.StringRule("l3", "a", axiom.OpEquals, "x"),
	)

	var checkCongruence func(r *axiom.Rule, res *axiom.Result)
	checkCongruence = func(r *axiom.Rule, res *axiom.Result) {
		if res.Rule != r {
			t.Fatalf("result rule pointer mismatch: got %p, want %p", res.Rule, r)
		}
		if len(res.Children) != len(r.Children) {
			t.Fatalf("node %q: len(Children) = %d, want %d", r.ID, len(res.Children), len(r.Children))
		}
		for i := range r.Children {
			checkCongruence(r.Children[i], res.Children[i])
		}
	}

	res, err := ev.Evaluate(contextBG, rule, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkCongruence(rule, res)
}
