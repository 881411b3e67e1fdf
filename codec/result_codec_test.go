package codec_test

import (
	"testing"

	"github.com/axiomrules/axiom"
	"github.com/axiomrules/axiom/codec"
)

func TestDecodeResultLeaf(t *testing.T) {
	c := defaultCodec()
	res, err := c.DecodeResult([]byte(`{"type":"STRING","result":"VALID","key":"name","operator":"EQUALS","expectedValue":"ada","actualValue":"ada"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != axiom.Valid || res.Key != "name" || res.Expected != "ada" || res.Actual != "ada" {
		t.Fatalf("decoded result = %+v", res)
	}
}

func TestDecodeResultCombinator(t *testing.T) {
	c := defaultCodec()
	doc := `{
		"type": "AND",
		"result": "INVALID",
		"rules": [
			{"type": "STRING", "result": "INVALID", "key": "a", "expectedValue": "x", "actualValue": "y"},
			{"type": "NUMBER", "result": "MAYBE", "key": "b"}
		]
	}`
	res, err := c.DecodeResult([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != axiom.Invalid || len(res.Children) != 2 {
		t.Fatalf("res = %+v", res)
	}
	if res.Children[1].Outcome != axiom.Maybe {
		t.Errorf("children[1].Outcome = %v, want MAYBE (the short-circuited placeholder)", res.Children[1].Outcome)
	}
}

func TestDecodeResultUnary(t *testing.T) {
	c := defaultCodec()
	doc := `{"type":"NOT","result":"VALID","rule":{"type":"STRING","result":"INVALID","key":"a","expectedValue":"x","actualValue":"y"}}`
	res, err := c.DecodeResult([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Children) != 1 || res.Children[0].Outcome != axiom.Invalid {
		t.Fatalf("res = %+v", res)
	}
}

// Round trip of a hand-built result, exercising the AND-with-a-single-
// child encoding ambiguity explicitly (spec.md section 8
// property 2): a combinator must always encode via "rules", even when it
// has exactly one child, never collapse into the unary "rule" field.
func TestResultRoundTripSingleChildCombinator(t *testing.T) {
	c := defaultCodec()
	rule := axiom.And("root", axiom.StringRule("only", "a", axiom.OpEquals, "x"))
	res := &axiom.Result{
		Rule:    rule,
		Outcome: axiom.Valid,
		Children: []*axiom.Result{
			{Rule: rule.Children[0], Outcome: axiom.Valid, Key: "a", Expected: "x", Actual: "x"},
		},
	}

	encoded, err := c.EncodeResult(res)
	if err != nil {
		t.Fatalf("EncodeResult: %v", err)
	}
	decoded, err := c.DecodeResult(encoded)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if len(decoded.Children) != 1 {
		t.Fatalf("decoded.Children = %v, want 1 child preserved through the \"rules\" array", decoded.Children)
	}
	if decoded.Children[0].Key != "a" {
		t.Errorf("decoded child Key = %q, want %q", decoded.Children[0].Key, "a")
	}
}

func TestEncodeResultTwoChildRoundTrip(t *testing.T) {
	c := defaultCodec()
	rule := axiom.And("root",
		axiom.StringRule("l1", "a", axiom.OpEquals, "x"),
		axiom.NumberRule("l2", "b", axiom.OpGreaterThan, 1),
	)
	res := &axiom.Result{
		Rule:    rule,
		Outcome: axiom.Valid,
		Children: []*axiom.Result{
			{Rule: rule.Children[0], Outcome: axiom.Valid, Key: "a", Expected: "x", Actual: "x"},
			{Rule: rule.Children[1], Outcome: axiom.Valid, Key: "b", Expected: 1.0, Actual: 2.0},
		},
	}
	encoded, err := c.EncodeResult(res)
	if err != nil {
		t.Fatalf("EncodeResult: %v", err)
	}
	decoded, err := c.DecodeResult(encoded)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if decoded.Outcome != axiom.Valid || len(decoded.Children) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
}
