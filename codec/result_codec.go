package codec

import (
	"encoding/json"
	"fmt"

	"github.com/axiomrules/axiom"
)

// wireResult is the on-the-wire shape of one result node (spec.md
// section 6). Decoding is structural, not discriminator-based: presence
// of "rules" means multiary, "rule" means unary, "key" means a values
// (leaf) node, otherwise a base node.
type wireResult struct {
	Type        string            `json:"type"`
	Result      string            `json:"result"`
	Description string            `json:"description,omitempty"`
	Message     string            `json:"message,omitempty"`
	Ignored     bool              `json:"ignored,omitempty"`
	Rules       []json.RawMessage `json:"rules,omitempty"`
	Rule        json.RawMessage   `json:"rule,omitempty"`
	Key         string            `json:"key,omitempty"`
	Operator    axiom.Operator    `json:"operator,omitempty"`
	Expected    json.RawMessage   `json:"expectedValue,omitempty"`
	Actual      json.RawMessage   `json:"actualValue,omitempty"`
}

// DecodeResult parses one result tree from JSON.
func (c *Codec) DecodeResult(data []byte) (*axiom.Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("codec: decode result: %w", err)
	}

	outcome, err := parseOutcome(w.Result)
	if err != nil {
		return nil, err
	}

	res := &axiom.Result{
		Rule:     &axiom.Rule{Kind: axiom.Kind(w.Type), Description: w.Description},
		Outcome:  outcome,
		Message:  w.Message,
		Ignored:  w.Ignored,
		Key:      w.Key,
		Operator: w.Operator,
	}

	switch {
	case len(w.Rules) > 0:
		res.Children = make([]*axiom.Result, len(w.Rules))
		for i, raw := range w.Rules {
			child, err := c.DecodeResult(raw)
			if err != nil {
				return nil, err
			}
			res.Children[i] = child
		}
	case len(w.Rule) > 0:
		child, err := c.DecodeResult(w.Rule)
		if err != nil {
			return nil, err
		}
		res.Children = []*axiom.Result{child}
	case w.Key != "":
		if len(w.Expected) > 0 {
			var v any
			if err := json.Unmarshal(w.Expected, &v); err != nil {
				return nil, fmt.Errorf("codec: decode expectedValue: %w", err)
			}
			res.Expected = v
		}
		if len(w.Actual) > 0 {
			var v any
			if err := json.Unmarshal(w.Actual, &v); err != nil {
				return nil, fmt.Errorf("codec: decode actualValue: %w", err)
			}
			res.Actual = v
		}
	}
	return res, nil
}

// EncodeResult renders res back to its wire JSON form.
func (c *Codec) EncodeResult(res *axiom.Result) ([]byte, error) {
	w := wireResult{
		Result:  res.Outcome.String(),
		Message: res.Message,
		Ignored: res.Ignored,
	}
	if res.Rule != nil {
		w.Type = string(res.Rule.Kind)
		w.Description = res.Rule.Description
	}

	switch {
	case len(res.Children) > 1 || (res.Rule != nil && (res.Rule.Kind == axiom.KindAnd || res.Rule.Kind == axiom.KindOr)):
		w.Rules = make([]json.RawMessage, len(res.Children))
		for i, child := range res.Children {
			raw, err := c.EncodeResult(child)
			if err != nil {
				return nil, err
			}
			w.Rules[i] = raw
		}
	case len(res.Children) == 1:
		raw, err := c.EncodeResult(res.Children[0])
		if err != nil {
			return nil, err
		}
		w.Rule = raw
	case res.Key != "":
		w.Key = res.Key
		w.Operator = res.Operator
		if res.Expected != nil {
			raw, err := json.Marshal(res.Expected)
			if err != nil {
				return nil, fmt.Errorf("codec: encode expectedValue: %w", err)
			}
			w.Expected = raw
		}
		if res.Actual != nil {
			raw, err := json.Marshal(res.Actual)
			if err != nil {
				return nil, fmt.Errorf("codec: encode actualValue: %w", err)
			}
			w.Actual = raw
		}
	}
	return json.Marshal(w)
}
