package codec

import (
	"encoding/json"
	"fmt"

	"github.com/axiomrules/axiom"
)

// Codec decodes and encodes Rule/Result trees against a fixed Registry of
// recognized rule discriminators. Build one with NewCodec and reuse it —
// it carries no mutable state.
type Codec struct {
	reg *Registry
}

// NewCodec builds a Codec backed by reg.
func NewCodec(reg *Registry) *Codec {
	return &Codec{reg: reg}
}

// wireRule is the on-the-wire shape of one rule node (spec.md section 6).
// All fields are optional except Type; which ones are meaningful depends
// on Type, mirroring Rule's own tagged-union shape.
type wireRule struct {
	Type        string            `json:"type"`
	ID          string            `json:"id,omitempty"`
	Description string            `json:"description,omitempty"`
	Ignore      bool              `json:"ignore,omitempty"`
	Rules       []json.RawMessage `json:"rules,omitempty"`
	Rule        json.RawMessage   `json:"rule,omitempty"`
	Key         string            `json:"key,omitempty"`
	Operator    axiom.Operator    `json:"operator,omitempty"`
	Value       json.RawMessage   `json:"value,omitempty"`
	Result      string            `json:"result,omitempty"`
}

// DecodeRule parses one rule tree from JSON, rejecting unregistered
// discriminators with ErrUnknownRuleType, operators that are not valid for
// a leaf's kind (see axiom.ValidOperators), and trees nested deeper than
// maxRuleDepth. JSON decoding always allocates fresh nodes, so a decoded
// tree cannot contain a cycle; the depth limit is the only structural
// guard.
func (c *Codec) DecodeRule(data []byte) (*axiom.Rule, error) {
	return c.decodeRule(data, 0)
}

const maxRuleDepth = 200

func (c *Codec) decodeRule(data []byte, depth int) (*axiom.Rule, error) {
	if depth > maxRuleDepth {
		return nil, fmt.Errorf("codec: rule tree exceeds maximum depth %d (cyclic reference?)", maxRuleDepth)
	}
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("codec: decode rule: %w", err)
	}
	if !c.reg.Accepts(w.Type) {
		return nil, ErrUnknownRuleType{Type: w.Type}
	}

	r := &axiom.Rule{
		Kind:        axiom.Kind(w.Type),
		ID:          w.ID,
		Description: w.Description,
		Ignore:      w.Ignore,
		Key:         w.Key,
		Operator:    w.Operator,
	}

	if ops := axiom.ValidOperators(r.Kind); ops != nil {
		supported := false
		for _, op := range ops {
			if op == r.Operator {
				supported = true
				break
			}
		}
		if !supported {
			return nil, fmt.Errorf("codec: operator %q not valid for %s rule", r.Operator, r.Kind)
		}
	}

	switch r.Kind {
	case axiom.KindAnd, axiom.KindOr:
		r.Children = make([]*axiom.Rule, len(w.Rules))
		for i, raw := range w.Rules {
			child, err := c.decodeRule(raw, depth+1)
			if err != nil {
				return nil, err
			}
			r.Children[i] = child
		}
	case axiom.KindNot:
		if len(w.Rule) == 0 {
			return nil, fmt.Errorf("codec: NOT rule missing \"rule\" field")
		}
		child, err := c.decodeRule(w.Rule, depth+1)
		if err != nil {
			return nil, err
		}
		r.Children = []*axiom.Rule{child}
	case axiom.KindString:
		var v string
		if err := decodeValue(w.Value, &v); err != nil {
			return nil, err
		}
		r.Expected = v
	case axiom.KindNumber:
		var v float64
		if err := decodeValue(w.Value, &v); err != nil {
			return nil, err
		}
		r.Expected = v
	case axiom.KindDate:
		var v string
		if err := decodeValue(w.Value, &v); err != nil {
			return nil, err
		}
		r.Expected = v
	case axiom.KindSet:
		var v []any
		if err := decodeValue(w.Value, &v); err != nil {
			return nil, err
		}
		r.Expected = v
	case axiom.KindExists, axiom.KindNull:
		// No expected value.
	case axiom.KindConstant:
		outcome, err := parseOutcome(w.Result)
		if err != nil {
			return nil, err
		}
		r.ConstantOutcome = outcome
	}
	return r, nil
}

func decodeValue(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return fmt.Errorf("codec: leaf rule missing \"value\" field")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("codec: decode value: %w", err)
	}
	return nil
}

// parseOutcome is grounded on axiom.Outcome's own UnmarshalJSON, but takes
// a bare string (the CONSTANT rule's "result" field is not quoted twice).
func parseOutcome(s string) (axiom.Outcome, error) {
	var o axiom.Outcome
	if err := o.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		return 0, fmt.Errorf("codec: CONSTANT rule: %w", err)
	}
	return o, nil
}

// EncodeRule renders r back to its wire JSON form. Round-trips with
// DecodeRule up to field ordering (spec.md section 8 property 2).
func (c *Codec) EncodeRule(r *axiom.Rule) ([]byte, error) {
	return c.encodeRule(r)
}

func (c *Codec) encodeRule(r *axiom.Rule) ([]byte, error) {
	w := wireRule{
		Type:        string(r.Kind),
		ID:          r.ID,
		Description: r.Description,
		Ignore:      r.Ignore,
		Key:         r.Key,
		Operator:    r.Operator,
	}
	switch r.Kind {
	case axiom.KindAnd, axiom.KindOr:
		w.Rules = make([]json.RawMessage, len(r.Children))
		for i, c2 := range r.Children {
			raw, err := c.encodeRule(c2)
			if err != nil {
				return nil, err
			}
			w.Rules[i] = raw
		}
	case axiom.KindNot:
		if len(r.Children) == 0 {
			return nil, fmt.Errorf("codec: NOT rule missing its child")
		}
		raw, err := c.encodeRule(r.Children[0])
		if err != nil {
			return nil, err
		}
		w.Rule = raw
	case axiom.KindString, axiom.KindNumber, axiom.KindDate, axiom.KindSet:
		raw, err := json.Marshal(r.Expected)
		if err != nil {
			return nil, fmt.Errorf("codec: encode value: %w", err)
		}
		w.Value = raw
	case axiom.KindConstant:
		w.Result = r.ConstantOutcome.String()
	}
	return json.Marshal(w)
}
