package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/axiomrules/axiom"
)

// DecodeRuleYAML parses one rule tree authored as YAML, a convenience for
// hand-written rule files (the wire format itself is still JSON-shaped —
// decoding goes through the same discriminator rules as DecodeRule, just
// bridged via a generic document rather than encoding/json directly).
func (c *Codec) DecodeRuleYAML(data []byte) (*axiom.Rule, error) {
	jsonData, err := yamlToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("codec: decode rule yaml: %w", err)
	}
	return c.DecodeRule(jsonData)
}

// EncodeRuleYAML renders r as YAML.
func (c *Codec) EncodeRuleYAML(r *axiom.Rule) ([]byte, error) {
	jsonData, err := c.EncodeRule(r)
	if err != nil {
		return nil, err
	}
	return jsonToYAML(jsonData)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

func jsonToYAML(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// normalizeYAML converts the map[string]interface{} keys yaml.v3 produces
// into the map[string]interface{} encoding/json expects; yaml.v3 already
// uses string keys for mappings, but nested map[string]any values need the
// same treatment recursively applied to slices.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
