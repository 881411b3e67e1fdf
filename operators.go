package axiom

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// evaluateLeaf applies r's operator to the resolved fact value val,
// returning the resulting Outcome and, for FAILED/OPERATION_NOT_SUPPORTED,
// an explanatory message. It is only called for leaves other than
// CONSTANT, whose fixed outcome bypasses fact resolution entirely.
func evaluateLeaf(r *Rule, val any) (Outcome, string) {
	switch r.Kind {
	case KindNull:
		if val == nil {
			return Valid, ""
		}
		return Invalid, ""
	case KindExists:
		if val == nil {
			return Invalid, ""
		}
		return Valid, ""
	}

	if !operatorSupported(r.Kind, r.Operator) {
		return OperationNotSupported, fmt.Sprintf("operator %s not valid for %s", r.Operator, r.Kind)
	}

	// A nil fact value never satisfies a STRING/NUMBER/DATE/SET
	// comparison: none of these operator families has a natural
	// "true when compared against null" member, so one rule covers all
	// of them uniformly rather than a per-operator carve-out.
	if val == nil {
		return Invalid, ""
	}

	switch r.Kind {
	case KindString:
		return evaluateString(r, val)
	case KindNumber:
		return evaluateNumber(r, val)
	case KindDate:
		return evaluateDate(r, val)
	case KindSet:
		return evaluateSet(r, val)
	default:
		return OperationNotSupported, fmt.Sprintf("unsupported rule kind %s", r.Kind)
	}
}

func evaluateString(r *Rule, val any) (Outcome, string) {
	actual, ok := val.(string)
	if !ok {
		return OperationNotSupported, fmt.Sprintf("fact %q is not a string: %T", r.Key, val)
	}
	expected, ok := r.Expected.(string)
	if !ok {
		return OperationNotSupported, fmt.Sprintf("expected value for %q is not a string: %T", r.Key, r.Expected)
	}
	switch r.Operator {
	case OpEquals:
		return boolOutcome(actual == expected), ""
	case OpNotEquals:
		return boolOutcome(actual != expected), ""
	case OpContains:
		return boolOutcome(strings.Contains(actual, expected)), ""
	case OpStartsWith:
		return boolOutcome(strings.HasPrefix(actual, expected)), ""
	case OpEndsWith:
		return boolOutcome(strings.HasSuffix(actual, expected)), ""
	case OpRegex:
		// Full-match semantics: anchor the pattern rather than allow a
		// bare regexp.MatchString substring match (spec.md section 4.4).
		re, err := regexp.Compile(`^(?:` + expected + `)$`)
		if err != nil {
			return OperationNotSupported, fmt.Sprintf("invalid regex %q: %v", expected, err)
		}
		return boolOutcome(re.MatchString(actual)), ""
	default:
		return OperationNotSupported, fmt.Sprintf("operator %s not valid for STRING", r.Operator)
	}
}

func evaluateNumber(r *Rule, val any) (Outcome, string) {
	actual, err := toBigFloat(val)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("fact %q: %v", r.Key, err)
	}
	expected, err := toBigFloat(r.Expected)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("expected value for %q: %v", r.Key, err)
	}
	cmp := actual.Cmp(expected)
	switch r.Operator {
	case OpEquals:
		return boolOutcome(cmp == 0), ""
	case OpNotEquals:
		return boolOutcome(cmp != 0), ""
	case OpGreaterThan:
		return boolOutcome(cmp > 0), ""
	case OpGreaterEqual:
		return boolOutcome(cmp >= 0), ""
	case OpLessThan:
		return boolOutcome(cmp < 0), ""
	case OpLessEqual:
		return boolOutcome(cmp <= 0), ""
	default:
		return OperationNotSupported, fmt.Sprintf("operator %s not valid for NUMBER", r.Operator)
	}
}

// toBigFloat coerces a fact or expected value to the widest numeric
// domain (spec.md section 4.4 recommends a big-decimal domain to avoid
// float drift; math/big.Float is the grounded stdlib choice since no
// ecosystem decimal library appears in the reference corpus).
func toBigFloat(v any) (*big.Float, error) {
	switch n := v.(type) {
	case *big.Float:
		return n, nil
	case float64:
		return big.NewFloat(n), nil
	case float32:
		return big.NewFloat(float64(n)), nil
	case int:
		return new(big.Float).SetInt64(int64(n)), nil
	case int32:
		return new(big.Float).SetInt64(int64(n)), nil
	case int64:
		return new(big.Float).SetInt64(n), nil
	case uint64:
		return new(big.Float).SetUint64(n), nil
	case string:
		f, _, err := big.ParseFloat(n, 10, 256, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("not a number: %T", v)
	}
}

func evaluateDate(r *Rule, val any) (Outcome, string) {
	actual, err := toTime(val)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("fact %q: %v", r.Key, err)
	}
	expected, err := toTime(r.Expected)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("expected value for %q: %v", r.Key, err)
	}
	// Compared as instants; lexicographic string comparison is
	// forbidden (spec.md section 4.4).
	cmp := actual.Compare(expected)
	switch r.Operator {
	case OpEquals:
		return boolOutcome(cmp == 0), ""
	case OpNotEquals:
		return boolOutcome(cmp != 0), ""
	case OpGreaterThan:
		return boolOutcome(cmp > 0), ""
	case OpGreaterEqual:
		return boolOutcome(cmp >= 0), ""
	case OpLessThan:
		return boolOutcome(cmp < 0), ""
	case OpLessEqual:
		return boolOutcome(cmp <= 0), ""
	default:
		return OperationNotSupported, fmt.Sprintf("operator %s not valid for DATE", r.Operator)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, nil
		}
		return time.Time{}, fmt.Errorf("not an ISO-8601 date/instant: %q", t)
	default:
		return time.Time{}, fmt.Errorf("not a date: %T", v)
	}
}

func evaluateSet(r *Rule, val any) (Outcome, string) {
	actual, err := toSet(val)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("fact %q: %v", r.Key, err)
	}
	expected, err := toSet(r.Expected)
	if err != nil {
		return OperationNotSupported, fmt.Sprintf("expected value for %q: %v", r.Key, err)
	}
	switch r.Operator {
	case OpEquals:
		return boolOutcome(setEquals(actual, expected)), ""
	case OpIntersects:
		return boolOutcome(setIntersects(actual, expected)), ""
	case OpIsSubsetOf:
		return boolOutcome(setSubset(actual, expected)), ""
	case OpIsSupersetOf, OpContains:
		// CONTAINS is treated as an alias of IS_SUPERSET_OF for SET
		// leaves: both ask "does the actual set contain every element of
		// the expected set" (see DESIGN.md).
		return boolOutcome(setSubset(expected, actual)), ""
	default:
		return OperationNotSupported, fmt.Sprintf("operator %s not valid for SET", r.Operator)
	}
}

func toSet(v any) (map[any]struct{}, error) {
	s := make(map[any]struct{})
	switch items := v.(type) {
	case []any:
		for _, it := range items {
			s[normalizeSetElement(it)] = struct{}{}
		}
	case nil:
	default:
		return nil, fmt.Errorf("not a set: %T", v)
	}
	return s, nil
}

// normalizeSetElement canonicalizes numeric element types so that, e.g.,
// the int 1 and the float64 1.0 are treated as the same set member.
func normalizeSetElement(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func setEquals(a, b map[any]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	return setSubset(a, b)
}

func setSubset(a, b map[any]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func setIntersects(a, b map[any]struct{}) bool {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}

func boolOutcome(b bool) Outcome {
	if b {
		return Valid
	}
	return Invalid
}
