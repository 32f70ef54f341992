package rules

import (
	"encoding/json"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

// CompareOp is the operator of an allow_if / deny_if clause.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

var (
	compareOps = mapset.NewSet(OpEq, OpNe, OpLt, OpLe, OpGt, OpGe)
	orderOps   = mapset.NewSet(OpLt, OpLe, OpGt, OpGe)
)

// Reserved condition keys. Every other key is a field match.
const (
	keyAllowIf                = "allow_if"
	keyDenyIf                 = "deny_if"
	keyRequiresNoVisibleCrack = "requires_no_visible_crack"
)

// Clause is one {field, op, value} predicate.
type Clause struct {
	Field string    `json:"field" yaml:"field"`
	Op    CompareOp `json:"op" yaml:"op"`
	Value any       `json:"value" yaml:"value"`
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// FieldMatch is a flat condition entry: either an exact value or an
// inclusive numeric range on one request field.
type FieldMatch struct {
	Field  string
	Equals any
	Range  *Range[float64]
}

func (m FieldMatch) String() string {
	if m.Range != nil {
		return fmt.Sprintf("%s in %s", m.Field, m.Range)
	}
	return fmt.Sprintf("%s == %v", m.Field, m.Equals)
}

// Conditions are the additional predicates a rule places on a request
// beyond its scope columns.
type Conditions struct {
	Matches                []FieldMatch
	RequiresNoVisibleCrack bool
	AllowIf                []Clause
	DenyIf                 []Clause
}

// IsZero reports whether the rule has no additional predicates.
func (c Conditions) IsZero() bool {
	return len(c.Matches) == 0 && !c.RequiresNoVisibleCrack && len(c.AllowIf) == 0 && len(c.DenyIf) == 0
}

// Fields lists every request field the conditions reference.
func (c Conditions) Fields() []string {
	set := mapset.NewSet[string]()
	for _, m := range c.Matches {
		set.Add(m.Field)
	}
	for _, cl := range c.AllowIf {
		set.Add(cl.Field)
	}
	for _, cl := range c.DenyIf {
		set.Add(cl.Field)
	}
	if c.RequiresNoVisibleCrack {
		set.Add("visible_crack")
	}
	fields := set.ToSlice()
	sort.Strings(fields)
	return fields
}

// ─── Validation ──────────────────────────────────────────────────────────────

// Validate checks that every referenced field exists on the request and
// that values and operators fit the field's kind.
func (c Conditions) Validate() error {
	for _, m := range c.Matches {
		_, kind, ok := CanonicalField(m.Field)
		if !ok {
			return &ConfigError{Key: m.Field, Reason: "condition references unknown request field"}
		}
		if m.Range != nil {
			if kind != KindNumber {
				return &ConfigError{Key: m.Field, Reason: "range condition on a non-numeric field"}
			}
			if !m.Range.Ordered() {
				return &ConfigError{Key: m.Field, Reason: fmt.Sprintf("range %s has min > max", m.Range)}
			}
			continue
		}
		if err := checkValueKind(m.Field, kind, m.Equals); err != nil {
			return err
		}
	}
	for _, list := range [][]Clause{c.AllowIf, c.DenyIf} {
		for _, cl := range list {
			if err := cl.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c Clause) validate() error {
	_, kind, ok := CanonicalField(c.Field)
	if !ok {
		return &ConfigError{Key: c.Field, Reason: "clause references unknown request field"}
	}
	if !compareOps.Contains(c.Op) {
		return &ConfigError{Key: c.Field, Reason: fmt.Sprintf("unsupported operator %q", c.Op)}
	}
	if orderOps.Contains(c.Op) && kind != KindNumber {
		return &ConfigError{Key: c.Field, Reason: fmt.Sprintf("operator %q needs a numeric field", c.Op)}
	}
	return checkValueKind(c.Field, kind, c.Value)
}

func checkValueKind(field string, kind FieldKind, v any) error {
	ok := false
	switch kind {
	case KindString:
		_, ok = v.(string)
	case KindBool:
		_, ok = v.(bool)
	case KindNumber:
		_, ok = ToFloat(v)
	}
	if !ok {
		return &ConfigError{Key: field, Reason: fmt.Sprintf("value %v is not a %s", v, kind)}
	}
	return nil
}

// ToFloat converts the numeric types a decoded payload may carry.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ─── Encoding ────────────────────────────────────────────────────────────────

// UnmarshalJSON accepts the flat mapping stored in conditions_json: reserved
// keys allow_if, deny_if and requires_no_visible_crack, and any other key as
// a field match (scalar for equality, {"min","max"} object for a range).
func (c *Conditions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	*c = Conditions{}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		switch k {
		case keyRequiresNoVisibleCrack:
			if err := json.Unmarshal(v, &c.RequiresNoVisibleCrack); err != nil {
				return fmt.Errorf("conditions: %s: %w", k, err)
			}
		case keyAllowIf:
			if err := json.Unmarshal(v, &c.AllowIf); err != nil {
				return fmt.Errorf("conditions: %s: %w", k, err)
			}
		case keyDenyIf:
			if err := json.Unmarshal(v, &c.DenyIf); err != nil {
				return fmt.Errorf("conditions: %s: %w", k, err)
			}
		default:
			m, err := decodeFieldMatch(k, v)
			if err != nil {
				return err
			}
			c.Matches = append(c.Matches, m)
		}
	}
	return nil
}

func decodeFieldMatch(field string, v json.RawMessage) (FieldMatch, error) {
	var probe map[string]json.RawMessage
	if json.Unmarshal(v, &probe) == nil {
		var r Range[float64]
		if err := json.Unmarshal(v, &r); err != nil {
			return FieldMatch{}, fmt.Errorf("conditions: %s: %w", field, err)
		}
		if r.Unbounded() {
			return FieldMatch{}, &ConfigError{Key: field, Reason: "range condition needs min or max"}
		}
		return FieldMatch{Field: field, Range: &r}, nil
	}
	var scalar any
	if err := json.Unmarshal(v, &scalar); err != nil {
		return FieldMatch{}, fmt.Errorf("conditions: %s: %w", field, err)
	}
	return FieldMatch{Field: field, Equals: scalar}, nil
}

func (c Conditions) toMap() map[string]any {
	out := make(map[string]any)
	for _, m := range c.Matches {
		if m.Range != nil {
			out[m.Field] = m.Range
		} else {
			out[m.Field] = m.Equals
		}
	}
	if c.RequiresNoVisibleCrack {
		out[keyRequiresNoVisibleCrack] = true
	}
	if len(c.AllowIf) > 0 {
		out[keyAllowIf] = c.AllowIf
	}
	if len(c.DenyIf) > 0 {
		out[keyDenyIf] = c.DenyIf
	}
	return out
}

// MarshalJSON writes the flat mapping read by UnmarshalJSON.
func (c Conditions) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toMap())
}

// UnmarshalYAML lets seed files use the same flat mapping.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	return c.UnmarshalJSON(data)
}

// MarshalYAML writes the flat mapping.
func (c Conditions) MarshalYAML() (any, error) {
	return c.toMap(), nil
}
