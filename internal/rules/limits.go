package rules

import (
	"fmt"
	"sort"
	"strings"
)

// LimitOp is the comparison a limit applies, fixed by the key prefix.
type LimitOp string

const (
	// OpMax requires measured <= threshold (key prefix "max_").
	OpMax LimitOp = "max"
	// OpMin requires measured >= threshold (key prefix "min_").
	OpMin LimitOp = "min"
)

// Measure names a quantity computed from a request.
type Measure string

const (
	MeasureDepthToThickness   Measure = "depth_to_thickness"
	MeasureDepth              Measure = "depth"
	MeasureDiameter           Measure = "diameter"
	MeasureLength             Measure = "length"
	MeasureWidth              Measure = "width"
	MeasureThickness          Measure = "thickness"
	MeasureDistanceToFrame    Measure = "distance_to_frame"
	MeasureDistanceToStringer Measure = "distance_to_stringer"
)

type measureSpec struct {
	label    string
	unit     string
	inputs   []string
	precise  bool
	evaluate func(r DentAssessmentRequest) (float64, bool)
}

func optional(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

var measures = map[Measure]measureSpec{
	MeasureDepthToThickness: {
		label: "depth/thickness", inputs: []string{"depth_mm", "thickness_mm"}, precise: true,
		evaluate: DentAssessmentRequest.DepthToThickness,
	},
	MeasureDepth: {
		label: "depth", unit: "mm", inputs: []string{"depth_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.Depth) },
	},
	MeasureDiameter: {
		label: "diameter", unit: "mm", inputs: []string{"diameter_mm"},
		evaluate: DentAssessmentRequest.EffectiveDiameter,
	},
	MeasureLength: {
		label: "length", unit: "mm", inputs: []string{"length_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.Length) },
	},
	MeasureWidth: {
		label: "width", unit: "mm", inputs: []string{"width_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.Width) },
	},
	MeasureThickness: {
		label: "skin thickness", unit: "mm", inputs: []string{"thickness_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.Thickness) },
	},
	MeasureDistanceToFrame: {
		label: "distance to frame", unit: "mm", inputs: []string{"distance_to_frame_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.DistanceToFrame) },
	},
	MeasureDistanceToStringer: {
		label: "distance to stringer", unit: "mm", inputs: []string{"distance_to_stringer_mm"},
		evaluate: func(r DentAssessmentRequest) (float64, bool) { return optional(r.DistanceToStringer) },
	},
}

// measureAliases maps the suffix of a limit key onto a Measure.
var measureAliases = map[string]Measure{
	"depth_to_thickness":       MeasureDepthToThickness,
	"depth_to_thickness_ratio": MeasureDepthToThickness,
	"depth_ratio":              MeasureDepthToThickness,
	"depth":                    MeasureDepth,
	"depth_mm":                 MeasureDepth,
	"diameter":                 MeasureDiameter,
	"diameter_mm":              MeasureDiameter,
	"length":                   MeasureLength,
	"length_mm":                MeasureLength,
	"width":                    MeasureWidth,
	"width_mm":                 MeasureWidth,
	"thickness":                MeasureThickness,
	"thickness_mm":             MeasureThickness,
	"distance_to_frame":        MeasureDistanceToFrame,
	"distance_to_frame_mm":     MeasureDistanceToFrame,
	"dist_frame":               MeasureDistanceToFrame,
	"dist_frame_mm":            MeasureDistanceToFrame,
	"distance_to_stringer":     MeasureDistanceToStringer,
	"distance_to_stringer_mm":  MeasureDistanceToStringer,
	"dist_stringer":            MeasureDistanceToStringer,
	"dist_stringer_mm":         MeasureDistanceToStringer,
}

// Measures lists every known measure, sorted.
func Measures() []Measure {
	out := make([]Measure, 0, len(measures))
	for m := range measures {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Label is the human readable name of the measure.
func (m Measure) Label() string { return measures[m].label }

// Unit is the measure's unit, empty for ratios.
func (m Measure) Unit() string { return measures[m].unit }

// Inputs lists the request fields the measure is computed from.
func (m Measure) Inputs() []string { return measures[m].inputs }

// From computes the measure for a request. The second result is false when
// a required input is missing.
func (m Measure) From(r DentAssessmentRequest) (float64, bool) {
	def, ok := measures[m]
	if !ok {
		return 0, false
	}
	return def.evaluate(r)
}

// Format renders a value of this measure for explanations.
func (m Measure) Format(v float64) string {
	def := measures[m]
	if def.precise {
		return fmt.Sprintf("%.2f", v)
	}
	if def.unit != "" {
		return fmt.Sprintf("%.1f %s", v, def.unit)
	}
	return fmt.Sprintf("%g", v)
}

// ─── Limits ──────────────────────────────────────────────────────────────────

// Limit is one named numeric threshold of a rule.
type Limit struct {
	Key       string  `json:"key"`
	Op        LimitOp `json:"op"`
	Measure   Measure `json:"measure"`
	Threshold float64 `json:"threshold"`
}

// ParseLimitKey splits a limit key into its comparison and measure.
// Keys must start with max_ or min_; anything else is a ConfigError.
func ParseLimitKey(key string) (LimitOp, Measure, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	var op LimitOp
	switch {
	case strings.HasPrefix(k, "max_"):
		op = OpMax
	case strings.HasPrefix(k, "min_"):
		op = OpMin
	default:
		return "", "", &ConfigError{Key: key, Reason: "unsupported limit key: must start with max_ or min_"}
	}
	measure, ok := measureAliases[k[len("max_"):]]
	if !ok {
		return "", "", &ConfigError{Key: key, Reason: fmt.Sprintf("unknown measurement %q", k[len("max_"):])}
	}
	return op, measure, nil
}

// ParseLimits turns a raw key/threshold mapping into typed limits, sorted by
// key so evaluation order is stable.
func ParseLimits(raw map[string]float64) ([]Limit, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	limits := make([]Limit, 0, len(keys))
	for _, k := range keys {
		op, measure, err := ParseLimitKey(k)
		if err != nil {
			return nil, err
		}
		limits = append(limits, Limit{Key: k, Op: op, Measure: measure, Threshold: raw[k]})
	}
	return limits, nil
}

// EncodeLimits is the inverse of ParseLimits.
func EncodeLimits(limits []Limit) map[string]float64 {
	out := make(map[string]float64, len(limits))
	for _, l := range limits {
		out[l.Key] = l.Threshold
	}
	return out
}

// Validate checks the limit's comparison and measure.
func (l Limit) Validate() error {
	if l.Op != OpMax && l.Op != OpMin {
		return &ConfigError{Key: l.Key, Reason: fmt.Sprintf("unsupported comparison %q", l.Op)}
	}
	if _, ok := measures[l.Measure]; !ok {
		return &ConfigError{Key: l.Key, Reason: fmt.Sprintf("unknown measurement %q", l.Measure)}
	}
	return nil
}
