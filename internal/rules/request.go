package rules

import (
	"fmt"
	"sort"
	"strings"
)

// DentAssessmentRequest is one dent to evaluate against a rule set.
// Optional values are pointers: nil means "not measured / not known".
// Lengths are millimetres.
type DentAssessmentRequest struct {
	AircraftFamily string `json:"aircraft_family,omitempty"`

	DamageType    string `json:"damage_type" validate:"required"`
	Structure     string `json:"structure" validate:"required"`
	StructureZone string `json:"structure_zone" validate:"required"`
	ZoneDetail    string `json:"zone_detail,omitempty"`
	Side          Side   `json:"side,omitempty" validate:"omitempty,oneof=LH RH ANY"`

	Station     *float64 `json:"station,omitempty"`
	Waterline   *float64 `json:"waterline,omitempty"`
	Stringer    *int     `json:"stringer,omitempty"`
	Pressurized *bool    `json:"pressurized,omitempty"`
	Material    string   `json:"material,omitempty"`

	Depth              *float64 `json:"depth_mm,omitempty" validate:"omitempty,gte=0"`
	Diameter           *float64 `json:"diameter_mm,omitempty" validate:"omitempty,gte=0"`
	Length             *float64 `json:"length_mm,omitempty" validate:"omitempty,gte=0"`
	Width              *float64 `json:"width_mm,omitempty" validate:"omitempty,gte=0"`
	Thickness          *float64 `json:"thickness_mm,omitempty" validate:"omitempty,gte=0"`
	DistanceToFrame    *float64 `json:"distance_to_frame_mm,omitempty" validate:"omitempty,gte=0"`
	DistanceToStringer *float64 `json:"distance_to_stringer_mm,omitempty" validate:"omitempty,gte=0"`

	VisibleCrack    *bool `json:"visible_crack,omitempty"`
	NearFastenerRow *bool `json:"near_fastener_row,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Validate checks that the classification fields are present and no
// measurement is negative. Side and the matched text fields are normalized
// in place the same way Rule.Normalize does for rules.
func (r *DentAssessmentRequest) Validate() error {
	if r.Side != "" {
		side, err := ParseSide(string(r.Side))
		if err != nil {
			return fmt.Errorf("%w: request: %v", ErrInvalidRule, err)
		}
		r.Side = side
	}
	r.DamageType = strings.TrimSpace(r.DamageType)
	r.Structure = strings.TrimSpace(r.Structure)
	r.StructureZone = strings.TrimSpace(r.StructureZone)
	r.ZoneDetail = strings.TrimSpace(r.ZoneDetail)
	r.Material = strings.TrimSpace(r.Material)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: request: %v", ErrInvalidRule, err)
	}
	return nil
}

// DepthToThickness returns depth/thickness when both are known and the
// thickness is positive.
func (r DentAssessmentRequest) DepthToThickness() (float64, bool) {
	if r.Depth == nil || r.Thickness == nil || *r.Thickness <= 0 {
		return 0, false
	}
	return *r.Depth / *r.Thickness, true
}

// EffectiveDiameter returns the measured diameter, or the larger of length
// and width when no diameter was recorded.
func (r DentAssessmentRequest) EffectiveDiameter() (float64, bool) {
	if r.Diameter != nil {
		return *r.Diameter, true
	}
	switch {
	case r.Length != nil && r.Width != nil:
		return max(*r.Length, *r.Width), true
	case r.Length != nil:
		return *r.Length, true
	case r.Width != nil:
		return *r.Width, true
	}
	return 0, false
}

// ─── Field lookup ────────────────────────────────────────────────────────────

// FieldKind is the value type of a request field.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
)

type requestField struct {
	kind FieldKind
	get  func(r DentAssessmentRequest) (any, bool)
}

func stringField(get func(r DentAssessmentRequest) string) requestField {
	return requestField{kind: KindString, get: func(r DentAssessmentRequest) (any, bool) {
		v := get(r)
		return v, v != ""
	}}
}

func floatField(get func(r DentAssessmentRequest) *float64) requestField {
	return requestField{kind: KindNumber, get: func(r DentAssessmentRequest) (any, bool) {
		v := get(r)
		if v == nil {
			return nil, false
		}
		return *v, true
	}}
}

func boolField(get func(r DentAssessmentRequest) *bool) requestField {
	return requestField{kind: KindBool, get: func(r DentAssessmentRequest) (any, bool) {
		v := get(r)
		if v == nil {
			return nil, false
		}
		return *v, true
	}}
}

// requestFields is the closed set of request fields a rule condition may
// reference.
var requestFields = map[string]requestField{
	"aircraft_family": stringField(func(r DentAssessmentRequest) string { return r.AircraftFamily }),
	"damage_type":     stringField(func(r DentAssessmentRequest) string { return r.DamageType }),
	"structure":       stringField(func(r DentAssessmentRequest) string { return r.Structure }),
	"structure_zone":  stringField(func(r DentAssessmentRequest) string { return r.StructureZone }),
	"zone_detail":     stringField(func(r DentAssessmentRequest) string { return r.ZoneDetail }),
	"side":            stringField(func(r DentAssessmentRequest) string { return string(r.Side) }),
	"material":        stringField(func(r DentAssessmentRequest) string { return r.Material }),

	"station":   floatField(func(r DentAssessmentRequest) *float64 { return r.Station }),
	"waterline": floatField(func(r DentAssessmentRequest) *float64 { return r.Waterline }),
	"stringer": {kind: KindNumber, get: func(r DentAssessmentRequest) (any, bool) {
		if r.Stringer == nil {
			return nil, false
		}
		return float64(*r.Stringer), true
	}},

	"depth_mm":                floatField(func(r DentAssessmentRequest) *float64 { return r.Depth }),
	"diameter_mm":             floatField(func(r DentAssessmentRequest) *float64 { return r.Diameter }),
	"length_mm":               floatField(func(r DentAssessmentRequest) *float64 { return r.Length }),
	"width_mm":                floatField(func(r DentAssessmentRequest) *float64 { return r.Width }),
	"thickness_mm":            floatField(func(r DentAssessmentRequest) *float64 { return r.Thickness }),
	"distance_to_frame_mm":    floatField(func(r DentAssessmentRequest) *float64 { return r.DistanceToFrame }),
	"distance_to_stringer_mm": floatField(func(r DentAssessmentRequest) *float64 { return r.DistanceToStringer }),
	"depth_to_thickness_ratio": {kind: KindNumber, get: func(r DentAssessmentRequest) (any, bool) {
		v, ok := r.DepthToThickness()
		if !ok {
			return nil, false
		}
		return v, true
	}},

	"pressurized":       boolField(func(r DentAssessmentRequest) *bool { return r.Pressurized }),
	"visible_crack":     boolField(func(r DentAssessmentRequest) *bool { return r.VisibleCrack }),
	"near_fastener_row": boolField(func(r DentAssessmentRequest) *bool { return r.NearFastenerRow }),
}

// fieldAliases maps the nested context paths used by older rule payloads
// (damage.*, location.*) onto request fields.
var fieldAliases = map[string]string{
	"type":         "damage_type",
	"zone":         "structure_zone",
	"sta":          "station",
	"wl":           "waterline",
	"stringer_num": "stringer",
	"diameter":     "diameter_mm",
	"depth":        "depth_mm",
	"thickness":    "thickness_mm",
}

// CanonicalField resolves a condition field name (possibly an alias or a
// damage./location. path) to a request field name.
func CanonicalField(name string) (string, FieldKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "damage.")
	name = strings.TrimPrefix(name, "location.")
	if alias, ok := fieldAliases[name]; ok {
		name = alias
	}
	f, ok := requestFields[name]
	if !ok {
		return "", "", false
	}
	return name, f.kind, true
}

// Lookup returns the value of a request field. The second result is false
// when the field is unknown or the request leaves it empty.
func (r DentAssessmentRequest) Lookup(field string) (any, bool) {
	name, _, ok := CanonicalField(field)
	if !ok {
		return nil, false
	}
	return requestFields[name].get(r)
}

// RequestFields lists the field names conditions may reference.
func RequestFields() []string {
	names := make([]string, 0, len(requestFields))
	for name := range requestFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
