// Package rules holds the typed model of SRM rule sets and rules.
//
// Rules arrive from the store (JSON payload columns) or from seed files.
// Either way they are decoded into the strongly typed structures in this
// package and validated once, at load time, so the engine never sees a
// free-form predicate or limit map.
package rules

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ─── Enums ───────────────────────────────────────────────────────────────────

// Side is the aircraft side a rule or dent applies to.
type Side string

const (
	SideLH  Side = "LH"
	SideRH  Side = "RH"
	SideAny Side = "ANY"
)

var validSides = mapset.NewSet(SideLH, SideRH, SideAny)

// ParseSide normalizes a side string. Empty means ANY.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(s)))
	if side == "" {
		return SideAny, nil
	}
	if !validSides.Contains(side) {
		return "", fmt.Errorf("invalid side %q: must be one of LH, RH, ANY", s)
	}
	return side, nil
}

// Severity classifies how serious the disposition of a rule is.
type Severity string

const (
	SeverityAllow       Severity = "allow"
	SeverityRepair      Severity = "repair"
	SeverityEngineering Severity = "engineering"
	SeverityGrounding   Severity = "grounding"
)

var validSeverities = mapset.NewSet(SeverityAllow, SeverityRepair, SeverityEngineering, SeverityGrounding)

// ParseSeverity normalizes a severity string. Empty means engineering.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev == "" {
		return SeverityEngineering, nil
	}
	if !validSeverities.Contains(sev) {
		return "", fmt.Errorf("invalid severity %q: must be one of allow, repair, engineering, grounding", s)
	}
	return sev, nil
}

// Outcome is the result of a single limit check or of a whole rule.
type Outcome string

const (
	OutcomePass          Outcome = "pass"
	OutcomeFail          Outcome = "fail"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// RuleSet is one SRM revision: the container every Rule belongs to.
type RuleSet struct {
	ID             int64  `json:"id"`
	Name           string `json:"name" yaml:"name" validate:"required"`
	AircraftFamily string `json:"aircraft_family" yaml:"aircraft_family" validate:"required"`
	Revision       string `json:"revision" yaml:"revision" validate:"required"`
	EffectiveDate  string `json:"effective_date,omitempty" yaml:"effective_date"`
	Source         string `json:"source,omitempty" yaml:"source"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// Validate checks the required rule set metadata.
func (rs RuleSet) Validate() error {
	if err := validate.Struct(rs); err != nil {
		return fmt.Errorf("%w: rule set: %v", ErrInvalidRule, err)
	}
	return nil
}

// Rule is a single scoped threshold definition.
type Rule struct {
	ID        int64 `json:"id"`
	RuleSetID int64 `json:"rule_set_id"`
	Enabled   bool  `json:"enabled"`
	Priority  int   `json:"priority"`

	DamageType    string `json:"damage_type" validate:"required"`
	Structure     string `json:"structure" validate:"required"`
	StructureZone string `json:"structure_zone" validate:"required"`
	ZoneDetail    string `json:"zone_detail,omitempty"`
	Side          Side   `json:"side" validate:"oneof=LH RH ANY"`

	Station   Range[float64] `json:"station"`
	Waterline Range[float64] `json:"waterline"`
	Stringer  Range[int]     `json:"stringer"`

	Pressurized *bool  `json:"pressurized,omitempty"`
	Material    string `json:"material,omitempty"`

	Conditions Conditions `json:"conditions"`
	Limits     []Limit    `json:"limits"`
	Actions    Actions    `json:"actions"`

	SRMRef     string   `json:"srm_ref,omitempty"`
	Severity   Severity `json:"severity" validate:"oneof=allow repair engineering grounding"`
	Notes      string   `json:"notes,omitempty"`
	SourcePage string   `json:"source_page,omitempty"`

	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// Validate checks scope fields, enum values, range ordering, limits and
// conditions. Rules are validated before they are written and after they
// are read back, so configuration mistakes surface at load time.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if !r.Station.Ordered() {
		return fmt.Errorf("%w: station range %s has min > max", ErrInvalidRule, r.Station)
	}
	if !r.Waterline.Ordered() {
		return fmt.Errorf("%w: waterline range %s has min > max", ErrInvalidRule, r.Waterline)
	}
	if !r.Stringer.Ordered() {
		return fmt.Errorf("%w: stringer range %s has min > max", ErrInvalidRule, r.Stringer)
	}
	for _, l := range r.Limits {
		if err := l.Validate(); err != nil {
			return r.configError(l.Key, err)
		}
	}
	if err := r.Conditions.Validate(); err != nil {
		return r.configError("conditions", err)
	}
	return nil
}

func (r Rule) configError(key string, err error) error {
	var ce *ConfigError
	if asConfigError(err, &ce) {
		ce.RuleID = r.ID
		return ce
	}
	return &ConfigError{RuleID: r.ID, Key: key, Reason: err.Error()}
}

// Label returns a short human readable identifier for the rule.
func (r Rule) Label() string {
	if r.SRMRef != "" {
		return fmt.Sprintf("rule #%d (%s)", r.ID, r.SRMRef)
	}
	return fmt.Sprintf("rule #%d", r.ID)
}

// Normalize fills defaults for fields left empty by seed files or tools.
func (r *Rule) Normalize() error {
	side, err := ParseSide(string(r.Side))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	r.Side = side

	sev, err := ParseSeverity(string(r.Severity))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	r.Severity = sev

	r.DamageType = strings.TrimSpace(r.DamageType)
	r.Structure = strings.TrimSpace(r.Structure)
	r.StructureZone = strings.TrimSpace(r.StructureZone)
	r.ZoneDetail = strings.TrimSpace(r.ZoneDetail)
	r.Material = strings.TrimSpace(r.Material)
	r.Actions = r.Actions.WithDefaults()
	return nil
}
