// Package seed loads rule sets from JSON or YAML seed files and writes them
// to the store.
//
// A seed file has two top-level keys: rule_set (name, aircraft_family,
// revision, effective_date, source) and rules (a list of rule objects with
// flat scope columns, conditions, limits and actions). Both formats decode
// through the same path, so a YAML file accepts exactly what a JSON file
// accepts.
package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

var validate = validator.New()

// Format is the encoding of a seed file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// File is a decoded and validated seed file.
type File struct {
	RuleSet rules.RuleSet
	Rules   []rules.Rule
}

// Options mirrors the store import options.
type Options = store.ImportOptions

// Result reports what Apply wrote.
type Result = store.ImportResult

// ─── Wire format ─────────────────────────────────────────────────────────────

type fileWire struct {
	RuleSet *rules.RuleSet `json:"rule_set" validate:"required"`
	Rules   []ruleWire     `json:"rules" validate:"required"`
}

type ruleWire struct {
	Enabled  *intBool `json:"enabled"`
	Priority int      `json:"priority"`

	DamageType    string `json:"damage_type" validate:"required"`
	Structure     string `json:"structure" validate:"required"`
	StructureZone string `json:"structure_zone" validate:"required"`
	ZoneDetail    string `json:"zone_detail"`
	Side          string `json:"side"`

	StaMin      *float64 `json:"sta_min"`
	StaMax      *float64 `json:"sta_max"`
	WlMin       *float64 `json:"wl_min"`
	WlMax       *float64 `json:"wl_max"`
	StringerMin *int     `json:"stringer_min"`
	StringerMax *int     `json:"stringer_max"`
	Pressurized *intBool `json:"pressurized"`
	Material    string   `json:"material"`

	Conditions rules.Conditions   `json:"conditions"`
	Limits     map[string]float64 `json:"limits"`
	Actions    rules.Actions      `json:"actions"`

	SRMRef     string   `json:"srm_ref"`
	Severity   string   `json:"severity"`
	Notes      string   `json:"notes"`
	SourcePage string   `json:"source_page"`
	Tags       []string `json:"tags"`
}

// intBool accepts true/false as well as the 0/1 integers SQLite-minded
// seed authors write.
type intBool bool

func (b *intBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("expected true, false, 0 or 1, got %s", data)
	}
	return nil
}

func (b *intBool) ptr() *bool {
	if b == nil {
		return nil
	}
	v := bool(*b)
	return &v
}

func (w ruleWire) rule() (rules.Rule, error) {
	limits, err := rules.ParseLimits(w.Limits)
	if err != nil {
		return rules.Rule{}, err
	}
	enabled := true
	if w.Enabled != nil {
		enabled = bool(*w.Enabled)
	}
	r := rules.Rule{
		Enabled:       enabled,
		Priority:      w.Priority,
		DamageType:    w.DamageType,
		Structure:     w.Structure,
		StructureZone: w.StructureZone,
		ZoneDetail:    w.ZoneDetail,
		Side:          rules.Side(w.Side),
		Station:       rules.Bounds(w.StaMin, w.StaMax),
		Waterline:     rules.Bounds(w.WlMin, w.WlMax),
		Stringer:      rules.Bounds(w.StringerMin, w.StringerMax),
		Pressurized:   w.Pressurized.ptr(),
		Material:      w.Material,
		Conditions:    w.Conditions,
		Limits:        limits,
		Actions:       w.Actions,
		SRMRef:        w.SRMRef,
		Severity:      rules.Severity(w.Severity),
		Notes:         w.Notes,
		SourcePage:    w.SourcePage,
		Tags:          w.Tags,
	}
	if err := r.Normalize(); err != nil {
		return rules.Rule{}, err
	}
	return r, r.Validate()
}

// ─── Loading ─────────────────────────────────────────────────────────────────

// Load reads and validates a seed file. The format follows the extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates seed content. Every rule gets the defaults
// enabled=true, priority 0, side ANY, severity engineering and the default
// dispositions for actions it leaves empty.
func Parse(data []byte, format Format) (*File, error) {
	if format == FormatYAML {
		var err error
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	}

	var w fileWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := validate.Struct(w); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := w.RuleSet.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	f := &File{RuleSet: *w.RuleSet, Rules: make([]rules.Rule, 0, len(w.Rules))}
	for i, rw := range w.Rules {
		if err := validate.Struct(rw); err != nil {
			return nil, fmt.Errorf("seed: rules[%d]: %w", i, err)
		}
		r, err := rw.rule()
		if err != nil {
			return nil, fmt.Errorf("seed: rules[%d]: %w", i, err)
		}
		f.Rules = append(f.Rules, r)
	}
	return f, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// custom decoders of the rules package.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("seed: decode yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("seed: yaml document is not representable as JSON: %w", err)
	}
	return out, nil
}

// ─── Applying ────────────────────────────────────────────────────────────────

// Apply writes a loaded seed file to the store in one transaction.
func Apply(s *store.Store, f *File, opts Options) (*Result, error) {
	return s.ImportRuleSet(f.RuleSet, f.Rules, opts)
}

// ─── Request files ───────────────────────────────────────────────────────────

// LoadRequest reads one assessment request from a JSON or YAML file. The
// request is decoded but not validated; the assessment does that.
func LoadRequest(path string) (rules.DentAssessmentRequest, error) {
	var req rules.DentAssessmentRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("request: read %s: %w", path, err)
	}
	if FormatFor(path) == FormatYAML {
		if data, err = yamlToJSON(data); err != nil {
			return req, fmt.Errorf("%s: %w", path, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("request: decode %s: %w", path, err)
	}
	return req, nil
}
