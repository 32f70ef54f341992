// Package describe extracts a dent assessment request from a free-text
// damage report such as
//
//	B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, no visible crack.
//
// Parsing is best effort. Fields the text does not mention stay empty so
// the caller can ask for them instead of guessing.
package describe

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

var (
	reFamily    = regexp.MustCompile(`(?i)\b(B?\s*7\s*8\s*7(?:-\s*\d+)?)\b`)
	reFuselage  = regexp.MustCompile(`(?i)\bfuselage\b`)
	reLeft      = regexp.MustCompile(`(?i)\bLH\b|\bleft\b`)
	reRight     = regexp.MustCompile(`(?i)\bRH\b|\bright\b`)
	reStation   = regexp.MustCompile(`(?i)\bSTA\s*(\d+(?:\.\d+)?)\b`)
	reWaterline = regexp.MustCompile(`(?i)\bWL\s*(\d+(?:\.\d+)?)\b`)
	reStringer  = regexp.MustCompile(`(?i)\bS[- ]?(\d+)`)
	reDiameter  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*(?:dia|diam|diameter)\b`)
	reDepth     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*(?:depth|deep)\b`)
	reThickness = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*(?:thk|thick|thickness)\b`)
	reNoCrack   = regexp.MustCompile(`(?i)\bno\s+visible\s+crack\b|\bno\s+crack`)
	reCrack     = regexp.MustCompile(`(?i)\bvisible\s+crack\b|\bcrack\s+present\b|\bcracked\b`)
	reDent      = regexp.MustCompile(`(?i)\bdent\b`)
	reSkin      = regexp.MustCompile(`(?i)\bskin\b`)
)

// Result is what Parse recognized in a description.
type Result struct {
	Request rules.DentAssessmentRequest `json:"request"`
	// Variant is the model variant when the text names one, e.g. "787-9".
	Variant string `json:"variant,omitempty"`
	// Found lists the request fields that were filled, sorted.
	Found []string `json:"found"`
	// Missing lists the fields an assessment needs that the text did not
	// provide.
	Missing []string `json:"missing"`
}

// Parse fills a request from free text.
func Parse(text string) Result {
	t := strings.TrimSpace(text)
	var (
		req   rules.DentAssessmentRequest
		res   Result
		found []string
	)

	if m := reFamily.FindStringSubmatch(t); m != nil {
		req.AircraftFamily = "B787"
		res.Variant = strings.TrimPrefix(strings.ToUpper(strings.Join(strings.Fields(m[1]), "")), "B")
		found = append(found, "aircraft_family")
	}
	if reFuselage.MatchString(t) {
		req.StructureZone = "fuselage"
		found = append(found, "structure_zone")
	}
	switch {
	case reLeft.MatchString(t):
		req.Side = rules.SideLH
		found = append(found, "side")
	case reRight.MatchString(t):
		req.Side = rules.SideRH
		found = append(found, "side")
	}
	if v, ok := number(reStation, t); ok {
		req.Station = &v
		found = append(found, "station")
	}
	if v, ok := number(reWaterline, t); ok {
		req.Waterline = &v
		found = append(found, "waterline")
	}
	if m := reStringer.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			req.Stringer = &n
			found = append(found, "stringer")
		}
	}
	if v, ok := number(reDiameter, t); ok {
		req.Diameter = &v
		found = append(found, "diameter_mm")
	}
	if v, ok := number(reDepth, t); ok {
		req.Depth = &v
		found = append(found, "depth_mm")
	}
	if v, ok := number(reThickness, t); ok {
		req.Thickness = &v
		found = append(found, "thickness_mm")
	}
	switch {
	case reNoCrack.MatchString(t):
		req.VisibleCrack = rules.Ptr(false)
		found = append(found, "visible_crack")
	case reCrack.MatchString(t):
		req.VisibleCrack = rules.Ptr(true)
		found = append(found, "visible_crack")
	}
	if reDent.MatchString(t) {
		req.DamageType = "dent"
		found = append(found, "damage_type")
	}
	if reSkin.MatchString(t) {
		req.Structure = "skin"
		found = append(found, "structure")
	}

	sort.Strings(found)
	res.Request = req
	res.Found = found
	res.Missing = missing(req)
	return res
}

func number(re *regexp.Regexp, t string) (float64, bool) {
	m := re.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

// missing reports the classification fields and the measurements most
// limits depend on that the request still lacks.
func missing(r rules.DentAssessmentRequest) []string {
	out := []string{}
	if r.DamageType == "" {
		out = append(out, "damage_type")
	}
	if r.Structure == "" {
		out = append(out, "structure")
	}
	if r.StructureZone == "" {
		out = append(out, "structure_zone")
	}
	if r.Depth == nil {
		out = append(out, "depth_mm")
	}
	if r.Thickness == nil {
		out = append(out, "thickness_mm")
	}
	if r.Diameter == nil && r.Length == nil {
		out = append(out, "diameter_mm")
	}
	return out
}
