// Package tools implements the MCP tool handlers of the dent assessment
// server.
//
// Each tool is a struct that receives its dependencies through its
// constructor and exposes Definition() for registration and Handle() for
// calls. User mistakes (missing arguments, unknown ids, invalid requests)
// are returned as tool errors, never as Go errors, so the host can show
// them and retry.
package tools

import (
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ─── Request arguments ───────────────────────────────────────────────────────

type argSpec struct {
	name string
	desc string
}

var stringArgs = []argSpec{
	{"aircraft_family", "Aircraft family, e.g. B787. Also selects the newest rule set of that family when rule_set_id is omitted"},
	{"damage_type", "Damage type, e.g. dent"},
	{"structure", "Damaged structure, e.g. skin"},
	{"structure_zone", "Structure zone, e.g. fuselage or crown"},
	{"zone_detail", "Finer zone detail when rules distinguish it"},
	{"side", "Aircraft side: LH, RH or ANY"},
	{"material", "Skin material when rules distinguish it"},
	{"notes", "Free notes carried with the request"},
}

var numberArgs = []argSpec{
	{"station", "Fuselage station (STA)"},
	{"waterline", "Waterline (WL)"},
	{"stringer", "Stringer number"},
	{"depth_mm", "Dent depth in mm"},
	{"diameter_mm", "Dent diameter in mm"},
	{"length_mm", "Dent length in mm (used when diameter is unknown)"},
	{"width_mm", "Dent width in mm (used when diameter is unknown)"},
	{"thickness_mm", "Skin thickness in mm"},
	{"distance_to_frame_mm", "Distance to the nearest frame in mm"},
	{"distance_to_stringer_mm", "Distance to the nearest stringer in mm"},
}

var boolArgs = []argSpec{
	{"pressurized", "Whether the dent is in the pressurized area"},
	{"visible_crack", "Whether a crack is visible at the dent"},
	{"near_fastener_row", "Whether the dent is near a fastener row"},
}

// requestOptions declares every request field as an optional tool argument.
func requestOptions() []mcp.ToolOption {
	var opts []mcp.ToolOption
	for _, a := range stringArgs {
		opts = append(opts, mcp.WithString(a.name, mcp.Description(a.desc)))
	}
	for _, a := range numberArgs {
		opts = append(opts, mcp.WithNumber(a.name, mcp.Description(a.desc)))
	}
	for _, a := range boolArgs {
		opts = append(opts, mcp.WithBoolean(a.name, mcp.Description(a.desc)))
	}
	return opts
}

// applyArgs overwrites fields of dr with the arguments present in req.
// A fractional stringer number is rejected rather than truncated.
func applyArgs(dr *rules.DentAssessmentRequest, req mcp.CallToolRequest) error {
	args := req.GetArguments()

	str := func(dst *string, key string) {
		if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(dst **float64, key string) {
		if v, ok := args[key].(float64); ok {
			*dst = &v
		}
	}
	flag := func(dst **bool, key string) {
		if v, ok := args[key].(bool); ok {
			*dst = &v
		}
	}

	str(&dr.AircraftFamily, "aircraft_family")
	str(&dr.DamageType, "damage_type")
	str(&dr.Structure, "structure")
	str(&dr.StructureZone, "structure_zone")
	str(&dr.ZoneDetail, "zone_detail")
	str(&dr.Material, "material")
	str(&dr.Notes, "notes")
	if v, ok := args["side"].(string); ok && strings.TrimSpace(v) != "" {
		dr.Side = rules.Side(strings.TrimSpace(v))
	}

	num(&dr.Station, "station")
	num(&dr.Waterline, "waterline")
	if v, ok := args["stringer"].(float64); ok {
		if v != math.Trunc(v) {
			return fmt.Errorf("stringer must be a whole number, got %g", v)
		}
		n := int(v)
		dr.Stringer = &n
	}
	num(&dr.Depth, "depth_mm")
	num(&dr.Diameter, "diameter_mm")
	num(&dr.Length, "length_mm")
	num(&dr.Width, "width_mm")
	num(&dr.Thickness, "thickness_mm")
	num(&dr.DistanceToFrame, "distance_to_frame_mm")
	num(&dr.DistanceToStringer, "distance_to_stringer_mm")

	flag(&dr.Pressurized, "pressurized")
	flag(&dr.VisibleCrack, "visible_crack")
	flag(&dr.NearFastenerRow, "near_fastener_row")
	return nil
}
