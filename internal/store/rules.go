package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

const ruleColumns = `id, rule_set_id, enabled, priority,
	damage_type, structure, structure_zone, zone_detail, side,
	sta_min, sta_max, wl_min, wl_max, stringer_min, stringer_max,
	pressurized, material,
	conditions_json, limits_json, actions_json,
	srm_ref, severity, notes, source_page,
	created_at, updated_at`

// ─── Encoding ────────────────────────────────────────────────────────────────

type rulePayload struct {
	conditions string
	limits     string
	actions    string
}

func encodeRule(r rules.Rule) (rulePayload, error) {
	conds, err := json.Marshal(r.Conditions)
	if err != nil {
		return rulePayload{}, fmt.Errorf("encode conditions: %w", err)
	}
	limits, err := json.Marshal(rules.EncodeLimits(r.Limits))
	if err != nil {
		return rulePayload{}, fmt.Errorf("encode limits: %w", err)
	}
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return rulePayload{}, fmt.Errorf("encode actions: %w", err)
	}
	return rulePayload{conditions: string(conds), limits: string(limits), actions: string(actions)}, nil
}

func orEmptyObject(s string) []byte {
	if strings.TrimSpace(s) == "" {
		return []byte("{}")
	}
	return []byte(s)
}

// decode fills the typed payload fields of r and validates the result.
// Any problem is a *rules.ConfigError carrying the rule id.
func (p rulePayload) decode(r *rules.Rule) error {
	if err := json.Unmarshal(orEmptyObject(p.conditions), &r.Conditions); err != nil {
		return withRuleID(err, r.ID, "conditions_json")
	}

	var raw map[string]float64
	if err := json.Unmarshal(orEmptyObject(p.limits), &raw); err != nil {
		return withRuleID(err, r.ID, "limits_json")
	}
	limits, err := rules.ParseLimits(raw)
	if err != nil {
		return withRuleID(err, r.ID, "limits_json")
	}
	r.Limits = limits

	if err := json.Unmarshal(orEmptyObject(p.actions), &r.Actions); err != nil {
		return withRuleID(err, r.ID, "actions_json")
	}
	r.Actions = r.Actions.WithDefaults()

	if err := r.Validate(); err != nil {
		return withRuleID(err, r.ID, "rule")
	}
	return nil
}

func withRuleID(err error, id int64, key string) error {
	var ce *rules.ConfigError
	if errors.As(err, &ce) {
		ce.RuleID = id
		return ce
	}
	return &rules.ConfigError{RuleID: id, Key: key, Reason: err.Error()}
}

func scanRule(row interface{ Scan(dest ...any) error }) (*rules.Rule, error) {
	var (
		r                            rules.Rule
		zoneDetail, material         *string
		srmRef, notes, sourcePage    *string
		side, severity               string
		staMin, staMax, wlMin, wlMax *float64
		stringerMin, stringerMax     *int64
		pressurized                  *int64
		p                            rulePayload
	)
	if err := row.Scan(
		&r.ID, &r.RuleSetID, &r.Enabled, &r.Priority,
		&r.DamageType, &r.Structure, &r.StructureZone, &zoneDetail, &side,
		&staMin, &staMax, &wlMin, &wlMax, &stringerMin, &stringerMax,
		&pressurized, &material,
		&p.conditions, &p.limits, &p.actions,
		&srmRef, &severity, &notes, &sourcePage,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.ZoneDetail = derefString(zoneDetail)
	r.Side = rules.Side(side)
	r.Station = rules.Bounds(staMin, staMax)
	r.Waterline = rules.Bounds(wlMin, wlMax)
	r.Stringer = rules.Bounds(intPtr(stringerMin), intPtr(stringerMax))
	if pressurized != nil {
		r.Pressurized = rules.Ptr(*pressurized != 0)
	}
	r.Material = derefString(material)
	r.SRMRef = derefString(srmRef)
	r.Severity = rules.Severity(severity)
	r.Notes = derefString(notes)
	r.SourcePage = derefString(sourcePage)

	if err := p.decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	return rules.Ptr(int(*v))
}

func (s *Store) queryRules(query string, args ...any) ([]rules.Rule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []rules.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ─── Rules ───────────────────────────────────────────────────────────────────

// AddRule normalizes, validates and inserts a rule (with its tags) into
// its rule set. Returns the new rule id.
func (s *Store) AddRule(r rules.Rule) (int64, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = insertRule(tx, r)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func insertRule(db dbtx, r rules.Rule) (int64, error) {
	if err := r.Normalize(); err != nil {
		return 0, fmt.Errorf("store: add rule: %w", err)
	}
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("store: add rule: %w", err)
	}
	var exists int
	if err := db.QueryRow(`SELECT 1 FROM rule_sets WHERE id = ?`, r.RuleSetID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound("rule set", r.RuleSetID)
		}
		return 0, fmt.Errorf("store: add rule: %w", err)
	}

	p, err := encodeRule(r)
	if err != nil {
		return 0, fmt.Errorf("store: add rule: %w", err)
	}
	res, err := db.Exec(
		`INSERT INTO rules (rule_set_id, enabled, priority,
			damage_type, structure, structure_zone, zone_detail, side,
			sta_min, sta_max, wl_min, wl_max, stringer_min, stringer_max,
			pressurized, material,
			conditions_json, limits_json, actions_json,
			srm_ref, severity, notes, source_page)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RuleSetID, boolInt(r.Enabled), r.Priority,
		r.DamageType, r.Structure, r.StructureZone, nullableString(r.ZoneDetail), string(r.Side),
		nullableFloat(r.Station.Min), nullableFloat(r.Station.Max),
		nullableFloat(r.Waterline.Min), nullableFloat(r.Waterline.Max),
		nullableInt(r.Stringer.Min), nullableInt(r.Stringer.Max),
		nullableBool(r.Pressurized), nullableString(r.Material),
		p.conditions, p.limits, p.actions,
		nullableString(r.SRMRef), string(r.Severity), nullableString(r.Notes), nullableString(r.SourcePage),
	)
	if err != nil {
		return 0, fmt.Errorf("store: add rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add rule: %w", err)
	}
	if err := insertTags(db, id, r.Tags); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRule returns a rule by id, with its tags.
func (s *Store) GetRule(id int64) (*rules.Rule, error) {
	r, err := scanRule(s.db.QueryRow(`SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("rule", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get rule %d: %w", id, err)
	}
	tags, err := s.RuleTags(id)
	if err != nil {
		return nil, err
	}
	r.Tags = tags
	return r, nil
}

// UpdateRule replaces every mutable field of an existing rule. The rule
// set, created_at and updated_at are not caller-settable; the database
// stamps updated_at.
func (s *Store) UpdateRule(r rules.Rule) error {
	if err := r.Normalize(); err != nil {
		return fmt.Errorf("store: update rule %d: %w", r.ID, err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("store: update rule %d: %w", r.ID, err)
	}
	p, err := encodeRule(r)
	if err != nil {
		return fmt.Errorf("store: update rule %d: %w", r.ID, err)
	}
	res, err := s.db.Exec(
		`UPDATE rules SET enabled = ?, priority = ?,
			damage_type = ?, structure = ?, structure_zone = ?, zone_detail = ?, side = ?,
			sta_min = ?, sta_max = ?, wl_min = ?, wl_max = ?, stringer_min = ?, stringer_max = ?,
			pressurized = ?, material = ?,
			conditions_json = ?, limits_json = ?, actions_json = ?,
			srm_ref = ?, severity = ?, notes = ?, source_page = ?
		 WHERE id = ?`,
		boolInt(r.Enabled), r.Priority,
		r.DamageType, r.Structure, r.StructureZone, nullableString(r.ZoneDetail), string(r.Side),
		nullableFloat(r.Station.Min), nullableFloat(r.Station.Max),
		nullableFloat(r.Waterline.Min), nullableFloat(r.Waterline.Max),
		nullableInt(r.Stringer.Min), nullableInt(r.Stringer.Max),
		nullableBool(r.Pressurized), nullableString(r.Material),
		p.conditions, p.limits, p.actions,
		nullableString(r.SRMRef), string(r.Severity), nullableString(r.Notes), nullableString(r.SourcePage),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update rule %d: %w", r.ID, err)
	}
	return checkAffected(res, "rule", r.ID)
}

// SetRuleEnabled switches a rule on or off.
func (s *Store) SetRuleEnabled(id int64, enabled bool) error {
	res, err := s.db.Exec(`UPDATE rules SET enabled = ? WHERE id = ?`, boolInt(enabled), id)
	if err != nil {
		return fmt.Errorf("store: set rule %d enabled: %w", id, err)
	}
	return checkAffected(res, "rule", id)
}

// DeleteRule removes a rule and its tags.
func (s *Store) DeleteRule(id int64) error {
	res, err := s.db.Exec(`DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete rule %d: %w", id, err)
	}
	return checkAffected(res, "rule", id)
}

// DeleteRulesInSet removes every rule of a rule set, keeping the set.
func (s *Store) DeleteRulesInSet(ruleSetID int64) (int64, error) {
	return deleteRulesInSet(s.db, ruleSetID)
}

func deleteRulesInSet(db dbtx, ruleSetID int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM rules WHERE rule_set_id = ?`, ruleSetID)
	if err != nil {
		return 0, fmt.Errorf("store: delete rules of set %d: %w", ruleSetID, err)
	}
	return res.RowsAffected()
}

// CountRules returns how many rules a rule set holds.
func (s *Store) CountRules(ruleSetID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rules WHERE rule_set_id = ?`, ruleSetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count rules: %w", err)
	}
	return n, nil
}

// ListRules returns every rule of a rule set, enabled or not, in selection
// order (priority descending, id ascending), with tags.
func (s *Store) ListRules(ruleSetID int64) ([]rules.Rule, error) {
	out, err := s.queryRules(
		`SELECT `+ruleColumns+` FROM rules WHERE rule_set_id = ? ORDER BY priority DESC, id ASC`,
		ruleSetID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list rules of set %d: %w", ruleSetID, err)
	}
	tags, err := s.tagsForRuleSet(ruleSetID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tags[out[i].ID]
	}
	return out, nil
}

// ─── Candidate query ─────────────────────────────────────────────────────────

const candidatesQuery = `SELECT ` + ruleColumns + `
	FROM rules
	WHERE rule_set_id = :rule_set_id
	  AND enabled = 1
	  AND damage_type = :damage_type
	  AND structure = :structure
	  AND structure_zone = :structure_zone
	  AND (zone_detail IS NULL OR zone_detail = :zone_detail)
	  AND (side = 'ANY' OR side = :side)
	  AND (sta_min IS NULL OR (:station IS NOT NULL AND :station >= sta_min))
	  AND (sta_max IS NULL OR (:station IS NOT NULL AND :station <= sta_max))
	  AND (wl_min IS NULL OR (:waterline IS NOT NULL AND :waterline >= wl_min))
	  AND (wl_max IS NULL OR (:waterline IS NOT NULL AND :waterline <= wl_max))
	  AND (stringer_min IS NULL OR (:stringer IS NOT NULL AND :stringer >= stringer_min))
	  AND (stringer_max IS NULL OR (:stringer IS NOT NULL AND :stringer <= stringer_max))
	  AND (pressurized IS NULL OR pressurized = :pressurized)
	  AND (material IS NULL OR material = :material)
	ORDER BY priority DESC, id ASC`

// Candidates returns the enabled rules of a rule set whose scope columns
// accept req: exact scope match, inclusive range gates where a null bound is
// unbounded and a missing request value fails a bounded gate, and tri-state
// pressurized. Conditions are left to the engine.
func (s *Store) Candidates(ruleSetID int64, req rules.DentAssessmentRequest) ([]rules.Rule, error) {
	out, err := s.queryRules(candidatesQuery,
		sql.Named("rule_set_id", ruleSetID),
		sql.Named("damage_type", req.DamageType),
		sql.Named("structure", req.Structure),
		sql.Named("structure_zone", req.StructureZone),
		sql.Named("zone_detail", nullableString(req.ZoneDetail)),
		sql.Named("side", nullableString(string(req.Side))),
		sql.Named("station", nullableFloat(req.Station)),
		sql.Named("waterline", nullableFloat(req.Waterline)),
		sql.Named("stringer", nullableInt(req.Stringer)),
		sql.Named("pressurized", nullableBool(req.Pressurized)),
		sql.Named("material", nullableString(req.Material)),
	)
	if err != nil {
		return nil, fmt.Errorf("store: candidates for rule set %d: %w", ruleSetID, err)
	}
	return out, nil
}
