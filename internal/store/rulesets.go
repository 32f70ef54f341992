package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// RuleSetSummary is a rule set with its rule counts.
type RuleSetSummary struct {
	rules.RuleSet
	RuleCount    int `json:"rule_count"`
	EnabledCount int `json:"enabled_count"`
}

const ruleSetColumns = `id, name, aircraft_family, revision, effective_date, source, created_at`

func scanRuleSet(row interface{ Scan(dest ...any) error }) (*rules.RuleSet, error) {
	var (
		rs                    rules.RuleSet
		effectiveDate, source *string
	)
	if err := row.Scan(&rs.ID, &rs.Name, &rs.AircraftFamily, &rs.Revision, &effectiveDate, &source, &rs.CreatedAt); err != nil {
		return nil, err
	}
	rs.EffectiveDate = derefString(effectiveDate)
	rs.Source = derefString(source)
	return &rs, nil
}

// CreateRuleSet always inserts a new rule set and returns its id.
func (s *Store) CreateRuleSet(rs rules.RuleSet) (int64, error) {
	return createRuleSet(s.db, rs)
}

func createRuleSet(db dbtx, rs rules.RuleSet) (int64, error) {
	if err := rs.Validate(); err != nil {
		return 0, fmt.Errorf("store: create rule set: %w", err)
	}
	res, err := db.Exec(
		`INSERT INTO rule_sets (name, aircraft_family, revision, effective_date, source)
		 VALUES (?, ?, ?, ?, ?)`,
		rs.Name, rs.AircraftFamily, rs.Revision,
		nullableString(rs.EffectiveDate), nullableString(rs.Source),
	)
	if err != nil {
		return 0, fmt.Errorf("store: create rule set: %w", err)
	}
	return res.LastInsertId()
}

// UpsertRuleSet finds the newest rule set with the same aircraft family and
// revision and refreshes its metadata, or creates one. created reports
// which happened.
func (s *Store) UpsertRuleSet(rs rules.RuleSet) (id int64, created bool, err error) {
	return upsertRuleSet(s.db, rs)
}

func upsertRuleSet(db dbtx, rs rules.RuleSet) (int64, bool, error) {
	if err := rs.Validate(); err != nil {
		return 0, false, fmt.Errorf("store: upsert rule set: %w", err)
	}
	var id int64
	err := db.QueryRow(
		`SELECT id FROM rule_sets WHERE aircraft_family = ? AND revision = ? ORDER BY id DESC LIMIT 1`,
		rs.AircraftFamily, rs.Revision,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err := createRuleSet(db, rs)
		return id, err == nil, err
	case err != nil:
		return 0, false, fmt.Errorf("store: upsert rule set: %w", err)
	}

	rs.ID = id
	if err := updateRuleSet(db, rs); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// GetRuleSet returns a rule set by id.
func (s *Store) GetRuleSet(id int64) (*rules.RuleSet, error) {
	rs, err := scanRuleSet(s.db.QueryRow(`SELECT `+ruleSetColumns+` FROM rule_sets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("rule set", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get rule set %d: %w", id, err)
	}
	return rs, nil
}

// LatestRuleSet resolves the rule set to evaluate against for an aircraft
// family: the most recently created one, optionally pinned to a revision.
func (s *Store) LatestRuleSet(family, revision string) (*rules.RuleSet, error) {
	query := `SELECT ` + ruleSetColumns + ` FROM rule_sets WHERE aircraft_family = ?`
	args := []any{family}
	if revision != "" {
		query += ` AND revision = ?`
		args = append(args, revision)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	rs, err := scanRuleSet(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if revision != "" {
			return nil, fmt.Errorf("store: rule set for %s revision %s: %w", family, revision, ErrNotFound)
		}
		return nil, fmt.Errorf("store: rule set for %s: %w", family, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest rule set: %w", err)
	}
	return rs, nil
}

// ListRuleSets returns rule sets with rule counts, newest first within each
// family. An empty family lists all.
func (s *Store) ListRuleSets(family string) ([]RuleSetSummary, error) {
	query := `
		SELECT rs.id, rs.name, rs.aircraft_family, rs.revision, rs.effective_date, rs.source, rs.created_at,
		       COUNT(r.id), COALESCE(SUM(r.enabled), 0)
		FROM rule_sets rs
		LEFT JOIN rules r ON r.rule_set_id = rs.id`
	args := []any{}
	if family != "" {
		query += ` WHERE rs.aircraft_family = ?`
		args = append(args, family)
	}
	query += ` GROUP BY rs.id ORDER BY rs.aircraft_family, rs.id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list rule sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RuleSetSummary
	for rows.Next() {
		var (
			sum                   RuleSetSummary
			effectiveDate, source *string
		)
		if err := rows.Scan(
			&sum.ID, &sum.Name, &sum.AircraftFamily, &sum.Revision, &effectiveDate, &source, &sum.CreatedAt,
			&sum.RuleCount, &sum.EnabledCount,
		); err != nil {
			return nil, fmt.Errorf("store: list rule sets: %w", err)
		}
		sum.EffectiveDate = derefString(effectiveDate)
		sum.Source = derefString(source)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// UpdateRuleSet applies an administrative correction to a rule set's
// metadata. Rules are untouched.
func (s *Store) UpdateRuleSet(rs rules.RuleSet) error {
	return updateRuleSet(s.db, rs)
}

func updateRuleSet(db dbtx, rs rules.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("store: update rule set: %w", err)
	}
	res, err := db.Exec(
		`UPDATE rule_sets
		 SET name = ?, aircraft_family = ?, revision = ?, effective_date = ?, source = ?
		 WHERE id = ?`,
		rs.Name, rs.AircraftFamily, rs.Revision,
		nullableString(rs.EffectiveDate), nullableString(rs.Source), rs.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update rule set %d: %w", rs.ID, err)
	}
	return checkAffected(res, "rule set", rs.ID)
}

// DeleteRuleSet removes a rule set; its rules and their tags cascade.
func (s *Store) DeleteRuleSet(id int64) error {
	res, err := s.db.Exec(`DELETE FROM rule_sets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete rule set %d: %w", id, err)
	}
	return checkAffected(res, "rule set", id)
}
