package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// normalizeTags lowercases, trims and de-duplicates tags, dropping empties.
func normalizeTags(tags []string) []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set.Add(t)
		}
	}
	out := set.ToSlice()
	sort.Strings(out)
	return out
}

func insertTags(db dbtx, ruleID int64, tags []string) error {
	for _, tag := range normalizeTags(tags) {
		if _, err := db.Exec(`INSERT OR IGNORE INTO rule_tags (rule_id, tag) VALUES (?, ?)`, ruleID, tag); err != nil {
			return fmt.Errorf("store: tag rule %d: %w", ruleID, err)
		}
	}
	return nil
}

// TagRule attaches labels to a rule. Tags carry no evaluation semantics.
func (s *Store) TagRule(ruleID int64, tags ...string) error {
	return s.withTx(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT 1 FROM rules WHERE id = ?`, ruleID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return notFound("rule", ruleID)
			}
			return fmt.Errorf("store: tag rule %d: %w", ruleID, err)
		}
		return insertTags(tx, ruleID, tags)
	})
}

// UntagRule removes one label from a rule.
func (s *Store) UntagRule(ruleID int64, tag string) error {
	tag = strings.ToLower(strings.TrimSpace(tag))
	res, err := s.db.Exec(`DELETE FROM rule_tags WHERE rule_id = ? AND tag = ?`, ruleID, tag)
	if err != nil {
		return fmt.Errorf("store: untag rule %d: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: untag rule %d: %w", ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("store: rule %d tag %q: %w", ruleID, tag, ErrNotFound)
	}
	return nil
}

// RuleTags returns a rule's labels, sorted.
func (s *Store) RuleTags(ruleID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT tag FROM rule_tags WHERE rule_id = ? ORDER BY tag`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("store: tags of rule %d: %w", ruleID, err)
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("store: tags of rule %d: %w", ruleID, err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) tagsForRuleSet(ruleSetID int64) (map[int64][]string, error) {
	rows, err := s.db.Query(
		`SELECT t.rule_id, t.tag
		 FROM rule_tags t
		 JOIN rules r ON r.id = t.rule_id
		 WHERE r.rule_set_id = ?
		 ORDER BY t.rule_id, t.tag`,
		ruleSetID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: tags of rule set %d: %w", ruleSetID, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]string)
	for rows.Next() {
		var (
			id  int64
			tag string
		)
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("store: tags of rule set %d: %w", ruleSetID, err)
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

// RulesByTag returns the rules carrying a tag, optionally restricted to one
// rule set (ruleSetID 0 searches all), in selection order.
func (s *Store) RulesByTag(tag string, ruleSetID int64) ([]rules.Rule, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	query := `SELECT ` + prefixed("r.", ruleColumns) + `
		FROM rules r
		JOIN rule_tags t ON t.rule_id = r.id
		WHERE t.tag = ?`
	args := []any{tag}
	if ruleSetID != 0 {
		query += ` AND r.rule_set_id = ?`
		args = append(args, ruleSetID)
	}
	query += ` ORDER BY r.priority DESC, r.id ASC`

	out, err := s.queryRules(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: rules by tag %q: %w", tag, err)
	}
	for i := range out {
		tags, err := s.RuleTags(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
