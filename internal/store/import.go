package store

import (
	"database/sql"
	"fmt"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// ImportOptions controls how ImportRuleSet treats an existing rule set.
type ImportOptions struct {
	// UpsertRuleSet reuses the newest rule set with the same aircraft
	// family and revision instead of always creating a new one.
	UpsertRuleSet bool
	// WipeRules deletes the existing rules of the target rule set before
	// inserting. Only meaningful with UpsertRuleSet.
	WipeRules bool
}

// ImportResult summarizes an ImportRuleSet call.
type ImportResult struct {
	RuleSetID int64 `json:"rule_set_id"`
	Created   bool  `json:"created"`
	Wiped     int64 `json:"wiped"`
	Inserted  int   `json:"inserted"`
	Total     int   `json:"total"`
}

// ImportRuleSet writes a rule set and its rules in one transaction. Any
// invalid rule aborts the whole import.
func (s *Store) ImportRuleSet(rs rules.RuleSet, rr []rules.Rule, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		if opts.UpsertRuleSet {
			result.RuleSetID, result.Created, err = upsertRuleSet(tx, rs)
		} else {
			result.RuleSetID, err = createRuleSet(tx, rs)
			result.Created = err == nil
		}
		if err != nil {
			return err
		}

		if opts.WipeRules && !result.Created {
			if result.Wiped, err = deleteRulesInSet(tx, result.RuleSetID); err != nil {
				return err
			}
		}

		for i, r := range rr {
			r.ID = 0
			r.RuleSetID = result.RuleSetID
			if _, err := insertRule(tx, r); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
			result.Inserted++
		}

		return tx.QueryRow(`SELECT COUNT(*) FROM rules WHERE rule_set_id = ?`, result.RuleSetID).Scan(&result.Total)
	})
	if err != nil {
		return nil, fmt.Errorf("store: import: %w", err)
	}
	return result, nil
}
