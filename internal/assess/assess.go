// Package assess is the entry point callers use to evaluate a dent: it
// resolves the rule set, runs the engine against the store and stamps,
// logs and counts every report.
package assess

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/metrics"
	"github.com/HendryAvila/dentcheck/internal/rules"
)

// ErrNoFamily is returned by AssessLatest when neither the caller, the
// request nor the configuration names an aircraft family.
var ErrNoFamily = errors.New("aircraft family is required to pick a rule set")

// RuleStore is the part of the rule store the service reads.
type RuleStore interface {
	engine.RuleSource
	GetRuleSet(id int64) (*rules.RuleSet, error)
	LatestRuleSet(family, revision string) (*rules.RuleSet, error)
}

// Options configures a Service. Zero values are usable.
type Options struct {
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	DefaultFamily string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service evaluates requests against stored rule sets.
type Service struct {
	store   RuleStore
	engine  *engine.Engine
	log     zerolog.Logger
	metrics *metrics.Metrics
	family  string
	now     func() time.Time
}

// New creates a Service.
func New(st RuleStore, eng *engine.Engine, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   st,
		engine:  eng,
		log:     opts.Logger.With().Str("component", "assess").Logger(),
		metrics: opts.Metrics,
		family:  strings.TrimSpace(opts.DefaultFamily),
		now:     now,
	}
}

// Assess evaluates req against one explicit rule set. An invalid request,
// an unknown rule set and a rule configuration error are returned as
// errors; everything else, including "no rule found", is a report.
func (s *Service) Assess(ruleSetID int64, req rules.DentAssessmentRequest) (engine.Report, error) {
	if err := req.Validate(); err != nil {
		return engine.Report{}, fmt.Errorf("assess: %w", err)
	}
	if _, err := s.store.GetRuleSet(ruleSetID); err != nil {
		return engine.Report{}, fmt.Errorf("assess: %w", err)
	}

	start := s.now()
	report, err := s.engine.Assess(s.store, ruleSetID, req)
	if err != nil {
		if rules.IsConfigError(err) {
			s.metrics.ObserveConfigError()
			s.log.Warn().Err(err).Int64("rule_set_id", ruleSetID).Msg("rule configuration error")
		}
		return engine.Report{}, fmt.Errorf("assess: %w", err)
	}

	report.AssessmentID = uuid.NewString()
	report.EvaluatedAt = s.now().UTC()
	s.metrics.ObserveReport(report, report.EvaluatedAt.Sub(start.UTC()))

	event := s.log.Info().
		Str("assessment_id", report.AssessmentID).
		Int64("rule_set_id", ruleSetID).
		Str("status", string(report.Status)).
		Int("candidates", len(report.Candidates)).
		Bool("ambiguous", report.AmbiguousMatch)
	if report.RuleID != nil {
		event = event.Int64("rule_id", *report.RuleID)
	}
	event.Msg("assessment complete")

	return report, nil
}

// AssessLatest evaluates req against the newest rule set of an aircraft
// family, optionally pinned to a revision. The family falls back to the
// request's aircraft_family, then to the configured default.
func (s *Service) AssessLatest(family, revision string, req rules.DentAssessmentRequest) (engine.Report, error) {
	family = s.Family(family, req)
	if family == "" {
		return engine.Report{}, fmt.Errorf("assess: %w", ErrNoFamily)
	}
	rs, err := s.store.LatestRuleSet(family, strings.TrimSpace(revision))
	if err != nil {
		return engine.Report{}, fmt.Errorf("assess: %w", err)
	}
	return s.Assess(rs.ID, req)
}

// Family returns the aircraft family AssessLatest would use.
func (s *Service) Family(family string, req rules.DentAssessmentRequest) string {
	for _, f := range []string{family, req.AircraftFamily, s.family} {
		if f = strings.TrimSpace(f); f != "" {
			return f
		}
	}
	return ""
}
