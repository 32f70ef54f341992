package rules

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidRule is wrapped by every validation failure of a rule, rule set
// or assessment request.
var ErrInvalidRule = errors.New("invalid rule")

// ConfigError reports a rule whose configuration cannot be evaluated, such
// as a limit key without a max_/min_ prefix. It is the rule author's
// problem, not the request's, and callers should surface it separately from
// a failed limit check.
type ConfigError struct {
	RuleID int64
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.RuleID != 0 {
		return fmt.Sprintf("rule #%d: configuration error in %q: %s", e.RuleID, e.Key, e.Reason)
	}
	return fmt.Sprintf("configuration error in %q: %s", e.Key, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidRule) match configuration errors too.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidRule
}

// IsConfigError reports whether err carries a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func asConfigError(err error, target **ConfigError) bool {
	return errors.As(err, target)
}
