package contracts

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for a screening/backtest run. Entity-local failures
// (ErrDataUnavailable, ErrUndefined) never abort a run; ConfigurationError is
// fatal before any computation starts.

// ErrDataUnavailable means no qualifying fact exists as of the requested date.
// Callers treat it as "insufficient history" and drop the entity from the
// current stage.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrUndefined means a formula's preconditions failed (zero denominator,
// negative base, too few observations). Scoring treats it as a neutral
// contribution.
var ErrUndefined = errors.New("undefined")

// ConfigurationError reports a malformed rule table. It aborts a run before
// any computation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError for a config field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// EmptyPoolError marks a rebalance date where no entity qualified. The driver
// records it on the period and continues with zero allocated capital.
type EmptyPoolError struct {
	Date time.Time
}

func (e *EmptyPoolError) Error() string {
	return fmt.Sprintf("empty candidate pool at %s", e.Date.Format("2006-01-02"))
}

// IsDataUnavailable reports whether err degrades to a missing fact.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsUndefined reports whether err is a failed formula precondition.
func IsUndefined(err error) bool {
	return errors.Is(err, ErrUndefined)
}
