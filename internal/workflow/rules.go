// Package workflow holds the state machines of the precinct: complaint intake,
// case lifecycle, detective reports, guilt assessment, bail release and reward
// claims, plus the derived pursuit formulas.
//
// Functions here are pure. They validate the current state of an entity,
// mutate it in place when the transition is allowed and return an apperr
// error otherwise, leaving the entity untouched. Persistence, authorization
// and transactions live in the service layer.
package workflow

import (
	"strings"

	"precinct/internal/apperr"
)

// Rules holds the tunable constants of the workflows.
type Rules struct {
	// MaxCadetRejections voids a complaint once reached.
	MaxCadetRejections int
	// IntensivePursuitDays is the pursuit age at which a wanted suspect
	// enters intensive pursuit.
	IntensivePursuitDays int
	// RewardUnit is the currency amount paid per ranking point.
	RewardUnit int64
}

// DefaultRules returns the standard precinct rules.
func DefaultRules() Rules {
	return Rules{
		MaxCadetRejections:   3,
		IntensivePursuitDays: 30,
		RewardUnit:           20_000_000,
	}
}

// Decision is the verdict of a review step.
type Decision string

const (
	Approve  Decision = "approve"
	Reject   Decision = "reject"
	Disagree Decision = "disagree"
)

func requireMessage(message, what string) error {
	if strings.TrimSpace(message) == "" {
		return apperr.FieldValidation("message", "A message is required when "+what+".")
	}
	return nil
}

func invalidDecision(d Decision) error {
	return apperr.FieldValidation("action", "Unknown action \""+string(d)+"\".")
}
