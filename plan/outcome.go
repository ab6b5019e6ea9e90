package plan

import "fmt"

// Outcome reports how a planning or refinement call concluded. The planner
// guarantees forward progress by degrading instead of failing, so callers and
// tests need a way to tell the three cases apart.
type Outcome int

const (
	// OutcomePredicted means the LLM produced a valid structured plan.
	OutcomePredicted Outcome = iota
	// OutcomeFellBackToDefault means prediction failed and the planner
	// substituted a single default sub-task holding the original request.
	OutcomeFellBackToDefault
	// OutcomeKeptPrevious means refinement failed and the previous plan
	// was left untouched.
	OutcomeKeptPrevious
)

func (o Outcome) String() string {
	switch o {
	case OutcomePredicted:
		return "predicted"
	case OutcomeFellBackToDefault:
		return "fell_back_to_default"
	case OutcomeKeptPrevious:
		return "kept_previous"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}
