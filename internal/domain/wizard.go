package domain

import "fmt"

// Step is a screen of the scan wizard
type Step string

const (
	StepProfile Step = "profile"
	StepScan    Step = "scan"
	StepManual  Step = "manual"
	StepConfirm Step = "confirm"
	StepResult  Step = "result"
)

// Event moves the wizard from one step to another
type Event string

const (
	EventProfileSelected     Event = "profile_selected"
	EventProductFound        Event = "product_found"
	EventProductNotFound     Event = "product_not_found"
	EventIngredientsResolved Event = "ingredients_resolved"
	EventLookupFailed        Event = "lookup_failed"
	EventManualEntry         Event = "manual_entry"
	EventRescan              Event = "rescan"
	EventAnalysisCompleted   Event = "analysis_completed"
	EventChangeProfile       Event = "change_profile"
)

var transitions = map[Step]map[Event]Step{
	StepProfile: {
		EventProfileSelected: StepScan,
	},
	StepScan: {
		EventProductFound:        StepConfirm,
		EventIngredientsResolved: StepConfirm,
		EventProductNotFound:     StepManual,
		EventLookupFailed:        StepManual,
		EventManualEntry:         StepManual,
		EventChangeProfile:       StepProfile,
	},
	StepManual: {
		EventIngredientsResolved: StepConfirm,
		EventLookupFailed:        StepManual,
		EventRescan:              StepScan,
	},
	StepConfirm: {
		EventAnalysisCompleted: StepResult,
		EventManualEntry:       StepManual,
	},
	StepResult: {
		EventManualEntry:   StepManual,
		EventChangeProfile: StepProfile,
	},
}

// Transition returns the step reached from step on event
func Transition(step Step, event Event) (Step, error) {
	next, ok := transitions[step][event]
	if !ok {
		return step, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, step)
	}
	return next, nil
}
