// Package workflow defines the declarative workflow profiles that govern
// bead lifecycles, plus the pure derivation functions and label codec that
// map legacy coarse statuses and free-text tags onto workflow states.
package workflow

import (
	"fmt"

	"github.com/fooleryhq/foolery/internal/types"
)

// Mode distinguishes how a profile is driven.
type Mode string

// Profile modes.
const (
	ModeGranularAutonomous Mode = "granular_autonomous"
	ModeCoarseHumanGated   Mode = "coarse_human_gated"
)

// Step names one of the six canonical pipeline steps.
type Step string

// The six canonical steps, in pipeline order.
const (
	StepPlanning             Step = "planning"
	StepPlanReview           Step = "plan_review"
	StepImplementation       Step = "implementation"
	StepImplementationReview Step = "implementation_review"
	StepShipment             Step = "shipment"
	StepShipmentReview       Step = "shipment_review"
)

// Steps lists the canonical steps in pipeline order.
var Steps = []Step{
	StepPlanning,
	StepPlanReview,
	StepImplementation,
	StepImplementationReview,
	StepShipment,
	StepShipmentReview,
}

// OwnerKind identifies who performs a step.
type OwnerKind string

// Step owner kinds.
const (
	OwnerAgent OwnerKind = "agent"
	OwnerHuman OwnerKind = "human"
	OwnerNone  OwnerKind = "none"
)

// Phase distinguishes a queue state from its active counterpart.
type Phase string

// State phases.
const (
	PhaseQueued Phase = "queued"
	PhaseActive Phase = "active"
)

// Canonical state names. Each step X has a queue state ready_for_X and an
// active state X.
const (
	StateReadyForPlanning             = "ready_for_planning"
	StatePlanning                     = "planning"
	StateReadyForPlanReview           = "ready_for_plan_review"
	StatePlanReview                   = "plan_review"
	StateReadyForImplementation       = "ready_for_implementation"
	StateImplementation               = "implementation"
	StateReadyForImplementationReview = "ready_for_implementation_review"
	StateImplementationReview         = "implementation_review"
	StateReadyForShipment             = "ready_for_shipment"
	StateShipment                     = "shipment"
	StateReadyForShipmentReview       = "ready_for_shipment_review"
	StateShipmentReview               = "shipment_review"

	StateShipped  = "shipped"
	StateRework   = "rework"
	StateDeferred = "deferred"
)

// QueueStatePrefix marks queue states awaiting an owner.
const QueueStatePrefix = "ready_for_"

// Descriptor is a finite-state machine governing which canonical steps a
// bead passes through and who owns each.
type Descriptor struct {
	// ID is the canonical profile id (e.g. "autopilot").
	ID string
	// BackingWorkflowID is the id the backing store records.
	BackingWorkflowID string
	// LegacyAliases are historical ids that resolve to this profile.
	LegacyAliases []string
	// Label is the human-readable name.
	Label string
	Mode  Mode

	InitialState string
	// States is the ordered set of all states in this profile.
	States []string
	// ActionStates are the states considered "doing work".
	ActionStates   []string
	TerminalStates []string
	// RetakeState is re-entered when a review rejects the work.
	RetakeState string
	// FinalCutState is the optional human-review gate before terminal
	// completion. Empty for fully autonomous profiles.
	FinalCutState string

	PromptProfileID string
	// Owners maps each of the six canonical steps to its owner kind.
	// Steps absent from the profile map to OwnerNone.
	Owners map[Step]OwnerKind
}

// Clone returns a deep, independent copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	out := *d
	out.LegacyAliases = append([]string(nil), d.LegacyAliases...)
	out.States = append([]string(nil), d.States...)
	out.ActionStates = append([]string(nil), d.ActionStates...)
	out.TerminalStates = append([]string(nil), d.TerminalStates...)
	out.Owners = make(map[Step]OwnerKind, len(d.Owners))
	for k, v := range d.Owners {
		out.Owners[k] = v
	}
	return &out
}

// HasState reports whether s belongs to the profile's state set.
func (d *Descriptor) HasState(s string) bool {
	for _, st := range d.States {
		if st == s {
			return true
		}
	}
	return false
}

// IsActionState reports whether s is an active "doing work" state.
func (d *Descriptor) IsActionState(s string) bool {
	for _, st := range d.ActionStates {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a terminal state.
func (d *Descriptor) IsTerminal(s string) bool {
	for _, st := range d.TerminalStates {
		if st == s {
			return true
		}
	}
	return false
}

// FirstActionState returns the first active state in pipeline order, or ""
// when the profile has none.
func (d *Descriptor) FirstActionState() string {
	if len(d.ActionStates) == 0 {
		return ""
	}
	return d.ActionStates[0]
}

// ClosedState returns the state used for closed beads: "shipped" when the
// profile has it, otherwise the first terminal state.
func (d *Descriptor) ClosedState() string {
	if d.HasState(StateShipped) && d.IsTerminal(StateShipped) {
		return StateShipped
	}
	if len(d.TerminalStates) > 0 {
		return d.TerminalStates[0]
	}
	return d.InitialState
}

// Owner returns the owner kind for a step, OwnerNone when unset.
func (d *Descriptor) Owner(step Step) OwnerKind {
	if k, ok := d.Owners[step]; ok {
		return k
	}
	return OwnerNone
}

// Validate checks the descriptor's internal consistency: the initial state
// belongs to the state set, terminal states are a subset of it, and each
// ready_for_X queue state is paired with its active X state.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("descriptor id is required")
	}
	if !d.HasState(d.InitialState) {
		return fmt.Errorf("profile %s: initial state %q not in states", d.ID, d.InitialState)
	}
	for _, t := range d.TerminalStates {
		if !d.HasState(t) {
			return fmt.Errorf("profile %s: terminal state %q not in states", d.ID, t)
		}
	}
	if d.RetakeState != "" && !d.HasState(d.RetakeState) {
		return fmt.Errorf("profile %s: retake state %q not in states", d.ID, d.RetakeState)
	}
	if d.FinalCutState != "" && !d.HasState(d.FinalCutState) {
		return fmt.Errorf("profile %s: final cut state %q not in states", d.ID, d.FinalCutState)
	}
	for _, step := range Steps {
		queued := QueueStatePrefix + string(step)
		active := string(step)
		if d.HasState(queued) != d.HasState(active) {
			return fmt.Errorf("profile %s: unpaired step %s (queue=%v active=%v)",
				d.ID, step, d.HasState(queued), d.HasState(active))
		}
	}
	return nil
}

// StatusForState is a convenience wrapper deriving the compat status for a
// state in this profile.
func (d *Descriptor) StatusForState(state string) types.Status {
	return MapWorkflowStateToCompatStatus(state)
}
