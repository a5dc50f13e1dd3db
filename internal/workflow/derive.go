package workflow

import (
	"strings"

	"github.com/fooleryhq/foolery/internal/types"
)

// Metadata keys consulted when deriving a profile id, in precedence order.
var profileMetadataKeys = []string{
	"profileId",
	"fooleryProfileId",
	"workflowProfileId",
	"knotsProfileId",
}

// MapStatusToDefaultWorkflowState maps a legacy coarse status to the state
// a bead in that status would occupy in the given workflow. A nil workflow
// means the default profile.
func MapStatusToDefaultWorkflowState(status types.Status, wf *Descriptor) string {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	switch status {
	case types.StatusInProgress:
		if s := wf.FirstActionState(); s != "" {
			return s
		}
		if wf.HasState(StateImplementation) {
			return StateImplementation
		}
		return "in_progress"
	case types.StatusBlocked:
		if wf.RetakeState != "" {
			return wf.RetakeState
		}
		return "open"
	case types.StatusDeferred:
		return StateDeferred
	case types.StatusClosed:
		return wf.ClosedState()
	default: // open and anything unrecognized
		return wf.InitialState
	}
}

// legacyStateRemap translates historical literal state names onto canonical
// ones. "retake" is a placeholder resolved to the workflow's retake state.
var legacyStateRemap = map[string]string{
	"open":             "__initial__",
	"idea":             "__initial__",
	"work_item":        "__initial__",
	"in_progress":      "__first_action__",
	"verification":     StateReadyForImplementationReview,
	"ready_for_review": StateReadyForImplementationReview,
	"retake":           "__retake__",
	"retry":            "__retake__",
	"rejected":         "__retake__",
	"refining":         "__retake__",
	"rework":           "__retake__",
	"closed":           StateShipped,
	"done":             StateShipped,
	"approved":         StateShipped,
}

// NormalizeStateForWorkflow maps raw state input (any casing, surrounding
// whitespace, or legacy literal) onto a state guaranteed to belong to
// wf.States. Unrecognized input yields the initial state; this function
// never fails.
func NormalizeStateForWorkflow(raw string, wf *Descriptor) string {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	if mapped, ok := legacyStateRemap[s]; ok {
		switch mapped {
		case "__initial__":
			return wf.InitialState
		case "__first_action__":
			if a := wf.FirstActionState(); a != "" && wf.HasState(a) {
				return a
			}
			return wf.InitialState
		case "__retake__":
			if wf.RetakeState != "" {
				return wf.RetakeState
			}
			return wf.InitialState
		default:
			s = mapped
		}
	}
	if wf.HasState(s) {
		return s
	}
	return wf.InitialState
}

// MapWorkflowStateToCompatStatus derives the legacy coarse status from a
// workflow state. Inverse of MapStatusToDefaultWorkflowState for every
// (status, workflow) pair reachable through a builtin profile.
func MapWorkflowStateToCompatStatus(state string) types.Status {
	s := strings.ToLower(strings.TrimSpace(state))
	switch s {
	case StateDeferred:
		return types.StatusDeferred
	case "blocked", "rejected", StateRework, "retake", "retry", "refining":
		return types.StatusBlocked
	case StateShipped, "closed", "done", "approved", "tombstone":
		return types.StatusClosed
	case "in_progress", "wip", "started":
		return types.StatusInProgress
	}
	if strings.HasPrefix(s, QueueStatePrefix) {
		return types.StatusOpen
	}
	if ref := ResolveStep(s); ref != nil && ref.Phase == PhaseActive {
		return types.StatusInProgress
	}
	return types.StatusOpen
}

// DeriveProfileID resolves the canonical profile id for a bead. Metadata
// keys win over label tags, which win over the default profile.
func DeriveProfileID(labels []string, metadata map[string]string) string {
	for _, key := range profileMetadataKeys {
		if v := strings.TrimSpace(metadata[key]); v != "" {
			return CanonicalProfileID(v)
		}
	}
	if v := ExtractProfileLabel(labels); v != "" {
		return CanonicalProfileID(v)
	}
	return DefaultProfileID
}

// DeriveWorkflowState resolves the workflow state for a bead from its
// explicit wf:state: tag, legacy stage tags, or coarse status, in that
// order, falling back to the workflow's initial state.
func DeriveWorkflowState(status types.Status, labels []string, wf *Descriptor) string {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	if v := ExtractStateLabel(labels); v != "" {
		return NormalizeStateForWorkflow(v, wf)
	}
	for _, l := range labels {
		switch l {
		case LabelStageVerification:
			if wf.HasState(StateReadyForImplementationReview) {
				return StateReadyForImplementationReview
			}
		case LabelStageRetry:
			if wf.RetakeState != "" {
				return wf.RetakeState
			}
		}
	}
	if status != "" {
		if s := MapStatusToDefaultWorkflowState(status, wf); wf.HasState(s) {
			return s
		}
	}
	return wf.InitialState
}

// StepRef locates a state within the six-step pipeline.
type StepRef struct {
	Step  Step
	Phase Phase
}

// ResolveStep maps any of the twelve canonical queue/active state names to
// its step and phase. Terminal, deferred, and unknown states return nil.
func ResolveStep(state string) *StepRef {
	s := strings.ToLower(strings.TrimSpace(state))
	for _, step := range Steps {
		switch s {
		case QueueStatePrefix + string(step):
			return &StepRef{Step: step, Phase: PhaseQueued}
		case string(step):
			return &StepRef{Step: step, Phase: PhaseActive}
		}
	}
	return nil
}

// RuntimeState is the fully derived view of where a bead sits in its
// workflow and who must act next.
type RuntimeState struct {
	State               string
	CompatStatus        types.Status
	NextActionOwnerKind OwnerKind
	RequiresHumanAction bool
	// AgentClaimable is true only for queue states owned by an agent;
	// active and terminal states are never claimable.
	AgentClaimable bool
}

// DeriveRuntimeState computes the runtime view for a state within wf.
func DeriveRuntimeState(wf *Descriptor, state string) RuntimeState {
	if wf == nil {
		wf = DefaultDescriptor()
	}
	rs := RuntimeState{
		State:               state,
		CompatStatus:        MapWorkflowStateToCompatStatus(state),
		NextActionOwnerKind: OwnerNone,
	}
	ref := ResolveStep(state)
	if ref == nil {
		return rs
	}
	owner := wf.Owner(ref.Step)
	rs.NextActionOwnerKind = owner
	rs.RequiresHumanAction = owner == OwnerHuman
	rs.AgentClaimable = ref.Phase == PhaseQueued && owner == OwnerAgent
	return rs
}
