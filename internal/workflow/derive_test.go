package workflow

import (
	"testing"

	"github.com/fooleryhq/foolery/internal/types"
)

// Every coarse status must survive a round trip through state derivation in
// every builtin profile: status -> state -> status.
func TestStatusStateRoundTrip(t *testing.T) {
	statuses := []types.Status{
		types.StatusOpen,
		types.StatusInProgress,
		types.StatusBlocked,
		types.StatusDeferred,
		types.StatusClosed,
	}
	for _, wf := range BuiltinDescriptors() {
		for _, status := range statuses {
			state := MapStatusToDefaultWorkflowState(status, wf)
			if !wf.HasState(state) {
				t.Errorf("%s: state for %s = %q, not in workflow", wf.ID, status, state)
			}
			if got := MapWorkflowStateToCompatStatus(state); got != status {
				t.Errorf("%s: round trip %s -> %q -> %s, want %s", wf.ID, status, state, got, status)
			}
		}
	}
}

// Normalization must land inside wf.States no matter what it is fed.
func TestNormalizeStateAlwaysMember(t *testing.T) {
	inputs := []string{
		"", "garbage", "OPEN", "idea", "work_item", "in_progress",
		"verification", "ready_for_review", "Ready For Review",
		"retake", "retry", "rejected", "refining", "rework",
		"closed", "done", "approved", "READY-FOR-PLANNING",
		"  implementation  ", "shipment_review", "deferred", "shipped",
	}
	for _, wf := range BuiltinDescriptors() {
		for _, in := range inputs {
			got := NormalizeStateForWorkflow(in, wf)
			if !wf.HasState(got) {
				t.Errorf("%s: NormalizeStateForWorkflow(%q) = %q, not in workflow", wf.ID, in, got)
			}
		}
	}
}

func TestNormalizeStateForWorkflow(t *testing.T) {
	autopilot := BuiltinProfileDescriptor(ProfileAutopilot)
	express := BuiltinProfileDescriptor(ProfileAutopilotXpress)

	tests := []struct {
		name string
		wf   *Descriptor
		in   string
		want string
	}{
		{"canonical passes through", autopilot, StateImplementation, StateImplementation},
		{"casing and hyphens", autopilot, "READY-FOR-PLANNING", StateReadyForPlanning},
		{"spaces", autopilot, "Ready For Review", StateReadyForImplementationReview},
		{"legacy open", autopilot, "open", StateReadyForPlanning},
		{"legacy idea", autopilot, "idea", StateReadyForPlanning},
		{"legacy in_progress", autopilot, "in_progress", StatePlanning},
		{"legacy in_progress express", express, "in_progress", StateImplementation},
		{"legacy verification", autopilot, "verification", StateReadyForImplementationReview},
		{"legacy done", autopilot, "done", StateShipped},
		{"legacy rejected", autopilot, "rejected", StateRework},
		{"unknown falls to initial", autopilot, "garbage", StateReadyForPlanning},
		{"express initial differs", express, "open", StateReadyForImplementation},
		{"state outside workflow", express, StatePlanning, StateReadyForImplementation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStateForWorkflow(tt.in, tt.wf); got != tt.want {
				t.Errorf("NormalizeStateForWorkflow(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapWorkflowStateToCompatStatus(t *testing.T) {
	tests := []struct {
		state string
		want  types.Status
	}{
		{StateReadyForPlanning, types.StatusOpen},
		{StateReadyForShipmentReview, types.StatusOpen},
		{StatePlanning, types.StatusInProgress},
		{StateShipmentReview, types.StatusInProgress},
		{StateRework, types.StatusBlocked},
		{"rejected", types.StatusBlocked},
		{StateDeferred, types.StatusDeferred},
		{StateShipped, types.StatusClosed},
		{"tombstone", types.StatusClosed},
		{"something_else", types.StatusOpen},
	}
	for _, tt := range tests {
		if got := MapWorkflowStateToCompatStatus(tt.state); got != tt.want {
			t.Errorf("MapWorkflowStateToCompatStatus(%q) = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestDeriveProfileID(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		metadata map[string]string
		want     string
	}{
		{"default", nil, nil, ProfileAutopilot},
		{"label tag", []string{"wf:profile:semiauto"}, nil, ProfileSemiauto},
		{"metadata wins over label", []string{"wf:profile:semiauto"},
			map[string]string{"profileId": "autopilot-express"}, ProfileAutopilotXpress},
		{"secondary metadata key", nil,
			map[string]string{"knotsProfileId": "semiauto-express"}, ProfileSemiautoXpress},
		{"alias canonicalized", []string{"wf:profile:beads-coarse"}, nil, ProfileAutopilot},
		{"backing id canonicalized", []string{"wf:profile:knots-coarse-human-gated"}, nil, ProfileSemiauto},
		{"unknown falls to default", []string{"wf:profile:retired-profile"}, nil, ProfileAutopilot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveProfileID(tt.labels, tt.metadata); got != tt.want {
				t.Errorf("DeriveProfileID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveWorkflowState(t *testing.T) {
	autopilot := BuiltinProfileDescriptor(ProfileAutopilot)

	tests := []struct {
		name   string
		status types.Status
		labels []string
		want   string
	}{
		{"state tag wins over everything", types.StatusClosed,
			[]string{"stage:retry", "wf:state:implementation"}, StateImplementation},
		{"verification stage tag", types.StatusOpen,
			[]string{"stage:verification"}, StateReadyForImplementationReview},
		{"retry stage tag", types.StatusOpen,
			[]string{"stage:retry"}, StateRework},
		{"status only", types.StatusInProgress, nil, StatePlanning},
		{"closed status", types.StatusClosed, nil, StateShipped},
		{"nothing", "", nil, StateReadyForPlanning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveWorkflowState(tt.status, tt.labels, autopilot); got != tt.want {
				t.Errorf("DeriveWorkflowState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveStep(t *testing.T) {
	for _, step := range Steps {
		queued := ResolveStep(QueueStatePrefix + string(step))
		if queued == nil || queued.Step != step || queued.Phase != PhaseQueued {
			t.Errorf("ResolveStep(ready_for_%s) = %+v, want queued %s", step, queued, step)
		}
		active := ResolveStep(string(step))
		if active == nil || active.Step != step || active.Phase != PhaseActive {
			t.Errorf("ResolveStep(%s) = %+v, want active %s", step, active, step)
		}
	}
	for _, state := range []string{StateShipped, StateRework, StateDeferred, "garbage", ""} {
		if got := ResolveStep(state); got != nil {
			t.Errorf("ResolveStep(%q) = %+v, want nil", state, got)
		}
	}
}

func TestDeriveRuntimeState(t *testing.T) {
	autopilot := BuiltinProfileDescriptor(ProfileAutopilot)
	semiauto := BuiltinProfileDescriptor(ProfileSemiauto)

	tests := []struct {
		name          string
		wf            *Descriptor
		state         string
		wantOwner     OwnerKind
		wantHuman     bool
		wantClaimable bool
	}{
		{"agent queue is claimable", autopilot, StateReadyForPlanning, OwnerAgent, false, true},
		{"active state never claimable", autopilot, StatePlanning, OwnerAgent, false, false},
		{"human review gate", semiauto, StateReadyForPlanReview, OwnerHuman, true, false},
		{"human active review", semiauto, StatePlanReview, OwnerHuman, true, false},
		{"terminal has no owner", autopilot, StateShipped, OwnerNone, false, false},
		{"deferred has no owner", autopilot, StateDeferred, OwnerNone, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := DeriveRuntimeState(tt.wf, tt.state)
			if rs.NextActionOwnerKind != tt.wantOwner {
				t.Errorf("owner = %s, want %s", rs.NextActionOwnerKind, tt.wantOwner)
			}
			if rs.RequiresHumanAction != tt.wantHuman {
				t.Errorf("requiresHuman = %v, want %v", rs.RequiresHumanAction, tt.wantHuman)
			}
			if rs.AgentClaimable != tt.wantClaimable {
				t.Errorf("claimable = %v, want %v", rs.AgentClaimable, tt.wantClaimable)
			}
		})
	}
}
