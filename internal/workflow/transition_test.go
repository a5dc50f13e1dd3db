package workflow

import (
	"reflect"
	"testing"
)

func TestRejectBeadFields(t *testing.T) {
	wf := BuiltinProfileDescriptor(ProfileAutopilot)

	got := RejectBeadFields(wf, []string{"stage:verification", "attempts:3", "area:ui"})
	if got.State != StateRework {
		t.Errorf("State = %q, want %q", got.State, StateRework)
	}
	wantAdd := []string{"stage:retry", "attempts:4"}
	if !reflect.DeepEqual(got.AddLabels, wantAdd) {
		t.Errorf("AddLabels = %v, want %v", got.AddLabels, wantAdd)
	}
	wantRemove := []string{"stage:verification", "attempts:3"}
	if !reflect.DeepEqual(got.RemoveLabels, wantRemove) {
		t.Errorf("RemoveLabels = %v, want %v", got.RemoveLabels, wantRemove)
	}
}

func TestRejectBeadFieldsFirstAttempt(t *testing.T) {
	wf := BuiltinProfileDescriptor(ProfileAutopilot)

	got := RejectBeadFields(wf, nil)
	wantAdd := []string{"stage:retry", "attempts:1"}
	if !reflect.DeepEqual(got.AddLabels, wantAdd) {
		t.Errorf("AddLabels = %v, want %v", got.AddLabels, wantAdd)
	}
}

func TestRejectBeadFieldsClearsEveryAttemptTag(t *testing.T) {
	wf := BuiltinProfileDescriptor(ProfileAutopilot)

	got := RejectBeadFields(wf, []string{"attempts:1", "attempts:2"})
	for _, want := range []string{"attempts:1", "attempts:2"} {
		found := false
		for _, l := range got.RemoveLabels {
			if l == want {
				found = true
			}
		}
		if !found {
			t.Errorf("RemoveLabels %v missing %q", got.RemoveLabels, want)
		}
	}
}

func TestApproveBeadFields(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		state   string
		want    string
	}{
		{"review advances to next queue", ProfileAutopilot, StateImplementationReview, StateReadyForShipment},
		{"queued review advances the same way", ProfileAutopilot, StateReadyForImplementationReview, StateReadyForShipment},
		{"last review closes", ProfileAutopilot, StateShipmentReview, StateShipped},
		{"express last review closes", ProfileSemiautoXpress, StateImplementationReview, StateShipped},
		{"mid-pipeline non-review step", ProfileAutopilot, StatePlanning, StateReadyForPlanReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := BuiltinProfileDescriptor(tt.profile)
			got, err := ApproveBeadFields(wf, tt.state)
			if err != nil {
				t.Fatalf("ApproveBeadFields(%q) error = %v", tt.state, err)
			}
			if got.State != tt.want {
				t.Errorf("State = %q, want %q", got.State, tt.want)
			}
			// Stage tags are cleared but the attempts history survives.
			for _, l := range got.RemoveLabels {
				if l != LabelStageVerification && l != LabelStageRetry {
					t.Errorf("unexpected label removal %q", l)
				}
			}
		})
	}
}

func TestApproveBeadFieldsRejectsNonStepStates(t *testing.T) {
	wf := BuiltinProfileDescriptor(ProfileAutopilot)
	for _, state := range []string{StateShipped, StateRework, StateDeferred, "garbage"} {
		if _, err := ApproveBeadFields(wf, state); err == nil {
			t.Errorf("ApproveBeadFields(%q) = nil error, want failure", state)
		}
	}
}

func TestNextQueueState(t *testing.T) {
	autopilot := BuiltinProfileDescriptor(ProfileAutopilot)
	if got := NextQueueState(autopilot, StepPlanning); got != StateReadyForPlanReview {
		t.Errorf("NextQueueState(planning) = %q, want %q", got, StateReadyForPlanReview)
	}
	if got := NextQueueState(autopilot, StepShipmentReview); got != "" {
		t.Errorf("NextQueueState(shipment_review) = %q, want empty", got)
	}

	// Express profiles skip the shipment steps entirely.
	express := BuiltinProfileDescriptor(ProfileSemiautoXpress)
	if got := NextQueueState(express, StepImplementationReview); got != "" {
		t.Errorf("NextQueueState(implementation_review) in %s = %q, want empty", express.ID, got)
	}
}
