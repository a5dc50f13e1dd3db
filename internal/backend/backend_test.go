package backend

import (
	"strings"
	"testing"

	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

func TestGate(t *testing.T) {
	if err := Gate("jsonl", "CreateBead", true); err != nil {
		t.Errorf("Gate(supported) = %v, want nil", err)
	}
	err := Gate("stub", "CreateBead", false)
	if backenderr.CodeOf(err) != backenderr.Unavailable {
		t.Errorf("Gate(unsupported) code = %v, want UNAVAILABLE", backenderr.CodeOf(err))
	}
}

func TestListFilterMatches(t *testing.T) {
	b := &types.Bead{
		ID:            "fl-a1",
		Title:         "A bead",
		Status:        types.StatusOpen,
		Priority:      2,
		BeadType:      types.TypeTask,
		Labels:        []string{"area:ui", "wf:state:ready_for_planning"},
		Assignee:      "casey",
		Parent:        "fl-root",
		ProfileID:     workflow.ProfileAutopilot,
		WorkflowState: workflow.StateReadyForPlanning,
	}
	_, rs := RuntimeFor(b)

	open := types.StatusOpen
	closed := types.StatusClosed
	task := types.TypeTask
	p2 := 2
	agent := workflow.OwnerAgent
	human := true

	tests := []struct {
		name   string
		filter ListFilter
		want   bool
	}{
		{"empty", ListFilter{}, true},
		{"status hit", ListFilter{Status: &open}, true},
		{"status miss", ListFilter{Status: &closed}, false},
		{"type and priority", ListFilter{Type: &task, Priority: &p2}, true},
		{"labels AND", ListFilter{Labels: []string{"area:ui", "wf:state:ready_for_planning"}}, true},
		{"labels AND miss", ListFilter{Labels: []string{"area:ui", "missing"}}, false},
		{"next owner", ListFilter{NextOwnerKind: &agent}, true},
		{"requires human", ListFilter{RequiresHumanAction: &human}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(b, rs); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuntimeForDerivesMissingState(t *testing.T) {
	b := &types.Bead{
		Status: types.StatusInProgress,
		Labels: []string{"wf:profile:semiauto"},
	}
	b.ProfileID = workflow.DeriveProfileID(b.Labels, nil)
	wf, rs := RuntimeFor(b)
	if wf.ID != workflow.ProfileSemiauto {
		t.Errorf("profile = %q, want semiauto", wf.ID)
	}
	if rs.State != workflow.StatePlanning {
		t.Errorf("derived state = %q, want planning", rs.State)
	}
}

func TestQueryRecord(t *testing.T) {
	b := &types.Bead{
		Status:        types.StatusOpen,
		Priority:      1,
		BeadType:      types.TypeBug,
		ProfileID:     workflow.ProfileAutopilot,
		WorkflowState: workflow.StateReadyForImplementation,
	}
	rec := QueryRecord(b)
	if rec.Status != "open" || rec.Type != "bug" || rec.Priority != 1 {
		t.Errorf("QueryRecord() = %+v", rec)
	}
	if rec.State != workflow.StateReadyForImplementation {
		t.Errorf("State = %q", rec.State)
	}
	if rec.NextOwnerKind != string(workflow.OwnerAgent) {
		t.Errorf("NextOwnerKind = %q, want agent", rec.NextOwnerKind)
	}
}

func TestRegistry(t *testing.T) {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("fake", func(cfg Config) (Backend, error) { return nil, nil })

	if _, err := r.New("fake", Config{}); err != nil {
		t.Errorf("New(fake) error = %v", err)
	}
	_, err := r.New("missing", Config{})
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("New(missing) error = %v, want unknown backend", err)
	}
	if got := r.List(); len(got) != 1 || got[0] != "fake" {
		t.Errorf("List() = %v", got)
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	if !(UpdateRequest{}).Empty() {
		t.Error("zero request should be empty")
	}
	title := "x"
	if (UpdateRequest{Title: &title}).Empty() {
		t.Error("request with a field should not be empty")
	}
	if (UpdateRequest{Labels: []string{"l"}}).Empty() {
		t.Error("request with labels should not be empty")
	}
}

func TestTakePromptShape(t *testing.T) {
	wf := workflow.BuiltinProfileDescriptor(workflow.ProfileAutopilot)
	b := &types.Bead{
		ID:            "fl-a1",
		Title:         "Wire the widget",
		Description:   "Connect things.",
		WorkflowState: workflow.StateReadyForImplementation,
	}
	children := []*types.Bead{{ID: "fl-a1.1", Title: "Child"}}

	prompt := TakePrompt(b, wf, children)
	for _, want := range []string{
		"fl-a1", "Wire the widget", "implementation (queued)",
		"Connect things.", "fl-a1.1", "next queue state",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("TakePrompt() missing %q in:\n%s", want, prompt)
		}
	}

	coarse := workflow.BuiltinProfileDescriptor(workflow.ProfileSemiauto)
	gated := TakePrompt(b, coarse, nil)
	if !strings.Contains(gated, "human reviews") {
		t.Errorf("coarse prompt missing human gate instruction:\n%s", gated)
	}
}

func TestPollPromptShape(t *testing.T) {
	wf := workflow.BuiltinProfileDescriptor(workflow.ProfileAutopilot)
	b := &types.Bead{
		ID:            "fl-a1",
		Title:         "Wire the widget",
		WorkflowState: workflow.StatePlanning,
	}
	prompt := PollPrompt(b, wf, []*types.Bead{{ID: "fl-a1.1"}, {ID: "fl-a1.2"}})
	for _, want := range []string{"fl-a1", "planning", "in_progress", "fl-a1.1, fl-a1.2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("PollPrompt() missing %q in:\n%s", want, prompt)
		}
	}
}
