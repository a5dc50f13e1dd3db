package backend

import (
	"fmt"
	"strings"

	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// TakePrompt renders the natural-language prompt handed to an agent that
// claims a bead. openChildren lists the bead's open children; for epics the
// prompt enumerates them instead of asking for direct work.
func TakePrompt(b *types.Bead, wf *workflow.Descriptor, openChildren []*types.Bead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are taking bead %s: %s\n", b.ID, b.Title)

	rs := workflow.DeriveRuntimeState(wf, b.WorkflowState)
	if ref := workflow.ResolveStep(rs.State); ref != nil {
		fmt.Fprintf(&sb, "Current step: %s (%s).\n", ref.Step, ref.Phase)
	} else {
		fmt.Fprintf(&sb, "Current state: %s.\n", rs.State)
	}

	if b.Description != "" {
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", b.Description)
	}
	if b.AcceptanceCriteria != "" {
		fmt.Fprintf(&sb, "\nAcceptance criteria:\n%s\n", b.AcceptanceCriteria)
	}
	if b.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes:\n%s\n", b.Notes)
	}

	if len(openChildren) > 0 {
		sb.WriteString("\nThis bead has open children; work through them rather than the parent directly:\n")
		for _, c := range openChildren {
			fmt.Fprintf(&sb, "  - %s: %s\n", c.ID, c.Title)
		}
	}

	switch wf.PromptProfileID {
	case "coarse":
		sb.WriteString("\nWhen the work is ready, move the bead to its review state; a human reviews each gate.\n")
	default:
		sb.WriteString("\nWork the step to completion, then advance the bead to the next queue state.\n")
	}
	return sb.String()
}

// PollPrompt renders the prompt used when an orchestrator checks on a bead
// without claiming it.
func PollPrompt(b *types.Bead, wf *workflow.Descriptor, openChildren []*types.Bead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Status check for bead %s: %s\n", b.ID, b.Title)
	rs := workflow.DeriveRuntimeState(wf, b.WorkflowState)
	fmt.Fprintf(&sb, "State: %s (status %s, next owner %s).\n", rs.State, rs.CompatStatus, rs.NextActionOwnerKind)
	if len(openChildren) > 0 {
		ids := make([]string, len(openChildren))
		for i, c := range openChildren {
			ids[i] = c.ID
		}
		fmt.Fprintf(&sb, "Open children: %s\n", strings.Join(ids, ", "))
	}
	sb.WriteString("Report progress, blockers, and whether the current step is complete.\n")
	return sb.String()
}
