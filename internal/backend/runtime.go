package backend

import (
	"github.com/fooleryhq/foolery/internal/query"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// RuntimeFor derives the runtime workflow view for a bead: its profile
// descriptor resolved through the alias table, then the runtime state for
// its current workflow state.
func RuntimeFor(b *types.Bead) (*workflow.Descriptor, workflow.RuntimeState) {
	wf := workflow.BuiltinProfileDescriptor(b.ProfileID)
	state := b.WorkflowState
	if state == "" {
		state = workflow.DeriveWorkflowState(b.Status, b.Labels, wf)
	}
	return wf, workflow.DeriveRuntimeState(wf, state)
}

// QueryRecord flattens a bead and its runtime state into the shape the
// query evaluator matches against.
func QueryRecord(b *types.Bead) query.Record {
	_, rs := RuntimeFor(b)
	return query.Record{
		Status:              string(b.Status),
		State:               rs.State,
		Type:                string(b.BeadType),
		Priority:            b.Priority,
		Assignee:            b.Assignee,
		Owner:               b.Owner,
		Parent:              b.Parent,
		Labels:              b.Labels,
		NextOwnerKind:       string(rs.NextActionOwnerKind),
		RequiresHumanAction: rs.RequiresHumanAction,
		WorkflowID:          b.WorkflowID,
		ProfileID:           b.ProfileID,
	}
}
