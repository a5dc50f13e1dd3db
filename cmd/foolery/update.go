package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

var updateFlags struct {
	title        string
	description  string
	acceptance   string
	notes        string
	beadType     string
	priority     int
	assignee     string
	owner        string
	parent       string
	state        string
	profile      string
	estimate     int
	addLabels    []string
	removeLabels []string
	meta         []string
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a bead's fields, labels, or workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "UpdateBead", b.Capabilities().CanUpdate); err != nil {
			return err
		}

		var req backend.UpdateRequest
		strFlag := func(name string, dst *string, into **string) {
			if cmd.Flags().Changed(name) {
				*into = dst
			}
		}
		strFlag("title", &updateFlags.title, &req.Title)
		strFlag("description", &updateFlags.description, &req.Description)
		strFlag("acceptance", &updateFlags.acceptance, &req.AcceptanceCriteria)
		strFlag("notes", &updateFlags.notes, &req.Notes)
		strFlag("assignee", &updateFlags.assignee, &req.Assignee)
		strFlag("owner", &updateFlags.owner, &req.Owner)
		strFlag("parent", &updateFlags.parent, &req.Parent)
		strFlag("state", &updateFlags.state, &req.State)
		strFlag("profile", &updateFlags.profile, &req.ProfileID)
		if cmd.Flags().Changed("type") {
			bt := types.BeadType(updateFlags.beadType)
			req.Type = &bt
		}
		if cmd.Flags().Changed("priority") {
			req.Priority = &updateFlags.priority
		}
		if cmd.Flags().Changed("estimate") {
			req.EstimatedMinutes = &updateFlags.estimate
		}
		req.Labels = updateFlags.addLabels
		req.RemoveLabels = updateFlags.removeLabels
		if len(updateFlags.meta) > 0 {
			req.Metadata, err = parseMeta(updateFlags.meta)
			if err != nil {
				return err
			}
		}
		if req.Empty() {
			return fmt.Errorf("nothing to update")
		}

		bead, err := b.UpdateBead(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		return printBead(bead)
	},
}

// approveCmd advances a bead out of its current step: review states move to
// the next queue state, the last review closes the bead.
var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve the current step and advance the bead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyVerdict(cmd, args[0], true)
	},
}

// rejectCmd sends a bead back to its retake state and bumps the attempts
// counter.
var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject the current step and send the bead back to rework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyVerdict(cmd, args[0], false)
	},
}

func applyVerdict(cmd *cobra.Command, id string, approve bool) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := gateCap(b, "UpdateBead", b.Capabilities().CanUpdate); err != nil {
		return err
	}
	bead, err := b.GetBead(cmd.Context(), id)
	if err != nil {
		return err
	}
	wf, rs := backend.RuntimeFor(bead)

	var fields workflow.TransitionFields
	if approve {
		fields, err = workflow.ApproveBeadFields(wf, rs.State)
		if err != nil {
			return err
		}
	} else {
		fields = workflow.RejectBeadFields(wf, bead.Labels)
	}

	updated, err := b.UpdateBead(cmd.Context(), id, backend.UpdateRequest{
		State:        &fields.State,
		Labels:       fields.AddLabels,
		RemoveLabels: fields.RemoveLabels,
	})
	if err != nil {
		return err
	}
	return printBead(updated)
}

func init() {
	updateCmd.Flags().StringVar(&updateFlags.title, "title", "", "new title")
	updateCmd.Flags().StringVarP(&updateFlags.description, "description", "d", "", "new description")
	updateCmd.Flags().StringVar(&updateFlags.acceptance, "acceptance", "", "new acceptance criteria")
	updateCmd.Flags().StringVar(&updateFlags.notes, "notes", "", "new notes")
	updateCmd.Flags().StringVarP(&updateFlags.beadType, "type", "t", "", "new bead type")
	updateCmd.Flags().IntVarP(&updateFlags.priority, "priority", "p", 0, "new priority (0-4)")
	updateCmd.Flags().StringVar(&updateFlags.assignee, "assignee", "", "new assignee")
	updateCmd.Flags().StringVar(&updateFlags.owner, "owner", "", "new owner")
	updateCmd.Flags().StringVar(&updateFlags.parent, "parent", "", "new parent bead id")
	updateCmd.Flags().StringVar(&updateFlags.state, "state", "", "new workflow state (normalized to the bead's profile)")
	updateCmd.Flags().StringVar(&updateFlags.profile, "profile", "", "new workflow profile")
	updateCmd.Flags().IntVar(&updateFlags.estimate, "estimate", 0, "new estimated minutes")
	updateCmd.Flags().StringSliceVar(&updateFlags.addLabels, "add-label", nil, "labels to add")
	updateCmd.Flags().StringSliceVar(&updateFlags.removeLabels, "remove-label", nil, "labels to remove")
	updateCmd.Flags().StringSliceVar(&updateFlags.meta, "meta", nil, "metadata key=value to merge")
	rootCmd.AddCommand(updateCmd, approveCmd, rejectCmd)
}
