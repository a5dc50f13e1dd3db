package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/ui"
	"github.com/fooleryhq/foolery/internal/workflow"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBeads(beads []*types.Bead) error {
	if jsonOutput {
		return printJSON(beads)
	}
	if len(beads) == 0 {
		fmt.Println(ui.MutedStyle.Render("no beads"))
		return nil
	}
	for _, b := range beads {
		printBeadLine(b)
	}
	return nil
}

func printBeadLine(b *types.Bead) {
	_, rs := backend.RuntimeFor(b)
	line := fmt.Sprintf("%s %s [P%d] %s  %s",
		ui.StatusIcon(b.Status),
		ui.IDStyle.Render(b.ID),
		b.Priority,
		b.Title,
		ui.RenderState(rs.State))
	if rs.RequiresHumanAction {
		line += " " + ui.HumanStyle.Render(ui.IconHuman)
	}
	fmt.Println(line)
}

func printBead(b *types.Bead) error {
	if jsonOutput {
		return printJSON(b)
	}
	wf, rs := backend.RuntimeFor(b)

	fmt.Printf("%s %s\n", ui.IDStyle.Render(b.ID), ui.HeaderStyle.Render(b.Title))
	fmt.Printf("  type: %s  priority: P%d  status: %s\n", b.BeadType, b.Priority, ui.StatusStyle(b.Status).Render(string(b.Status)))
	fmt.Printf("  profile: %s (%s)\n", wf.ID, wf.Label)
	fmt.Printf("  state: %s  next: %s\n", ui.RenderState(rs.State), ui.RenderOwner(rs.NextActionOwnerKind))
	if b.Assignee != "" {
		fmt.Printf("  assignee: %s\n", b.Assignee)
	}
	if b.Parent != "" {
		fmt.Printf("  parent: %s\n", b.Parent)
	}
	if len(b.Labels) > 0 {
		fmt.Printf("  labels: %s\n", strings.Join(b.Labels, ", "))
	}
	if b.EstimatedMinutes != nil {
		fmt.Printf("  estimate: %dm\n", *b.EstimatedMinutes)
	}
	if b.Description != "" {
		fmt.Printf("\n%s\n", b.Description)
	}
	if b.AcceptanceCriteria != "" {
		fmt.Printf("\nAcceptance criteria:\n%s\n", b.AcceptanceCriteria)
	}
	if b.Notes != "" {
		fmt.Printf("\nNotes:\n%s\n", b.Notes)
	}
	if reason, ok := b.Metadata[types.MetadataCloseReason]; ok {
		fmt.Printf("\nClosed: %s\n", reason)
	}
	return nil
}

func printWorkflows(wfs []*workflow.Descriptor) error {
	if jsonOutput {
		type wfView struct {
			ID            string   `json:"id"`
			Label         string   `json:"label"`
			Mode          string   `json:"mode"`
			InitialState  string   `json:"initial_state"`
			States        []string `json:"states"`
			FinalCutState string   `json:"final_cut_state,omitempty"`
			Aliases       []string `json:"aliases,omitempty"`
		}
		views := make([]wfView, len(wfs))
		for i, wf := range wfs {
			views[i] = wfView{
				ID:            wf.ID,
				Label:         wf.Label,
				Mode:          string(wf.Mode),
				InitialState:  wf.InitialState,
				States:        wf.States,
				FinalCutState: wf.FinalCutState,
				Aliases:       wf.LegacyAliases,
			}
		}
		return printJSON(views)
	}
	for _, wf := range wfs {
		marker := " "
		if wf.ID == workflow.DefaultProfileID {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, ui.IDStyle.Render(wf.ID), ui.MutedStyle.Render(wf.Label))
		fmt.Printf("    mode: %s  initial: %s", wf.Mode, wf.InitialState)
		if wf.FinalCutState != "" {
			fmt.Printf("  final cut: %s", wf.FinalCutState)
		}
		fmt.Println()
		if len(wf.LegacyAliases) > 0 {
			fmt.Printf("    aliases: %s\n", strings.Join(wf.LegacyAliases, ", "))
		}
	}
	return nil
}
