package main

import (
	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

var listFlags struct {
	status   string
	beadType string
	priority int
	assignee string
	parent   string
	labels   []string
	human    bool
	limit    int
}

func buildListFilter(cmd *cobra.Command) backend.ListFilter {
	var f backend.ListFilter
	if cmd.Flags().Changed("status") {
		s := types.Status(listFlags.status)
		f.Status = &s
	}
	if cmd.Flags().Changed("type") {
		bt := types.BeadType(listFlags.beadType)
		f.Type = &bt
	}
	if cmd.Flags().Changed("priority") {
		p := listFlags.priority
		f.Priority = &p
	}
	if cmd.Flags().Changed("assignee") {
		a := listFlags.assignee
		f.Assignee = &a
	}
	if cmd.Flags().Changed("parent") {
		p := listFlags.parent
		f.Parent = &p
	}
	if cmd.Flags().Changed("human") {
		h := listFlags.human
		f.RequiresHumanAction = &h
	}
	f.Labels = listFlags.labels
	f.Limit = listFlags.limit
	return f
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&listFlags.status, "status", "", "filter by status (open|in_progress|blocked|deferred|closed)")
	cmd.Flags().StringVarP(&listFlags.beadType, "type", "t", "", "filter by bead type")
	cmd.Flags().IntVarP(&listFlags.priority, "priority", "p", 0, "filter by priority (0-4)")
	cmd.Flags().StringVar(&listFlags.assignee, "assignee", "", "filter by assignee")
	cmd.Flags().StringVar(&listFlags.parent, "parent", "", "filter by parent bead id")
	cmd.Flags().StringSliceVarP(&listFlags.labels, "label", "l", nil, "filter by label (repeatable, AND)")
	cmd.Flags().BoolVar(&listFlags.human, "human", false, "filter by whether a human must act next")
	cmd.Flags().IntVar(&listFlags.limit, "limit", 0, "maximum results (0 = all)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List beads",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		beads, err := b.ListBeads(cmd.Context(), buildListFilter(cmd))
		if err != nil {
			return err
		}
		return printBeads(beads)
	},
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List beads an agent can claim right now",
	Long: `Ready beads sit in an agent-owned queue state with no open blockers.
Human-gated review queues never appear here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "ListReady", b.Capabilities().CanListReady); err != nil {
			return err
		}
		beads, err := b.ListReady(cmd.Context(), buildListFilter(cmd))
		if err != nil {
			return err
		}
		return printBeads(beads)
	},
}

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List workflow profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		wfs, err := b.ListWorkflows(cmd.Context())
		if err != nil {
			return err
		}
		// Stable order: default profile first, then by id.
		workflow.SortDescriptors(wfs)
		return printWorkflows(wfs)
	},
}

func init() {
	addListFlags(listCmd)
	addListFlags(readyCmd)
	rootCmd.AddCommand(listCmd, readyCmd, workflowsCmd)
}
