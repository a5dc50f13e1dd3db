package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/types"
)

var createFlags struct {
	description string
	acceptance  string
	notes       string
	beadType    string
	priority    int
	labels      []string
	assignee    string
	owner       string
	parent      string
	profile     string
	estimate    int
	meta        []string
}

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a bead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "CreateBead", b.Capabilities().CanCreate); err != nil {
			return err
		}

		req := backend.CreateRequest{
			Title:              args[0],
			Description:        createFlags.description,
			AcceptanceCriteria: createFlags.acceptance,
			Notes:              createFlags.notes,
			Type:               types.BeadType(createFlags.beadType),
			Labels:             createFlags.labels,
			Assignee:           createFlags.assignee,
			Owner:              createFlags.owner,
			Parent:             createFlags.parent,
			ProfileID:          createFlags.profile,
		}
		if cmd.Flags().Changed("priority") {
			p := createFlags.priority
			req.Priority = &p
		}
		if cmd.Flags().Changed("estimate") {
			e := createFlags.estimate
			req.EstimatedMinutes = &e
		}
		if len(createFlags.meta) > 0 {
			req.Metadata, err = parseMeta(createFlags.meta)
			if err != nil {
				return err
			}
		}

		bead, err := b.CreateBead(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printBead(bead)
	},
}

func parseMeta(pairs []string) (map[string]string, error) {
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", pair)
		}
		meta[k] = v
	}
	return meta, nil
}

func init() {
	createCmd.Flags().StringVarP(&createFlags.description, "description", "d", "", "bead description")
	createCmd.Flags().StringVar(&createFlags.acceptance, "acceptance", "", "acceptance criteria")
	createCmd.Flags().StringVar(&createFlags.notes, "notes", "", "free-form notes")
	createCmd.Flags().StringVarP(&createFlags.beadType, "type", "t", "task", "bead type (bug|feature|task|epic|chore)")
	createCmd.Flags().IntVarP(&createFlags.priority, "priority", "p", 2, "priority (0=critical .. 4)")
	createCmd.Flags().StringSliceVarP(&createFlags.labels, "labels", "l", nil, "labels (comma-separated)")
	createCmd.Flags().StringVar(&createFlags.assignee, "assignee", "", "assignee")
	createCmd.Flags().StringVar(&createFlags.owner, "owner", "", "owner")
	createCmd.Flags().StringVar(&createFlags.parent, "parent", "", "parent bead id")
	createCmd.Flags().StringVar(&createFlags.profile, "profile", "", "workflow profile (autopilot|autopilot-express|semiauto|semiauto-express)")
	createCmd.Flags().IntVar(&createFlags.estimate, "estimate", 0, "estimated minutes")
	createCmd.Flags().StringSliceVar(&createFlags.meta, "meta", nil, "metadata key=value (repeatable)")
	rootCmd.AddCommand(createCmd)
}
