package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/timeparsing"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// metadataDeferUntil records when a deferred bead should resurface.
const metadataDeferUntil = "defer_until"

var deferCmd = &cobra.Command{
	Use:   "defer <id> <when>",
	Short: "Park a bead until later",
	Long: `Defer moves a bead to the deferred state and records when it should
resurface. <when> accepts compact durations (+6h, +2d, +1w), natural
language ("tomorrow", "next friday"), or absolute timestamps (2026-12-01).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		until, err := timeparsing.Parse(args[1], time.Now())
		if err != nil {
			return err
		}

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "UpdateBead", b.Capabilities().CanUpdate); err != nil {
			return err
		}
		state := workflow.StateDeferred
		bead, err := b.UpdateBead(cmd.Context(), args[0], backend.UpdateRequest{
			State:    &state,
			Metadata: map[string]string{metadataDeferUntil: until.UTC().Format(time.RFC3339)},
		})
		if err != nil {
			return err
		}
		return printBead(bead)
	},
}

func init() {
	rootCmd.AddCommand(deferCmd)
}
