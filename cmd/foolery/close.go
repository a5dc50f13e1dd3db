package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/ui"
)

var closeReason string

var closeCmd = &cobra.Command{
	Use:   "close <id>...",
	Short: "Close beads",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "CloseBead", b.Capabilities().CanClose); err != nil {
			return err
		}
		for _, id := range args {
			bead, err := b.CloseBead(cmd.Context(), id, backend.CloseOptions{Reason: closeReason})
			if err != nil {
				return fmt.Errorf("closing %s: %w", id, err)
			}
			if !jsonOutput {
				fmt.Printf("%s %s closed\n", ui.IconDone, bead.ID)
				continue
			}
			if err := printJSON(bead); err != nil {
				return err
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete beads permanently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "DeleteBead", b.Capabilities().CanDelete); err != nil {
			return err
		}
		for _, id := range args {
			if err := b.DeleteBead(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Printf("deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	closeCmd.Flags().StringVar(&closeReason, "reason", "", "why the bead is being closed")
	rootCmd.AddCommand(closeCmd, deleteCmd)
}
