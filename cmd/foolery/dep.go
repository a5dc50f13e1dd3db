package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/ui"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependency edges between beads",
}

var depAddCmd = &cobra.Command{
	Use:   "add <blocker-id> <blocked-id>",
	Short: "Record that one bead blocks another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "AddDependency", b.Capabilities().CanManageDependencies); err != nil {
			return err
		}
		if err := b.AddDependency(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s blocks %s\n", args[0], args[1])
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <blocker-id> <blocked-id>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "RemoveDependency", b.Capabilities().CanManageDependencies); err != nil {
			return err
		}
		if err := b.RemoveDependency(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s no longer blocks %s\n", args[0], args[1])
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List edges touching a bead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		deps, err := b.ListDependencies(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(deps)
		}
		if len(deps) == 0 {
			fmt.Println(ui.MutedStyle.Render("no dependencies"))
			return nil
		}
		for _, d := range deps {
			fmt.Printf("%s %s %s\n", d.Source, ui.MutedStyle.Render("blocks"), d.Target)
		}
		return nil
	},
}

func init() {
	depCmd.AddCommand(depAddCmd, depRemoveCmd, depListCmd)
	rootCmd.AddCommand(depCmd)
}
