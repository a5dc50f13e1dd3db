package main

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a bead's full details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		bead, err := b.GetBead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printBead(bead)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search bead titles, descriptions, and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "SearchBeads", b.Capabilities().CanSearch); err != nil {
			return err
		}
		beads, err := b.SearchBeads(cmd.Context(), args[0], buildListFilter(cmd))
		if err != nil {
			return err
		}
		return printBeads(beads)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <expression>",
	Short: "Filter beads with field:value expressions",
	Long: `Query expressions are whitespace-separated field:value terms with AND
semantics, e.g. "status:open type:task" or "profile:semiauto human:true".
Unknown fields match everything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		if err := gateCap(b, "QueryBeads", b.Capabilities().CanQuery); err != nil {
			return err
		}
		beads, err := b.QueryBeads(cmd.Context(), args[0], buildListFilter(cmd))
		if err != nil {
			return err
		}
		return printBeads(beads)
	},
}

func init() {
	addListFlags(searchCmd)
	addListFlags(queryCmd)
	rootCmd.AddCommand(showCmd, searchCmd, queryCmd)
}
