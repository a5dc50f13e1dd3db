package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render agent prompts for a bead",
}

var promptTakeCmd = &cobra.Command{
	Use:   "take <id>",
	Short: "Render the prompt for an agent claiming the bead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderPrompt(cmd, args[0], true)
	},
}

var promptPollCmd = &cobra.Command{
	Use:   "poll <id>",
	Short: "Render the status-check prompt for the bead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderPrompt(cmd, args[0], false)
	},
}

func renderPrompt(cmd *cobra.Command, id string, take bool) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var prompt string
	if take {
		prompt, err = b.BuildTakePrompt(cmd.Context(), id)
	} else {
		prompt, err = b.BuildPollPrompt(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]string{"id": id, "prompt": prompt})
	}
	fmt.Print(prompt)
	return nil
}

func init() {
	promptCmd.AddCommand(promptTakeCmd, promptPollCmd)
	rootCmd.AddCommand(promptCmd)
}
