package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/configfile"
)

var initBackendFlag string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .foolery directory and config in the current project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir := filepath.Join(cwd, configfile.DirName)

		if existing, err := configfile.Load(dir); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("%s already initialized", dir)
		}

		c := configfile.DefaultConfig()
		if initBackendFlag != "" {
			c.Backend = initBackendFlag
		}
		if actorFlag != "" {
			c.Actor = actorFlag
		}
		if err := c.Save(dir); err != nil {
			return err
		}
		fmt.Printf("initialized %s (backend: %s)\n", dir, c.Backend)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the foolery version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("foolery", Version)
	},
}

func init() {
	initCmd.Flags().StringVar(&initBackendFlag, "backend", "", "backend adapter to configure (jsonl|bd|stub)")
	rootCmd.AddCommand(initCmd, versionCmd)
}
