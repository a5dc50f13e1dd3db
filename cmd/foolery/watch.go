package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/ui"
)

// fileWatcher is implemented by backends that can follow on-disk changes.
type fileWatcher interface {
	Watch(ctx context.Context) error
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the bead store and print the ready queue as it changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		inner := b
		if u, ok := b.(interface{ Unwrap() backend.Backend }); ok {
			inner = u.Unwrap()
		}
		if w, ok := inner.(fileWatcher); ok {
			if err := w.Watch(cmd.Context()); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		var last string
		for {
			beads, err := b.ListReady(cmd.Context(), backend.ListFilter{})
			if err != nil {
				return err
			}
			if snapshot := readySnapshot(beads); snapshot != last {
				last = snapshot
				fmt.Printf("%s ready: %d\n", ui.MutedStyle.Render(time.Now().Format("15:04:05")), len(beads))
				if err := printBeads(beads); err != nil {
					return err
				}
			}
			select {
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

// readySnapshot fingerprints the ready queue so the loop only reprints on
// change.
func readySnapshot(beads []*types.Bead) string {
	var sb strings.Builder
	for _, b := range beads {
		sb.WriteString(b.ID)
		sb.WriteByte('@')
		sb.WriteString(b.WorkflowState)
		sb.WriteByte(';')
	}
	return sb.String()
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "poll interval")
	rootCmd.AddCommand(watchCmd)
}
