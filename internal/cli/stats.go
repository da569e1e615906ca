package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/eventmerge/internal/stats"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the event store by community, category and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := loadStore(root)
			if err != nil {
				return err
			}
			summary := stats.Compute(events, time.Now())
			if err := WriteStats(cmd.OutOrStdout(), summary, root.outputFormat()); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}
}
