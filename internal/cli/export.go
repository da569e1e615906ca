package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/eventmerge/internal/calendar"
	"github.com/pfrederiksen/eventmerge/internal/logger"
)

type exportOptions struct {
	filterOptions
	output string
	name   string
}

func newExportICSCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export stored events as an iCalendar feed",
		Example: `  eventmerge export-ics --upcoming --output events.ics
  eventmerge export-ics --community com_sidequest --name "Sidequest"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportICS(cmd, root, opts)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&opts.name, "name", "Community Events", "Calendar name")

	return cmd
}

func runExportICS(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	now := time.Now()
	f, err := opts.build(now)
	if err != nil {
		return err
	}

	events, err := loadStore(root)
	if err != nil {
		return err
	}
	selected := f.Apply(events)
	sortEvents(selected, SortByDate)

	ics := calendar.GenerateICS(selected, opts.name, now)

	if opts.output == "" || opts.output == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), ics)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(ics), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	root.log.Info("Exported calendar", logger.Fields{"path": opts.output, "events": len(selected)})
	return nil
}
