package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/store"
)

func newRunsCmd() *cobra.Command {
	var (
		limitFlag     int
		operationFlag string
		folderFlag    string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the cleanup audit log, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			audit, err := openAudit(cfg)
			if err != nil {
				return err
			}
			defer audit.Close()

			filter := store.RunFilter{Limit: limitFlag}
			if operationFlag != "" {
				filter.Operation = &operationFlag
			}
			if folderFlag != "" {
				filter.Folder = &folderFlag
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			runs, err := audit.GetRuns(ctx, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tOPERATION\tFOLDER\tSENDER\tOK\tFAILED\tERROR")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					humanize.Time(run.StartedAt), run.Operation, run.Folder,
					run.Sender, run.Succeeded, run.Failed, run.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Show at most this many runs")
	cmd.Flags().StringVar(&operationFlag, "operation", "", "Filter by operation name")
	cmd.Flags().StringVar(&folderFlag, "folder", "", "Filter by folder")

	return cmd
}
