package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/mailbox"
)

func newSendersCmd() *cobra.Command {
	var (
		folderFlag     string
		topFlag        int
		maxBatchesFlag int
	)

	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Group messages by sender, busiest senders first",
		Long: `Senders scans the folder headers, groups messages by sender address,
and prints the groups by descending message count, with an unsubscribe
reference where one could be found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			groups, err := s.SenderStats(folderFlag, maxBatchesFlag)
			if err != nil {
				return err
			}

			sorted := mailbox.SortGroups(groups)
			if topFlag > 0 && len(sorted) > topFlag {
				sorted = sorted[:topFlag]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MESSAGES\tSENDER\tUNSUBSCRIBE")
			for _, g := range sorted {
				sender := g.Sender
				if sender == "" {
					sender = "(no sender)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					humanize.Comma(int64(g.Count)), sender, g.Unsubscribe)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&folderFlag, "folder", "INBOX", "Folder to scan")
	cmd.Flags().IntVar(&topFlag, "top", 0, "Show only the busiest N senders")
	cmd.Flags().IntVar(&maxBatchesFlag, "max-batches", 0,
		"Cap the number of fetch batches on very large folders")

	return cmd
}
