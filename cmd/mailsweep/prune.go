package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/model"
)

func newPruneCmd() *cobra.Command {
	var (
		daysFlag int
		destFlag string
	)

	cmd := &cobra.Command{
		Use:   "prune <folder>",
		Short: "Move messages older than a cutoff out of a folder",
		Long: `Prune moves every message in the folder older than --days to the trash
or archive folder. Running it again on an unchanged mailbox is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, ok := model.ParseDestination(destFlag)
			if !ok || dest == model.DestinationPermanent {
				return fmt.Errorf("invalid destination %q: must be trash or archive", destFlag)
			}
			if daysFlag <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			started := time.Now()
			result, runErr := s.Prune(model.PruneCriteria{
				Folder:      args[0],
				Before:      started.AddDate(0, 0, -daysFlag),
				Destination: dest,
			})

			recordOutcome(cfg, model.CleanupRun{
				Operation:  model.OperationPrune,
				Folder:     args[0],
				Succeeded:  len(result.Succeeded),
				Failed:     len(result.Failed),
				StartedAt:  started,
				FinishedAt: time.Now(),
			}, runErr)

			if runErr != nil {
				return runErr
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&daysFlag, "days", 90, "Move messages older than this many days")
	cmd.Flags().StringVar(&destFlag, "to", "trash", "Destination: trash or archive")

	return cmd
}
