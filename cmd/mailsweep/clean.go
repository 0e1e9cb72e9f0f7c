package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/mailbox"
	"github.com/nhle/mailsweep/internal/model"
)

func newCleanCmd() *cobra.Command {
	var folderFlag string

	cmd := &cobra.Command{
		Use:   "clean <address>",
		Short: "Move every message from a sender to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := mailbox.ValidateAddress(args[0])
			if err != nil {
				return err
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
			result, runErr := s.CleanSender(folderFlag, addr)

			recordOutcome(cfg, model.CleanupRun{
				Operation:  model.OperationCleanSender,
				Folder:     folderFlag,
				Sender:     addr.String(),
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

	cmd.Flags().StringVar(&folderFlag, "folder", "INBOX", "Folder to clean")

	return cmd
}

// recordOutcome writes one audit-log entry. Audit failures are reported
// but never mask the operation's own outcome.
func recordOutcome(cfg *model.AppConfig, run model.CleanupRun, runErr error) {
	if runErr != nil {
		run.Error = runErr.Error()
	}

	audit, err := openAudit(cfg)
	if err != nil {
		fmt.Printf("warning: audit log unavailable: %v\n", err)
		return
	}
	defer audit.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := audit.RecordRun(ctx, run); err != nil {
		fmt.Printf("warning: recording run: %v\n", err)
	}
}

func printResult(result model.MutationResult) {
	fmt.Printf("%d moved or deleted, %d failed.\n",
		len(result.Succeeded), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Printf("  UID %d: %s\n", f.UID, f.Reason)
	}
}
