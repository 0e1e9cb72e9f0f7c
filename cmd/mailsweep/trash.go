package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/model"
)

func newEmptyTrashCmd() *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "empty-trash",
		Short: "Permanently delete everything in the trash folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yesFlag {
				fmt.Print("Permanently delete everything in the trash folder? [y/N] ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading confirmation: %w", err)
				}
				if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
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
			result, runErr := s.EmptyTrash()

			recordOutcome(cfg, model.CleanupRun{
				Operation:  model.OperationEmptyTrash,
				Folder:     s.Folder(),
				Succeeded:  len(result.Succeeded),
				Failed:     len(result.Failed),
				StartedAt:  started,
				FinishedAt: time.Now(),
			}, runErr)

			if runErr != nil {
				return runErr
			}

			fmt.Printf("%d permanently deleted, %d failed.\n",
				len(result.Succeeded), len(result.Failed))
			for _, f := range result.Failed {
				fmt.Printf("  UID %d: %s\n", f.UID, f.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
