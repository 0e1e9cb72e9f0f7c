package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var onceFlag bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the configured prune rules",
		Long: `Sweep executes the prune rules from the configuration file. With --once
every rule runs a single time; otherwise the rules keep running on their
configured intervals until interrupted. Each run opens its own session
and is recorded in the audit log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.PruneRules) == 0 {
				return fmt.Errorf("no prune rules configured")
			}

			audit, err := openAudit(cfg)
			if err != nil {
				return err
			}
			defer audit.Close()

			runner := sweep.New(audit, func(crit model.PruneCriteria) (model.MutationResult, error) {
				s, err := openSession(cfg)
				if err != nil {
					return model.MutationResult{}, err
				}
				defer s.Close()
				return s.Prune(crit)
			})
			for _, rule := range cfg.PruneRules {
				runner.AddRule(rule)
			}

			if onceFlag {
				failures := 0
				for _, rule := range cfg.PruneRules {
					res := runner.RunOnce(rule)
					if res.Err != nil {
						failures++
						fmt.Printf("%s: %v\n", rule.Folder, res.Err)
						continue
					}
					fmt.Printf("%s: %d moved, %d failed\n", rule.Folder,
						len(res.Result.Succeeded), len(res.Result.Failed))
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d rules failed", failures, len(cfg.PruneRules))
				}
				return nil
			}

			runner.Start()
			defer runner.Stop()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case res := <-runner.Results():
					if res.Err != nil {
						fmt.Printf("%s: %v\n", res.Rule.Folder, res.Err)
						continue
					}
					fmt.Printf("%s: %d moved, %d failed\n", res.Rule.Folder,
						len(res.Result.Succeeded), len(res.Result.Failed))
				case <-sigCh:
					fmt.Println("Stopping.")
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&onceFlag, "once", false, "Run every rule once and exit")

	return cmd
}
