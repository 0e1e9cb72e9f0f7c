package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailsweep/internal/credential"
	"github.com/nhle/mailsweep/internal/mailbox"
	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/store"
)

var (
	// Set via -ldflags at build time.
	version = "dev"
	commit  = ""
)

var configPathFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailsweep",
		Short: "Bulk mailbox cleanup over IMAP",
		Long: `mailsweep scans, groups, and cleans up a mailbox over IMAP.

It finds bulk senders, moves or deletes their mail in bulk, prunes old
messages by age, and keeps an audit log of every run. Credentials live in
the system keyring; the configuration holds no secrets.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	if commit != "" {
		rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
	} else {
		rootCmd.Version = version
	}

	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config",
		model.DefaultConfigPath(), "Path to the configuration file")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newFoldersCmd(),
		newSendersCmd(),
		newCleanCmd(),
		newPruneCmd(),
		newEmptyTrashCmd(),
		newSweepCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration from the --config path.
func loadConfig() (*model.AppConfig, error) {
	return model.LoadConfig(configPathFlag)
}

// openSession opens one authenticated session for the configured account,
// with the secret pulled from the keyring. The caller owns the session
// and must close it on every exit path.
func openSession(cfg *model.AppConfig) (*mailbox.Session, error) {
	if cfg.Account.Host == "" || cfg.Account.Address == "" {
		return nil, fmt.Errorf("no account configured; run 'mailsweep login' first")
	}

	secret, err := credential.Get(cfg.Account.Address)
	if err != nil {
		return nil, fmt.Errorf("no stored credential for %s; run 'mailsweep login': %w",
			cfg.Account.Address, err)
	}

	opts := []mailbox.Option{
		mailbox.WithScanBatchSize(cfg.ScanBatchSize),
		mailbox.WithMutateBatchSize(cfg.MutateBatchSize),
	}
	if len(cfg.Folders.TrashCandidates) > 0 {
		opts = append(opts, mailbox.WithTrashCandidates(cfg.Folders.TrashCandidates))
	}
	if len(cfg.Folders.ArchiveCandidates) > 0 {
		opts = append(opts, mailbox.WithArchiveCandidates(cfg.Folders.ArchiveCandidates))
	}

	return mailbox.Open(mailbox.SessionConfig{
		Host:    cfg.Account.Host,
		Port:    cfg.Account.Port,
		Address: cfg.Account.Address,
		Secret:  secret,
		Timeout: time.Duration(cfg.Account.TimeoutSec) * time.Second,
	}, opts...)
}

// openAudit opens the audit-log store at the configured path.
func openAudit(cfg *model.AppConfig) (store.Store, error) {
	path := cfg.AuditDBPath
	if path == "" {
		path = model.DefaultAuditDBPath()
	}
	return store.NewSQLiteStore(path)
}
