package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/mailsweep/internal/credential"
	"github.com/nhle/mailsweep/internal/mailbox"
	"github.com/nhle/mailsweep/internal/model"
)

func newLoginCmd() *cobra.Command {
	var (
		hostFlag    string
		portFlag    int
		addressFlag string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store account settings and the app password",
		Long: `Login validates the account address, verifies the credentials against
the server, stores the app password in the system keyring, and writes the
account settings to the configuration file. The password itself is never
written to disk outside the keyring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if hostFlag != "" {
				cfg.Account.Host = hostFlag
			}
			if portFlag != 0 {
				cfg.Account.Port = portFlag
			}
			if addressFlag != "" {
				cfg.Account.Address = addressFlag
			}

			reader := bufio.NewReader(os.Stdin)
			if cfg.Account.Host == "" {
				cfg.Account.Host, err = promptLine(reader, "IMAP server: ")
				if err != nil {
					return err
				}
			}
			if cfg.Account.Address == "" {
				cfg.Account.Address, err = promptLine(reader, "Email address: ")
				if err != nil {
					return err
				}
			}

			addr, err := mailbox.ValidateAddress(cfg.Account.Address)
			if err != nil {
				return err
			}
			cfg.Account.Address = addr.String()

			secret, err := promptSecret("App password: ")
			if err != nil {
				return err
			}
			secret, err = mailbox.ValidateSecret(secret)
			if err != nil {
				return err
			}

			// Verify before storing anything.
			s, err := mailbox.Open(sessionConfigFor(cfg, secret))
			if err != nil {
				return fmt.Errorf("verifying credentials: %w", err)
			}
			s.Close()

			if err := credential.Set(cfg.Account.Address, secret); err != nil {
				return err
			}
			if err := model.SaveConfig(configPathFlag, cfg); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s on %s.\n", cfg.Account.Address, cfg.Account.Host)
			return nil
		},
	}

	cmd.Flags().StringVar(&hostFlag, "host", "", "IMAP server hostname")
	cmd.Flags().IntVar(&portFlag, "port", 0, "IMAP server port (default 993)")
	cmd.Flags().StringVar(&addressFlag, "address", "", "Account email address")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored app password from the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Account.Address == "" {
				return fmt.Errorf("no account configured")
			}

			if err := credential.Delete(cfg.Account.Address); err != nil {
				return err
			}

			fmt.Printf("Removed stored credential for %s.\n", cfg.Account.Address)
			return nil
		},
	}
}

func sessionConfigFor(cfg *model.AppConfig, secret string) mailbox.SessionConfig {
	return mailbox.SessionConfig{
		Host:    cfg.Account.Host,
		Port:    cfg.Account.Port,
		Address: cfg.Account.Address,
		Secret:  secret,
	}
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
