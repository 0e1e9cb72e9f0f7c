package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AccountConfig holds the connection settings for the single mailbox
// account mailsweep operates on. The account secret is never stored here;
// it lives in the system keyring.
type AccountConfig struct {
	// Host is the IMAP server hostname.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the IMAP server port. Defaults to 993.
	Port int `mapstructure:"port" yaml:"port"`

	// Address is the account's email address, used both as login name and
	// as the keyring lookup key.
	Address string `mapstructure:"address" yaml:"address"`

	// TimeoutSec bounds connection and login attempts.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// FolderConfig overrides the candidate names used when discovering the
// trash and archive folders.
type FolderConfig struct {
	TrashCandidates   []string `mapstructure:"trash_candidates" yaml:"trash_candidates"`
	ArchiveCandidates []string `mapstructure:"archive_candidates" yaml:"archive_candidates"`
}

// PruneRule configures one folder for the background sweep runner.
type PruneRule struct {
	// Folder is the folder to prune.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// MaxAgeDays prunes messages older than this many days.
	MaxAgeDays int `mapstructure:"max_age_days" yaml:"max_age_days"`

	// Destination is "trash" or "archive".
	Destination string `mapstructure:"destination" yaml:"destination"`

	// IntervalSec is how often (in seconds) the sweep runner revisits this
	// rule. Defaults to 24 hours.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Account AccountConfig `mapstructure:"account" yaml:"account"`
	Folders FolderConfig  `mapstructure:"folders" yaml:"folders"`

	// ScanBatchSize caps how many messages a single header fetch requests.
	ScanBatchSize int `mapstructure:"scan_batch_size" yaml:"scan_batch_size"`

	// MutateBatchSize caps how many UIDs a single copy/store/expunge
	// round trip covers.
	MutateBatchSize int `mapstructure:"mutate_batch_size" yaml:"mutate_batch_size"`

	// AuditDBPath is where the cleanup-run history database lives.
	AuditDBPath string `mapstructure:"audit_db_path" yaml:"audit_db_path"`

	// PruneRules drive the background sweep runner.
	PruneRules []PruneRule `mapstructure:"prune_rules" yaml:"prune_rules"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailsweep/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailsweep", "config.yaml")
}

// DefaultAuditDBPath returns the default location of the audit database.
func DefaultAuditDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "mailsweep.db")
	}
	return filepath.Join(home, ".config", "mailsweep", "mailsweep.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Account: AccountConfig{
			Port:       993,
			TimeoutSec: 30,
		},
		ScanBatchSize:   500,
		MutateBatchSize: 50,
		AuditDBPath:     DefaultAuditDBPath(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("account.port", 993)
	v.SetDefault("account.timeout_sec", 30)
	v.SetDefault("scan_batch_size", 500)
	v.SetDefault("mutate_batch_size", 50)
	v.SetDefault("audit_db_path", DefaultAuditDBPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply defaults for each prune rule entry.
	for i := range cfg.PruneRules {
		if cfg.PruneRules[i].IntervalSec == 0 {
			cfg.PruneRules[i].IntervalSec = 24 * 60 * 60
		}
		if cfg.PruneRules[i].Destination == "" {
			cfg.PruneRules[i].Destination = string(DestinationTrash)
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("account", cfg.Account)
	v.Set("folders", cfg.Folders)
	v.Set("scan_batch_size", cfg.ScanBatchSize)
	v.Set("mutate_batch_size", cfg.MutateBatchSize)
	v.Set("audit_db_path", cfg.AuditDBPath)
	v.Set("prune_rules", cfg.PruneRules)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
