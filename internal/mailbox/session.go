package mailbox

import (
	"fmt"
	"log"
	"time"
)

// SessionConfig holds everything needed to open one authenticated session.
type SessionConfig struct {
	// Host and Port locate the IMAP server. Port defaults to 993.
	Host string
	Port int

	// Address is the account address used as the login name.
	Address string

	// Secret is the account password or app password.
	Secret string

	// Timeout bounds the dial and is the default for login round trips.
	// Defaults to 30 seconds.
	Timeout time.Duration
}

type sessionState int

const (
	stateDisconnected sessionState = iota
	stateAuthenticated
	stateFolderSelected
)

// Session is an exclusive, single-connection handle on the mailbox. The
// protocol serializes commands on one connection, so a Session must never
// be shared across concurrent operations; each top-level operation opens
// its own and closes it on every exit path.
type Session struct {
	client imapClient
	state  sessionState
	folder string

	address string
	logger  *log.Logger

	scanBatch   int
	mutateBatch int

	trashCandidates   []string
	archiveCandidates []string
	trashFolder       string
	archiveFolder     string

	newClient clientFactory
}

// Option customizes session behavior.
type Option func(*Session)

// WithLogger overrides the logger used for scan warnings and close
// diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScanBatchSize caps how many messages one header fetch requests.
func WithScanBatchSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.scanBatch = n
		}
	}
}

// WithMutateBatchSize caps how many UIDs one copy/store/expunge round trip
// covers.
func WithMutateBatchSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.mutateBatch = n
		}
	}
}

// WithTrashCandidates overrides the folder names tried when discovering
// the trash folder.
func WithTrashCandidates(names []string) Option {
	return func(s *Session) {
		if len(names) > 0 {
			s.trashCandidates = names
		}
	}
}

// WithArchiveCandidates overrides the folder names tried when discovering
// the archive folder.
func WithArchiveCandidates(names []string) Option {
	return func(s *Session) {
		if len(names) > 0 {
			s.archiveCandidates = names
		}
	}
}

// withClientFactory injects a fake client in tests.
func withClientFactory(factory clientFactory) Option {
	return func(s *Session) {
		s.newClient = factory
	}
}

// Open dials the server over TLS, authenticates, and returns a session
// with no folder selected. A transient dial failure is retried once before
// surfacing a ConnectionError; authentication failures are never retried.
func Open(cfg SessionConfig, opts ...Option) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}

	s := &Session{
		address:           cfg.Address,
		logger:            log.Default(),
		scanBatch:         500,
		mutateBatch:       50,
		trashCandidates:   defaultTrashCandidates,
		archiveCandidates: defaultArchiveCandidates,
		newClient:         defaultClientFactory,
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := s.newClient(cfg.Host, cfg.Port, cfg.Timeout)
	if err != nil {
		// One retry on a transient dial failure.
		client, err = s.newClient(cfg.Host, cfg.Port, cfg.Timeout)
		if err != nil {
			return nil, &ConnectionError{
				Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
				Err:  err,
			}
		}
	}
	s.client = client

	if err := client.Login(cfg.Address, cfg.Secret).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, &AuthError{
			Address: cfg.Address,
			Message: err.Error(),
		}
	}

	s.state = stateAuthenticated
	return s, nil
}

// SelectFolder selects the named folder for subsequent scan and mutation
// commands. A missing folder surfaces as a ProtocolError and tears the
// session down.
func (s *Session) SelectFolder(name string) error {
	name, err := ValidateFolderName(name)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if _, err := s.client.Select(name, nil).Wait(); err != nil {
		return s.fail("select", fmt.Sprintf("selecting folder %q", name), err)
	}

	s.state = stateFolderSelected
	s.folder = name
	return nil
}

// Folder returns the currently selected folder, or empty when none is.
func (s *Session) Folder() string {
	if s.state != stateFolderSelected {
		return ""
	}
	return s.folder
}

// Close logs out and releases the connection. It is idempotent and safe to
// call on any session, including one whose open already failed.
func (s *Session) Close() error {
	if s == nil || s.client == nil || s.state == stateDisconnected {
		return nil
	}

	if err := s.client.Logout().Wait(); err != nil {
		s.logger.Printf("mailbox: logout: %v", err)
	}
	if err := s.client.Close(); err != nil {
		s.logger.Printf("mailbox: close: %v", err)
	}

	s.state = stateDisconnected
	s.folder = ""
	return nil
}

// ensureOpen guards every operation against running on a closed session.
func (s *Session) ensureOpen() error {
	if s == nil || s.client == nil || s.state == stateDisconnected {
		return &ProtocolError{Op: "session", Message: "session is closed"}
	}
	return nil
}

// ensureSelected guards operations that need a selected folder.
func (s *Session) ensureSelected() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if s.state != stateFolderSelected {
		return &ProtocolError{Op: "session", Message: "no folder selected"}
	}
	return nil
}

// fail releases the connection after an unexpected server response and
// returns the resulting ProtocolError. Partial batch failures do not go
// through here; only structural errors tear the session down.
func (s *Session) fail(op, msg string, err error) error {
	if s.client != nil {
		if cerr := s.client.Close(); cerr != nil {
			s.logger.Printf("mailbox: close after %s failure: %v", op, cerr)
		}
	}
	s.state = stateDisconnected
	s.folder = ""
	return &ProtocolError{Op: op, Message: msg, Err: err}
}
