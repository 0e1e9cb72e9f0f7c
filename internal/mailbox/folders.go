package mailbox

import (
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/mailsweep/internal/model"
)

// Default candidate names for discovering the special folders across
// common providers.
var (
	defaultTrashCandidates = []string{
		"Trash",
		"[Gmail]/Bin",
		"[Gmail]/Trash",
		"[Yahoo]/Bin",
		"[Yahoo]/Trash",
		"Deleted Items",
	}
	defaultArchiveCandidates = []string{
		"Archive",
		"Archief",
	}
)

// ListFolders lists every folder with its current message count. A folder
// whose status cannot be read is reported with a zero count rather than
// failing the listing.
func (s *Session) ListFolders() ([]model.FolderInfo, error) {
	lists, err := s.listFolders()
	if err != nil {
		return nil, err
	}

	infos := make([]model.FolderInfo, 0, len(lists))
	for _, ld := range lists {
		info := model.FolderInfo{Name: ld.Mailbox}

		status, err := s.client.Status(ld.Mailbox, &imap.StatusOptions{NumMessages: true}).Wait()
		if err == nil && status != nil && status.NumMessages != nil {
			info.Messages = *status.NumMessages
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// TrashFolder returns the discovered trash folder name, resolving it on
// first use and caching it for the session's lifetime.
func (s *Session) TrashFolder() (string, error) {
	if s.trashFolder != "" {
		return s.trashFolder, nil
	}

	name, err := s.findFolder(s.trashCandidates)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", &ProtocolError{
			Op:      "list",
			Message: "could not find a trash folder",
		}
	}

	s.trashFolder = name
	return name, nil
}

// ArchiveFolder returns the discovered archive folder name, or empty when
// none of the candidates exists.
func (s *Session) ArchiveFolder() (string, error) {
	if s.archiveFolder != "" {
		return s.archiveFolder, nil
	}

	name, err := s.findFolder(s.archiveCandidates)
	if err != nil {
		return "", err
	}

	s.archiveFolder = name
	return name, nil
}

// EnsureArchiveFolder resolves the archive folder, creating the first
// candidate when none exists yet.
func (s *Session) EnsureArchiveFolder() (string, error) {
	name, err := s.ArchiveFolder()
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}

	name = s.archiveCandidates[0]
	if err := s.CreateFolder(name); err != nil {
		return "", err
	}

	s.archiveFolder = name
	return name, nil
}

// CreateFolder creates a folder with the given name.
func (s *Session) CreateFolder(name string) error {
	name, err := ValidateFolderName(name)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if err := s.client.Create(name, nil).Wait(); err != nil {
		return s.fail("create", "creating folder "+name, err)
	}
	return nil
}

// findFolder matches the candidate names against the server's folder
// list, comparing both full paths and final path segments.
func (s *Session) findFolder(candidates []string) (string, error) {
	lists, err := s.listFolders()
	if err != nil {
		return "", err
	}

	for _, ld := range lists {
		segment := ld.Mailbox
		if ld.Delim != 0 {
			if i := strings.LastIndex(ld.Mailbox, string(ld.Delim)); i >= 0 {
				segment = ld.Mailbox[i+1:]
			}
		}
		for _, cand := range candidates {
			if ld.Mailbox == cand || segment == cand {
				return ld.Mailbox, nil
			}
		}
	}

	return "", nil
}

// listFolders fetches the raw folder list.
func (s *Session) listFolders() ([]*imap.ListData, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	lists, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, s.fail("list", "listing folders", err)
	}

	return lists, nil
}
