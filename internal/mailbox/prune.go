package mailbox

import (
	"github.com/emersion/go-imap/v2"

	"github.com/nhle/mailsweep/internal/model"
)

// Prune moves every message in the criteria's folder whose internal date
// is strictly before the cutoff to the criteria's destination. Running it
// again with the same cutoff on an unchanged mailbox yields an empty
// result, since moved messages no longer match the folder and criterion.
func (s *Session) Prune(crit model.PruneCriteria) (model.MutationResult, error) {
	var result model.MutationResult

	if crit.Before.IsZero() {
		return result, &ValidationError{Field: "date", Message: "cutoff date is unset"}
	}
	if crit.Destination != model.DestinationTrash && crit.Destination != model.DestinationArchive {
		return result, &ValidationError{
			Field:   "destination",
			Message: "prune destination must be trash or archive",
		}
	}

	if err := s.SelectFolder(crit.Folder); err != nil {
		return result, err
	}

	summaries, err := s.Scan(BeforeCriteria(crit.Before))
	if err != nil {
		return result, err
	}
	if len(summaries) == 0 {
		return result, nil
	}

	return s.DeleteBySet(summaryUIDs(summaries), crit.Destination)
}

// CleanSender moves every message in the folder from the validated sender
// to the trash folder. The UID set is captured by one scan and consumed
// as-is.
func (s *Session) CleanSender(folder string, addr Address) (model.MutationResult, error) {
	var result model.MutationResult

	if addr.IsZero() {
		return result, &ValidationError{Field: "address", Message: "empty address"}
	}

	if err := s.SelectFolder(folder); err != nil {
		return result, err
	}

	summaries, err := s.Scan(SenderCriteria(addr))
	if err != nil {
		return result, err
	}
	if len(summaries) == 0 {
		return result, nil
	}

	return s.DeleteBySet(summaryUIDs(summaries), model.DestinationTrash)
}

// EmptyTrash permanently deletes every message in the trash folder.
func (s *Session) EmptyTrash() (model.MutationResult, error) {
	var result model.MutationResult

	trash, err := s.TrashFolder()
	if err != nil {
		return result, err
	}

	if err := s.SelectFolder(trash); err != nil {
		return result, err
	}

	summaries, err := s.Scan(AllCriteria())
	if err != nil {
		return result, err
	}
	if len(summaries) == 0 {
		return result, nil
	}

	return s.DeleteBySet(summaryUIDs(summaries), model.DestinationPermanent)
}

// summaryUIDs captures the UID snapshot of a scan result.
func summaryUIDs(summaries []model.MessageSummary) []imap.UID {
	uids := make([]imap.UID, 0, len(summaries))
	for _, sum := range summaries {
		uids = append(uids, sum.UID)
	}
	return uids
}
