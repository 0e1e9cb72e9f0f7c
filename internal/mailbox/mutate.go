package mailbox

import (
	"github.com/emersion/go-imap/v2"

	"github.com/nhle/mailsweep/internal/model"
)

// DeleteBySet executes a bulk delete/move against a previously captured
// UID set. The set is consumed exactly as captured; it is never re-derived
// from a search. Destinations:
//
//   - trash: copy to the trash folder, mark deleted, expunge
//   - archive: copy to the archive folder (created if missing), mark
//     deleted, expunge
//   - permanent: mark deleted and expunge, no copy
//
// Work proceeds in bounded batches. A failing batch falls back to per-UID
// processing so every failure is attributed; UIDs that no longer exist on
// the server are reported failed with a "message not found" reason. The
// operation never aborts wholesale on a single UID failure.
func (s *Session) DeleteBySet(uids []imap.UID, dest model.Destination) (model.MutationResult, error) {
	var result model.MutationResult

	if err := s.ensureSelected(); err != nil {
		return result, err
	}
	if len(uids) == 0 {
		return result, nil
	}

	var copyTarget string
	switch dest {
	case model.DestinationTrash:
		t, err := s.TrashFolder()
		if err != nil {
			return result, err
		}
		copyTarget = t
	case model.DestinationArchive:
		a, err := s.EnsureArchiveFolder()
		if err != nil {
			return result, err
		}
		copyTarget = a
	case model.DestinationPermanent:
	default:
		return result, &ValidationError{
			Field:   "destination",
			Message: "unknown destination",
		}
	}

	for _, batch := range chunkUIDs(uids, s.mutateBatch) {
		existing, missing, err := s.existingUIDs(batch)
		if err != nil {
			return result, err
		}

		for _, uid := range missing {
			result.Failed = append(result.Failed, model.UIDFailure{
				UID:    uid,
				Reason: "message not found",
			})
		}
		if len(existing) == 0 {
			continue
		}

		if err := s.applyBatch(imap.UIDSetNum(existing...), copyTarget); err != nil {
			// Attribute failures individually instead of failing the batch.
			for _, uid := range existing {
				if err := s.applyBatch(imap.UIDSetNum(uid), copyTarget); err != nil {
					result.Failed = append(result.Failed, model.UIDFailure{
						UID:    uid,
						Reason: err.Error(),
					})
					continue
				}
				result.Succeeded = append(result.Succeeded, uid)
			}
			continue
		}

		result.Succeeded = append(result.Succeeded, existing...)
	}

	return result, nil
}

// applyBatch runs the copy/store/expunge sequence for one UID set.
func (s *Session) applyBatch(set imap.UIDSet, copyTarget string) error {
	if copyTarget != "" {
		if _, err := s.client.Copy(set, copyTarget).Wait(); err != nil {
			return err
		}
	}

	store := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := s.client.Store(set, store, nil).Close(); err != nil {
		return err
	}

	return s.client.UIDExpunge(set).Close()
}

// existingUIDs splits a captured batch into UIDs still present in the
// selected folder and UIDs the server no longer knows.
func (s *Session) existingUIDs(batch []imap.UID) (existing, missing []imap.UID, err error) {
	crit := uidCriteria(imap.UIDSetNum(batch...))

	data, err := s.client.UIDSearch(crit.search(), nil).Wait()
	if err != nil {
		return nil, nil, s.fail("search", "checking batch UIDs", err)
	}

	present := make(map[imap.UID]bool)
	for _, uid := range data.AllUIDs() {
		present[uid] = true
	}

	for _, uid := range batch {
		if present[uid] {
			existing = append(existing, uid)
		} else {
			missing = append(missing, uid)
		}
	}

	return existing, missing, nil
}
