package mailbox

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsweep/internal/model"
)

func TestDeleteBySetToTrash(t *testing.T) {
	client := newFakeClient()
	client.addFolder("Trash")
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	var uids []imap.UID
	for i := 0; i < 5; i++ {
		uids = append(uids, client.addMessage("INBOX", fakeMessage{
			sender: "news@example.com",
			date:   base,
		}))
	}
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet(uids, model.DestinationTrash)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 5)
	require.Empty(t, result.Failed)

	require.Empty(t, client.folderUIDs("INBOX"))
	require.Len(t, client.folderUIDs("Trash"), 5)
}

func TestDeleteBySetPermanentSkipsCopy(t *testing.T) {
	client := newFakeClient()
	uid := client.addMessage("INBOX", fakeMessage{sender: "a@example.com"})
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet([]imap.UID{uid}, model.DestinationPermanent)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 1)

	require.Equal(t, 0, client.copyCalls)
	require.Equal(t, 1, client.storeCalls)
	require.Equal(t, 1, client.expungeCalls)
	require.Empty(t, client.folderUIDs("INBOX"))
}

func TestDeleteBySetReportsMissingUIDs(t *testing.T) {
	client := newFakeClient()
	client.addFolder("Trash")
	var uids []imap.UID
	for i := 0; i < 9; i++ {
		uids = append(uids, client.addMessage("INBOX", fakeMessage{sender: "a@example.com"}))
	}
	uids = append(uids, imap.UID(9999))
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet(uids, model.DestinationTrash)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 9)
	require.Len(t, result.Failed, 1)
	require.Equal(t, imap.UID(9999), result.Failed[0].UID)
	require.Equal(t, "message not found", result.Failed[0].Reason)
	require.Equal(t, 10, result.Total())
}

func TestDeleteBySetFallsBackPerUID(t *testing.T) {
	client := newFakeClient()
	client.addFolder("Trash")
	var uids []imap.UID
	for i := 0; i < 3; i++ {
		uids = append(uids, client.addMessage("INBOX", fakeMessage{sender: "a@example.com"}))
	}
	client.copyFailUIDs = map[imap.UID]bool{uids[1]: true}
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet(uids, model.DestinationTrash)
	require.NoError(t, err)

	require.Equal(t, []imap.UID{uids[0], uids[2]}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, uids[1], result.Failed[0].UID)
	require.NotEmpty(t, result.Failed[0].Reason)

	// The poisoned message stays in place; the others moved.
	require.Equal(t, []imap.UID{uids[1]}, client.folderUIDs("INBOX"))
	require.Len(t, client.folderUIDs("Trash"), 2)
}

func TestDeleteBySetHonorsBatchSize(t *testing.T) {
	client := newFakeClient()
	client.addFolder("Trash")
	var uids []imap.UID
	for i := 0; i < 5; i++ {
		uids = append(uids, client.addMessage("INBOX", fakeMessage{sender: "a@example.com"}))
	}
	s := openTestSession(t, client, WithMutateBatchSize(2))
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet(uids, model.DestinationTrash)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 5)
	require.Equal(t, 3, client.expungeCalls)
}

func TestDeleteBySetEmptySet(t *testing.T) {
	client := newFakeClient()
	client.addFolder("INBOX")
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet(nil, model.DestinationTrash)
	require.NoError(t, err)
	require.Zero(t, result.Total())
	require.Equal(t, 0, client.copyCalls)
	require.Equal(t, 0, client.storeCalls)
}

func TestDeleteBySetRejectsUnknownDestination(t *testing.T) {
	client := newFakeClient()
	uid := client.addMessage("INBOX", fakeMessage{sender: "a@example.com"})
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	_, err := s.DeleteBySet([]imap.UID{uid}, model.Destination("shred"))
	require.Error(t, err)
	require.True(t, IsValidationError(err))
}

func TestDeleteBySetToArchiveCreatesFolder(t *testing.T) {
	client := newFakeClient()
	uid := client.addMessage("INBOX", fakeMessage{sender: "a@example.com"})
	s := openTestSession(t, client)
	defer s.Close()

	require.NoError(t, s.SelectFolder("INBOX"))
	result, err := s.DeleteBySet([]imap.UID{uid}, model.DestinationArchive)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 1)

	require.Empty(t, client.folderUIDs("INBOX"))
	require.Len(t, client.folderUIDs("Archive"), 1)
}
