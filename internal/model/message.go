package model

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// Destination identifies where messages removed from a folder end up.
type Destination string

const (
	// DestinationTrash copies messages to the trash folder before
	// expunging them from the source folder.
	DestinationTrash Destination = "trash"

	// DestinationArchive copies messages to the archive folder and leaves
	// the originals marked for removal from the source folder.
	DestinationArchive Destination = "archive"

	// DestinationPermanent expunges messages directly, with no copy.
	DestinationPermanent Destination = "permanent"
)

// ParseDestination maps a user-supplied destination name to a Destination.
func ParseDestination(s string) (Destination, bool) {
	switch Destination(s) {
	case DestinationTrash, DestinationArchive, DestinationPermanent:
		return Destination(s), true
	default:
		return "", false
	}
}

// MessageSummary is the lightweight, header-only view of a single message
// captured during a scan. It is immutable once captured; mutation
// operations consume the UID, never re-derive it.
type MessageSummary struct {
	// UID is the message identifier, stable within its folder until the
	// message is expunged.
	UID imap.UID

	// Sender is the normalized (lowercased) address of the first From
	// mailbox, or empty when the envelope carried none.
	Sender string

	// Subject is the raw decoded subject line.
	Subject string

	// Date is the server's internal date for the message.
	Date time.Time

	// Size is the RFC822 size in bytes as reported by the server.
	Size int64

	// ListUnsubscribe holds the raw List-Unsubscribe header value when the
	// scan captured one.
	ListUnsubscribe string

	// Lossy is set when header text could not be decoded exactly and a
	// best-effort replacement decoding was used instead.
	Lossy bool
}

// SenderGroup aggregates the scanned messages of a single sender.
// The UID set is a snapshot taken at scan time.
type SenderGroup struct {
	// Sender is the normalized sender address keying this group.
	Sender string

	// UIDs are the member messages in scan (UID) order.
	UIDs []imap.UID

	// Count is the number of member messages.
	Count int

	// Unsubscribe is the first unsubscribe reference extracted from any
	// member message, or empty when none was found.
	Unsubscribe string
}

// UIDFailure records why a single UID could not be mutated.
type UIDFailure struct {
	UID    imap.UID
	Reason string
}

// MutationResult reports the outcome of a bulk mutation. A partially
// failed run still carries every UID in exactly one of the two sets.
type MutationResult struct {
	Succeeded []imap.UID
	Failed    []UIDFailure
}

// Total is the number of UIDs the mutation attempted.
func (r MutationResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// PruneCriteria describes an age-based prune of a single folder.
type PruneCriteria struct {
	// Folder is the name of the folder to prune.
	Folder string

	// Before is the exclusive upper bound: messages whose internal date is
	// strictly before it qualify.
	Before time.Time

	// Destination is where qualifying messages are moved. Only
	// DestinationTrash and DestinationArchive are valid here.
	Destination Destination
}

// FolderInfo summarizes a single folder for display.
type FolderInfo struct {
	// Name is the full folder path as reported by the server.
	Name string

	// Messages is the number of messages currently in the folder.
	Messages uint32
}
