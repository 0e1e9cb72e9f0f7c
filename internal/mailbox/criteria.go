package mailbox

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// Criteria is an opaque, protocol-safe search predicate. Criteria values
// are built only from validated inputs; no constructor accepts a raw
// string, which makes this the single chokepoint between caller data and
// search commands.
type Criteria struct {
	sc imap.SearchCriteria
}

// AllCriteria matches every message in the selected folder.
func AllCriteria() Criteria {
	return Criteria{}
}

// SenderCriteria matches messages whose From header carries the given
// validated address.
func SenderCriteria(addr Address) Criteria {
	return Criteria{sc: imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: addr.String()},
		},
	}}
}

// BeforeCriteria matches messages whose internal date is strictly before
// the cutoff.
func BeforeCriteria(cutoff time.Time) Criteria {
	return Criteria{sc: imap.SearchCriteria{Before: cutoff}}
}

// uidCriteria restricts a search to a captured UID set. Used internally by
// the mutator to detect UIDs that no longer exist.
func uidCriteria(set imap.UIDSet) Criteria {
	return Criteria{sc: imap.SearchCriteria{UID: []imap.UIDSet{set}}}
}

// search returns the underlying protocol criteria. Package-private:
// callers outside the engine never see or construct raw criteria.
func (c Criteria) search() *imap.SearchCriteria {
	sc := c.sc
	return &sc
}
