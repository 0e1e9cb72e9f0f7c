package mailbox

import (
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// fakeMessage is one message held by the in-memory server.
type fakeMessage struct {
	uid         imap.UID
	sender      string
	subject     string
	date        time.Time
	size        int64
	unsubHeader string
	raw         []byte
	noEnvelope  bool
	deleted     bool
}

// fakeFolder holds a folder's messages and its UID counter.
type fakeFolder struct {
	messages []*fakeMessage
	nextUID  imap.UID
}

// fakeClient is an in-memory imapClient. It models folders well enough to
// exercise search, fetch, copy, store, and expunge end to end.
type fakeClient struct {
	folders  map[string]*fakeFolder
	selected string

	loginErr   error
	selectErr  error
	searchErr  error
	fetchErr   error
	copyErr    error
	storeErr   error
	expungeErr error
	createErr  error
	listErr    error

	// copyFailUIDs poisons COPY for sets containing these UIDs, to
	// exercise the per-UID fallback path.
	copyFailUIDs map[imap.UID]bool

	loginCalls   int
	logoutCalls  int
	closeCalls   int
	listCalls    int
	searchCalls  int
	fetchCalls   int
	copyCalls    int
	storeCalls   int
	expungeCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{folders: map[string]*fakeFolder{}}
}

// addFolder registers an empty folder.
func (c *fakeClient) addFolder(name string) *fakeFolder {
	f, ok := c.folders[name]
	if !ok {
		f = &fakeFolder{nextUID: 1}
		c.folders[name] = f
	}
	return f
}

// addMessage appends a message to a folder and returns its UID.
func (c *fakeClient) addMessage(folder string, msg fakeMessage) imap.UID {
	f := c.addFolder(folder)
	msg.uid = f.nextUID
	f.nextUID++
	stored := msg
	f.messages = append(f.messages, &stored)
	return stored.uid
}

func (c *fakeClient) folderUIDs(folder string) []imap.UID {
	f := c.folders[folder]
	if f == nil {
		return nil
	}
	uids := make([]imap.UID, 0, len(f.messages))
	for _, m := range f.messages {
		uids = append(uids, m.uid)
	}
	return uids
}

func (c *fakeClient) Login(_, _ string) commandWaiter {
	c.loginCalls++
	return &fakeCommand{err: c.loginErr}
}

func (c *fakeClient) Logout() commandWaiter {
	c.logoutCalls++
	return &fakeCommand{}
}

func (c *fakeClient) Close() error {
	c.closeCalls++
	return nil
}

func (c *fakeClient) Select(mailbox string, _ *imap.SelectOptions) selectWaiter {
	if c.selectErr != nil {
		return &fakeSelect{err: c.selectErr}
	}
	f, ok := c.folders[mailbox]
	if !ok {
		return &fakeSelect{err: errNoSuchFolder}
	}
	c.selected = mailbox
	n := uint32(len(f.messages))
	return &fakeSelect{data: &imap.SelectData{NumMessages: n}}
}

func (c *fakeClient) Status(mailbox string, _ *imap.StatusOptions) statusWaiter {
	f, ok := c.folders[mailbox]
	if !ok {
		return &fakeStatus{err: errNoSuchFolder}
	}
	n := uint32(len(f.messages))
	return &fakeStatus{data: &imap.StatusData{Mailbox: mailbox, NumMessages: &n}}
}

func (c *fakeClient) List(_, _ string, _ *imap.ListOptions) listWaiter {
	c.listCalls++
	if c.listErr != nil {
		return &fakeList{err: c.listErr}
	}
	var data []*imap.ListData
	for name := range c.folders {
		data = append(data, &imap.ListData{Mailbox: name, Delim: '/'})
	}
	return &fakeList{data: data}
}

func (c *fakeClient) Create(mailbox string, _ *imap.CreateOptions) commandWaiter {
	if c.createErr != nil {
		return &fakeCommand{err: c.createErr}
	}
	c.addFolder(mailbox)
	return &fakeCommand{}
}

func (c *fakeClient) UIDSearch(criteria *imap.SearchCriteria, _ *imap.SearchOptions) searchWaiter {
	c.searchCalls++
	if c.searchErr != nil {
		return &fakeSearch{err: c.searchErr}
	}

	var uids []imap.UID
	if f := c.folders[c.selected]; f != nil {
		for _, m := range f.messages {
			if matchesCriteria(m, criteria) {
				uids = append(uids, m.uid)
			}
		}
	}
	return &fakeSearch{data: &imap.SearchData{All: imap.UIDSetNum(uids...)}}
}

func (c *fakeClient) Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	c.fetchCalls++
	if c.fetchErr != nil {
		return &fakeFetch{err: c.fetchErr}
	}

	set, _ := numSet.(imap.UIDSet)
	headerOnly := len(options.BodySection) > 0 && len(options.BodySection[0].HeaderFields) > 0

	var bufs []*imapclient.FetchMessageBuffer
	if f := c.folders[c.selected]; f != nil {
		for _, m := range f.messages {
			if !set.Contains(m.uid) {
				continue
			}

			buf := &imapclient.FetchMessageBuffer{
				SeqNum:       uint32(m.uid),
				UID:          m.uid,
				InternalDate: m.date,
				RFC822Size:   m.size,
			}
			if !m.noEnvelope {
				buf.Envelope = envelopeFor(m)
			}
			if len(options.BodySection) > 0 {
				var body []byte
				if headerOnly {
					if m.unsubHeader != "" {
						body = []byte("List-Unsubscribe: " + m.unsubHeader + "\r\n\r\n")
					}
				} else {
					body = append([]byte(nil), m.raw...)
				}
				buf.BodySection = []imapclient.FetchBodySectionBuffer{{
					Section: options.BodySection[0],
					Bytes:   body,
				}}
			}
			bufs = append(bufs, buf)
		}
	}
	return &fakeFetch{bufs: bufs}
}

func (c *fakeClient) Store(numSet imap.NumSet, store *imap.StoreFlags, _ *imap.StoreOptions) fetchWaiter {
	c.storeCalls++
	if c.storeErr != nil {
		return &fakeFetch{err: c.storeErr}
	}

	set, _ := numSet.(imap.UIDSet)
	if f := c.folders[c.selected]; f != nil && store != nil {
		for _, m := range f.messages {
			if set.Contains(m.uid) {
				m.deleted = store.Op == imap.StoreFlagsAdd
			}
		}
	}
	return &fakeFetch{}
}

func (c *fakeClient) Copy(numSet imap.NumSet, mailbox string) copyWaiter {
	c.copyCalls++
	if c.copyErr != nil {
		return &fakeCopy{err: c.copyErr}
	}

	set, _ := numSet.(imap.UIDSet)
	for uid := range c.copyFailUIDs {
		if set.Contains(uid) {
			return &fakeCopy{err: errCopyRefused}
		}
	}

	dest, ok := c.folders[mailbox]
	if !ok {
		return &fakeCopy{err: errNoSuchFolder}
	}
	if f := c.folders[c.selected]; f != nil {
		for _, m := range f.messages {
			if !set.Contains(m.uid) {
				continue
			}
			copied := *m
			copied.uid = dest.nextUID
			copied.deleted = false
			dest.nextUID++
			dest.messages = append(dest.messages, &copied)
		}
	}
	return &fakeCopy{data: &imap.CopyData{}}
}

func (c *fakeClient) UIDExpunge(uids imap.UIDSet) expungeWaiter {
	c.expungeCalls++
	if c.expungeErr != nil {
		return &fakeExpunge{err: c.expungeErr}
	}

	if f := c.folders[c.selected]; f != nil {
		kept := f.messages[:0]
		for _, m := range f.messages {
			if m.deleted && uids.Contains(m.uid) {
				continue
			}
			kept = append(kept, m)
		}
		f.messages = kept
	}
	return &fakeExpunge{}
}

// matchesCriteria applies the subset of search criteria the engine builds.
func matchesCriteria(m *fakeMessage, crit *imap.SearchCriteria) bool {
	if crit == nil {
		return true
	}
	for _, h := range crit.Header {
		if strings.EqualFold(h.Key, "From") &&
			!strings.EqualFold(m.sender, h.Value) {
			return false
		}
	}
	if !crit.Before.IsZero() && !m.date.Before(crit.Before) {
		return false
	}
	if len(crit.UID) > 0 {
		found := false
		for _, set := range crit.UID {
			if set.Contains(m.uid) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func envelopeFor(m *fakeMessage) *imap.Envelope {
	env := &imap.Envelope{
		Date:    m.date,
		Subject: m.subject,
	}
	if m.sender != "" {
		at := strings.LastIndex(m.sender, "@")
		if at > 0 {
			env.From = []imap.Address{{
				Mailbox: m.sender[:at],
				Host:    m.sender[at+1:],
			}}
		}
	}
	return env
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const (
	errNoSuchFolder = fakeError("NO no such folder")
	errCopyRefused  = fakeError("NO copy refused")
)

type fakeCommand struct{ err error }

func (c *fakeCommand) Wait() error { return c.err }

type fakeSelect struct {
	err  error
	data *imap.SelectData
}

func (s *fakeSelect) Wait() (*imap.SelectData, error) { return s.data, s.err }

type fakeStatus struct {
	err  error
	data *imap.StatusData
}

func (s *fakeStatus) Wait() (*imap.StatusData, error) { return s.data, s.err }

type fakeList struct {
	err  error
	data []*imap.ListData
}

func (l *fakeList) Collect() ([]*imap.ListData, error) { return l.data, l.err }

type fakeSearch struct {
	err  error
	data *imap.SearchData
}

func (s *fakeSearch) Wait() (*imap.SearchData, error) { return s.data, s.err }

type fakeFetch struct {
	err  error
	bufs []*imapclient.FetchMessageBuffer
}

func (f *fakeFetch) Collect() ([]*imapclient.FetchMessageBuffer, error) { return f.bufs, f.err }
func (f *fakeFetch) Close() error                                       { return f.err }

type fakeCopy struct {
	err  error
	data *imap.CopyData
}

func (c *fakeCopy) Wait() (*imap.CopyData, error) { return c.data, c.err }

type fakeExpunge struct{ err error }

func (e *fakeExpunge) Close() error { return e.err }
