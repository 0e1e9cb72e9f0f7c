package mailbox

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
)

// imapClient is the narrow protocol surface the engine needs. Wrapping
// imapclient.Client behind it lets tests drive every operation against an
// in-memory fake.
type imapClient interface {
	Login(username, password string) commandWaiter
	Logout() commandWaiter
	Close() error
	Select(mailbox string, options *imap.SelectOptions) selectWaiter
	Status(mailbox string, options *imap.StatusOptions) statusWaiter
	List(ref, pattern string, options *imap.ListOptions) listWaiter
	Create(mailbox string, options *imap.CreateOptions) commandWaiter
	UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter
	Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter
	Store(numSet imap.NumSet, store *imap.StoreFlags, options *imap.StoreOptions) fetchWaiter
	Copy(numSet imap.NumSet, mailbox string) copyWaiter
	UIDExpunge(uids imap.UIDSet) expungeWaiter
}

type commandWaiter interface{ Wait() error }
type selectWaiter interface {
	Wait() (*imap.SelectData, error)
}
type statusWaiter interface {
	Wait() (*imap.StatusData, error)
}
type listWaiter interface {
	Collect() ([]*imap.ListData, error)
}
type searchWaiter interface {
	Wait() (*imap.SearchData, error)
}
type fetchWaiter interface {
	Collect() ([]*imapclient.FetchMessageBuffer, error)
	Close() error
}
type copyWaiter interface {
	Wait() (*imap.CopyData, error)
}
type expungeWaiter interface{ Close() error }

// clientFactory dials and returns a ready (unauthenticated) client.
type clientFactory func(host string, port int, timeout time.Duration) (imapClient, error)

// defaultClientFactory dials the server over implicit TLS with a bounded
// dial timeout and charset-aware header decoding.
func defaultClientFactory(host string, port int, timeout time.Duration) (imapClient, error) {
	if host == "" {
		return nil, &ValidationError{Field: "host", Message: "empty host"}
	}
	if port == 0 {
		port = 993
	}

	opts := &imapclient.Options{
		Dialer: &net.Dialer{Timeout: timeout},
		TLSConfig: &tls.Config{
			ServerName: host,
		},
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client, err := imapclient.DialTLS(addr, opts)
	if err != nil {
		return nil, err
	}

	return &imapClientWrapper{Client: client}, nil
}

type imapClientWrapper struct{ *imapclient.Client }

func (w *imapClientWrapper) Login(username, password string) commandWaiter {
	return w.Client.Login(username, password)
}
func (w *imapClientWrapper) Logout() commandWaiter { return w.Client.Logout() }
func (w *imapClientWrapper) Select(mailbox string, options *imap.SelectOptions) selectWaiter {
	return w.Client.Select(mailbox, options)
}
func (w *imapClientWrapper) Status(mailbox string, options *imap.StatusOptions) statusWaiter {
	return w.Client.Status(mailbox, options)
}
func (w *imapClientWrapper) List(ref, pattern string, options *imap.ListOptions) listWaiter {
	return w.Client.List(ref, pattern, options)
}
func (w *imapClientWrapper) Create(mailbox string, options *imap.CreateOptions) commandWaiter {
	return w.Client.Create(mailbox, options)
}
func (w *imapClientWrapper) UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter {
	return w.Client.UIDSearch(criteria, options)
}
func (w *imapClientWrapper) Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	return w.Client.Fetch(numSet, options)
}
func (w *imapClientWrapper) Store(numSet imap.NumSet, store *imap.StoreFlags, options *imap.StoreOptions) fetchWaiter {
	return w.Client.Store(numSet, store, options)
}
func (w *imapClientWrapper) Copy(numSet imap.NumSet, mailbox string) copyWaiter {
	return w.Client.Copy(numSet, mailbox)
}
func (w *imapClientWrapper) UIDExpunge(uids imap.UIDSet) expungeWaiter {
	return w.Client.UIDExpunge(uids)
}
