package mailbox

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"

	"github.com/nhle/mailsweep/internal/model"
)

// unsubscribeHeaderSection asks for just the List-Unsubscribe header so a
// scan stays header-only while still feeding the extractor.
var unsubscribeHeaderSection = &imap.FetchItemBodySection{
	Specifier:    imap.PartSpecifierHeader,
	HeaderFields: []string{"List-Unsubscribe"},
	Peek:         true,
}

// Scan searches the selected folder with the given criteria and returns a
// header-only summary per matching message, in UID order. Headers are
// fetched in bounded batches; a single malformed message is skipped with
// a warning, never fatal to the scan.
func (s *Session) Scan(crit Criteria) ([]model.MessageSummary, error) {
	return s.ScanLimit(crit, 0)
}

// ScanLimit is Scan with an optional cap on the number of fetch batches,
// useful on very large folders. maxBatches <= 0 means no cap.
func (s *Session) ScanLimit(crit Criteria, maxBatches int) ([]model.MessageSummary, error) {
	if err := s.ensureSelected(); err != nil {
		return nil, err
	}

	data, err := s.client.UIDSearch(crit.search(), nil).Wait()
	if err != nil {
		return nil, s.fail("search", "searching messages", err)
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	fetchOpts := &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		RFC822Size:   true,
		BodySection:  []*imap.FetchItemBodySection{unsubscribeHeaderSection},
	}

	var summaries []model.MessageSummary
	for i, batch := range chunkUIDs(uids, s.scanBatch) {
		if maxBatches > 0 && i >= maxBatches {
			break
		}

		bufs, err := s.client.Fetch(imap.UIDSetNum(batch...), fetchOpts).Collect()
		if err != nil {
			return summaries, s.fail("fetch", "fetching headers", err)
		}

		for _, buf := range bufs {
			sum, ok := s.summaryFromBuffer(buf)
			if !ok {
				continue
			}
			summaries = append(summaries, sum)
		}
	}

	return summaries, nil
}

// summaryFromBuffer builds a MessageSummary from one fetch response. A
// message without an envelope is skipped with a warning.
func (s *Session) summaryFromBuffer(buf *imapclient.FetchMessageBuffer) (model.MessageSummary, bool) {
	if buf.Envelope == nil {
		s.logger.Printf("mailbox: skipping UID %d: no envelope", buf.UID)
		return model.MessageSummary{}, false
	}

	sum := model.MessageSummary{
		UID:  buf.UID,
		Date: buf.InternalDate,
		Size: buf.RFC822Size,
	}
	if sum.Date.IsZero() {
		sum.Date = buf.Envelope.Date
	}

	if len(buf.Envelope.From) > 0 {
		sum.Sender = strings.ToLower(buf.Envelope.From[0].Addr())
	}

	var lossy bool
	sum.Subject, lossy = decodeText(buf.Envelope.Subject)
	sum.Lossy = sum.Lossy || lossy

	for _, section := range buf.BodySection {
		if len(section.Bytes) == 0 {
			continue
		}
		value, lossy := headerField(section.Bytes, "List-Unsubscribe")
		if value != "" {
			sum.ListUnsubscribe = value
			sum.Lossy = sum.Lossy || lossy
		}
		break
	}

	return sum, true
}

// headerField extracts a single header value from a raw header block. The
// primary parse is charset-aware via go-message; a hard parse failure
// falls back to a tolerant line scan, and the value itself passes through
// the UTF-8 fallback chain.
func headerField(raw []byte, key string) (value string, lossy bool) {
	if !bytes.HasSuffix(raw, []byte("\r\n\r\n")) && !bytes.HasSuffix(raw, []byte("\n\n")) {
		raw = append(append([]byte(nil), raw...), "\r\n\r\n"...)
	}

	entity, err := message.Read(bytes.NewReader(raw))
	if err == nil || message.IsUnknownCharset(err) {
		if entity != nil {
			if v := entity.Header.Get(key); v != "" {
				return decodeText(v)
			}
			return "", false
		}
	}

	return rawHeaderScan(raw, key)
}

// rawHeaderScan is the last fallback: a case-insensitive prefix scan with
// continuation-line folding, used when the header block cannot be parsed.
func rawHeaderScan(raw []byte, key string) (string, bool) {
	prefix := strings.ToLower(key) + ":"
	lines := strings.Split(string(raw), "\n")

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(strings.ToLower(line), prefix) {
			continue
		}

		value := strings.TrimSpace(line[len(prefix):])
		for j := i + 1; j < len(lines); j++ {
			cont := strings.TrimRight(lines[j], "\r")
			if !strings.HasPrefix(cont, " ") && !strings.HasPrefix(cont, "\t") {
				break
			}
			value += " " + strings.TrimSpace(cont)
		}
		return decodeText(value)
	}

	return "", false
}

// decodeText applies the tail of the decode fallback chain: exact UTF-8,
// then a lossy best-effort replacement so malformed encodings degrade
// instead of aborting a scan.
func decodeText(s string) (string, bool) {
	if utf8.ValidString(s) {
		return s, false
	}
	return strings.ToValidUTF8(s, "�"), true
}

// chunkUIDs splits a UID list into batches of at most size elements.
func chunkUIDs(uids []imap.UID, size int) [][]imap.UID {
	if size <= 0 {
		size = len(uids)
	}
	var chunks [][]imap.UID
	for start := 0; start < len(uids); start += size {
		end := start + size
		if end > len(uids) {
			end = len(uids)
		}
		chunks = append(chunks, uids[start:end])
	}
	return chunks
}
