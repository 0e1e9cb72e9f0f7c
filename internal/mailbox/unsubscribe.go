package mailbox

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message"
	"golang.org/x/net/html"

	"github.com/nhle/mailsweep/internal/model"
)

// unsubscribeURLPattern matches bare unsubscribe-ish URLs inside body
// text when no anchor text matches.
var unsubscribeURLPattern = regexp.MustCompile(
	`(?i)https?://[^\s<>"']+(?:unsubscribe|opt[_-]?out)[^\s<>"']*`,
)

// UnsubscribeFromHeader picks a reference out of a raw List-Unsubscribe
// header value. An HTTPS URI wins over plain HTTP, and both win over a
// mailto URI; a mailto-only header still yields the mailto reference.
func UnsubscribeFromHeader(value string) string {
	var mailto, httpURL string

	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "<>"))
		lower := strings.ToLower(part)
		switch {
		case strings.HasPrefix(lower, "https://"):
			return part
		case strings.HasPrefix(lower, "http://") && httpURL == "":
			httpURL = part
		case strings.HasPrefix(lower, "mailto:") && mailto == "":
			mailto = part
		}
	}

	if httpURL != "" {
		return httpURL
	}
	return mailto
}

// UnsubscribeFromBody walks a raw message depth-first and scans its HTML
// parts for an unsubscribe reference: first an anchor whose text mentions
// "unsubscribe", then an anchor whose target looks like an unsubscribe
// URL, then a bare URL in any text part. Parse failures yield empty,
// never an error.
func UnsubscribeFromBody(raw []byte) string {
	entity, err := message.Read(bytes.NewReader(raw))
	if entity == nil && err != nil {
		return ""
	}

	var htmlRef, textRef string

	_ = entity.Walk(func(_ []int, part *message.Entity, _ error) error {
		if htmlRef != "" {
			return nil
		}

		mediaType, _, _ := part.Header.ContentType()
		switch mediaType {
		case "text/html":
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil
			}
			text, _ := decodeText(string(body))
			if ref := findUnsubscribeAnchor(text); ref != "" {
				htmlRef = ref
			} else if m := unsubscribeURLPattern.FindString(text); m != "" && htmlRef == "" {
				htmlRef = m
			}
		case "text/plain":
			if textRef != "" {
				return nil
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil
			}
			text, _ := decodeText(string(body))
			if m := unsubscribeURLPattern.FindString(text); m != "" {
				textRef = m
			}
		}
		return nil
	})

	if htmlRef != "" {
		return htmlRef
	}
	return textRef
}

// findUnsubscribeAnchor tokenizes HTML and returns the href of the first
// anchor whose link text contains "unsubscribe" (case-insensitive). An
// anchor whose href alone looks like an unsubscribe URL is kept as a
// fallback.
func findUnsubscribeAnchor(htmlText string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlText))

	var (
		inAnchor   bool
		href       string
		anchorText strings.Builder
		fallback   string
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return fallback

		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			inAnchor = true
			href = ""
			anchorText.Reset()
			for _, attr := range token.Attr {
				if attr.Key == "href" {
					href = attr.Val
				}
			}

		case html.TextToken:
			if inAnchor {
				anchorText.Write(tokenizer.Text())
			}

		case html.EndTagToken:
			token := tokenizer.Token()
			if token.Data != "a" || !inAnchor {
				continue
			}
			inAnchor = false
			if href == "" {
				continue
			}
			if strings.Contains(strings.ToLower(anchorText.String()), "unsubscribe") {
				return href
			}
			if fallback == "" && unsubscribeURLPattern.MatchString(href) {
				fallback = href
			}
		}
	}
}

// unsubscribeRef is the session-bound probe used during grouping: the
// structured header first, then a body fetch for messages without one.
// Any failure yields no reference rather than an error.
func (s *Session) unsubscribeRef(sum model.MessageSummary) string {
	if sum.ListUnsubscribe != "" {
		if ref := UnsubscribeFromHeader(sum.ListUnsubscribe); ref != "" {
			return ref
		}
	}

	raw, err := s.fetchBody(sum.UID)
	if err != nil {
		s.logger.Printf("mailbox: unsubscribe probe for UID %d: %v", sum.UID, err)
		return ""
	}
	if len(raw) == 0 {
		return ""
	}

	return UnsubscribeFromBody(raw)
}

// fetchBody retrieves the full raw message for one UID without setting
// the \Seen flag.
func (s *Session) fetchBody(uid imap.UID) ([]byte, error) {
	if err := s.ensureSelected(); err != nil {
		return nil, err
	}

	section := &imap.FetchItemBodySection{Peek: true}
	opts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}

	bufs, err := s.client.Fetch(imap.UIDSetNum(uid), opts).Collect()
	if err != nil {
		return nil, err
	}

	for _, buf := range bufs {
		for _, sec := range buf.BodySection {
			if len(sec.Bytes) > 0 {
				return sec.Bytes, nil
			}
		}
	}

	return nil, nil
}
