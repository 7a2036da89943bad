package mail

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/pfrederiksen/event-harvest/internal/logger"
)

// DirTransport reads *.eml files from a directory
type DirTransport struct {
	Dir string
}

// NewDirTransport returns a transport over dir
func NewDirTransport(dir string) *DirTransport {
	return &DirTransport{Dir: dir}
}

// Messages returns the messages in the directory that match q, newest first.
// Files that cannot be parsed are logged and skipped.
func (t *DirTransport) Messages(ctx context.Context, q Query) ([]Message, error) {
	var subject *regexp.Regexp
	if q.SubjectPattern != "" {
		re, err := regexp.Compile("(?i)" + q.SubjectPattern)
		if err != nil {
			return nil, eris.Wrapf(err, "mail: invalid subject pattern %q", q.SubjectPattern)
		}
		subject = re
	}

	if _, err := os.Stat(t.Dir); err != nil {
		return nil, eris.Wrapf(err, "mail: open mailbox %s", t.Dir)
	}
	paths, err := filepath.Glob(filepath.Join(t.Dir, "*.eml"))
	if err != nil {
		return nil, eris.Wrap(err, "mail: list messages")
	}

	sender := strings.ToLower(q.Sender)
	messages := make([]Message, 0)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "mail: read messages")
		}

		msg, err := readFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable message", logger.Fields{"path": path, "error": err.Error()})
			continue
		}
		if sender != "" && !strings.Contains(strings.ToLower(msg.From), sender) {
			continue
		}
		if subject != nil && !subject.MatchString(msg.Subject) {
			continue
		}
		if !q.Since.IsZero() && msg.Date.Before(q.Since) {
			continue
		}
		messages = append(messages, msg)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultMaxMessages
	}
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func readFile(path string) (Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return Message{}, eris.Wrap(err, "mail: open")
	}
	defer f.Close() //nolint:errcheck

	msg, err := Parse(f)
	if err != nil {
		return Message{}, err
	}
	if msg.ID == "" {
		msg.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return msg, nil
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// Parse decodes a raw RFC 5322 message
func Parse(r io.Reader) (Message, error) {
	raw, err := mail.ReadMessage(r)
	if err != nil {
		return Message{}, eris.Wrap(err, "mail: parse message")
	}

	msg := Message{
		ID:      strings.Trim(raw.Header.Get("Message-Id"), "<>"),
		From:    decodeHeader(raw.Header.Get("From")),
		Subject: decodeHeader(raw.Header.Get("Subject")),
	}
	if date, err := raw.Header.Date(); err == nil {
		msg.Date = date
	}

	htmlBody, textBody, err := decodePart(raw.Header.Get("Content-Type"), raw.Header.Get("Content-Transfer-Encoding"), raw.Body)
	if err != nil {
		return Message{}, err
	}
	msg.Body = htmlBody
	if msg.Body == "" {
		msg.Body = textBody
	}
	return msg, nil
}

func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// decodePart returns the first HTML and first plain text bodies found in a
// part, recursing into multiparts
func decodePart(contentType, transferEncoding string, body io.Reader) (htmlBody, textBody string, err error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", "", eris.Wrap(err, "mail: read multipart")
			}
			h, t, err := decodePart(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				return "", "", err
			}
			if htmlBody == "" {
				htmlBody = h
			}
			if textBody == "" {
				textBody = t
			}
		}
		return htmlBody, textBody, nil
	}

	if mediaType != "text/html" && mediaType != "text/plain" {
		return "", "", nil
	}

	text, err := decodeText(body, transferEncoding, params["charset"])
	if err != nil {
		return "", "", err
	}
	if mediaType == "text/html" {
		return text, "", nil
	}
	return "", text, nil
}

func decodeText(body io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	}

	r, err := charsetReader(charset, body)
	if err != nil {
		r = body
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "mail: decode body")
	}
	return string(data), nil
}

// charsetReader converts body from charset to UTF-8
func charsetReader(charset string, body io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "mail: unknown charset %q", charset)
	}
	return enc.NewDecoder().Reader(body), nil
}

var angleAddress = regexp.MustCompile(`<([^>]+)>`)

// senderAddress extracts the bare address from a From header
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	if m := angleAddress.FindStringSubmatch(from); m != nil {
		return m[1]
	}
	return strings.TrimSpace(from)
}
