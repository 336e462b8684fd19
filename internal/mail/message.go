// Package mail builds the test message and hands it to the SMTP relay.
// The wire protocol itself is the business of emersion/go-smtp; this package
// only maps the toolkit's configuration surface onto it.
package mail

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Message is the payload of one SMTP test run. It is validated by the caller
// and never persisted.
type Message struct {
	To          string
	FromAddress string
	FromName    string
	ReplyTo     string
	Subject     string
	Body        string
	HTML        bool

	// Optional operator tag, attached only when both values are set.
	TagHeader string
	TagValue  string

	// Optional attachment, must name an existing regular file.
	AttachmentPath string
}

// Build renders the message to RFC 5322 wire format. The Message-ID is
// derived from a fresh UUID so repeated health checks stay distinguishable
// in the relay's logs.
func (m *Message) Build(now time.Time) ([]byte, error) {
	var h gomail.Header
	h.SetDate(now)
	h.SetMessageID(fmt.Sprintf("%s@smtptool", uuid.NewString()))
	h.SetAddressList("From", []*gomail.Address{{Name: m.FromName, Address: m.FromAddress}})
	h.SetAddressList("To", []*gomail.Address{{Address: m.To}})
	if m.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*gomail.Address{{Address: m.ReplyTo}})
	}
	h.SetSubject(m.Subject)
	if m.TagHeader != "" && m.TagValue != "" {
		h.Set(m.TagHeader, m.TagValue)
	}

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	var body gomail.InlineHeader
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}
	body.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	bw, err := mw.CreateSingleInline(body)
	if err != nil {
		return nil, fmt.Errorf("creating body part: %w", err)
	}
	if _, err := io.WriteString(bw, m.Body); err != nil {
		return nil, fmt.Errorf("writing body: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("closing body part: %w", err)
	}

	if m.AttachmentPath != "" {
		if err := attach(mw, m.AttachmentPath); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}

func attach(mw *gomail.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var ah gomail.AttachmentHeader
	ah.SetFilename(name)
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		ah.SetContentType(ct, nil)
	}

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		return fmt.Errorf("writing attachment: %w", err)
	}
	return aw.Close()
}
