package mail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMessage_Build_Headers(t *testing.T) {
	m := &Message{
		To:          "ops@example.com",
		FromAddress: "noreply@example.com",
		FromName:    "TC2 Monitor",
		ReplyTo:     "admins@example.com",
		Subject:     "SMTP health check 2026-08-24",
		Body:        "Relay reachable.",
		TagHeader:   "X-TC2-Tag",
		TagValue:    "nightly",
	}

	raw, err := m.Build(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	msg := string(raw)

	for _, want := range []string{
		"TC2 Monitor",
		"noreply@example.com",
		"To: <ops@example.com>",
		"Reply-To: <admins@example.com>",
		"Subject: SMTP health check 2026-08-24",
		"X-Tc2-Tag: nightly",
		"Relay reachable.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "Message-Id:") && !strings.Contains(msg, "Message-ID:") {
		t.Errorf("message missing Message-ID header:\n%s", msg)
	}
}

func TestMessage_Build_TagRequiresBothParts(t *testing.T) {
	m := &Message{
		To:          "ops@example.com",
		FromAddress: "noreply@example.com",
		Subject:     "check",
		Body:        "body",
		TagHeader:   "X-TC2-Tag",
		// TagValue deliberately empty.
	}
	raw, err := m.Build(time.Now())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if strings.Contains(string(raw), "X-Tc2-Tag") {
		t.Error("tag header attached without a tag value")
	}
}

func TestMessage_Build_HTMLContentType(t *testing.T) {
	m := &Message{
		To:          "ops@example.com",
		FromAddress: "noreply@example.com",
		Subject:     "check",
		Body:        "<p>ok</p>",
		HTML:        true,
	}
	raw, err := m.Build(time.Now())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !strings.Contains(string(raw), "text/html") {
		t.Errorf("HTML message lacks text/html content type:\n%s", raw)
	}
}

func TestMessage_Build_Attachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("attachment payload"), 0644); err != nil {
		t.Fatalf("writing attachment: %v", err)
	}

	m := &Message{
		To:             "ops@example.com",
		FromAddress:    "noreply@example.com",
		Subject:        "check",
		Body:           "see attached",
		AttachmentPath: path,
	}
	raw, err := m.Build(time.Now())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	msg := string(raw)
	if !strings.Contains(msg, "report.txt") {
		t.Errorf("attachment filename missing:\n%s", msg)
	}
	if !strings.Contains(msg, "multipart/mixed") {
		t.Errorf("attachment did not produce multipart/mixed message:\n%s", msg)
	}
}

func TestMessage_Build_MissingAttachmentFails(t *testing.T) {
	m := &Message{
		To:             "ops@example.com",
		FromAddress:    "noreply@example.com",
		Subject:        "check",
		Body:           "body",
		AttachmentPath: filepath.Join(t.TempDir(), "gone.txt"),
	}
	if _, err := m.Build(time.Now()); err == nil {
		t.Error("Build() = nil error for missing attachment, want error")
	}
}
