package message

import (
	"strings"
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

const sampleMessage = "From: Alice <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>\r\n" +
	"Subject: =?UTF-8?Q?Hello=2C_World!?=\r\n" +
	"Date: Mon, 2 Feb 2026 10:00:00 +0000\r\n" +
	"Content-Type: multipart/mixed; boundary=X\r\n" +
	"\r\n" +
	"--X\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"body text\r\n" +
	"--X\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=note.bin\r\n" +
	"\r\n" +
	"binarydata\r\n" +
	"--X--\r\n"

func TestParseMessageEnvelope(t *testing.T) {
	buf := []byte(sampleMessage)
	m := Parse(component.DefaultParsingContext(), buf, 0, len(buf))

	if got := m.Subject(); got != "Hello, World!" {
		t.Fatalf("subject = %q", got)
	}
	from := m.From()
	if len(from) != 1 || from[0].Email() != "alice@example.com" {
		t.Fatalf("from = %+v", from)
	}
	to := m.To()
	if len(to) != 1 || to[0].Email() != "bob@example.com" {
		t.Fatalf("to = %+v", to)
	}
	if _, ok := m.Date(); !ok {
		t.Fatal("expected a valid Date")
	}
}

func TestMessageTextPartsAndAttachments(t *testing.T) {
	buf := []byte(sampleMessage)
	m := Parse(component.DefaultParsingContext(), buf, 0, len(buf))

	parts := m.TextParts()
	if len(parts) != 1 {
		t.Fatalf("got %d text parts", len(parts))
	}
	decoded, _ := parts[0].Body.Handler.Decoded()
	if strings.TrimSpace(string(decoded)) != "body text" {
		t.Fatalf("text part = %q", decoded)
	}

	attachments := m.Attachments()
	if len(attachments) != 1 {
		t.Fatalf("got %d attachments", len(attachments))
	}
	if attachments[0].Filename != "note.bin" {
		t.Fatalf("filename = %q", attachments[0].Filename)
	}
}
