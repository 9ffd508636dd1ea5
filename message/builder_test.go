package message

import (
	"strings"
	"testing"

	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/component"
)

func TestBuilderSimpleTextMessage(t *testing.T) {
	m := NewBuilder().
		SetFrom("alice@example.com").
		AddTo("bob@example.com").
		SetSubject("hello").
		SetText("text/plain", charset.UTF8, []byte("hi there")).
		Build()

	out := m.Root.Generate(component.DefaultGenerationContext())
	if !strings.Contains(out, "Subject: hello") {
		t.Fatalf("missing subject: %q", out)
	}
	if !strings.Contains(out, "hi there") {
		t.Fatalf("missing body: %q", out)
	}
}

func TestBuilderWithAttachment(t *testing.T) {
	m := NewBuilder().
		SetFrom("alice@example.com").
		AddTo("bob@example.com").
		SetText("text/plain", charset.UTF8, []byte("see attached")).
		Attach("application/octet-stream", "data.bin", "", []byte{1, 2, 3, 4}).
		Build()

	if !m.Root.Body.IsMultipart() {
		t.Fatal("expected multipart/mixed root")
	}
	if len(m.Root.Body.Parts) != 2 {
		t.Fatalf("got %d parts", len(m.Root.Body.Parts))
	}
	atts := m.Attachments()
	if len(atts) != 1 || atts[0].Filename != "data.bin" {
		t.Fatalf("attachments = %+v", atts)
	}
}
