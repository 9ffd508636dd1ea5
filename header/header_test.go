package header

import (
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

func mustParseHeader(t *testing.T, raw string) *Header {
	t.Helper()
	h := NewHeader()
	buf := []byte(raw)
	h.Parse(component.DefaultParsingContext(), buf, 0, len(buf))
	return h
}

func TestHeaderParseBasicFields(t *testing.T) {
	raw := "Subject: Hello world\r\nFrom: Alice <alice@example.com>\r\n\r\n"
	h := mustParseHeader(t, raw)
	if f := h.Find("Subject"); f == nil || f.Value().String() != "Hello world" {
		t.Fatalf("Subject = %#v", h.Find("Subject"))
	}
	if f := h.Find("From"); f == nil {
		t.Fatal("missing From field")
	} else {
		al := f.Value().(*AddressList)
		if len(al.Mailboxes) != 1 || al.Mailboxes[0].Email() != "alice@example.com" {
			t.Fatalf("From mailboxes = %#v", al.Mailboxes)
		}
	}
}

func TestHeaderUnfoldsContinuationLines(t *testing.T) {
	raw := "Subject: Hello\r\n world\r\n\r\n"
	h := mustParseHeader(t, raw)
	if got := h.Find("Subject").Value().String(); got != "Hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderMalformedLineSkipped(t *testing.T) {
	raw := "NotAField\r\nSubject: ok\r\n\r\n"
	h := mustParseHeader(t, raw)
	if got := h.Find("Subject").Value().String(); got != "ok" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderGetCreatesField(t *testing.T) {
	h := NewHeader()
	f := h.Get("X-Custom")
	f.SetValueString(component.DefaultParsingContext(), "value")
	if h.Find("X-Custom").Value().String() != "value" {
		t.Fatal("Get did not persist the new field")
	}
}

func TestHeaderRoundTripGenerate(t *testing.T) {
	h := mustParseHeader(t, "Subject: test\r\n\r\n")
	out := h.Generate(component.DefaultGenerationContext())
	if out != "Subject: test\r\n\r\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRFC2047EncodedWordDecoded(t *testing.T) {
	raw := "Subject: =?UTF-8?B?SGVsbG8=?=\r\n\r\n"
	h := mustParseHeader(t, raw)
	if got := h.Find("Subject").Value().String(); got != "Hello" {
		t.Fatalf("got %q", got)
	}
}
