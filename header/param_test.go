package header

import (
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

func parseContentType(t *testing.T, raw string) *ContentType {
	t.Helper()
	ct := &ContentType{}
	buf := []byte(raw)
	ct.ParseValue(component.DefaultParsingContext(), buf, 0, len(buf))
	return ct
}

func TestContentTypeSimple(t *testing.T) {
	ct := parseContentType(t, `text/plain; charset=us-ascii`)
	if ct.Media.String() != "text/plain" {
		t.Fatalf("media = %q", ct.Media)
	}
	if ct.CharsetName() != "us-ascii" {
		t.Fatalf("charset = %q", ct.CharsetName())
	}
}

func TestContentTypeMultipartBoundary(t *testing.T) {
	ct := parseContentType(t, `multipart/mixed; boundary="simple boundary"`)
	if !ct.Media.IsMultipart() {
		t.Fatal("expected multipart")
	}
	if ct.Boundary() != "simple boundary" {
		t.Fatalf("boundary = %q", ct.Boundary())
	}
}

func TestRFC2231SingleSection(t *testing.T) {
	ct := parseContentType(t, `application/x-stuff; name*=us-ascii'en-us'This%20is%20%2A%2A%2Afun%2A%2A%2A`)
	p := ct.FindParameter("name")
	if p == nil {
		t.Fatal("missing name parameter")
	}
	if p.Value != "This is ***fun***" {
		t.Fatalf("got %q", p.Value)
	}
}

func TestRFC2231SegmentedSections(t *testing.T) {
	raw := "application/x-stuff;\r\n" +
		" title*0*=us-ascii'en'This%20is%20even%20more%20;\r\n" +
		" title*1*=%2A%2A%2Afun%2A%2A%2A%20;\r\n" +
		" title*2=\"isn't it!\""
	ct := parseContentType(t, raw)
	p := ct.FindParameter("title")
	if p == nil {
		t.Fatal("missing title parameter")
	}
	want := "This is even more ***fun*** isn't it!"
	if p.Value != want {
		t.Fatalf("got %q want %q", p.Value, want)
	}
}

func TestParamMozillaWorkaround(t *testing.T) {
	ct := parseContentType(t, `text/plain; name="=?UTF-8?B?SGVsbG8=?="`)
	p := ct.FindParameter("name")
	if p == nil || p.Value != "Hello" {
		t.Fatalf("got %#v", p)
	}
}

func TestParamGenerationRfc2231RoundTrip(t *testing.T) {
	ct := &ContentType{Media: MediaType{Type: "text", Subtype: "plain"}}
	ct.SetParameter("charset", "utf-8")
	ctx := component.DefaultGenerationContext()
	out, _ := ct.GenerateValue(ctx, len("Content-Type: "))
	if out == "" {
		t.Fatal("empty generated value")
	}
	reparsed := parseContentType(t, out)
	if reparsed.CharsetName() != "utf-8" {
		t.Fatalf("round trip lost charset: %q", out)
	}
}
