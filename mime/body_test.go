package mime

import (
	"strings"
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

const sampleMultipart = "Content-Type: multipart/mixed; boundary=simple\r\n" +
	"\r\n" +
	"This is the prolog.\r\n" +
	"--simple\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"part one\r\n" +
	"--simple\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"part two\r\n" +
	"--simple--\r\n" +
	"This is the epilog."

func TestParseRootMultipart(t *testing.T) {
	buf := []byte(sampleMultipart)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	if !root.Body.IsMultipart() {
		t.Fatal("expected multipart body")
	}
	if len(root.Body.Parts) != 2 {
		t.Fatalf("got %d parts", len(root.Body.Parts))
	}
	if strings.TrimSpace(root.Body.PrologText) != "This is the prolog." {
		t.Fatalf("prolog = %q", root.Body.PrologText)
	}
	if root.Body.EpilogText != "This is the epilog." {
		t.Fatalf("epilog = %q", root.Body.EpilogText)
	}
	p0 := root.Body.Parts[0]
	decoded, err := p0.Body.Handler.Decoded()
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(decoded)) != "part one" {
		t.Fatalf("part one = %q", decoded)
	}
}

func TestParseRootMultipartParentLinkage(t *testing.T) {
	buf := []byte(sampleMultipart)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	if root.Body.Parts[0].ParentPart() != root {
		t.Fatal("expected part's parent to be the root")
	}
	if root.ParentPart() != nil {
		t.Fatal("root should have no parent")
	}
}

func TestParseRootLeaf(t *testing.T) {
	raw := "Content-Type: text/plain\r\n\r\nhello world"
	buf := []byte(raw)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	if root.Body.IsMultipart() {
		t.Fatal("expected leaf body")
	}
	decoded, _ := root.Body.Handler.Decoded()
	if string(decoded) != "hello world" {
		t.Fatalf("got %q", decoded)
	}
}

func TestParseMultipartMissingCloseDelimiter(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=simple\r\n\r\n" +
		"--simple\r\nContent-Type: text/plain\r\n\r\nonly part"
	buf := []byte(raw)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	if !root.Body.Truncated {
		t.Fatal("expected Truncated=true")
	}
	if len(root.Body.Parts) != 1 {
		t.Fatalf("got %d parts", len(root.Body.Parts))
	}
}

func TestParseMultipartNoBoundaryParamDegradesToLeaf(t *testing.T) {
	raw := "Content-Type: multipart/mixed\r\n\r\nsome raw bytes"
	buf := []byte(raw)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	if root.Body.IsMultipart() {
		t.Fatal("expected degraded leaf body")
	}
}

func TestGenerateMultipartRoundTrip(t *testing.T) {
	buf := []byte(sampleMultipart)
	root := ParseRoot(component.DefaultParsingContext(), buf, 0, len(buf))
	out := root.Generate(component.DefaultGenerationContext())
	if !strings.Contains(out, "--simple\r\n") || !strings.Contains(out, "--simple--\r\n") {
		t.Fatalf("generated output missing boundaries: %q", out)
	}
	if !strings.Contains(out, "part one") || !strings.Contains(out, "part two") {
		t.Fatalf("generated output missing part bodies: %q", out)
	}
}
