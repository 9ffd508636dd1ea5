package header

import (
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

func TestMessageIDParse(t *testing.T) {
	m := &MessageID{}
	buf := []byte("<1234.5678@example.com>")
	m.ParseValue(nil, buf, 0, len(buf))
	if m.Left != "1234.5678" || m.Right != "example.com" {
		t.Fatalf("got %+v", m)
	}
}

func TestMessageIDParseNoAngleBrackets(t *testing.T) {
	m := &MessageID{}
	buf := []byte("bare-token")
	m.ParseValue(nil, buf, 0, len(buf))
	if m.Left != "bare-token" || m.Right != "" {
		t.Fatalf("got %+v", m)
	}
}

func TestMessageIDGenerate(t *testing.T) {
	m := &MessageID{Left: "abc", Right: "example.com"}
	out, _ := m.GenerateValue(component.DefaultGenerationContext(), 0)
	if out != "<abc@example.com>" {
		t.Fatalf("got %q", out)
	}
}

func TestMessageIDCommentSkippedWhileScanning(t *testing.T) {
	m := &MessageID{}
	buf := []byte("(a comment with < and @) <real@host>")
	m.ParseValue(nil, buf, 0, len(buf))
	if m.Left != "real" || m.Right != "host" {
		t.Fatalf("got %+v", m)
	}
}
