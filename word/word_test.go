package word

import (
	"testing"

	"github.com/kisli/vmime-sub006/charset"
)

func TestParseEncodedWordBase64(t *testing.T) {
	raw := []byte("=?UTF-8?B?w6k=?=")
	w, end, ok := ParseEncodedWord(raw, 0)
	if !ok || end != len(raw) {
		t.Fatalf("ok=%v end=%d, want true,%d", ok, end, len(raw))
	}
	if w.Charset.IsEmpty() {
		t.Fatal("expected a charset to be set")
	}
	if string(w.Bytes) != "é" {
		t.Fatalf("got %q, want %q", w.Bytes, "é")
	}
}

func TestParseEncodedWordQuotedPrintableUnderscoreIsSpace(t *testing.T) {
	w, _, ok := ParseEncodedWord([]byte("=?UTF-8?Q?Hello_World?="), 0)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if string(w.Bytes) != "Hello World" {
		t.Fatalf("got %q", w.Bytes)
	}
}

func TestParseEncodedWordRejectsMalformedToken(t *testing.T) {
	if _, _, ok := ParseEncodedWord([]byte("=?UTF-8?B?nope"), 0); ok {
		t.Fatal("expected failure on unterminated token")
	}
	if _, _, ok := ParseEncodedWord([]byte("not an encoded word"), 0); ok {
		t.Fatal("expected failure on non-encoded-word input")
	}
}

func TestEncodingChoicePicksBase64ForMostlyNonAscii(t *testing.T) {
	if got := EncodingChoice([]byte{0xc3, 0xa9, 0xc3, 0xa8}); got != 'B' {
		t.Fatalf("got %c, want B", got)
	}
}

func TestEncodingChoicePicksQForMostlyAscii(t *testing.T) {
	if got := EncodingChoice([]byte("Hello")); got != 'Q' {
		t.Fatalf("got %c, want Q", got)
	}
}

func TestEncodeWordRoundTrip(t *testing.T) {
	w := New([]byte("héllo"), charset.UTF8)
	encoded := EncodeWord(w)
	decoded, end, ok := ParseEncodedWord([]byte(encoded), 0)
	if !ok || end != len(encoded) {
		t.Fatalf("re-parse failed: ok=%v end=%d len=%d", ok, end, len(encoded))
	}
	if string(decoded.Bytes) != "héllo" {
		t.Fatalf("got %q", decoded.Bytes)
	}
}
