package word

import (
	"testing"

	"github.com/kisli/vmime-sub006/charset"
)

func decode(t *testing.T, txt Text) string {
	t.Helper()
	s, err := txt.DecodeTo(charset.UTF8, nil, charset.DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeTo: %v", err)
	}
	return s
}

// TestEncodeAndFoldNoSpaceWhenSourceHadNone covers the word-adjacency rule:
// a plain word directly abutting an encoded word with no separating
// whitespace in the source must round-trip without a visible space being
// introduced.
func TestEncodeAndFoldNoSpaceWhenSourceHadNone(t *testing.T) {
	raw := []byte("Hello=?UTF-8?B?w6k=?=")
	parsed := ParseText(raw, charset.ASCII)
	got := decode(t, parsed)
	if got != "Helloé" {
		t.Fatalf("ParseText round-trip = %q, want %q", got, "Helloé")
	}

	text := Text{Words: []Word{
		New([]byte("Hello"), charset.ASCII),
		New([]byte("é"), charset.UTF8),
	}}
	encoded := text.EncodeAndFold(78, 0, false)
	reparsed := ParseText([]byte(encoded), charset.ASCII)
	got = decode(t, reparsed)
	if got != "Helloé" {
		t.Fatalf("EncodeAndFold round-trip = %q (encoded form %q), want %q", got, encoded, "Helloé")
	}
}

// TestEncodeAndFoldPreservesSourceSpace covers the opposite case: a real
// separating space in the source must survive the round trip.
func TestEncodeAndFoldPreservesSourceSpace(t *testing.T) {
	text := Text{Words: []Word{
		New([]byte("Hello "), charset.ASCII),
		New([]byte("é"), charset.UTF8),
	}}
	encoded := text.EncodeAndFold(78, 0, false)
	reparsed := ParseText([]byte(encoded), charset.ASCII)
	got := decode(t, reparsed)
	if got != "Hello é" {
		t.Fatalf("EncodeAndFold round-trip = %q (encoded form %q), want %q", got, encoded, "Hello é")
	}
}

// TestEncodeAndFoldForcesSpaceBetweenAdjacentEncodedWords covers the one
// case that does need a synthetic separator: two consecutive encoded words
// must not be allowed to fuse into a single token on the wire, even though
// a correct RFC 2047 decoder discards the space again.
func TestEncodeAndFoldForcesSpaceBetweenAdjacentEncodedWords(t *testing.T) {
	text := Text{Words: []Word{
		New([]byte("é"), charset.UTF8),
		New([]byte("è"), charset.UTF8),
	}}
	encoded := text.EncodeAndFold(78, 0, false)

	reparsed := ParseText([]byte(encoded), charset.ASCII)
	got := decode(t, reparsed)
	if got != "éè" {
		t.Fatalf("EncodeAndFold round-trip = %q (encoded form %q), want %q", got, encoded, "éè")
	}
	if len(reparsed.Words) != 2 {
		t.Fatalf("expected the two encoded words to stay distinct, got %d words from %q", len(reparsed.Words), encoded)
	}
}

func TestParseTextDropsWhitespaceBetweenEncodedWords(t *testing.T) {
	raw := []byte("=?UTF-8?B?SGVsbG8=?=  =?UTF-8?B?V29ybGQ=?=")
	parsed := ParseText(raw, charset.ASCII)
	got := decode(t, parsed)
	if got != "HelloWorld" {
		t.Fatalf("got %q, want %q", got, "HelloWorld")
	}
}

func TestParseTextKeepsWhitespaceNextToPlainText(t *testing.T) {
	raw := []byte("Hello world =?UTF-8?B?w6k=?=")
	parsed := ParseText(raw, charset.ASCII)
	got := decode(t, parsed)
	if got != "Hello world é" {
		t.Fatalf("got %q, want %q", got, "Hello world é")
	}
}
