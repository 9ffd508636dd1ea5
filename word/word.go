// Package word implements the RFC 2047 "encoded word" atom
// (=?charset?Q|B?text?=) and the Text sequence that strings words together
// with correct adjacency rules when some words are encoded and some aren't.
package word

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/grammar"
)

// Word is the atom (bytes, charset, language?) described in section 3:
// bytes are interpreted in charset, language is only meaningful for the
// RFC 2231 extended-parameter encoding (word.go's RFC 2047 codec ignores it
// on output, but preserves it if a caller sets it from a 2231 parameter).
type Word struct {
	Bytes    []byte
	Charset  charset.Charset
	Language string
}

// New constructs a word holding b interpreted as charset cs.
func New(b []byte, cs charset.Charset) Word {
	return Word{Bytes: b, Charset: cs}
}

// IsEmpty reports whether the word carries no bytes.
func (w Word) IsEmpty() bool { return len(w.Bytes) == 0 }

// String returns the word's bytes as a Go string, without any charset
// conversion - callers that need UTF-8 text should call DecodeTo.
func (w Word) String() string { return string(w.Bytes) }

// DecodeTo converts the word's bytes from its charset to the target
// charset (normally charset.UTF8), using conv for the actual transcoding.
func (w Word) DecodeTo(target charset.Charset, conv charset.Converter, opts charset.DecodeOptions) (string, error) {
	if conv == nil {
		conv = charset.Default
	}
	if w.Charset.IsEmpty() || w.Charset.Equals(target) {
		return string(w.Bytes), nil
	}
	out, err := conv.Convert(w.Bytes, w.Charset, target, opts)
	if err != nil {
		return string(w.Bytes), err
	}
	return string(out), nil
}

// isEncodedWordStart reports whether buf[pos:] looks like the start of an
// RFC 2047 encoded word: "=?".
func isEncodedWordStart(buf []byte, pos int) bool {
	return pos+1 < len(buf) && buf[pos] == '=' && buf[pos+1] == '?'
}

// ParseEncodedWord attempts to parse one "=?charset?Q|B?text?=" token
// starting at buf[pos]. Returns the decoded word, the position just past
// the closing "?=", and ok=false if buf[pos:] isn't a well-formed encoded
// word (in which case bytes up to the caller's own delimiter should be
// treated as plain, unencoded text).
func ParseEncodedWord(buf []byte, pos int) (w Word, end int, ok bool) {
	if !isEncodedWordStart(buf, pos) {
		return w, pos, false
	}
	rest := buf[pos+2:]
	parts := bytes.SplitN(rest, []byte{'?'}, 3)
	if len(parts) != 3 {
		return w, pos, false
	}
	csAndLang := string(parts[0])
	encLetter := parts[1]
	// find the closing "?=" terminating the payload segment
	closeIdx := bytes.Index(parts[2], []byte("?="))
	if closeIdx < 0 {
		return w, pos, false
	}
	payload := parts[2][:closeIdx]
	if len(encLetter) != 1 {
		return w, pos, false
	}

	csName, lang := csAndLang, ""
	if star := strings.IndexByte(csAndLang, '*'); star >= 0 {
		csName, lang = csAndLang[:star], csAndLang[star+1:]
	}

	var decoded []byte
	var err error
	switch encLetter[0] {
	case 'Q', 'q':
		decoded, err = decodeQEncoding(payload)
	case 'B', 'b':
		decoded, err = decodeBEncoding(payload)
	default:
		return w, pos, false
	}
	if err != nil {
		return w, pos, false
	}

	consumed := 2 + len(parts[0]) + 1 + len(parts[1]) + 1 + closeIdx + 2
	w = Word{Bytes: decoded, Charset: charset.New(csName), Language: lang}
	return w, pos + consumed, true
}

// decodeQEncoding decodes the "Q" variant of RFC 2047: like quoted-printable
// but '_' stands in for a literal space (since header folding-whitespace
// rules would otherwise eat a bare space).
func decodeQEncoding(payload []byte) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '_':
			out.WriteByte(' ')
		case '=':
			if i+2 >= len(payload) {
				return nil, fmt.Errorf("word: truncated Q-encoding escape")
			}
			hi, ok1 := hexVal(payload[i+1])
			lo, ok2 := hexVal(payload[i+2])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("word: bad Q-encoding escape")
			}
			out.WriteByte(hi<<4 | lo)
			i += 2
		default:
			out.WriteByte(payload[i])
		}
	}
	return out.Bytes(), nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

func decodeBEncoding(payload []byte) ([]byte, error) {
	c, _ := charset.CoderFor(charset.EncodingBase64)
	return c.Decode(payload, nil)
}

// EncodingChoice picks Q or B for an encoded word: B (base64) when the
// payload is at least 40% non-printable or non-ASCII, Q (quoted-printable-
// like) otherwise, since Q stays readable for mostly-Latin text with a
// handful of accented characters.
func EncodingChoice(data []byte) byte {
	if len(data) == 0 {
		return 'Q'
	}
	bad := 0
	for _, b := range data {
		if b >= 128 || (b < 32 && b != '\t') {
			bad++
		}
	}
	if float64(bad)/float64(len(data)) >= 0.4 {
		return 'B'
	}
	return 'Q'
}

// encodeQEncoding produces the Q-encoded payload (without the "=?...?Q?" /
// "?=" wrapper). Space becomes '_'; tspecials, '=', '?', '_' and any
// non-printable/non-ASCII byte are percent-style escaped as "=XX".
func encodeQEncoding(data []byte) []byte {
	var out bytes.Buffer
	for _, b := range data {
		switch {
		case b == ' ':
			out.WriteByte('_')
		case b == '=' || b == '?' || b == '_' || b < 33 || b > 126 || grammar.IsTSpecial(b):
			fmt.Fprintf(&out, "=%02X", b)
		default:
			out.WriteByte(b)
		}
	}
	return out.Bytes()
}

func encodeBEncoding(data []byte) []byte {
	c, _ := charset.CoderFor(charset.EncodingBase64)
	enc, _ := c.Encode(data, nil)
	// the CTE base64 coder line-wraps with CRLF for body content; an
	// encoded-word's payload must be a single unbroken token.
	return bytes.ReplaceAll(bytes.ReplaceAll(enc, []byte("\r\n"), nil), []byte("\n"), nil)
}

// EncodeWord renders w as a single RFC 2047 encoded word:
// "=?charset?Q|B?payload?=". It does not check the overall line length;
// that budgeting is Text.EncodeAndFold's job since it has visibility into
// neighboring words.
func EncodeWord(w Word) string {
	choice := EncodingChoice(w.Bytes)
	var payload []byte
	if choice == 'Q' {
		payload = encodeQEncoding(w.Bytes)
	} else {
		payload = encodeBEncoding(w.Bytes)
	}
	cs := w.Charset
	if cs.IsEmpty() {
		cs = charset.UTF8
	}
	return fmt.Sprintf("=?%s?%c?%s?=", cs, choice, payload)
}

// CanBeAscii reports whether w's bytes are plain 7-bit ASCII and so can be
// emitted without RFC 2047 wrapping at all.
func (w Word) CanBeAscii() bool {
	for _, b := range w.Bytes {
		if b >= 128 {
			return false
		}
	}
	return true
}
