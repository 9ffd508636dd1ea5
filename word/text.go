package word

import (
	"strings"

	"github.com/kisli/vmime-sub006/charset"
)

// Text is an ordered sequence of Words, the model used for any header value
// that may mix plain and RFC 2047 encoded runs (display names, Subject,
// Comments...).
type Text struct {
	Words []Word
}

// NewText wraps a single unencoded string as a one-word Text in cs.
func NewText(s string, cs charset.Charset) Text {
	return Text{Words: []Word{New([]byte(s), cs)}}
}

// AppendWord appends w to the text.
func (t *Text) AppendWord(w Word) { t.Words = append(t.Words, w) }

// DecodeTo concatenates every word decoded into target, using conv for any
// transcoding needed.
func (t Text) DecodeTo(target charset.Charset, conv charset.Converter, opts charset.DecodeOptions) (string, error) {
	var sb strings.Builder
	var firstErr error
	for _, w := range t.Words {
		s, err := w.DecodeTo(target, conv, opts)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		sb.WriteString(s)
	}
	return sb.String(), firstErr
}

// ParseText splits raw header-value bytes (already unfolded) into a Text,
// recognizing RFC 2047 encoded words and treating whitespace strictly
// between two encoded words as a fold point to be discarded (RFC 2047
// section 6.2: "white space between adjacent encoded words is not
// displayed"), while whitespace next to plain text is preserved verbatim.
func ParseText(raw []byte, defaultCharset charset.Charset) Text {
	var t Text
	pos := 0
	n := len(raw)
	lastWasEncoded := false

	for pos < n {
		if isEncodedWordStart(raw, pos) {
			if w, end, ok := ParseEncodedWord(raw, pos); ok {
				t.AppendWord(w)
				pos = end
				lastWasEncoded = true
				continue
			}
		}

		// accumulate a run of plain text up to the next potential encoded
		// word start (or end of input).
		start := pos
		for pos < n && !isEncodedWordStart(raw, pos) {
			pos++
		}
		chunk := raw[start:pos]

		if lastWasEncoded && isAllWhitespace(chunk) && pos < n {
			// whitespace sitting strictly between two encoded words is
			// folding artifact, not content: per RFC 2047 it's elided.
			lastWasEncoded = false
			continue
		}
		if len(chunk) > 0 {
			t.AppendWord(New(chunk, defaultCharset))
		}
		lastWasEncoded = false
	}
	return t
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return false
		}
	}
	return true
}

// FoldState threads generator state across successive words of a Text being
// encoded and line-folded: whether we're at the very first word, and
// whether the previous word was emitted as an encoded word (adjacent
// encoded words need a folding space inserted between them so a lenient
// decoder doesn't fuse them, even though RFC 2047 will discard it).
type FoldState struct {
	IsFirstWord       bool
	PrevWordIsEncoded bool
}

// NewFoldState returns the initial state for the first word of a Text.
func NewFoldState() FoldState {
	return FoldState{IsFirstWord: true}
}

// EncodeAndFold renders t as a folded header-value string, wrapping lines at
// maxLineLength columns, starting from curLinePos (the column the caller's
// already-written "Field-Name: " prefix ends at). forceNoEncoding, if set,
// skips RFC 2047 wrapping entirely and emits raw bytes (used for values the
// generation context has decided must stay untouched).
func (t Text) EncodeAndFold(maxLineLength, curLinePos int, forceNoEncoding bool) string {
	var sb strings.Builder
	state := NewFoldState()
	linePos := curLinePos

	writeToken := func(tok string, isEncoded bool) {
		// A token never gets a synthetic separating space on its own
		// account: any whitespace that existed in the source is already
		// part of a plain word's bytes. The one case that needs a space
		// inserted is two consecutive *encoded* words, which carry no
		// whitespace of their own and would otherwise fuse into one token
		// for a lenient decoder (RFC 2047 section 2 has it elided back out
		// on decode).
		needSpace := !state.IsFirstWord && isEncoded && state.PrevWordIsEncoded
		tokLen := len(tok)
		if needSpace {
			tokLen++
		}
		if linePos+tokLen > maxLineLength && linePos > 0 {
			sb.WriteString("\r\n ")
			linePos = 1
			needSpace = false
		}
		if needSpace {
			sb.WriteByte(' ')
			linePos++
		}
		sb.WriteString(tok)
		linePos += len(tok)
		state.IsFirstWord = false
		state.PrevWordIsEncoded = isEncoded
	}

	for _, w := range t.Words {
		if forceNoEncoding || w.CanBeAscii() {
			writeToken(w.String(), false)
			continue
		}
		writeToken(EncodeWord(w), true)
	}
	return sb.String()
}
