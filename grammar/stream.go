package grammar

import "bytes"

// Not is returned by Stream.FindNext when the token never occurs.
const Not = -1

// Stream is a seekable byte source with single-byte lookahead, the
// "parserInputStreamAdapter" every grammar parser scans through. It owns the
// read position; two parsers must never share one Stream.
//
// Unlike the teacher's channel-fed mime.Parser, Stream assumes the whole
// buffer is available up front - every message this module parses is
// already resident in memory (the component contract in section 4.E takes
// a whole buffer plus [begin, end) bounds), so there's no need for the
// goroutine-driven "wait for more bytes" dance a streaming scanner requires.
type Stream struct {
	buf []byte
	pos int
}

// NewStream wraps buf for scanning from position 0.
func NewStream(buf []byte) *Stream {
	return &Stream{buf: buf, pos: 0}
}

// Eof reports whether the current position is at or past the end of buf.
func (s *Stream) Eof() bool { return s.pos >= len(s.buf) }

// Reset rewinds the stream to the start of buf.
func (s *Stream) Reset() { s.pos = 0 }

// Len returns the length of the wrapped buffer.
func (s *Stream) Len() int { return len(s.buf) }

// GetPosition returns the current absolute read position.
func (s *Stream) GetPosition() int { return s.pos }

// Seek moves the read position to the absolute offset p, clamped to
// [0, len(buf)].
func (s *Stream) Seek(p int) {
	if p < 0 {
		p = 0
	}
	if p > len(s.buf) {
		p = len(s.buf)
	}
	s.pos = p
}

// Skip advances the read position by n bytes (clamped at the end).
func (s *Stream) Skip(n int) { s.Seek(s.pos + n) }

// PeekByte returns the byte at the current position without advancing, or 0
// at EOF.
func (s *Stream) PeekByte() byte {
	if s.Eof() {
		return 0
	}
	return s.buf[s.pos]
}

// PeekAt returns the byte n bytes ahead of the current position without
// advancing, or 0 if that's past the end.
func (s *Stream) PeekAt(n int) byte {
	p := s.pos + n
	if p < 0 || p >= len(s.buf) {
		return 0
	}
	return s.buf[p]
}

// GetByte returns the byte at the current position and advances by one, or
// returns 0 without advancing at EOF.
func (s *Stream) GetByte() byte {
	if s.Eof() {
		return 0
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

// MatchBytes reports whether pat occurs at the current position, without
// advancing.
func (s *Stream) MatchBytes(pat []byte) bool {
	end := s.pos + len(pat)
	if end > len(s.buf) {
		return false
	}
	return bytes.Equal(s.buf[s.pos:end], pat)
}

// Extract returns the bytes in [begin, end) as a string. Unlike the source
// library (which seeks aside into a shared stream and restores the
// position), this is a plain slice of the resident buffer and never moves
// the read cursor.
func (s *Stream) Extract(begin, end int) string {
	if begin < 0 {
		begin = 0
	}
	if end > len(s.buf) {
		end = len(s.buf)
	}
	if begin >= end {
		return ""
	}
	return string(s.buf[begin:end])
}

// ExtractBytes is Extract without the string conversion, to avoid a copy
// when the caller only needs to look at the bytes.
func (s *Stream) ExtractBytes(begin, end int) []byte {
	if begin < 0 {
		begin = 0
	}
	if end > len(s.buf) {
		end = len(s.buf)
	}
	if begin >= end {
		return nil
	}
	return s.buf[begin:end]
}

// FindNext returns the absolute position of the first occurrence of token
// at or after startPos, or Not if it doesn't occur. Since the whole message
// is resident in one buffer there is no 2*B rolling window to maintain - the
// cross-buffer-boundary case the source's windowed scanner exists for
// doesn't arise here, bytes.Index already sees the entire remaining input.
func (s *Stream) FindNext(token []byte, startPos int) int {
	if startPos < 0 {
		startPos = 0
	}
	if startPos > len(s.buf) || len(token) == 0 {
		return Not
	}
	i := bytes.Index(s.buf[startPos:], token)
	if i < 0 {
		return Not
	}
	return startPos + i
}

// SkipIf advances the read position while pred holds for the current byte
// and the position is before endPos, returning the number of bytes skipped.
func (s *Stream) SkipIf(pred func(byte) bool, endPos int) int {
	if endPos > len(s.buf) {
		endPos = len(s.buf)
	}
	start := s.pos
	for s.pos < endPos && pred(s.buf[s.pos]) {
		s.pos++
	}
	return s.pos - start
}
