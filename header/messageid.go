package header

import (
	"github.com/kisli/vmime-sub006/component"
)

// MessageID is a "<left@right>" token (RFC 2822 section 3.6.4), used by
// Message-ID, In-Reply-To and References fields.
type MessageID struct {
	component.Bounds
	Left  string
	Right string
}

func NewMessageID() Value { return &MessageID{} }

func (m *MessageID) Children() []component.Component { return nil }

func (m *MessageID) GeneratedSize(ctx *component.GenerationContext) int {
	return len(m.Left) + len(m.Right) + 4
}

// ParseValue implements section 4.F's message-id.parse: find '<', read up
// to '@' as Left, read up to '>' as Right; with no '<' the whole token is
// Left. Comment nesting with backslash escapes is honored while scanning
// for '<' so a comment containing '<' or '@' doesn't confuse the scan.
func (m *MessageID) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	raw := unfold(string(buf[begin:end]))
	lt := findUnquotedByte(raw, '<')
	if lt < 0 {
		m.Left = trimSpace(raw)
		m.Right = ""
		m.SetParsedBounds(begin, end)
		return
	}
	rest := raw[lt+1:]
	gt := indexByte(rest, '>')
	var body string
	if gt < 0 {
		body = rest
	} else {
		body = rest[:gt]
	}
	if at := indexByte(body, '@'); at >= 0 {
		m.Left = body[:at]
		m.Right = body[at+1:]
	} else {
		m.Left = body
		m.Right = ""
	}
	m.SetParsedBounds(begin, end)
}

// findUnquotedByte scans for b, skipping over balanced, backslash-escaped
// "(...)" comments, per section 4.F's message-id.parse.
func findUnquotedByte(s string, b byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
		case s[i] == '(':
			depth++
		case s[i] == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && s[i] == b:
			return i
		}
	}
	return -1
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isWS(s[start]) {
		start++
	}
	for end > start && isWS(s[end-1]) {
		end--
	}
	return s[start:end]
}

// GenerateValue implements message-id.generate: "<left@right>" (or
// "<left>"), folding first if it would overflow the line.
func (m *MessageID) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	out := "<" + m.Left
	if m.Right != "" {
		out += "@" + m.Right
	}
	out += ">"
	if curLinePos+len(out) > ctx.MaxLineLength {
		out = "\r\n " + out
		return out, component.NewLineSequenceLength + len(out) - 3
	}
	return out, curLinePos + len(out)
}

func (m *MessageID) String() string {
	if m.Right == "" {
		return "<" + m.Left + ">"
	}
	return "<" + m.Left + "@" + m.Right + ">"
}
