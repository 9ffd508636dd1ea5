package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
)

// Factory holds name -> value-constructor mappings and implements the
// per-line header field state machine of section 4.G. Lookup is
// case-insensitive with a fallback to PlainText for unknown names.
type Factory struct {
	constructors map[string]ValueConstructor
}

var defaultFactory = NewFactory()

// DefaultFactory returns a process-wide convenience factory pre-registered
// with the well-known field names (section 4.F/4.H), for callers that don't
// need a private registry. Per section 9's redesign flag ("process-wide
// factory singletons"), this is not the only way to get a Factory: callers
// that want to register custom fields without mutating shared state, or
// that want deterministic tests, should call NewFactory() instead and pass
// the result through explicitly.
func DefaultFactory() *Factory { return defaultFactory }

// NewFactory builds a fresh Factory pre-registered with the well-known
// field names. Registering additional names on the result never affects
// any other Factory, including DefaultFactory().
func NewFactory() *Factory {
	f := &Factory{constructors: map[string]ValueConstructor{}}
	f.Register("Date", NewDateTime)
	f.Register("Resent-Date", NewDateTime)
	f.Register("Message-Id", NewMessageID)
	f.Register("Resent-Message-Id", NewMessageID)
	f.Register("In-Reply-To", NewMessageID)
	f.Register("References", NewMessageID)
	f.Register("Content-Id", NewMessageID)
	f.Register("Received", NewRelay)
	f.Register("Content-Type", NewContentType)
	f.Register("Content-Disposition", NewContentDisposition)
	f.Register("Disposition-Notification-To", NewAddressList)
	f.Register("Disposition", NewDisposition)
	f.Register("To", NewAddressList)
	f.Register("From", NewAddressList)
	f.Register("Cc", NewAddressList)
	f.Register("Bcc", NewAddressList)
	f.Register("Reply-To", NewAddressList)
	f.Register("Sender", NewAddressList)
	f.Register("Resent-To", NewAddressList)
	f.Register("Resent-From", NewAddressList)
	f.Register("Resent-Cc", NewAddressList)
	f.Register("Resent-Bcc", NewAddressList)
	return f
}

// Register associates name (case-insensitively) with a value constructor.
func (f *Factory) Register(name string, ctor ValueConstructor) {
	f.constructors[strings.ToLower(name)] = ctor
}

// NewValue constructs the registered value type for name, or a PlainText
// fallback if name is unknown.
func (f *Factory) NewValue(name string) Value {
	if ctor, ok := f.constructors[strings.ToLower(name)]; ok {
		return ctor()
	}
	return NewPlainText()
}

// ParseNext implements section 4.G's per-line field scanner: given buf and
// a range [begin, end), parse one header field starting at begin. Returns
// the field (nil if headers have ended) and the offset just past it.
func (f *Factory) ParseNext(ctx *component.ParsingContext, buf []byte, begin, end int) (*Field, int) {
	pos := begin

	// step 1: blank line (CRLF, or a bare LF) ends the headers
	if pos < end && buf[pos] == '\r' && pos+1 < end && buf[pos+1] == '\n' {
		return nil, pos + 2
	}
	if pos < end && buf[pos] == '\n' {
		return nil, pos + 1
	}

	// step 2: field-name up to ':'
	nameStart := pos
	for pos < end && buf[pos] != ':' && !grammar.IsWhitespaceCRLF(buf[pos]) {
		pos++
	}
	if pos >= end || buf[pos] != ':' {
		// step 3: malformed line, apply recovery policy
		switch ctx.HeaderRecovery {
		case component.AssumeEndOfHeaders:
			return nil, begin
		default: // SkipLine
			next := skipToNextLine(buf, begin, end)
			return f.ParseNext(ctx, buf, next, end)
		}
	}
	name := string(buf[nameStart:pos])
	pos++ // skip ':'

	// step 4: skip WS after ':'
	for pos < end && grammar.IsSpace(buf[pos]) {
		pos++
	}

	// step 5: scan to the unfolded end of the field body
	bodyStart := pos
	bodyEnd := findFieldBodyEnd(buf, pos, end)

	value := f.NewValue(name)
	value.ParseValue(ctx, buf, bodyStart, bodyEnd)

	field := NewField(name, value)
	field.SetParsedBounds(nameStart, bodyEnd)
	next := bodyEnd
	if next+1 < end && buf[next] == '\r' && buf[next+1] == '\n' {
		next += 2
	} else if next < end && buf[next] == '\n' {
		next++
	}
	return field, next
}

// findFieldBodyEnd returns the offset of the CRLF (or LF) that isn't
// followed by a fold continuation (SP/HTAB), i.e. the true end of this
// field's raw body.
func findFieldBodyEnd(buf []byte, pos, end int) int {
	for pos < end {
		if buf[pos] == '\r' && pos+1 < end && buf[pos+1] == '\n' {
			if pos+2 < end && grammar.IsSpace(buf[pos+2]) {
				pos += 3
				continue
			}
			return pos
		}
		if buf[pos] == '\n' {
			if pos+1 < end && grammar.IsSpace(buf[pos+1]) {
				pos += 2
				continue
			}
			return pos
		}
		pos++
	}
	return end
}

func skipToNextLine(buf []byte, pos, end int) int {
	for pos < end && buf[pos] != '\n' {
		pos++
	}
	if pos < end {
		pos++
	}
	return pos
}
