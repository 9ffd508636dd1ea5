// Package header implements the header-field model: typed field values,
// the parameterized-field/parameter grammar (RFC 2045/2231), and the
// ordered Header container (section 4.G-4.I).
package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
)

// Value is the contract a field's typed value implements: parse its own
// body range out of buf, and render itself back out under a generation
// context. Concrete value types (AddressList, DateTime, MessageID, Relay,
// Disposition, ContentType, ContentDisposition, and the PlainText
// fallback) all satisfy this.
type Value interface {
	component.Component
	ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int)
	GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int)
	// String renders the value the way a caller reading it back
	// programmatically wants to see it (e.g. decoded text), not necessarily
	// identical to GenerateValue's wire form.
	String() string
}

// ValueConstructor builds a zero Value of a specific type, used by the
// Factory to know what to parse a given field name's body into.
type ValueConstructor func() Value

// Field is a single "Name: Value" header line. Parameterized fields (see
// param.go) wrap an additional parameter list in the same slot.
type Field struct {
	component.Bounds
	name  string
	value Value
}

// NewField constructs a field with name and an already-parsed value.
func NewField(name string, value Value) *Field {
	return &Field{name: name, value: value}
}

func (f *Field) Name() string       { return f.name }
func (f *Field) SetName(n string)   { f.name = n }
func (f *Field) Value() Value       { return f.value }
func (f *Field) SetValue(v Value)   { f.value = v }

// SetValueString parses s as this field's value type, replacing its
// current value. The value's parsed bounds then describe offsets within s,
// not within any original message buffer.
func (f *Field) SetValueString(ctx *component.ParsingContext, s string) {
	b := []byte(s)
	f.value.ParseValue(ctx, b, 0, len(b))
}

func (f *Field) Children() []component.Component {
	return []component.Component{f.value}
}

func (f *Field) GeneratedSize(ctx *component.GenerationContext) int {
	return len(f.name) + 2 + f.value.GeneratedSize(ctx) + 2
}

// Generate renders "Name: Value\r\n", folding the value starting right
// after "Name: ".
func (f *Field) Generate(ctx *component.GenerationContext) string {
	prefix := f.name + ": "
	body, _ := f.value.GenerateValue(ctx, len(prefix))
	return prefix + body + "\r\n"
}

// PlainText is the fallback value type for unrecognized field names and
// for fields (like Subject, Comments) whose grammar is just RFC 2047 text.
type PlainText struct {
	component.Bounds
	Raw string
}

func NewPlainText() Value { return &PlainText{} }

func (t *PlainText) Children() []component.Component { return nil }

func (t *PlainText) GeneratedSize(ctx *component.GenerationContext) int {
	return len(t.Raw) + len(t.Raw)/4 + 16
}

func (t *PlainText) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	t.Raw = unfold(string(buf[begin:end]))
	t.SetParsedBounds(begin, end)
}

func (t *PlainText) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	txt := ParseText(t.Raw, nil)
	out := txt.EncodeAndFold(ctx.MaxLineLength, curLinePos, false)
	return out, lastLineLen(out, curLinePos)
}

// String returns the decoded (UTF-8) text, unfolding and resolving any
// RFC 2047 encoded words.
func (t *PlainText) String() string {
	return DecodeText(ParseText(t.Raw, nil))
}

// unfold removes the CRLF of each fold point, per section 4.G step 5: the
// raw body preserves "CRLF WSP" literally, and it's the value parser's job
// to unfold where semantics require a single logical line. Per RFC 2822
// section 2.2.3 only the CRLF is removed; the folding whitespace itself
// stays as part of the content.
func unfold(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "")
	return strings.ReplaceAll(s, "\n", "")
}

// lastLineLen returns the column position after out, given it started at
// startCol, accounting for any CRLF folds inside out.
func lastLineLen(out string, startCol int) int {
	if i := strings.LastIndex(out, "\r\n"); i >= 0 {
		return len(out) - (i + 2)
	}
	return startCol + len(out)
}

// isWS reports RFC 822 folding whitespace (space or tab).
func isWS(b byte) bool { return grammar.IsSpace(b) }
