package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
)

// MediaType is a "type/subtype" pair (RFC 2045 section 5.1), e.g.
// "multipart/mixed" or "text/plain".
type MediaType struct {
	Type    string
	Subtype string
}

func ParseMediaType(s string) MediaType {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return MediaType{Type: strings.ToLower(s[:i]), Subtype: strings.ToLower(s[i+1:])}
	}
	return MediaType{Type: strings.ToLower(s)}
}

func (m MediaType) String() string {
	if m.Subtype == "" {
		return m.Type
	}
	return m.Type + "/" + m.Subtype
}

func (m MediaType) IsMultipart() bool { return grammar.EqualFold(m.Type, "multipart") }
func (m MediaType) IsText() bool      { return grammar.EqualFold(m.Type, "text") }
func (m MediaType) IsMessage() bool   { return grammar.EqualFold(m.Type, "message") }
func (m MediaType) IsEmpty() bool     { return m.Type == "" }

// ContentType is the value of a "Content-Type" field: a mediaType plus
// parameters (section 4.F, 4.H), most commonly "charset" and (for
// multipart types) "boundary".
type ContentType struct {
	ParameterizedValue
	Media MediaType
}

func NewContentType() Value { return &ContentType{} }

func (c *ContentType) Children() []component.Component { return nil }

func (c *ContentType) GeneratedSize(ctx *component.GenerationContext) int {
	n := len(c.Media.String())
	for _, p := range c.Params {
		n += p.GeneratedSize(ctx)
	}
	return n + 16
}

func (c *ContentType) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	mainEnd := c.ParseParams(ctx, buf, begin, end)
	_ = mainEnd
	c.Media = ParseMediaType(c.MainValueRaw)
	c.SetParsedBounds(begin, end)
}

func (c *ContentType) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	main := c.Media.String()
	pos := curLinePos + len(main)
	params, pos2 := c.GenerateParams(ctx, pos)
	return main + params, pos2
}

func (c *ContentType) String() string { return c.Media.String() }

// Boundary returns the "boundary" parameter, or "" if absent.
func (c *ContentType) Boundary() string {
	if p := c.FindParameter("boundary"); p != nil {
		return p.Value
	}
	return ""
}

// CharsetName returns the "charset" parameter as a lowercase string, or "" if
// absent.
func (c *ContentType) CharsetName() string {
	if p := c.FindParameter("charset"); p != nil {
		return strings.ToLower(p.Value)
	}
	return ""
}
