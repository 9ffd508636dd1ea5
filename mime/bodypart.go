package mime

import (
	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/header"
)

// BodyPart is a header plus its body (section 4.J "Part <-> parent").
// ParseRoot in this package constructs the root BodyPart of a message;
// nested parts are returned by Body.ParseMultipart.
type BodyPart struct {
	component.Bounds
	Header *header.Header
	Body   *Body
	parent *BodyPart
}

// ParentPart returns the part this one is nested under, or nil for the
// root message (section 4.J).
func (p *BodyPart) ParentPart() *BodyPart { return p.parent }

func (p *BodyPart) Children() []component.Component {
	return []component.Component{p.Header, p.Body}
}

func (p *BodyPart) GeneratedSize(ctx *component.GenerationContext) int {
	return p.Header.GeneratedSize(ctx) + p.Body.GeneratedSize(ctx)
}

// Append adds child as a new last part of p's body, setting its parent
// pointer. p's Content-Type is not modified; callers building a multipart
// message from scratch are expected to set "multipart/..." themselves.
func (p *BodyPart) Append(child *BodyPart) {
	child.parent = p
	p.Body.Parts = append(p.Body.Parts, child)
}

// Detach removes child from p's body, clearing its parent pointer.
func (p *BodyPart) Detach(child *BodyPart) {
	for i, part := range p.Body.Parts {
		if part == child {
			p.Body.Parts = append(p.Body.Parts[:i], p.Body.Parts[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// ParseRoot parses buf[begin:end] as a top-level message header+body (the
// entry point used by the message package to build the root BodyPart).
func ParseRoot(ctx *component.ParsingContext, buf []byte, begin, end int) *BodyPart {
	p := &BodyPart{Header: header.NewHeader()}
	bodyStart := p.Header.Parse(ctx, buf, begin, end)
	p.Body = &Body{owner: p}
	parseBodyForHeader(ctx, p.Header, p.Body, buf, bodyStart, end)
	p.SetParsedBounds(begin, end)
	return p
}

// Generate renders the part's header and body.
func (p *BodyPart) Generate(ctx *component.GenerationContext) string {
	enc := "7bit"
	if f := p.Header.Find("Content-Transfer-Encoding"); f != nil {
		enc = f.Value().String()
	}
	return p.Header.Generate(ctx) + p.Body.Generate(ctx, enc)
}
