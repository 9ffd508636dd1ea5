package mime

import (
	"bytes"
	"math/rand"
	"strings"

	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
	"github.com/kisli/vmime-sub006/header"
)

// Body is either a leaf (ContentHandler) or a multipart container
// (non-empty Parts). Section 4.J.
type Body struct {
	component.Bounds

	// Leaf form
	Handler *ContentHandler

	// Multipart form
	Parts      []*BodyPart
	Boundary   string
	PrologText string
	EpilogText string
	Truncated  bool

	// owner is the BodyPart this Body belongs to; every part parsed out of
	// Parts gets its parent pointer set to owner, so BodyPart.ParentPart()
	// can walk back up the tree.
	owner *BodyPart
}

func (b *Body) IsMultipart() bool { return len(b.Parts) > 0 || b.Boundary != "" }

func (b *Body) Children() []component.Component {
	out := make([]component.Component, len(b.Parts))
	for i, p := range b.Parts {
		out[i] = p
	}
	return out
}

func (b *Body) GeneratedSize(ctx *component.GenerationContext) int {
	if !b.IsMultipart() {
		if b.Handler == nil {
			return 0
		}
		return b.Handler.Len() + b.Handler.Len()/3
	}
	n := len(b.PrologText) + len(b.EpilogText) + len(b.Boundary)*2 + 16
	for _, p := range b.Parts {
		n += p.GeneratedSize(ctx)
	}
	return n
}

// ParseLeaf stores buf[begin:end] as this body's encoded payload under the
// content-type's declared charset and the content-transfer-encoding's
// declared name.
func (b *Body) ParseLeaf(buf []byte, begin, end int, encoding string, cs charset.Charset) {
	b.Handler = NewEncodedContentHandler(buf[begin:end], encoding, cs)
	b.SetParsedBounds(begin, end)
}

// ParseMultipart implements section 4.J's multipart parse algorithm given
// the declared boundary and body range [bodyBegin, bodyEnd). If boundary
// is empty, the body is parsed as a single leaf instead (the boundary
// parameter is mandatory per RFC 2046 but its absence is tolerated).
func (b *Body) ParseMultipart(ctx *component.ParsingContext, buf []byte, bodyBegin, bodyEnd int, boundary string, encoding string, cs charset.Charset) {
	if boundary == "" {
		b.ParseLeaf(buf, bodyBegin, bodyEnd, encoding, cs)
		return
	}
	b.Boundary = boundary
	delim := []byte("--" + boundary)

	// step 2: prolog runs up to the first "CRLF--boundary", or to the very
	// start if the body begins with the delimiter already.
	firstDelim := findBoundaryLine(buf, delim, bodyBegin, bodyEnd)
	if firstDelim < 0 {
		// no boundary ever appears: degrade to a single leaf, matching the
		// "no boundary parameter" case.
		b.Boundary = ""
		b.ParseLeaf(buf, bodyBegin, bodyEnd, encoding, cs)
		return
	}
	b.PrologText = string(buf[bodyBegin:prologEnd(buf, bodyBegin, firstDelim)])

	pos := firstDelim
	for {
		lineEnd := pos + len(delim)
		// close-delimiter: "--boundary--"
		if matchAt(buf, lineEnd, []byte("--")) {
			closeEnd := lineEnd + 2
			afterCRLF := skipCRLF(buf, closeEnd)
			if afterCRLF < bodyEnd {
				b.EpilogText = string(buf[afterCRLF:bodyEnd])
			}
			return
		}
		// otherwise this is a regular boundary line; skip to end of its line
		partStart := skipToEndOfLine(buf, lineEnd, bodyEnd)

		nextDelim := findBoundaryLine(buf, delim, partStart, bodyEnd)
		if nextDelim < 0 {
			// edge case (a): missing close-delimiter - last part runs to
			// bodyEnd, body flagged truncated but still usable.
			part := parseOnePart(ctx, buf, partStart, bodyEnd)
			part.parent = b.owner
			b.Parts = append(b.Parts, part)
			b.Truncated = true
			return
		}
		partEnd := prologEnd(buf, partStart, nextDelim)
		part := parseOnePart(ctx, buf, partStart, partEnd)
		part.parent = b.owner
		b.Parts = append(b.Parts, part)
		pos = nextDelim
	}
}

func parseOnePart(ctx *component.ParsingContext, buf []byte, begin, end int) *BodyPart {
	p := &BodyPart{Header: header.NewHeader()}
	bodyStart := p.Header.Parse(ctx, buf, begin, end)
	p.Body = &Body{owner: p}
	parseBodyForHeader(ctx, p.Header, p.Body, buf, bodyStart, end)
	p.SetParsedBounds(begin, end)
	return p
}

// parseBodyForHeader inspects h's Content-Type to decide whether body
// should be parsed as multipart or leaf, the shared decision used for both
// the root message and every nested body part.
func parseBodyForHeader(ctx *component.ParsingContext, h *header.Header, body *Body, buf []byte, begin, end int) {
	enc := "7bit"
	if f := h.Find("Content-Transfer-Encoding"); f != nil {
		enc = f.Value().String()
	}
	cs := charset.ASCII
	var ct *header.ContentType
	if f := h.Find("Content-Type"); f != nil {
		if c, ok := f.Value().(*header.ContentType); ok {
			ct = c
			if name := c.CharsetName(); name != "" {
				cs = charset.New(name)
			}
		}
	}
	if ct != nil && ct.Media.IsMultipart() {
		body.ParseMultipart(ctx, buf, begin, end, ct.Boundary(), enc, cs)
		return
	}
	body.ParseLeaf(buf, begin, end, enc, cs)
}

// findBoundaryLine returns the absolute position of the next
// "CRLF--boundary" (or a bare "--boundary" sitting exactly at from, edge
// case (b)), or grammar.Not if none occurs before bodyEnd.
func findBoundaryLine(buf []byte, delim []byte, from, bodyEnd int) int {
	if from < bodyEnd && matchAt(buf, from, delim) {
		return from
	}
	crlfDelim := append([]byte{'\r', '\n'}, delim...)
	if from > bodyEnd || from > len(buf) {
		return grammar.Not
	}
	i := bytes.Index(buf[from:], crlfDelim)
	if i < 0 {
		return grammar.Not
	}
	pos := from + i
	if pos+len(crlfDelim) > bodyEnd {
		return grammar.Not
	}
	return pos + 2 // position of the delimiter itself, past the CRLF
}

func matchAt(buf []byte, pos int, pat []byte) bool {
	if pos+len(pat) > len(buf) {
		return false
	}
	return bytes.Equal(buf[pos:pos+len(pat)], pat)
}

func prologEnd(buf []byte, begin, delimPos int) int {
	// strip the CRLF immediately preceding the delimiter, if any (it
	// belongs to the delimiter line, not the preceding text).
	if delimPos-2 >= begin && buf[delimPos-2] == '\r' && buf[delimPos-1] == '\n' {
		return delimPos - 2
	}
	return delimPos
}

func skipCRLF(buf []byte, pos int) int {
	if pos+1 < len(buf) && buf[pos] == '\r' && buf[pos+1] == '\n' {
		return pos + 2
	}
	if pos < len(buf) && buf[pos] == '\n' {
		return pos + 1
	}
	return pos
}

func skipToEndOfLine(buf []byte, pos, end int) int {
	for pos < end && buf[pos] != '\n' {
		pos++
	}
	if pos < end {
		pos++
	}
	return pos
}

// RandomBoundary synthesizes a boundary string for a generated multipart
// body that has none yet (section 4.J references "§4.O random").
func RandomBoundary() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 32)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return "__boundary_" + string(b) + "__"
}

// Generate implements section 4.J's multipart/leaf generate rules.
func (b *Body) Generate(ctx *component.GenerationContext, targetEncoding string) string {
	if !b.IsMultipart() {
		if b.Handler == nil {
			return ""
		}
		out, err := b.Handler.Encoded(targetEncoding)
		if err != nil {
			return ""
		}
		return string(out)
	}

	boundary := b.Boundary
	if boundary == "" {
		boundary = RandomBoundary()
	}
	var sb strings.Builder
	if ctx.PrologText != "" {
		sb.WriteString(ctx.PrologText)
		sb.WriteString("\r\n")
	} else if b.PrologText != "" {
		sb.WriteString(b.PrologText)
		sb.WriteString("\r\n")
	}
	for _, p := range b.Parts {
		sb.WriteString("--" + boundary + "\r\n")
		sb.WriteString(p.Header.Generate(ctx))
		enc := "7bit"
		if f := p.Header.Find("Content-Transfer-Encoding"); f != nil {
			enc = f.Value().String()
		}
		sb.WriteString(p.Body.Generate(ctx, enc))
	}
	sb.WriteString("--" + boundary + "--\r\n")
	if ctx.EpilogText != "" {
		sb.WriteString(ctx.EpilogText)
	} else if b.EpilogText != "" {
		sb.WriteString(b.EpilogText)
	}
	return sb.String()
}
