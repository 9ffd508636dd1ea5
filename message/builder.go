package message

import (
	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/header"
	"github.com/kisli/vmime-sub006/mime"
)

// Builder constructs a Message programmatically, the inverse of Parse: set
// the envelope fields, add a text part and any number of attachments, then
// Build assembles the MIME tree (wrapping in multipart/mixed only once an
// attachment is actually added, matching the body invariant that a leaf
// part has no boundary).
type Builder struct {
	ctx *component.ParsingContext

	header      *header.Header
	textCS      charset.Charset
	textMedia   string
	textBody    []byte
	attachments []builderAttachment
}

type builderAttachment struct {
	mediaType   string
	filename    string
	description string
	data        []byte
}

// NewBuilder returns a Builder with an empty header and text/plain as the
// default body media type.
func NewBuilder() *Builder {
	return &Builder{
		ctx:       component.DefaultParsingContext(),
		header:    header.NewHeader(),
		textCS:    charset.UTF8,
		textMedia: "text/plain",
	}
}

func (b *Builder) SetSubject(s string) *Builder {
	b.header.Get("Subject").SetValueString(b.ctx, s)
	return b
}

func (b *Builder) SetFrom(addr string) *Builder {
	b.header.Get("From").SetValueString(b.ctx, addr)
	return b
}

func (b *Builder) AddTo(addr string) *Builder  { return b.addAddress("To", addr) }
func (b *Builder) AddCc(addr string) *Builder  { return b.addAddress("Cc", addr) }
func (b *Builder) AddBcc(addr string) *Builder { return b.addAddress("Bcc", addr) }

func (b *Builder) addAddress(field, addr string) *Builder {
	f := b.header.Find(field)
	if f == nil {
		b.header.Get(field).SetValueString(b.ctx, addr)
		return b
	}
	existing := f.Value().String()
	f.SetValueString(b.ctx, existing+", "+addr)
	return b
}

// SetText sets the body's primary text part, e.g. mediaType "text/html".
func (b *Builder) SetText(mediaType string, cs charset.Charset, body []byte) *Builder {
	b.textMedia = mediaType
	b.textCS = cs
	b.textBody = body
	return b
}

// Attach adds a leaf part carrying filename as a Content-Disposition
// attachment, with its raw bytes stored pre-decoded (Generate picks the
// wire encoding from the part's Content-Transfer-Encoding field).
func (b *Builder) Attach(mediaType, filename, description string, data []byte) *Builder {
	b.attachments = append(b.attachments, builderAttachment{mediaType, filename, description, data})
	return b
}

// Build assembles the header and body tree into a Message ready for
// Generate.
func (b *Builder) Build() *Message {
	root := &mime.BodyPart{Header: b.header}
	b.header.Get("MIME-Version").SetValueString(b.ctx, "1.0")

	textPart := b.buildTextPart()
	if len(b.attachments) == 0 {
		for _, f := range textPart.Header.Fields() {
			root.Header.AppendField(f)
		}
		root.Body = textPart.Body
		return &Message{Root: root}
	}

	ct := root.Header.Get("Content-Type")
	ct.SetValueString(b.ctx, "multipart/mixed")
	root.Body = &mime.Body{Boundary: mime.RandomBoundary()}
	ct.Value().(*header.ContentType).SetParameter("boundary", root.Body.Boundary)
	root.Append(textPart)
	for _, a := range b.attachments {
		root.Append(b.buildAttachmentPart(a))
	}
	return &Message{Root: root}
}

func (b *Builder) buildTextPart() *mime.BodyPart {
	p := &mime.BodyPart{Header: header.NewHeader()}
	ct := p.Header.Get("Content-Type")
	ct.SetValueString(b.ctx, b.textMedia)
	ct.Value().(*header.ContentType).SetParameter("charset", b.textCS.String())
	enc := charset.Decide(b.textBody, b.textCS)
	p.Header.Get("Content-Transfer-Encoding").SetValueString(b.ctx, enc.String())
	p.Body = &mime.Body{}
	p.Body.ParseLeaf(append([]byte{}, b.textBody...), 0, len(b.textBody), "binary", b.textCS)
	return p
}

func (b *Builder) buildAttachmentPart(a builderAttachment) *mime.BodyPart {
	p := &mime.BodyPart{Header: header.NewHeader()}
	p.Header.Get("Content-Type").SetValueString(b.ctx, a.mediaType)
	p.Header.Get("Content-Transfer-Encoding").SetValueString(b.ctx, "base64")
	cd := p.Header.Get("Content-Disposition")
	cd.SetValueString(b.ctx, "attachment")
	if a.filename != "" {
		cd.Value().(*header.ContentDisposition).SetFilename(a.filename)
	}
	if a.description != "" {
		p.Header.Get("Content-Description").SetValueString(b.ctx, a.description)
	}
	p.Body = &mime.Body{}
	p.Body.ParseLeaf(append([]byte{}, a.data...), 0, len(a.data), "binary", charset.Charset{})
	return p
}
