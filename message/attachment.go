package message

import (
	"github.com/kisli/vmime-sub006/header"
	"github.com/kisli/vmime-sub006/mime"
)

// Attachment abstracts a non-body leaf part as (mediaType, encoding,
// filename, description, contentHandler), per section 4.K.
type Attachment struct {
	MediaType   header.MediaType
	Encoding    string
	Filename    string
	Description string
	Handler     *mime.ContentHandler
}

func newAttachment(p *mime.BodyPart) *Attachment {
	a := &Attachment{Handler: p.Body.Handler}
	if ct := contentTypeOf(p); ct != nil {
		a.MediaType = ct.Media
	}
	if f := p.Header.Find("Content-Transfer-Encoding"); f != nil {
		a.Encoding = f.Value().String()
	}
	if cd := contentDispositionOf(p); cd != nil {
		a.Filename = cd.Filename()
	}
	if f := p.Header.Find("Content-Description"); f != nil {
		a.Description = f.Value().String()
	}
	return a
}
