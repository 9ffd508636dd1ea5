// Package mime implements the body/bodyPart tree (section 4.J): the leaf
// content handler, multipart boundary parsing, and part<->parent linkage.
package mime

import (
	"github.com/kisli/vmime-sub006/charset"
)

// ContentHandler holds a leaf body's payload, which may be stored either
// in its original content-transfer-encoded wire form or already decoded -
// the handler itself knows which, so Generate only re-encodes when the
// declared transfer encoding actually differs from what's stored (section
// 4.J "Leaf body").
type ContentHandler struct {
	data      []byte
	encoding  string // name of the CTE data is currently stored as; "" means decoded
	cs        charset.Charset
}

// NewEncodedContentHandler wraps data that is already in encoding's wire
// form (e.g. straight off the network).
func NewEncodedContentHandler(data []byte, encoding string, cs charset.Charset) *ContentHandler {
	return &ContentHandler{data: data, encoding: encoding, cs: cs}
}

// NewDecodedContentHandler wraps data that is the decoded payload (e.g.
// built programmatically by an application).
func NewDecodedContentHandler(data []byte, cs charset.Charset) *ContentHandler {
	return &ContentHandler{data: data, cs: cs}
}

func (h *ContentHandler) IsEncoded() bool { return h.encoding != "" }

func (h *ContentHandler) Charset() charset.Charset { return h.cs }

// Decoded returns the payload in its unencoded form, decoding it with the
// stored encoding if it's currently stored encoded.
func (h *ContentHandler) Decoded() ([]byte, error) {
	if !h.IsEncoded() {
		return h.data, nil
	}
	coder, err := charset.CoderFor(h.encoding)
	if err != nil {
		return nil, err
	}
	return coder.Decode(h.data, nil)
}

// Encoded returns the payload encoded as targetEncoding, re-encoding from
// the decoded form if the handler's stored encoding differs (section 4.J:
// "if the declared transfer encoding differs from the handler's stored
// form, the appropriate encoder/decoder runs inline").
func (h *ContentHandler) Encoded(targetEncoding string) ([]byte, error) {
	if h.IsEncoded() && charset.NewEncoding(h.encoding).Name == charset.NewEncoding(targetEncoding).Name {
		return h.data, nil
	}
	decoded, err := h.Decoded()
	if err != nil {
		return nil, err
	}
	coder, err := charset.CoderFor(targetEncoding)
	if err != nil {
		return nil, err
	}
	return coder.Encode(decoded, nil)
}

// Len returns the length of the payload in its currently stored form, an
// upper-bound estimate for generated size.
func (h *ContentHandler) Len() int { return len(h.data) }
