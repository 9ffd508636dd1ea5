// Package message implements convenience facades over header.Header and
// mime.BodyPart (section 4.K): a parsed Message's sender, recipients,
// decoded subject, effective date, textual body parts, and attachments.
package message

import (
	"time"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/header"
	"github.com/kisli/vmime-sub006/mime"
)

// Message is a root body part plus the read-only conveniences built on top
// of its header and body tree.
type Message struct {
	Root *mime.BodyPart
}

// Parse reads buf[begin:end] as a complete RFC-5322/MIME message.
func Parse(ctx *component.ParsingContext, buf []byte, begin, end int) *Message {
	return &Message{Root: mime.ParseRoot(ctx, buf, begin, end)}
}

func (m *Message) Header() *header.Header { return m.Root.Header }

// Subject returns the decoded, unfolded Subject field text, or "" if
// absent.
func (m *Message) Subject() string {
	f := m.Header().Find("Subject")
	if f == nil {
		return ""
	}
	return f.Value().String()
}

// From returns the mailboxes of the From field, or nil if absent/empty.
func (m *Message) From() []header.Mailbox {
	return addressListOf(m.Header().Find("From"))
}

// To, Cc, Bcc each return the corresponding address field's mailboxes,
// flattening any groups (section 4.K "recipients").
func (m *Message) To() []header.Mailbox  { return addressListOf(m.Header().Find("To")) }
func (m *Message) Cc() []header.Mailbox  { return addressListOf(m.Header().Find("Cc")) }
func (m *Message) Bcc() []header.Mailbox { return addressListOf(m.Header().Find("Bcc")) }

// Recipients returns To+Cc+Bcc concatenated, in that order.
func (m *Message) Recipients() []header.Mailbox {
	out := append([]header.Mailbox{}, m.To()...)
	out = append(out, m.Cc()...)
	out = append(out, m.Bcc()...)
	return out
}

func addressListOf(f *header.Field) []header.Mailbox {
	if f == nil {
		return nil
	}
	al, ok := f.Value().(*header.AddressList)
	if !ok {
		return nil
	}
	return al.AllMailboxes()
}

// Date returns the message's own Date field, and whether one was present
// and parsed successfully.
func (m *Message) Date() (time.Time, bool) {
	f := m.Header().Find("Date")
	if f == nil {
		return time.Time{}, false
	}
	dt, ok := f.Value().(*header.DateTime)
	if !ok || !dt.Valid() {
		return time.Time{}, false
	}
	return dt.When, true
}

// EffectiveDate returns the first Received trace field's date if present,
// else the message's own Date field, else the current time (section 4.K).
func (m *Message) EffectiveDate() time.Time {
	for _, f := range m.Header().FindAll("Received") {
		if relay, ok := f.Value().(*header.Relay); ok && relay.Date.Valid() {
			return relay.Date.When
		}
	}
	if t, ok := m.Date(); ok {
		return t
	}
	return time.Now()
}

// MessageID returns the decoded Message-Id field value, or "" if absent.
func (m *Message) MessageID() string {
	f := m.Header().Find("Message-Id")
	if f == nil {
		return ""
	}
	return f.Value().String()
}

// TextParts returns every leaf body part whose Content-Type is text/* (not
// counting attachments with an explicit filename), in tree order.
func (m *Message) TextParts() []*mime.BodyPart {
	var out []*mime.BodyPart
	walkLeaves(m.Root, func(p *mime.BodyPart) {
		if isAttachment(p) {
			return
		}
		if ct := contentTypeOf(p); ct != nil && ct.Media.IsText() {
			out = append(out, p)
		}
	})
	return out
}

// Attachments returns every leaf part that carries a filename or whose
// content-type is neither text/* nor multipart/* and isn't the chosen body
// text - the heuristic named in section 4.K.
func (m *Message) Attachments() []*Attachment {
	var out []*Attachment
	walkLeaves(m.Root, func(p *mime.BodyPart) {
		if isAttachment(p) {
			out = append(out, newAttachment(p))
		}
	})
	return out
}

func isAttachment(p *mime.BodyPart) bool {
	if cd := contentDispositionOf(p); cd != nil && cd.Filename() != "" {
		return true
	}
	if cd := contentDispositionOf(p); cd != nil && cd.Kind == header.DispositionAttachment {
		return true
	}
	ct := contentTypeOf(p)
	if ct == nil {
		return false
	}
	return !ct.Media.IsText() && !ct.Media.IsMultipart()
}

func walkLeaves(p *mime.BodyPart, visit func(*mime.BodyPart)) {
	if p.Body.IsMultipart() {
		for _, child := range p.Body.Parts {
			walkLeaves(child, visit)
		}
		return
	}
	visit(p)
}

func contentTypeOf(p *mime.BodyPart) *header.ContentType {
	f := p.Header.Find("Content-Type")
	if f == nil {
		return nil
	}
	ct, _ := f.Value().(*header.ContentType)
	return ct
}

func contentDispositionOf(p *mime.BodyPart) *header.ContentDisposition {
	f := p.Header.Find("Content-Disposition")
	if f == nil {
		return nil
	}
	cd, _ := f.Value().(*header.ContentDisposition)
	return cd
}
