package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
	"github.com/kisli/vmime-sub006/word"
)

// Mailbox is a single "local@domain" address with an optional display
// name (section 4.F: "address-list / mailbox-list").
type Mailbox struct {
	Name  word.Text
	Local string
	Domain string
}

func (m Mailbox) Email() string {
	if m.Domain == "" {
		return m.Local
	}
	return m.Local + "@" + m.Domain
}

func (m Mailbox) DisplayName() string { return DecodeText(m.Name) }

func (m Mailbox) String() string {
	email := m.Email()
	name := m.DisplayName()
	if name == "" {
		return email
	}
	return quotePhrase(name) + " <" + email + ">"
}

func (m Mailbox) IsEmpty() bool { return m.Local == "" && m.Domain == "" }

// Group is a named set of mailboxes: "phrase : mailbox-list ;".
type Group struct {
	Name     word.Text
	Mailboxes []Mailbox
}

func (g Group) DisplayName() string { return DecodeText(g.Name) }

// AddressList is the value of a field like "To", "Cc", "Bcc": a
// comma-separated list where each element is a Mailbox or a Group.
type AddressList struct {
	component.Bounds
	Mailboxes []Mailbox
	Groups    []Group
	// order preserves the original interleaving of mailboxes and groups,
	// as a sequence of (isGroup, index-into-Mailboxes-or-Groups).
	order []addrSlot
}

type addrSlot struct {
	isGroup bool
	index   int
}

func NewAddressList() Value { return &AddressList{} }

func (a *AddressList) Children() []component.Component { return nil }

func (a *AddressList) GeneratedSize(ctx *component.GenerationContext) int {
	n := 0
	for _, m := range a.Mailboxes {
		n += len(m.String()) + 2
	}
	return n + 16
}

// AllMailboxes flattens groups, returning every mailbox in the list in
// original order.
func (a *AddressList) AllMailboxes() []Mailbox {
	var out []Mailbox
	for _, slot := range a.order {
		if slot.isGroup {
			out = append(out, a.Groups[slot.index].Mailboxes...)
		} else {
			out = append(out, a.Mailboxes[slot.index])
		}
	}
	return out
}

func (a *AddressList) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	raw := unfold(string(buf[begin:end]))
	for _, elem := range splitAddressList(raw) {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		if colon := findUnquotedColon(elem); colon >= 0 {
			grp := Group{Name: ParseText(strings.TrimSpace(elem[:colon]), ctx)}
			body := strings.TrimSuffix(strings.TrimSpace(elem[colon+1:]), ";")
			for _, sub := range splitAddressList(body) {
				sub = strings.TrimSpace(sub)
				if sub == "" {
					continue
				}
				if mb, ok := parseMailbox(ctx, sub); ok {
					grp.Mailboxes = append(grp.Mailboxes, mb)
				}
			}
			a.order = append(a.order, addrSlot{isGroup: true, index: len(a.Groups)})
			a.Groups = append(a.Groups, grp)
			continue
		}
		if mb, ok := parseMailbox(ctx, elem); ok {
			a.order = append(a.order, addrSlot{index: len(a.Mailboxes)})
			a.Mailboxes = append(a.Mailboxes, mb)
		}
	}
	a.SetParsedBounds(begin, end)
}

// splitAddressList splits on top-level commas, respecting quoted strings,
// parenthesized comments, angle-bracket address specs, and groups (a
// top-level ':' opens a group and the next top-level ';' closes it; commas
// inside a group are not split points).
func splitAddressList(s string) []string {
	var out []string
	depthParen, depthAngle := 0, 0
	inQuotes, inGroup := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inQuotes && i+1 < len(s):
			i++
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case c == '(':
			depthParen++
		case c == ')':
			if depthParen > 0 {
				depthParen--
			}
		case c == '<':
			depthAngle++
		case c == '>':
			if depthAngle > 0 {
				depthAngle--
			}
		case c == ':' && depthParen == 0 && depthAngle == 0:
			inGroup = true
		case c == ';' && depthParen == 0 && depthAngle == 0:
			inGroup = false
		case c == ',' && depthParen == 0 && depthAngle == 0 && !inGroup:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func findUnquotedColon(s string) int {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && inQuotes && i+1 < len(s):
			i++
		case s[i] == '"':
			inQuotes = !inQuotes
		case s[i] == ':' && !inQuotes:
			return i
		case s[i] == '<':
			return -1 // a ':' can't introduce a group once we're in an addr-spec
		}
	}
	return -1
}

// parseMailbox parses one "local@domain" or "display-name <local@domain>"
// element.
func parseMailbox(ctx *component.ParsingContext, s string) (Mailbox, bool) {
	s = strings.TrimSpace(s)
	if lt := strings.IndexByte(s, '<'); lt >= 0 {
		gt := strings.LastIndexByte(s, '>')
		if gt < 0 {
			gt = len(s)
		}
		namePart := strings.TrimSpace(s[:lt])
		addrPart := s[lt+1 : gt]
		local, domain := splitAddrSpec(addrPart)
		mb := Mailbox{Local: local, Domain: domain}
		if namePart != "" {
			mb.Name = ParseText(stripQuotes(namePart), ctx)
		}
		return mb, local != "" || domain != ""
	}
	local, domain := splitAddrSpec(s)
	if local == "" && domain == "" {
		return Mailbox{}, false
	}
	return Mailbox{Local: local, Domain: domain}, true
}

func splitAddrSpec(s string) (local, domain string) {
	s = strings.TrimSpace(s)
	at := -1
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && inQuotes && i+1 < len(s):
			i++
		case s[i] == '"':
			inQuotes = !inQuotes
		case s[i] == '@' && !inQuotes:
			at = i
		}
	}
	if at < 0 {
		return s, ""
	}
	return s[:at], s[at+1:]
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return unquoteValue(s)
	}
	return s
}

func quotePhrase(s string) string {
	needsQuote := false
	for i := 0; i < len(s); i++ {
		if !grammar.IsAlpha(s[i]) && !grammar.IsDigit(s[i]) && s[i] != ' ' && s[i] != '-' && s[i] != '.' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	return quoteIfNeeded(s)
}

func (a *AddressList) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	var sb strings.Builder
	pos := curLinePos
	first := true
	emit := func(s string) {
		if !first {
			sb.WriteString(", ")
			pos += 2
		}
		if pos+len(s) > ctx.MaxLineLength && !first {
			sb.WriteString("\r\n ")
			pos = component.NewLineSequenceLength
		}
		sb.WriteString(s)
		pos += len(s)
		first = false
	}
	for _, slot := range a.order {
		if slot.isGroup {
			g := a.Groups[slot.index]
			parts := make([]string, len(g.Mailboxes))
			for i, mb := range g.Mailboxes {
				parts[i] = mb.String()
			}
			emit(quotePhrase(g.DisplayName()) + ": " + strings.Join(parts, ", ") + ";")
			continue
		}
		emit(a.Mailboxes[slot.index].String())
	}
	return sb.String(), pos
}

func (a *AddressList) String() string {
	out, _ := a.GenerateValue(component.DefaultGenerationContext(), 0)
	return out
}
