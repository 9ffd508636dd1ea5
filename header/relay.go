package header

import (
	"sort"
	"strings"
	"time"

	"github.com/kisli/vmime-sub006/component"
)

// relayKeywords are the trace-token keywords of RFC 2821/2822 section
// 3.6.7, in the canonical order they're expected to appear.
var relayKeywords = []string{"from", "by", "via", "with", "id", "for"}

// Relay is the value of a "Received" trace field: a set of keyword-tagged
// tokens followed by a date-time, as generated by each MTA hop.
type Relay struct {
	component.Bounds
	// Tokens maps each keyword to its accumulated values; "with" can carry
	// more than one (section 4.F: "with accumulating multiple").
	Tokens map[string][]string
	Date   DateTime
	hasDate bool
}

func NewRelay() Value { return &Relay{Tokens: map[string][]string{}} }

func (r *Relay) Children() []component.Component { return nil }

func (r *Relay) GeneratedSize(ctx *component.GenerationContext) int { return 200 }

// ParseValue implements section 4.F's relay.parse: find the final ';' to
// split trace tokens from the date (the date is delegated to DateTime);
// tokens are keyword-directed, and text inside balanced "(...)" comments
// passes through verbatim (not tokenized).
func (r *Relay) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	raw := unfold(string(buf[begin:end]))
	semi := lastUnquotedSemicolon(raw)
	var tracePart, datePart string
	if semi >= 0 {
		tracePart = raw[:semi]
		datePart = raw[semi+1:]
	} else {
		tracePart = raw
	}

	r.Tokens = map[string][]string{}
	words := splitRespectingComments(tracePart)
	var curKeyword string
	var curVal []string
	flush := func() {
		if curKeyword == "" {
			return
		}
		val := strings.Join(curVal, " ")
		r.Tokens[curKeyword] = append(r.Tokens[curKeyword], val)
		curVal = nil
	}
	for _, w := range words {
		if isRelayKeyword(w) {
			flush()
			curKeyword = strings.ToLower(w)
			continue
		}
		curVal = append(curVal, w)
	}
	flush()

	if datePart != "" {
		db := []byte(strings.TrimSpace(datePart))
		d := &DateTime{}
		d.ParseValue(ctx, db, 0, len(db))
		r.Date = *d
		r.hasDate = d.Valid()
	}
	r.SetParsedBounds(begin, end)
}

func isRelayKeyword(s string) bool {
	s = strings.ToLower(s)
	for _, k := range relayKeywords {
		if k == s {
			return true
		}
	}
	return false
}

// splitRespectingComments splits on whitespace outside balanced "(...)"
// groups, keeping each comment as a single token.
func splitRespectingComments(s string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(' :
			depth++
			cur.WriteByte(c)
		case c == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case depth == 0 && (c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

func lastUnquotedSemicolon(s string) int {
	depth := 0
	last := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				last = i
			}
		}
	}
	return last
}

// GenerateValue re-emits the trace tokens in canonical keyword order
// followed by ";", a fold (CRLF + TAB), and the date.
func (r *Relay) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	var sb strings.Builder
	first := true
	for _, k := range relayKeywords {
		for _, v := range r.Tokens[k] {
			if !first {
				sb.WriteByte(' ')
			}
			sb.WriteString(k)
			sb.WriteByte(' ')
			sb.WriteString(v)
			first = false
		}
	}
	if r.hasDate {
		sb.WriteString(";\r\n\t")
		sb.WriteString(r.Date.generate())
	}
	out := sb.String()
	return out, lastLineLen(out, curLinePos)
}

func (r *Relay) String() string {
	out, _ := r.GenerateValue(&component.GenerationContext{MaxLineLength: component.DefaultMaxLineLength}, 0)
	return out
}

// SortByDate sorts relays (e.g. the message's full list of Received
// headers) earliest-first, treating an invalid/missing date as latest so
// malformed hops sort to the end instead of the (misleading) epoch.
func SortByDate(relays []*Relay) {
	sort.SliceStable(relays, func(i, j int) bool {
		ti, oki := relays[i].effectiveDate()
		tj, okj := relays[j].effectiveDate()
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		return ti.Before(tj)
	})
}

func (r *Relay) effectiveDate() (time.Time, bool) {
	if !r.hasDate {
		return time.Time{}, false
	}
	return r.Date.When, true
}
