package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
)

// Disposition is the value of a "Disposition" MDN field
// (RFC 3798): "action-mode/sending-mode; type[/modifier...]". Both halves
// are kept as plain strings (section 4.F calls them "enums-as-strings").
type Disposition struct {
	component.Bounds
	ActionMode  string
	SendingMode string
	Type        string
	Modifiers   []string
}

func NewDisposition() Value { return &Disposition{} }

func (d *Disposition) Children() []component.Component { return nil }

func (d *Disposition) GeneratedSize(ctx *component.GenerationContext) int { return 80 }

func (d *Disposition) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	raw := unfold(string(buf[begin:end]))
	parts := strings.SplitN(raw, ";", 2)
	modes := strings.SplitN(strings.TrimSpace(parts[0]), "/", 2)
	d.ActionMode = strings.ToLower(strings.TrimSpace(modes[0]))
	if len(modes) > 1 {
		d.SendingMode = strings.ToLower(strings.TrimSpace(modes[1]))
	}
	if len(parts) > 1 {
		typeAndMods := strings.Split(strings.TrimSpace(parts[1]), "/")
		if len(typeAndMods) > 0 {
			d.Type = strings.ToLower(strings.TrimSpace(typeAndMods[0]))
		}
		for _, m := range typeAndMods[1:] {
			d.Modifiers = append(d.Modifiers, strings.ToLower(strings.TrimSpace(m)))
		}
	}
	d.SetParsedBounds(begin, end)
}

func (d *Disposition) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	out := d.String()
	return out, lastLineLen(out, curLinePos)
}

func (d *Disposition) String() string {
	var sb strings.Builder
	sb.WriteString(d.ActionMode)
	if d.SendingMode != "" {
		sb.WriteByte('/')
		sb.WriteString(d.SendingMode)
	}
	if d.Type != "" {
		sb.WriteString("; ")
		sb.WriteString(d.Type)
		for _, m := range d.Modifiers {
			sb.WriteByte('/')
			sb.WriteString(m)
		}
	}
	return sb.String()
}

const (
	ActionModeManual      = "manual-action"
	ActionModeAutomatic   = "automatic-action"
	SendingModeMDNSentBy  = "MDN-sent-manually"
	SendingModeAutomatic  = "MDN-sent-automatically"
	TypeDisplayed         = "displayed"
	TypeDeleted           = "deleted"
	TypeDispatched        = "dispatched"
	TypeProcessed         = "processed"
)
