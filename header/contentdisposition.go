package header

import (
	"strconv"
	"strings"
	"time"

	"github.com/kisli/vmime-sub006/component"
)

// ContentDisposition is the value of a "Content-Disposition" field (RFC
// 2183): a disposition-type ("inline"/"attachment") plus parameters such
// as filename, size, creation-date.
type ContentDisposition struct {
	ParameterizedValue
	Kind string
}

func NewContentDisposition() Value { return &ContentDisposition{} }

func (d *ContentDisposition) Children() []component.Component { return nil }

func (d *ContentDisposition) GeneratedSize(ctx *component.GenerationContext) int {
	n := len(d.Kind)
	for _, p := range d.Params {
		n += p.GeneratedSize(ctx)
	}
	return n + 16
}

func (d *ContentDisposition) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	d.ParseParams(ctx, buf, begin, end)
	d.Kind = strings.ToLower(strings.TrimSpace(d.MainValueRaw))
	d.SetParsedBounds(begin, end)
}

func (d *ContentDisposition) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	pos := curLinePos + len(d.Kind)
	params, pos2 := d.GenerateParams(ctx, pos)
	return d.Kind + params, pos2
}

func (d *ContentDisposition) String() string { return d.Kind }

func (d *ContentDisposition) Filename() string {
	if p := d.FindParameter("filename"); p != nil {
		return p.Value
	}
	return ""
}

func (d *ContentDisposition) SetFilename(name string) { d.SetParameter("filename", name) }

func (d *ContentDisposition) Size() (int64, bool) {
	if p := d.FindParameter("size"); p != nil {
		if n, err := strconv.ParseInt(p.Value, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func (d *ContentDisposition) CreationDate() (time.Time, bool) {
	if p := d.FindParameter("creation-date"); p != nil {
		if t, ok := ParseDateTime(p.Value); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)
