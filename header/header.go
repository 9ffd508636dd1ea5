package header

import (
	"strings"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
)

// Header is the ordered list of fields making up a message or body part's
// header block (section 4.I).
type Header struct {
	fields  []*Field
	factory *Factory
}

// NewHeader returns an empty header using the package-wide default factory.
func NewHeader() *Header {
	return &Header{factory: DefaultFactory()}
}

// NewHeaderWithFactory returns an empty header using factory instead of the
// package-wide default, for callers that registered custom field names on
// their own Factory (see NewFactory).
func NewHeaderWithFactory(factory *Factory) *Header {
	return &Header{factory: factory}
}

// Parse fills h by repeatedly calling Factory.ParseNext over buf[begin:end]
// until the header block ends, returning the offset just past the
// terminating blank line.
func (h *Header) Parse(ctx *component.ParsingContext, buf []byte, begin, end int) int {
	pos := begin
	for {
		field, next := h.factory.ParseNext(ctx, buf, pos, end)
		if field == nil {
			return next
		}
		h.fields = append(h.fields, field)
		if next <= pos {
			// defensive: a misbehaving value parser consumed nothing, avoid
			// looping forever on a field of zero length.
			return next
		}
		pos = next
	}
}

// Fields returns every field in original order.
func (h *Header) Fields() []*Field { return h.fields }

// Find returns the first field named name (case-insensitive), or nil.
func (h *Header) Find(name string) *Field {
	for _, f := range h.fields {
		if grammar.EqualFold(f.Name(), name) {
			return f
		}
	}
	return nil
}

// FindAll returns every field named name, in order.
func (h *Header) FindAll(name string) []*Field {
	var out []*Field
	for _, f := range h.fields {
		if grammar.EqualFold(f.Name(), name) {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the first field named name, creating (and appending) one
// with a freshly-constructed value if none exists yet.
func (h *Header) Get(name string) *Field {
	if f := h.Find(name); f != nil {
		return f
	}
	f := NewField(name, h.factory.NewValue(name))
	h.fields = append(h.fields, f)
	return f
}

// AppendField appends f to the end of the header.
func (h *Header) AppendField(f *Field) { h.fields = append(h.fields, f) }

// InsertField inserts f at position i, shifting subsequent fields down.
func (h *Header) InsertField(i int, f *Field) {
	if i < 0 || i > len(h.fields) {
		i = len(h.fields)
	}
	h.fields = append(h.fields, nil)
	copy(h.fields[i+1:], h.fields[i:])
	h.fields[i] = f
}

// RemoveField removes f by reference. Reports whether it was found.
func (h *Header) RemoveField(f *Field) bool {
	for i, existing := range h.fields {
		if existing == f {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt removes the field at position i.
func (h *Header) RemoveAt(i int) {
	if i < 0 || i >= len(h.fields) {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
}

// RemoveAllFields removes every field named name. Returns the count
// removed.
func (h *Header) RemoveAllFields(name string) int {
	out := h.fields[:0]
	removed := 0
	for _, f := range h.fields {
		if grammar.EqualFold(f.Name(), name) {
			removed++
			continue
		}
		out = append(out, f)
	}
	h.fields = out
	return removed
}

// Generate serializes every field separated by CRLF, with a final CRLF
// terminating the header block (section 4.I).
func (h *Header) Generate(ctx *component.GenerationContext) string {
	var sb strings.Builder
	for _, f := range h.fields {
		sb.WriteString(f.Generate(ctx))
	}
	sb.WriteString("\r\n")
	return sb.String()
}

func (h *Header) GeneratedSize(ctx *component.GenerationContext) int {
	n := 2
	for _, f := range h.fields {
		n += f.GeneratedSize(ctx)
	}
	return n
}

func (h *Header) Children() []component.Component {
	out := make([]component.Component, len(h.fields))
	for i, f := range h.fields {
		out[i] = f
	}
	return out
}
