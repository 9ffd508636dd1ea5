package component

// Bounds records where in the original input a component was parsed from,
// so tools that need the original bytes (e.g. a DKIM signer canonicalizing
// the raw header) can get back to them without re-generating.
type Bounds struct {
	parsed        bool
	parsedOffset  int
	parsedLength  int
}

// SetParsedBounds records the [begin, end) byte range a ParseImpl consumed.
// Called by ParseImpl implementations once they know their own extent.
func (b *Bounds) SetParsedBounds(begin, end int) {
	b.parsed = true
	b.parsedOffset = begin
	b.parsedLength = end - begin
}

// Parsed reports whether this component was produced by parsing (as opposed
// to being constructed programmatically).
func (b *Bounds) Parsed() bool { return b.parsed }

// ParsedOffset and ParsedLength describe the byte range within the buffer
// that was passed to Parse. Meaningless if Parsed() is false.
func (b *Bounds) ParsedOffset() int { return b.parsedOffset }
func (b *Bounds) ParsedLength() int { return b.parsedLength }

// Component is the contract every grammar node (header field value,
// parameter, body, body part, ...) implements. It purposefully does not
// expose a generic Clone() - each concrete type's zero value and exported
// fields are enough to copy with a plain struct copy or a type-specific
// DeepCopy, since Go has no single-inheritance slot to hang a generic one
// off of without resorting to reflection.
type Component interface {
	// Children returns this component's direct owned children, used by
	// generic tree walks (size estimation, cloning) that don't need to know
	// the concrete type.
	Children() []Component

	// GeneratedSize returns a heuristic upper bound on the number of bytes
	// Generate will write under ctx. By design it is always >= the actual
	// generated size: callers that need to know sizes in advance of
	// generating (the SMTP SIZE extension, an IMAP APPEND literal count)
	// must never under-estimate.
	GeneratedSize(ctx *GenerationContext) int
}

// ChildrenSize sums GeneratedSize over a component's children, the usual
// implementation of GeneratedSize for a node that outputs nothing of its
// own beyond its children's bytes.
func ChildrenSize(ctx *GenerationContext, children []Component) int {
	total := 0
	for _, c := range children {
		total += c.GeneratedSize(ctx)
	}
	return total
}
