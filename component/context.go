// Package component defines the contract every grammar node in the message
// model (header fields, parameter values, bodies, body parts) implements,
// plus the two pieces of ambient state threaded through every parse and
// generate call.
package component

// HeaderRecovery selects how the header field scanner behaves when it hits
// a line that isn't a well-formed "name: value" pair.
type HeaderRecovery int

const (
	// SkipLine discards the malformed line and resumes scanning at the next one.
	SkipLine HeaderRecovery = iota
	// AssumeEndOfHeaders treats the malformed line as the start of the body.
	AssumeEndOfHeaders
)

// ParamValueMode selects how a parameterized field encodes parameter values
// that don't fit in a bare token (RFC 2045 section 5.1).
type ParamValueMode int

const (
	// NoEncoding emits the raw value, quoting only if required; non-ASCII
	// bytes are a generation error under this mode.
	NoEncoding ParamValueMode = iota
	// Rfc2047Only wraps non-ASCII values as an RFC 2047 encoded-word inside
	// quotes. Non-standard, but widely accepted by legacy MUAs.
	Rfc2047Only
	// Rfc2231Only emits RFC 2231 extended/segmented parameters
	// (name*=charset''pct-encoded, split into name*0*=.../name*1*=... when
	// the value doesn't fit on one line). This is the default.
	Rfc2231Only
	// Both emits a 7-bit compatibility value and the RFC 2231 form, for
	// maximum interoperability at the cost of a longer header.
	Both
)

// CharsetConvOptions configures the external charset-conversion collaborator
// (section 6): whether to fail or transliterate when a byte sequence has no
// representation in the destination charset.
type CharsetConvOptions struct {
	// Lenient transliterates unmappable characters instead of failing.
	Lenient bool
}

// ParsingContext is threaded by reference through every parseImpl call. It
// is never mutated by a parser: mutating parsers would make parsing
// non-reentrant, and two parsers must be free to share one context while
// each owns its own input stream.
type ParsingContext struct {
	// InternationalizedEmail enables RFC 6532 UTF-8 header/address parsing
	// instead of assuming 7-bit ASCII structure.
	InternationalizedEmail bool
	HeaderRecovery         HeaderRecovery
	CharsetConvOptions     CharsetConvOptions
}

// DefaultParsingContext returns the context used when a caller doesn't need
// to override any option.
func DefaultParsingContext() *ParsingContext {
	return &ParsingContext{HeaderRecovery: SkipLine}
}

// DefaultMaxLineLength is the RFC 2822 recommended folding width.
const DefaultMaxLineLength = 78

// GeneratorState is a holder for the in/out line-position scalar of a
// generation call tree. The Generate/GenerateValue methods in this module do
// not take it: they receive the current column as an int argument and
// return the new column.
type GeneratorState struct {
	// CurLinePos is the number of bytes already written on the current
	// output line.
	CurLinePos int
}

// GenerationContext is threaded by reference through every generateImpl
// call; like ParsingContext it is read-only from the component's
// perspective.
type GenerationContext struct {
	MaxLineLength      int
	PrologText         string
	EpilogText         string
	ParamValueMode     ParamValueMode
	CharsetConvOptions CharsetConvOptions
}

// DefaultGenerationContext returns a context with the RFC 2822 default line
// length and RFC 2231 parameter encoding.
func DefaultGenerationContext() *GenerationContext {
	return &GenerationContext{
		MaxLineLength:  DefaultMaxLineLength,
		ParamValueMode: Rfc2231Only,
	}
}

// NewLineSequenceLength is the width, in columns, that a folded continuation
// line's leading whitespace is assumed to occupy when budgeting the rest of
// the line.
const NewLineSequenceLength = 1
