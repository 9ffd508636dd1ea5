package charset

import (
	"fmt"
	"io"

	xcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Converter is the external charset-conversion collaborator (section 6):
// transcode a byte sequence declared to be in one charset into another.
// DecodeOptions.Lenient controls whether unmappable bytes cause an error or
// get transliterated (best-effort substitution, typically U+FFFD).
type Converter interface {
	Convert(in []byte, from, to Charset, opts DecodeOptions) ([]byte, error)
}

// DecodeOptions mirrors component.CharsetConvOptions without introducing an
// import cycle between charset and component.
type DecodeOptions struct {
	Lenient bool
}

// Default is the package-level Converter used when callers don't supply
// their own. It looks each charset up (after Normalize) in golang.org/x/text's
// htmlindex registry only; a name that registry doesn't know is reported as
// an unknown charset. DecodeReader, by contrast, resolves its label through
// golang.org/x/net/html/charset.
var Default Converter = htmlCharsetConverter{}

type htmlCharsetConverter struct{}

func (htmlCharsetConverter) Convert(in []byte, from, to Charset, opts DecodeOptions) ([]byte, error) {
	if from.Equals(to) || (from.IsASCII() && to.IsUTF8()) {
		return in, nil
	}
	dec, err := lookupDecoder(from)
	if err != nil {
		if opts.Lenient {
			return in, nil
		}
		return nil, err
	}
	utf8Bytes, err := dec.Bytes(in)
	if err != nil && !opts.Lenient {
		return nil, fmt.Errorf("charset: decode from %s: %w", from, err)
	}
	if to.IsUTF8() || to.IsEmpty() {
		return utf8Bytes, nil
	}
	enc, err := lookupEncoder(to)
	if err != nil {
		if opts.Lenient {
			return utf8Bytes, nil
		}
		return nil, err
	}
	out, err := enc.Bytes(utf8Bytes)
	if err != nil && !opts.Lenient {
		return nil, fmt.Errorf("charset: encode to %s: %w", to, err)
	}
	return out, nil
}

func lookupDecoder(cs Charset) (*encoding.Decoder, error) {
	name := Normalize(cs.String())
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset: unknown charset %q", cs)
	}
	return e.NewDecoder(), nil
}

func lookupEncoder(cs Charset) (*encoding.Encoder, error) {
	name := Normalize(cs.String())
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset: unknown charset %q", cs)
	}
	return e.NewEncoder(), nil
}

// DecodeReader wraps r, a stream declared to be in the named charset, to
// yield UTF-8 bytes. Used when decoding a body or header value without
// first buffering all of it.
func DecodeReader(label string, r io.Reader) (io.Reader, error) {
	return xcharset.NewReaderLabel(Normalize(label), r)
}
