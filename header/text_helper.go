package header

import (
	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/word"
)

// ParseText turns an unfolded header body into a word.Text, honoring RFC
// 2047 encoded words, defaulting unencoded runs to US-ASCII unless the
// parsing context has opted into RFC 6532 internationalized headers, in
// which case unencoded bytes are assumed to already be UTF-8.
func ParseText(raw string, ctx *component.ParsingContext) word.Text {
	def := charset.ASCII
	if ctx != nil && ctx.InternationalizedEmail {
		def = charset.UTF8
	}
	return word.ParseText([]byte(raw), def)
}

// DecodeText decodes every word of t into UTF-8 using the default charset
// converter, discarding any per-word conversion error (malformed or
// unknown charsets fall back to the word's raw bytes).
func DecodeText(t word.Text) string {
	s, _ := t.DecodeTo(charset.UTF8, charset.Default, charset.DecodeOptions{Lenient: true})
	return s
}
