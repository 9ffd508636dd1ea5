// Package charset models IANA character sets, the transfer-encoding a
// charset recommends, and the content-transfer-encoding codecs (7bit, 8bit,
// binary, base64, quoted-printable, uuencode) defined by RFC 2045 section 6.
//
// Actual byte transcoding between charsets is delegated to an external
// collaborator (section 6 of the spec): by default golang.org/x/text's
// htmlindex tables (see convert.go), with an optional GNU iconv backend (see iconv.go,
// built only with -tags iconv) for the wider range of legacy encodings mail
// from the 1990s still shows up in.
package charset

import "strings"

// Charset identifies a character set by its IANA-registered name. Equality
// is case-insensitive, per RFC 2045.
type Charset struct {
	name string
}

// New wraps name as a Charset. No validation is performed - unknown names
// are preserved verbatim so a round trip never loses information, callers
// that need to convert simply get an error from Convert when the name is
// unrecognized by the backend.
func New(name string) Charset { return Charset{name: strings.TrimSpace(name)} }

// ASCII, UTF8 and ISO88591 are the charsets most other code in this module
// checks for by identity.
var (
	ASCII    = New("us-ascii")
	UTF8     = New("utf-8")
	ISO88591 = New("iso-8859-1")
)

func (c Charset) String() string { return c.name }

// IsEmpty reports whether no charset name was ever set.
func (c Charset) IsEmpty() bool { return c.name == "" }

// Equals compares two charsets case-insensitively, treating the empty
// charset as equal only to itself.
func (c Charset) Equals(o Charset) bool {
	return strings.EqualFold(c.name, o.name)
}

// IsASCII reports whether this names the US-ASCII charset (under any of its
// common aliases).
func (c Charset) IsASCII() bool {
	switch strings.ToLower(c.name) {
	case "us-ascii", "ascii", "ansi_x3.4-1968":
		return true
	}
	return false
}

// IsUTF8 reports whether this names UTF-8.
func (c Charset) IsUTF8() bool {
	return strings.EqualFold(c.name, "utf-8") || strings.EqualFold(c.name, "utf8")
}

// RecommendedEncoding returns the content-transfer-encoding that should
// always be used for this charset, and whether one is recommended at all.
// ASCII text doesn't need one (7bit suffices); UTF-8 recommends
// quoted-printable (it stays mostly readable and only inflates multi-byte
// runs); every other charset recommends base64, since QP's escaping
// overhead is unpredictable once the byte distribution isn't "mostly ASCII".
func (c Charset) RecommendedEncoding() (name string, ok bool) {
	switch {
	case c.IsASCII():
		return "", false
	case c.IsUTF8():
		return "quoted-printable", true
	default:
		return "base64", true
	}
}

// Normalize rewrites a handful of common charset aliases MUAs emit into
// their canonical IANA form, so lookups against a canonical table succeed.
// Grounded on the alias table found useful for interop with old Outlook
// Express / Mozilla builds: ks_c_5601-1987 -> cp949, x-euc-* -> euc-*,
// x-windows-* -> cp*, windows-* -> cp*, ibm* -> cp*.
func Normalize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case lower == "ks_c_5601-1987" || lower == "ks-c-5601-1987":
		return "cp949"
	case strings.HasPrefix(lower, "x-euc"):
		return "euc" + lower[len("x-euc"):]
	case strings.HasPrefix(lower, "x-windows-") || strings.HasPrefix(lower, "x-windows_"):
		return "cp" + lower[len("x-windows-"):]
	case strings.HasPrefix(lower, "windows-"):
		return "cp" + lower[len("windows-"):]
	case strings.HasPrefix(lower, "ibm") && lower != "ibm":
		return "cp" + lower[len("ibm"):]
	case lower == "iso-8859-8-i":
		return "iso-8859-8"
	default:
		return lower
	}
}
