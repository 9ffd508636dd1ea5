//go:build iconv

// This file enables using GNU iconv for charset conversion in place of the
// golang.org/x/text table, for the wider range of encodings (in particular
// CJK code pages like cp949/euc-kr) iconv supports that golang.org/x/text
// doesn't ship tables for. It's a cgo package; the build environment needs
// the GNU iconv headers available. Opt in with `-tags iconv`.
package charset

import (
	"fmt"

	ico "gopkg.in/iconv.v1"
)

// IconvConverter converts via the system's iconv(3). Assign it to Default
// (or pass explicitly) to prefer it over the pure-Go table.
var IconvConverter Converter = iconvConverter{}

type iconvConverter struct{}

func (iconvConverter) Convert(in []byte, from, to Charset, opts DecodeOptions) ([]byte, error) {
	toName := to.String()
	if to.IsEmpty() {
		toName = "UTF-8"
	}
	cd, err := ico.Open(toName, Normalize(from.String()))
	if err != nil {
		if opts.Lenient {
			return in, nil
		}
		return nil, fmt.Errorf("charset: iconv open %s -> %s: %w", from, to, err)
	}
	defer cd.Close()
	out, err := cd.Conv(string(in))
	if err != nil {
		if opts.Lenient {
			return in, nil
		}
		return nil, fmt.Errorf("charset: iconv convert: %w", err)
	}
	return []byte(out), nil
}

func init() {
	Default = IconvConverter
}
