package charset

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// ProgressFunc is called periodically during Encode/Decode with the number
// of bytes processed so far, so a caller streaming a large attachment can
// drive a progress bar. May be nil.
type ProgressFunc func(bytesDone int)

// Coder is a content-transfer-encoder/decoder (section 4.C). Encode and
// Decode both return the transformed bytes.
type Coder interface {
	Encode(input []byte, progress ProgressFunc) ([]byte, error)
	Decode(input []byte, progress ProgressFunc) ([]byte, error)
}

// CoderFor returns the Coder implementing the named content-transfer-encoding.
func CoderFor(name string) (Coder, error) {
	switch NewEncoding(name).Name {
	case Encoding7Bit, Encoding8Bit:
		return identityCoder{}, nil
	case EncodingBinary:
		return identityCoder{}, nil
	case EncodingBase64:
		return base64Coder{}, nil
	case EncodingQuotedPrintable:
		return qpCoder{}, nil
	case EncodingUUEncode, "uuencode":
		return uuCoder{}, nil
	default:
		return nil, fmt.Errorf("charset: unsupported content-transfer-encoding %q", name)
	}
}

// identityCoder implements 7bit, 8bit and binary: all three are a verbatim
// copy at the byte level, they only differ in what the declaration promises
// about the payload (bytes are always passed through unchanged regardless).
type identityCoder struct{}

func (identityCoder) Encode(input []byte, progress ProgressFunc) ([]byte, error) {
	if progress != nil {
		progress(len(input))
	}
	return input, nil
}

func (identityCoder) Decode(input []byte, progress ProgressFunc) ([]byte, error) {
	if progress != nil {
		progress(len(input))
	}
	return input, nil
}

// base64Coder implements RFC 2045 section 6.8: 76-character lines, CRLF
// between lines.
type base64Coder struct{}

const base64LineLen = 76

func (base64Coder) Encode(input []byte, progress ProgressFunc) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(input)
	var out bytes.Buffer
	for i := 0; i < len(encoded); i += base64LineLen {
		end := i + base64LineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		out.WriteString(encoded[i:end])
		out.WriteString("\r\n")
		if progress != nil {
			progress(end)
		}
	}
	return out.Bytes(), nil
}

func (base64Coder) Decode(input []byte, progress ProgressFunc) ([]byte, error) {
	// Strip line breaks and any stray whitespace before decoding: base64
	// text arriving over a mail transport is always line-wrapped, and
	// Go's decoder doesn't tolerate embedded newlines.
	stripped := make([]byte, 0, len(input))
	for _, b := range input {
		if b == '\r' || b == '\n' || b == ' ' || b == '\t' {
			continue
		}
		stripped = append(stripped, b)
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(stripped)))
	n, err := base64.StdEncoding.Decode(out, stripped)
	if err != nil {
		// tolerate missing padding, common from broken generators
		if n2, err2 := base64.RawStdEncoding.Decode(out, stripped); err2 == nil {
			n, err = n2, nil
		}
	}
	if progress != nil {
		progress(n)
	}
	return out[:n], err
}

// qpCoder implements RFC 2045 section 6.7: encode '=', control bytes and
// trailing whitespace, soft-break with a trailing '=' to stay within 76
// columns, and pass literal CRLF through unencoded.
type qpCoder struct{}

const qpLineLen = 76

func (qpCoder) Encode(input []byte, progress ProgressFunc) ([]byte, error) {
	var out bytes.Buffer
	lineLen := 0
	// a soft break appends '=' to the line, so content stops one column short
	limit := qpLineLen - 1
	flushSoftBreak := func() {
		out.WriteString("=\r\n")
		lineLen = 0
	}
	writeEscaped := func(b byte) {
		if lineLen+3 > limit {
			flushSoftBreak()
		}
		fmt.Fprintf(&out, "=%02X", b)
		lineLen += 3
	}
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == '\r' && i+1 < len(input) && input[i+1] == '\n':
			out.WriteString("\r\n")
			lineLen = 0
			i++
		case b == '\n':
			out.WriteString("\r\n")
			lineLen = 0
		case b == '=':
			writeEscaped(b)
		case b >= 33 && b <= 126:
			if lineLen+1 > limit {
				flushSoftBreak()
			}
			out.WriteByte(b)
			lineLen++
		case b == ' ' || b == '\t':
			// space/tab is only safe to emit literally if it isn't the last
			// byte of a line; since we don't know what's next, escape it
			// whenever it's followed by a line break or by nothing, and
			// otherwise emit it literally.
			nextIsEOL := i+1 >= len(input) || input[i+1] == '\r' || input[i+1] == '\n'
			if nextIsEOL {
				writeEscaped(b)
			} else {
				if lineLen+1 > limit {
					flushSoftBreak()
				}
				out.WriteByte(b)
				lineLen++
			}
		default:
			writeEscaped(b)
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return out.Bytes(), nil
}

func (qpCoder) Decode(input []byte, progress ProgressFunc) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(input); i++ {
		b := input[i]
		if b != '=' {
			out.WriteByte(b)
			if progress != nil {
				progress(i + 1)
			}
			continue
		}
		// soft line break: "=\r\n" or "=\n" is simply elided
		if i+2 < len(input) && input[i+1] == '\r' && input[i+2] == '\n' {
			i += 2
			continue
		}
		if i+1 < len(input) && input[i+1] == '\n' {
			i++
			continue
		}
		if i+2 < len(input) && isHex(input[i+1]) && isHex(input[i+2]) {
			out.WriteByte(hexVal(input[i+1])<<4 | hexVal(input[i+2]))
			i += 2
			continue
		}
		// malformed escape: pass the '=' through verbatim, tolerant of
		// encoders that get this wrong rather than failing the whole decode
		out.WriteByte(b)
		if progress != nil {
			progress(i + 1)
		}
	}
	return out.Bytes(), nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	default:
		return b - 'a' + 10
	}
}

// uuCoder implements the legacy uuencode format: 45 bytes of input per
// line, length-prefixed and terminated with "`\nend\n".
type uuCoder struct{}

const uuLineLen = 45

func uuEnc(b byte) byte {
	if b == 0 {
		return '`'
	}
	return (b & 0x3f) + ' '
}

func uuDec(b byte) byte {
	if b == '`' {
		return 0
	}
	return (b - ' ') & 0x3f
}

func (uuCoder) Encode(input []byte, progress ProgressFunc) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(input); i += uuLineLen {
		end := i + uuLineLen
		if end > len(input) {
			end = len(input)
		}
		chunk := input[i:end]
		out.WriteByte(uuEnc(byte(len(chunk))))
		for j := 0; j < len(chunk); j += 3 {
			var b [3]byte
			copy(b[:], chunk[j:min(j+3, len(chunk))])
			out.WriteByte(uuEnc(b[0] >> 2))
			out.WriteByte(uuEnc((b[0]<<4 | b[1]>>4) & 0x3f))
			out.WriteByte(uuEnc((b[1]<<2 | b[2]>>6) & 0x3f))
			out.WriteByte(uuEnc(b[2] & 0x3f))
		}
		out.WriteString("\n")
		if progress != nil {
			progress(end)
		}
	}
	out.WriteString("`\nend\n")
	return out.Bytes(), nil
}

func (uuCoder) Decode(input []byte, progress ProgressFunc) ([]byte, error) {
	var out bytes.Buffer
	lines := bytes.Split(input, []byte("\n"))
	for _, line := range lines {
		if len(line) == 0 || line[0] == '`' || string(line) == "end" {
			continue
		}
		n := int(uuDec(line[0]))
		data := line[1:]
		written := 0
		j := 0
		for j+3 < len(data) && written < n {
			b0, b1, b2, b3 := uuDec(data[j]), uuDec(data[j+1]), uuDec(data[j+2]), uuDec(data[j+3])
			group := []byte{b0<<2 | b1>>4, b1<<4 | b2>>2, b2<<6 | b3}
			take := n - written
			if take > 3 {
				take = 3
			}
			out.Write(group[:take])
			written += take
			j += 4
		}
		if progress != nil {
			progress(out.Len())
		}
	}
	return out.Bytes(), nil
}
