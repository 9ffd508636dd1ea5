package header

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kisli/vmime-sub006/charset"
	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
	"github.com/kisli/vmime-sub006/word"
)

// Parameter is one "name=value" pair of a parameterized field, reassembled
// from its RFC 2231 segments (if any) at parse time.
type Parameter struct {
	component.Bounds
	Name  string
	Value string
}

func (p *Parameter) Children() []component.Component { return nil }

func (p *Parameter) GeneratedSize(ctx *component.GenerationContext) int {
	return len(p.Name) + len(p.Value) + 16
}

// segment is one raw RFC 2231 fragment collected while scanning a
// parameter list, before the fragments for a given name are assembled.
type segment struct {
	name      string
	index     int // 0 (with hasIndex false) when the attribute had no *<n> section suffix
	hasIndex  bool
	extended  bool // trailing '*' marks this fragment pct-encoded
	value     string
}

// ParameterizedValue is embedded by field value types whose grammar is
// "mainValue SP* (; SP* param)*" (Content-Type, Content-Disposition, and
// any other field built via NewParameterizedField).
type ParameterizedValue struct {
	component.Bounds
	MainValueRaw string
	Params       []*Parameter
}

func (p *ParameterizedValue) FindParameter(name string) *Parameter {
	for _, pr := range p.Params {
		if grammar.EqualFold(pr.Name, name) {
			return pr
		}
	}
	return nil
}

func (p *ParameterizedValue) SetParameter(name, value string) {
	if existing := p.FindParameter(name); existing != nil {
		existing.Value = value
		return
	}
	p.Params = append(p.Params, &Parameter{Name: name, Value: value})
}

func (p *ParameterizedValue) RemoveParameter(name string) {
	out := p.Params[:0]
	for _, pr := range p.Params {
		if !grammar.EqualFold(pr.Name, name) {
			out = append(out, pr)
		}
	}
	p.Params = out
}

// ParseParams implements section 4.H steps 1-4: split the main value from
// the `;`-separated parameter list (respecting quotes), then parse and
// reassemble each parameter, including RFC 2231 segmented/encoded ones.
func (p *ParameterizedValue) ParseParams(ctx *component.ParsingContext, rawBuf []byte, rawBegin, rawEnd int) (mainValueEnd int) {
	// Work on an unfolded copy: the raw field body preserves "CRLF WSP"
	// fold sequences literally (section 4.G step 5), but the parameter
	// grammar (and RFC 2231 section indices) need the logical single-line
	// value, not the wire-folded one.
	buf := []byte(unfold(string(rawBuf[rawBegin:rawEnd])))
	begin, end := 0, len(buf)

	s := grammar.NewStream(buf[:end])
	s.Seek(begin)
	s.SkipIf(isWS, end)
	mainStart := s.GetPosition()
	mainEnd := scanToUnquotedSemicolon(buf, mainStart, end)
	p.MainValueRaw = strings.TrimRight(string(buf[mainStart:mainEnd]), " \t")

	segs := map[string][]segment{}
	order := []string{}

	pos := mainEnd
	for pos < end {
		if buf[pos] != ';' {
			pos++
			continue
		}
		pos++ // skip ';'
		for pos < end && isWS(buf[pos]) {
			pos++
		}
		if pos >= end {
			break
		}
		nameStart := pos
		for pos < end && buf[pos] != '=' && buf[pos] != ';' {
			pos++
		}
		if pos >= end || buf[pos] != '=' {
			// malformed parameter (no '='); skip to next ';'
			pos = scanToUnquotedSemicolon(buf, pos, end)
			continue
		}
		rawName := strings.TrimRight(string(buf[nameStart:pos]), " \t")
		pos++ // skip '='

		valStart := pos
		valEnd := scanToUnquotedSemicolon(buf, valStart, end)
		rawValue := strings.TrimSpace(string(buf[valStart:valEnd]))
		rawValue = unquoteValue(rawValue)
		pos = valEnd

		name, index, hasIndex, extended := parseParamAttribute(rawName)
		if _, ok := segs[name]; !ok {
			order = append(order, name)
		}
		segs[name] = append(segs[name], segment{
			name: name, index: index, hasIndex: hasIndex,
			extended: extended, value: rawValue,
		})
	}

	for _, name := range order {
		p.Params = append(p.Params, assembleParameter(ctx, name, segs[name]))
	}
	return mainEnd
}

// parseParamAttribute splits "attr", "attr*", "attr*0" and "attr*0*" into
// (name, section index, hasIndex, extended-this-fragment).
func parseParamAttribute(raw string) (name string, index int, hasIndex, extended bool) {
	if strings.HasSuffix(raw, "*") {
		extended = true
		raw = raw[:len(raw)-1]
	}
	if star := strings.LastIndexByte(raw, '*'); star >= 0 {
		if n, err := strconv.Atoi(raw[star+1:]); err == nil {
			return raw[:star], n, true, extended
		}
	}
	return raw, 0, false, extended
}

// assembleParameter reassembles one parameter's fragments per section
// 4.H step 4.
func assembleParameter(ctx *component.ParsingContext, name string, frags []segment) *Parameter {
	if len(frags) == 1 && !frags[0].hasIndex {
		f := frags[0]
		if f.extended {
			cs, _, decoded := decodeExtendedValue(f.value)
			return &Parameter{Name: name, Value: transcodeToUTF8(ctx, charset.New(cs), decoded)}
		}
		return &Parameter{Name: name, Value: decodeMozillaWorkaround(f.value)}
	}

	// Fragments are concatenated in encounter order, not sorted by section
	// index: real-world senders sometimes skip indices, and the original
	// parser never re-sorted, so matching that keeps us interoperable with
	// whatever a sender actually wrote rather than an idealized ordering.

	var cs charset.Charset
	var sb strings.Builder
	for i, f := range frags {
		chunk := f.value
		if f.extended {
			if i == 0 {
				var csName string
				csName, _, chunk = decodeExtendedValue(chunk)
				cs = charset.New(csName)
			} else {
				chunk = pctDecode(chunk)
			}
		}
		sb.WriteString(chunk)
	}
	return &Parameter{Name: name, Value: transcodeToUTF8(ctx, cs, sb.String())}
}

// decodeExtendedValue splits and percent-decodes an RFC 2231 extended
// value "charset'language'pct-encoded-bytes", returning the charset name,
// language tag, and the percent-decoded payload.
func decodeExtendedValue(raw string) (cs, lang, decoded string) {
	parts := strings.SplitN(raw, "'", 3)
	if len(parts) == 3 {
		return parts[0], parts[1], pctDecode(parts[2])
	}
	return "", "", pctDecode(raw)
}

func pctDecode(s string) string {
	// percent-encoding here is RFC 2231's (a subset of RFC 3986's), and
	// url.QueryUnescape additionally treats '+' as space, which RFC 2231
	// does not specify; PathUnescape doesn't have that quirk.
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func transcodeToUTF8(ctx *component.ParsingContext, cs charset.Charset, s string) string {
	if cs.IsEmpty() || cs.IsUTF8() || cs.IsASCII() {
		return s
	}
	lenient := ctx == nil || ctx.CharsetConvOptions.Lenient
	out, err := charset.Default.Convert([]byte(s), cs, charset.UTF8, charset.DecodeOptions{Lenient: lenient})
	if err != nil {
		return s
	}
	return string(out)
}

// decodeMozillaWorkaround handles a non-RFC-2231-encoded fragment that is
// nonetheless an RFC 2047 encoded word, a combination some old Mozilla
// builds produced; section 4.H step 4 calls this out explicitly.
func decodeMozillaWorkaround(s string) string {
	if w, _, ok := word.ParseEncodedWord([]byte(s), 0); ok {
		decoded, err := w.DecodeTo(charset.UTF8, charset.Default, charset.DecodeOptions{Lenient: true})
		if err == nil {
			return decoded
		}
	}
	return s
}

// scanToUnquotedSemicolon returns the offset of the first unquoted,
// unescaped ';' at or after start, or end if none exists. RFC 2047
// encoded words ("=?...?=") are also protected since a literal ';' can
// appear inside the base64/Q payload of a charset-encoded phrase.
func scanToUnquotedSemicolon(buf []byte, start, end int) int {
	inQuotes := false
	i := start
	for i < end {
		b := buf[i]
		switch {
		case b == '\\' && inQuotes && i+1 < end:
			i += 2
			continue
		case b == '=' && !inQuotes:
			if _, next, ok := word.ParseEncodedWord(buf[:end], i); ok {
				i = next
				continue
			}
		case b == '"':
			inQuotes = !inQuotes
		case b == ';' && !inQuotes:
			return i
		}
		i++
	}
	return end
}

// unquoteValue strips surrounding quotes and resolves backslash escapes
// from a parameter value, per section 4.H step 2.
func unquoteValue(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		sb.WriteByte(inner[i])
	}
	return sb.String()
}

// GenerateParams renders the parameter list per generationContext.ParamValueMode
// (section 4.H). curLinePos is the column after the main value has already
// been written; it returns the rendered ";..." suffix and the resulting
// column position.
func (p *ParameterizedValue) GenerateParams(ctx *component.GenerationContext, curLinePos int) (string, int) {
	var sb strings.Builder
	pos := curLinePos
	for _, param := range p.Params {
		chunk, newPos := generateOneParam(ctx, param, pos)
		sb.WriteString(chunk)
		pos = newPos
	}
	return sb.String(), pos
}

func generateOneParam(ctx *component.GenerationContext, p *Parameter, curLinePos int) (string, int) {
	mode := ctx.ParamValueMode
	ascii := isAllAsciiString(p.Value)

	switch mode {
	case component.NoEncoding:
		val := quoteIfNeeded(p.Value)
		chunk := fmt.Sprintf("; %s=%s", p.Name, val)
		return foldIfNeeded(ctx, chunk, curLinePos)

	case component.Rfc2047Only:
		var val string
		if ascii {
			val = quoteIfNeeded(p.Value)
		} else {
			val = `"` + word.EncodeWord(word.New([]byte(p.Value), charset.UTF8)) + `"`
		}
		chunk := fmt.Sprintf("; %s=%s", p.Name, val)
		return foldIfNeeded(ctx, chunk, curLinePos)

	case component.Both:
		rfc2231, pos := generateRfc2231Param(ctx, p, curLinePos)
		compat := quoteIfNeeded(asciiTransliterate(p.Value))
		compatChunk := fmt.Sprintf("; %s=%s", p.Name, compat)
		compatOut, pos2 := foldIfNeeded(ctx, compatChunk, curLinePos)
		return compatOut + rfc2231, pos + (pos2 - curLinePos)

	default: // Rfc2231Only
		return generateRfc2231Param(ctx, p, curLinePos)
	}
}

// generateRfc2231Param implements the default encoding mode: a single
// "name*=charset''pct-encoded" section if it fits the line budget, else
// split into "name*0*=...", "name*1*=...", ... sections (section 4.H).
func generateRfc2231Param(ctx *component.GenerationContext, p *Parameter, curLinePos int) (string, int) {
	if isAllAsciiString(p.Value) && isToken(p.Value) {
		chunk := fmt.Sprintf("; %s=%s", p.Name, p.Value)
		return foldIfNeeded(ctx, chunk, curLinePos)
	}

	encoded := pctEncode(p.Value)
	single := fmt.Sprintf("; %s*=%s''%s", p.Name, "utf-8", encoded)
	if curLinePos+len(single) <= ctx.MaxLineLength {
		return foldIfNeeded(ctx, single, curLinePos)
	}

	// split into sections, each budgeted to fit the remaining line width
	var sb strings.Builder
	pos := curLinePos
	section := 0
	remaining := encoded
	first := true
	for len(remaining) > 0 || first {
		prefix := fmt.Sprintf("; %s*%d*=", p.Name, section)
		if first {
			prefix = fmt.Sprintf("; %s*%d*=%s''", p.Name, section, "utf-8")
		}
		budget := ctx.MaxLineLength - pos - len(prefix)
		if budget < 5 {
			sb.WriteString("\r\n ")
			pos = component.NewLineSequenceLength
			budget = ctx.MaxLineLength - pos - len(prefix)
		}
		if budget < 1 {
			budget = 1
		}
		take := budget
		if take > len(remaining) {
			take = len(remaining)
		}
		chunk := prefix + remaining[:take]
		sb.WriteString(chunk)
		pos += len(chunk)
		remaining = remaining[take:]
		section++
		first = false
		if len(remaining) == 0 {
			break
		}
	}
	return sb.String(), pos
}

func foldIfNeeded(ctx *component.GenerationContext, chunk string, curLinePos int) (string, int) {
	if curLinePos+len(chunk) <= ctx.MaxLineLength || curLinePos == component.NewLineSequenceLength {
		return chunk, curLinePos + len(chunk)
	}
	folded := "\r\n " + strings.TrimLeft(chunk, " ")
	return folded, component.NewLineSequenceLength + len(strings.TrimLeft(chunk, " "))
}

func isAllAsciiString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 128 {
			return false
		}
	}
	return true
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !grammar.IsToken(s[i]) {
			return false
		}
	}
	return true
}

func quoteIfNeeded(s string) string {
	if isToken(s) {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func pctEncode(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if grammar.IsToken(b) && b != '%' && b != '*' && b != '\'' {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}
	return sb.String()
}

// asciiTransliterate is the Both mode's degraded 7-bit compatibility
// rendering: non-ASCII bytes become '?', since the RFC 2231 section carries
// the faithful value.
func asciiTransliterate(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 128 {
			b[i] = '?'
		}
	}
	return string(b)
}
