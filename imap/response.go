package imap

import (
	"strconv"
	"strings"
)

// Response is one fully-read IMAP response line (section 4.N): either
// tagged ("A0003 OK ... "), untagged ("* ..."), or a command continuation
// request ("+ ..."). Any literal syntax "{n}" embedded in Text has already
// been read off the wire and substituted in by readResponseLine.
type Response struct {
	Tag          string // "" for untagged/continuation
	Untagged     bool
	Continuation bool
	Status       string // OK | NO | BAD | PREAUTH | BYE, "" if not status-like
	Code         string // response-text code, e.g. "CAPABILITY IMAP4rev1 STARTTLS", "" if none
	Text         string // human-readable text, or the untagged payload when Status == ""
}

// parseResponseLine classifies one already literal-resolved line.
func parseResponseLine(line string) Response {
	if strings.HasPrefix(line, "+") {
		return Response{Continuation: true, Text: strings.TrimSpace(line[1:])}
	}
	if strings.HasPrefix(line, "* ") {
		r := Response{Untagged: true}
		rest := line[2:]
		status, code, text, hasStatus := splitStatusLine(rest)
		if hasStatus {
			r.Status, r.Code, r.Text = status, code, text
		} else {
			r.Text = rest
		}
		return r
	}
	// tagged: "<tag> OK|NO|BAD ..."
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return Response{Tag: line}
	}
	tag := line[:sp]
	rest := line[sp+1:]
	status, code, text, hasStatus := splitStatusLine(rest)
	if !hasStatus {
		return Response{Tag: tag, Text: rest}
	}
	return Response{Tag: tag, Status: status, Code: code, Text: text}
}

var statusWords = map[string]bool{"OK": true, "NO": true, "BAD": true, "PREAUTH": true, "BYE": true}

// splitStatusLine splits "OK [CODE ...] human text" into its three parts.
func splitStatusLine(s string) (status, code, text string, ok bool) {
	sp := strings.IndexByte(s, ' ')
	word := s
	remainder := ""
	if sp >= 0 {
		word = s[:sp]
		remainder = s[sp+1:]
	}
	if !statusWords[strings.ToUpper(word)] {
		return "", "", "", false
	}
	status = strings.ToUpper(word)
	if strings.HasPrefix(remainder, "[") {
		if end := strings.IndexByte(remainder, ']'); end >= 0 {
			code = remainder[1:end]
			text = strings.TrimSpace(remainder[end+1:])
			return status, code, text, true
		}
	}
	return status, "", remainder, true
}

// CodeHasCapability reports whether r.Code is a "CAPABILITY ..." response
// text code (the greeting optimization in section 4.N), returning the
// capability tokens if so.
func (r Response) CodeHasCapability() ([]string, bool) {
	fields := strings.Fields(r.Code)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "CAPABILITY") {
		return nil, false
	}
	return fields[1:], true
}

// mailboxEvent describes a numeric untagged response like "* 12 EXISTS" or
// "* 3 EXPUNGE".
type mailboxEvent struct {
	Num  int
	Verb string
}

// parseMailboxEvent recognizes "<digits> <VERB...>" untagged text.
func parseMailboxEvent(text string) (mailboxEvent, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return mailboxEvent{}, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return mailboxEvent{}, false
	}
	return mailboxEvent{Num: n, Verb: strings.ToUpper(fields[1])}, true
}

// quoteString renders s as an IMAP quoted string, backslash-escaping '"'
// and '\\'. It always produces the quoted form: control bytes are copied
// as they are and no "{n}" literal is ever used.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}
