// Package imap implements the IMAP4rev1 client connection core (section
// 4.N): tagged commands, untagged response routing, STARTTLS, LOGIN/SASL
// authentication, and the handful of folder operations named by the spec.
package imap

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/kisli/vmime-sub006/config"
	"github.com/kisli/vmime-sub006/errs"
	"github.com/kisli/vmime-sub006/log"
	"github.com/kisli/vmime-sub006/response"
	"github.com/kisli/vmime-sub006/sasl"
	"github.com/kisli/vmime-sub006/tlsutil"
)

// State is a coarse view of the RFC 3501 state machine (section "State
// machines summary"): NotAuthenticated -> Authenticated <-> Selected -> Logout.
type State int

const (
	NotAuthenticated State = iota
	Authenticated
	Selected
	Logout
	Closed
)

// SelectResult is the subset of SELECT/EXAMINE response data callers need.
type SelectResult struct {
	Mailbox       string
	ReadOnly      bool
	Exists        int
	Recent        int
	UIDValidity   uint32
	HighestModSeq uint64
}

// ListEntry is one "(flags) sep name" triple from a LIST response.
type ListEntry struct {
	Flags []string
	Sep   string
	Name  string
}

// Connection drives one IMAP client connection. It is not safe for
// concurrent use (section 5: single-threaded cooperative per connection).
type Connection struct {
	svc *config.Service
	log log.Logger

	conn  net.Conn
	r     *response.Reader
	state State
	tagN  int

	capabilities map[string]bool
	capsValid    bool

	hierarchySep string
	mailbox      string

	Events *EventBus
}

// New returns a disconnected Connection for svc.
func New(svc *config.Service, logger log.Logger) *Connection {
	return &Connection{svc: svc, log: logger, state: Closed, Events: NewEventBus()}
}

func (c *Connection) nextTag() string {
	c.tagN++
	return fmt.Sprintf("A%04d", c.tagN)
}

// Connect dials the server, reads the greeting, optionally negotiates
// STARTTLS, authenticates, and discovers the hierarchy separator (section
// 4.N "Connect").
func (c *Connection) Connect() error {
	if c.state != Closed {
		return &errs.AlreadyConnected{}
	}
	conn, err := net.Dial("tcp", c.svc.Addr())
	if err != nil {
		return err
	}
	if c.svc.ConnectionTLS {
		tlsConn := tls.Client(conn, tlsutil.Config(c.svc.ServerAddress, "", nil, nil))
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return &errs.TlsError{Detail: err.Error()}
		}
		conn = tlsConn
	}
	c.conn = conn
	c.r = response.NewReader(conn, c.svc.EffectiveTimeout())

	greeting, err := c.readResponseLine()
	if err != nil {
		return err
	}
	if strings.EqualFold(greeting.Status, "BYE") {
		_ = conn.Close()
		return &errs.ConnectionGreetingError{Banner: greeting.Text}
	}
	if !strings.EqualFold(greeting.Status, "OK") && !strings.EqualFold(greeting.Status, "PREAUTH") {
		_ = conn.Close()
		return &errs.ConnectionGreetingError{Banner: greeting.Text}
	}
	c.state = NotAuthenticated
	if strings.EqualFold(greeting.Status, "PREAUTH") {
		c.state = Authenticated
	}
	if caps, ok := greeting.CodeHasCapability(); ok {
		c.setCapabilities(caps)
	}

	if !c.svc.ConnectionTLS && c.svc.ConnectionTLSRequired {
		if err := c.StartTLS(); err != nil {
			return err
		}
	}

	if c.state == NotAuthenticated && c.svc.OptionsNeedAuth {
		if err := c.authenticate(); err != nil {
			return err
		}
	}

	if err := c.discoverHierarchySeparator(); err != nil {
		return err
	}
	return nil
}

// StartTLS issues STARTTLS, performs the handshake, and discards cached
// capabilities per section 4.N.
func (c *Connection) StartTLS() error {
	_, tagged, err := c.sendCommand("STARTTLS")
	if err != nil {
		return err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return &errs.CommandError{Command: "STARTTLS", Response: tagged.Text}
	}
	tlsConn := tls.Client(c.conn, tlsutil.Config(c.svc.ServerAddress, "", nil, nil))
	if err := tlsConn.Handshake(); err != nil {
		c.state = Closed
		return &errs.TlsError{Detail: err.Error()}
	}
	c.conn = tlsConn
	c.r.Reset(tlsConn)
	c.capsValid = false
	return nil
}

func (c *Connection) authenticate() error {
	if c.svc.OptionsSasl {
		caps, err := c.Capability()
		if err == nil {
			var offered []string
			for _, capability := range caps {
				if strings.HasPrefix(strings.ToUpper(capability), "AUTH=") {
					offered = append(offered, strings.ToUpper(capability[len("AUTH="):]))
				}
			}
			if mech, ok := sasl.SuggestMechanism(offered); ok {
				if err := c.AuthenticateSASL(mech); err == nil {
					return nil
				} else if !c.svc.OptionsSaslFallback {
					return err
				}
			}
		}
	}
	return c.Login(c.svc.AuthUsername, c.svc.AuthPassword)
}

// Login authenticates via the plaintext LOGIN command.
func (c *Connection) Login(username, password string) error {
	cmd := "LOGIN " + quoteString(username) + " " + quoteString(password)
	_, tagged, err := c.sendCommand(cmd)
	if err != nil {
		return err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return &errs.AuthenticationError{Detail: tagged.Text}
	}
	c.state = Authenticated
	c.capsValid = false
	return nil
}

// AuthenticateSASL runs "AUTHENTICATE <mech>" and the challenge/response
// loop (mirrors SMTP's AUTH loop, section 4.M, adapted to IMAP's "+ "
// continuation-request framing instead of SMTP's 334 code).
func (c *Connection) AuthenticateSASL(mechName string) error {
	mech, err := sasl.New(mechName, sasl.Authenticator{Username: c.svc.AuthUsername, Password: c.svc.AuthPassword})
	if err != nil {
		return err
	}
	tag := c.nextTag()
	cmd := tag + " AUTHENTICATE " + mechName
	if mech.HasInitialResponse() {
		resp, _, err := mech.Step(nil)
		if err != nil {
			return &errs.SaslError{Detail: err.Error()}
		}
		cmd += " " + base64.StdEncoding.EncodeToString(resp)
	}
	if err := c.r.WriteLine(cmd); err != nil {
		return err
	}
	for {
		line, err := c.readResponseLine()
		if err != nil {
			return err
		}
		if line.Tag == tag {
			if !strings.EqualFold(line.Status, "OK") {
				return &errs.AuthenticationError{Detail: line.Text}
			}
			c.state = Authenticated
			c.capsValid = false
			return nil
		}
		if line.Continuation {
			challenge, _ := base64.StdEncoding.DecodeString(line.Text)
			resp, done, err := mech.Step(challenge)
			if err != nil {
				_ = c.r.WriteLine("*")
				return &errs.SaslError{Detail: err.Error()}
			}
			out := ""
			if !done {
				out = base64.StdEncoding.EncodeToString(resp)
			}
			if err := c.r.WriteLine(out); err != nil {
				return err
			}
			continue
		}
		c.routeUntagged(line)
	}
}

// Capability returns the cached capability list, querying the server if
// the cache was invalidated (by STARTTLS or authentication).
func (c *Connection) Capability() ([]string, error) {
	if c.capsValid {
		out := make([]string, 0, len(c.capabilities))
		for k := range c.capabilities {
			out = append(out, k)
		}
		return out, nil
	}
	untagged, tagged, err := c.sendCommand("CAPABILITY")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return nil, &errs.CommandError{Command: "CAPABILITY", Response: tagged.Text}
	}
	for _, u := range untagged {
		if strings.HasPrefix(strings.ToUpper(u.Text), "CAPABILITY") {
			c.setCapabilities(strings.Fields(u.Text)[1:])
		}
	}
	out := make([]string, 0, len(c.capabilities))
	for k := range c.capabilities {
		out = append(out, k)
	}
	return out, nil
}

func (c *Connection) setCapabilities(caps []string) {
	c.capabilities = make(map[string]bool, len(caps))
	for _, cp := range caps {
		c.capabilities[strings.ToUpper(cp)] = true
	}
	c.capsValid = true
}

func (c *Connection) discoverHierarchySeparator() error {
	entries, err := c.List("", "")
	if err != nil || len(entries) == 0 || entries[0].Sep == "" {
		c.hierarchySep = "/"
		return nil
	}
	c.hierarchySep = entries[0].Sep
	return nil
}

// List issues "LIST reference pattern" and parses the "(flags) sep name"
// triples (section 4.N).
func (c *Connection) List(reference, pattern string) ([]ListEntry, error) {
	cmd := "LIST " + quoteString(reference) + " " + quoteString(pattern)
	untagged, tagged, err := c.sendCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return nil, &errs.CommandError{Command: "LIST", Response: tagged.Text}
	}
	var out []ListEntry
	for _, u := range untagged {
		if !strings.HasPrefix(strings.ToUpper(u.Text), "LIST") {
			continue
		}
		if e, ok := parseListLine(u.Text[len("LIST"):]); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func parseListLine(rest string) (ListEntry, bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") {
		return ListEntry{}, false
	}
	closeParen := strings.IndexByte(rest, ')')
	if closeParen < 0 {
		return ListEntry{}, false
	}
	flags := strings.Fields(rest[1:closeParen])
	rest = strings.TrimSpace(rest[closeParen+1:])
	fields := splitQuotedFields(rest)
	if len(fields) < 2 {
		return ListEntry{}, false
	}
	return ListEntry{Flags: flags, Sep: unquote(fields[0]), Name: unquote(fields[1])}, true
}

func splitQuotedFields(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ' ' && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Select issues SELECT (or EXAMINE if readOnly) and returns the mailbox's
// status (section 4.N).
func (c *Connection) Select(mailbox string, readOnly bool) (*SelectResult, error) {
	verb := "SELECT"
	if readOnly {
		verb = "EXAMINE"
	}
	untagged, tagged, err := c.sendCommand(verb + " " + quoteString(mailbox))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return nil, &errs.CommandError{Command: verb, Response: tagged.Text}
	}
	res := &SelectResult{Mailbox: mailbox, ReadOnly: readOnly}
	for _, u := range untagged {
		if ev, ok := parseMailboxEvent(u.Text); ok {
			switch ev.Verb {
			case "EXISTS":
				res.Exists = ev.Num
			case "RECENT":
				res.Recent = ev.Num
			}
		}
	}
	codes := []string{tagged.Code}
	for _, u := range untagged {
		codes = append(codes, u.Code)
	}
	for _, code := range codes {
		uv, hm := parseSelectCode(code)
		if uv != 0 {
			res.UIDValidity = uv
		}
		if hm != 0 {
			res.HighestModSeq = hm
		}
	}
	c.state = Selected
	c.mailbox = mailbox
	return res, nil
}

func parseSelectCode(code string) (uidValidity uint32, highestModSeq uint64) {
	fields := strings.Fields(code)
	for i := 0; i < len(fields); i++ {
		switch strings.ToUpper(fields[i]) {
		case "UIDVALIDITY":
			if i+1 < len(fields) {
				if n, err := strconv.ParseUint(fields[i+1], 10, 32); err == nil {
					uidValidity = uint32(n)
				}
			}
		case "HIGHESTMODSEQ":
			if i+1 < len(fields) {
				if n, err := strconv.ParseUint(fields[i+1], 10, 64); err == nil {
					highestModSeq = n
				}
			}
		}
	}
	return
}

// Fetch issues "FETCH seqSet (attrs)" and returns the raw per-message
// "* N FETCH (...)" text, one entry per message (callers parse the
// attribute list themselves; the grammar for arbitrary FETCH attribute
// sets is intentionally not compiled here per the spec's IMAP scope).
func (c *Connection) Fetch(seqSet, attrs string) ([]string, error) {
	untagged, tagged, err := c.sendCommand(fmt.Sprintf("FETCH %s (%s)", seqSet, attrs))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return nil, &errs.CommandError{Command: "FETCH", Response: tagged.Text}
	}
	var out []string
	for _, u := range untagged {
		if strings.Contains(strings.ToUpper(u.Text), "FETCH") {
			out = append(out, u.Text)
		}
	}
	return out, nil
}

// Store issues "STORE seqSet mode (flags)", mode being one of
// "+FLAGS"/"-FLAGS"/"FLAGS" per section 4.N.
func (c *Connection) Store(seqSet, mode, flags string) error {
	_, tagged, err := c.sendCommand(fmt.Sprintf("STORE %s %s (%s)", seqSet, mode, flags))
	if err != nil {
		return err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return &errs.CommandError{Command: "STORE", Response: tagged.Text}
	}
	return nil
}

// Expunge removes messages flagged \Deleted.
func (c *Connection) Expunge() error {
	_, tagged, err := c.sendCommand("EXPUNGE")
	if err != nil {
		return err
	}
	if !strings.EqualFold(tagged.Status, "OK") {
		return &errs.CommandError{Command: "EXPUNGE", Response: tagged.Text}
	}
	return nil
}

// Append uploads literal as a new message in mailbox (section 4.N).
func (c *Connection) Append(mailbox string, flags string, literal []byte) error {
	tag := c.nextTag()
	head := fmt.Sprintf("%s APPEND %s", tag, quoteString(mailbox))
	if flags != "" {
		head += " (" + flags + ")"
	}
	head += fmt.Sprintf(" {%d}", len(literal))
	if err := c.r.WriteLine(head); err != nil {
		return err
	}
	cont, err := c.readResponseLine()
	if err != nil {
		return err
	}
	if !cont.Continuation {
		return &errs.CommandError{Command: "APPEND", Response: cont.Text}
	}
	if _, err := c.r.Write(literal); err != nil {
		return err
	}
	if _, err := c.r.Write([]byte("\r\n")); err != nil {
		return err
	}
	if err := c.r.Flush(); err != nil {
		return err
	}
	for {
		line, err := c.readResponseLine()
		if err != nil {
			return err
		}
		if line.Tag == tag {
			if !strings.EqualFold(line.Status, "OK") {
				return &errs.CommandError{Command: "APPEND", Response: line.Text}
			}
			return nil
		}
		c.routeUntagged(line)
	}
}

// Logout sends LOGOUT and closes the connection.
func (c *Connection) Logout() error {
	_, _, err := c.sendCommand("LOGOUT")
	c.state = Logout
	_ = c.conn.Close()
	c.state = Closed
	return err
}

// sendCommand writes "<tag> body", collects untagged responses, and
// returns them along with the terminating tagged response.
func (c *Connection) sendCommand(body string) ([]Response, Response, error) {
	if c.state == Closed {
		return nil, Response{}, &errs.NotConnected{}
	}
	tag := c.nextTag()
	if err := c.r.WriteLine(tag + " " + body); err != nil {
		c.state = Closed
		return nil, Response{}, err
	}
	var untagged []Response
	for {
		line, err := c.readResponseLine()
		if err != nil {
			c.state = Closed
			return untagged, Response{}, err
		}
		if line.Tag == tag {
			return untagged, line, nil
		}
		c.routeUntagged(line)
		untagged = append(untagged, line)
	}
}

// routeUntagged dispatches an untagged response to Events, per section
// 4.N's "drive messageCountEvent / messageChangedEvent".
func (c *Connection) routeUntagged(line Response) {
	if !line.Untagged {
		return
	}
	if line.Status != "" {
		c.Events.Publish(EventFolderStatus, line.Code, line.Text)
		return
	}
	if ev, ok := parseMailboxEvent(line.Text); ok {
		switch ev.Verb {
		case "EXISTS", "RECENT":
			c.Events.Publish(EventMessageCount, ev.Num, ev.Verb)
		case "EXPUNGE":
			c.Events.Publish(EventMessageExpunged, ev.Num)
		case "FETCH":
			c.Events.Publish(EventMessageChanged, ev.Num, line.Text)
		}
	}
}

// readResponseLine reads one line and resolves any trailing "{n}" literal
// syntax by reading exactly n bytes and splicing them back in (section
// 4.N "streaming parser consumes literal strings").
func (c *Connection) readResponseLine() (Response, error) {
	line, err := c.r.ReadLine()
	if err != nil {
		return Response{}, err
	}
	for {
		n, ok := trailingLiteralSize(line)
		if !ok {
			break
		}
		data, err := c.r.ReadFull(n)
		if err != nil {
			return Response{}, err
		}
		rest, err := c.r.ReadLine()
		if err != nil {
			return Response{}, err
		}
		line = line[:len(line)-literalTagLen(line)] + string(data) + rest
	}
	return parseResponseLine(line), nil
}

// trailingLiteralSize reports the byte count declared by a trailing
// "{n}" or "{n+}" on line, if present.
func trailingLiteralSize(line string) (int, bool) {
	if !strings.HasSuffix(line, "}") {
		return 0, false
	}
	open := strings.LastIndexByte(line, '{')
	if open < 0 {
		return 0, false
	}
	digits := strings.TrimSuffix(line[open+1:], "}")
	digits = strings.TrimSuffix(digits, "+")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func literalTagLen(line string) int {
	open := strings.LastIndexByte(line, '{')
	if open < 0 {
		return 0
	}
	return len(line) - open
}
