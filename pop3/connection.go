// Package pop3 implements the POP3 client connection core (section 4.O):
// the "+OK"/"-ERR" line protocol, multi-line response dot-unstuffing, APOP
// greeting-timestamp authentication, STLS upgrade, and SASL AUTH.
package pop3

import (
	"crypto/md5"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
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

// State mirrors RFC 1939's Authorization -> Transaction -> Update -> Closed
// progression (section "State machines summary").
type State int

const (
	Authorization State = iota
	Transaction
	Update
	Closed
)

// Connection drives one POP3 client session. Not safe for concurrent use.
type Connection struct {
	svc *config.Service
	log log.Logger

	conn      net.Conn
	r         *response.Reader
	state     State
	timestamp string // the greeting's "<...>" token, used by APOP
	caps      map[string][]string
}

func New(svc *config.Service, logger log.Logger) *Connection {
	return &Connection{svc: svc, log: logger, state: Closed}
}

// Connect dials, reads the greeting (extracting the APOP timestamp token if
// present), upgrades to TLS if required, and authenticates.
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

	line, err := c.r.ReadLine()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "+OK") {
		_ = conn.Close()
		return &errs.ConnectionGreetingError{Banner: line}
	}
	c.timestamp = extractTimestamp(line)
	c.state = Authorization

	c.refreshCapabilities()

	if !c.svc.ConnectionTLS && c.svc.ConnectionTLSRequired {
		if err := c.StartTLS(); err != nil {
			return err
		}
	}

	if c.svc.OptionsNeedAuth {
		if err := c.authenticate(); err != nil {
			return err
		}
	}
	return nil
}

func extractTimestamp(greeting string) string {
	start := strings.IndexByte(greeting, '<')
	end := strings.IndexByte(greeting, '>')
	if start < 0 || end < start {
		return ""
	}
	return greeting[start : end+1]
}

// refreshCapabilities issues CAPA; a server without it simply fails the
// command, which is not itself fatal (CAPA is RFC 2449, optional).
func (c *Connection) refreshCapabilities() {
	lines, err := c.multiline("CAPA")
	if err != nil {
		c.caps = map[string][]string{}
		return
	}
	caps := make(map[string][]string, len(lines))
	for _, l := range lines {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}
		caps[strings.ToUpper(fields[0])] = fields[1:]
	}
	c.caps = caps
}

// StartTLS issues STLS and upgrades the socket (RFC 2595).
func (c *Connection) StartTLS() error {
	if err := c.simple("STLS"); err != nil {
		return err
	}
	tlsConn := tls.Client(c.conn, tlsutil.Config(c.svc.ServerAddress, "", nil, nil))
	if err := tlsConn.Handshake(); err != nil {
		c.state = Closed
		return &errs.TlsError{Detail: err.Error()}
	}
	c.conn = tlsConn
	c.r.Reset(tlsConn)
	c.refreshCapabilities()
	return nil
}

func (c *Connection) authenticate() error {
	if c.timestamp != "" {
		if err := c.Apop(c.svc.AuthUsername, c.svc.AuthPassword); err == nil {
			return nil
		} else if !c.svc.OptionsSaslFallback {
			return err
		}
	}
	if mechs, ok := c.caps["SASL"]; ok && c.svc.OptionsSasl {
		if mech, ok := sasl.SuggestMechanism(mechs); ok {
			if err := c.AuthenticateSASL(mech); err == nil {
				return nil
			} else if !c.svc.OptionsSaslFallback {
				return err
			}
		}
	}
	return c.UserPass(c.svc.AuthUsername, c.svc.AuthPassword)
}

// Apop authenticates with "APOP user md5(timestamp+secret)" (RFC 1939 §7).
func (c *Connection) Apop(username, secret string) error {
	if c.timestamp == "" {
		return &errs.OperationNotSupported{Operation: "APOP"}
	}
	sum := md5.Sum([]byte(c.timestamp + secret))
	digest := hex.EncodeToString(sum[:])
	if err := c.simple("APOP " + username + " " + digest); err != nil {
		return err
	}
	c.state = Transaction
	return nil
}

// UserPass authenticates with the plaintext USER/PASS pair.
func (c *Connection) UserPass(username, password string) error {
	if err := c.simple("USER " + username); err != nil {
		return &errs.AuthenticationError{Detail: err.Error()}
	}
	if err := c.simple("PASS " + password); err != nil {
		return &errs.AuthenticationError{Detail: err.Error()}
	}
	c.state = Transaction
	return nil
}

// AuthenticateSASL runs "AUTH <mech>" and its "+"-continuation challenge
// loop (RFC 5034), mirroring the SMTP/IMAP AUTH loops.
func (c *Connection) AuthenticateSASL(mechName string) error {
	mech, err := sasl.New(mechName, sasl.Authenticator{Username: c.svc.AuthUsername, Password: c.svc.AuthPassword})
	if err != nil {
		return err
	}
	cmd := "AUTH " + mechName
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
		line, err := c.r.ReadLine()
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "+OK") {
			c.state = Transaction
			return nil
		}
		if strings.HasPrefix(line, "-ERR") {
			return &errs.AuthenticationError{Detail: line}
		}
		if !strings.HasPrefix(line, "+") {
			return &errs.ParseError{Component: "pop3.AUTH", Reason: "unexpected line: " + line}
		}
		challenge, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, "+ "))
		out, done, err := mech.Step(challenge)
		if err != nil {
			_ = c.r.WriteLine("*")
			return &errs.SaslError{Detail: err.Error()}
		}
		resp := ""
		if !done {
			resp = base64.StdEncoding.EncodeToString(out)
		}
		if err := c.r.WriteLine(resp); err != nil {
			return err
		}
	}
}

// Stat returns the mailbox's (count, totalSizeOctets) via STAT.
func (c *Connection) Stat() (count, size int, err error) {
	line, err := c.command("STAT")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, &errs.ParseError{Component: "pop3.STAT", Reason: "malformed response"}
	}
	count, _ = strconv.Atoi(fields[1])
	size, _ = strconv.Atoi(fields[2])
	return count, size, nil
}

// ListEntry is one "n size" (or "n uidl") scan-listing line.
type ListEntry struct {
	Num   int
	Value string
}

// List issues LIST (no argument: every message's size).
func (c *Connection) List() ([]ListEntry, error) {
	return c.scanListing("LIST")
}

// Uidl issues UIDL (no argument: every message's persistent unique ID).
func (c *Connection) Uidl() ([]ListEntry, error) {
	return c.scanListing("UIDL")
}

func (c *Connection) scanListing(cmd string) ([]ListEntry, error) {
	lines, err := c.multiline(cmd)
	if err != nil {
		return nil, err
	}
	out := make([]ListEntry, 0, len(lines))
	for _, l := range lines {
		fields := strings.Fields(l)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		out = append(out, ListEntry{Num: n, Value: fields[1]})
	}
	return out, nil
}

// Retr downloads message n in full.
func (c *Connection) Retr(n int) ([]byte, error) {
	lines, err := c.multiline(fmt.Sprintf("RETR %d", n))
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n"), nil
}

// Top downloads message n's headers plus the first nLines of the body.
func (c *Connection) Top(n, nLines int) ([]byte, error) {
	lines, err := c.multiline(fmt.Sprintf("TOP %d %d", n, nLines))
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n"), nil
}

// Dele marks message n for deletion (applied on a successful QUIT).
func (c *Connection) Dele(n int) error {
	return c.simple(fmt.Sprintf("DELE %d", n))
}

// Rset unmarks every message flagged for deletion this session.
func (c *Connection) Rset() error {
	return c.simple("RSET")
}

// Quit sends QUIT (on which the server applies queued deletions) and closes
// the connection; the client state goes straight to Closed.
func (c *Connection) Quit() error {
	err := c.simple("QUIT")
	c.state = Closed
	_ = c.conn.Close()
	return err
}

// simple issues cmd and expects a single "+OK"/"-ERR" line.
func (c *Connection) simple(cmd string) error {
	_, err := c.command(cmd)
	return err
}

// command issues cmd and returns the whole "+OK ..." status line; a "-ERR"
// reply becomes a *errs.CommandError carrying that line.
func (c *Connection) command(cmd string) (string, error) {
	if c.state == Closed {
		return "", &errs.NotConnected{}
	}
	if err := c.r.WriteLine(cmd); err != nil {
		c.state = Closed
		return "", err
	}
	line, err := c.r.ReadLine()
	if err != nil {
		c.state = Closed
		return "", err
	}
	if strings.HasPrefix(line, "+OK") {
		return line, nil
	}
	if strings.HasPrefix(line, "-ERR") {
		return "", &errs.CommandError{Command: cmd, Response: line}
	}
	return "", &errs.ParseError{Component: "pop3.Response", Reason: "line has no +OK/-ERR prefix"}
}

// multiline issues cmd and reads a dot-terminated body, undoing byte
// stuffing (a leading ".." on a line becomes a leading ".").
func (c *Connection) multiline(cmd string) ([]string, error) {
	if _, err := c.command(cmd); err != nil {
		return nil, err
	}
	var lines []string
	for {
		line, err := c.r.ReadLine()
		if err != nil {
			c.state = Closed
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		lines = append(lines, line)
	}
}
